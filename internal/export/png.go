// Package export turns a rendered surface into files and shareable payloads.
package export

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
)

const (
	// FileName is the name every PNG export is saved under.
	FileName = "drawing.png"
	// PDFFileName is the name of the PDF export.
	PDFFileName = "drawing.pdf"

	dataURIPrefix = "data:image/png;base64,"
)

var ErrBadDataURI = errors.New("malformed image payload")

func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// DataURI serializes img as a base64 PNG data URI.
func DataURI(img image.Image) (string, error) {
	data, err := EncodePNG(img)
	if err != nil {
		return "", err
	}
	return dataURIPrefix + base64.StdEncoding.EncodeToString(data), nil
}

// DecodeDataURI returns the MIME type and bytes of a base64 data URI. A bare
// base64 string is accepted and assumed to be PNG.
func DecodeDataURI(s string) (mimeType string, data []byte, err error) {
	s = strings.TrimSpace(s)
	mimeType = "image/png"
	if rest, ok := strings.CutPrefix(s, "data:"); ok {
		meta, payload, found := strings.Cut(rest, ",")
		if !found {
			return "", nil, fmt.Errorf("%w: missing comma", ErrBadDataURI)
		}
		mt, isBase64 := strings.CutSuffix(meta, ";base64")
		if !isBase64 {
			return "", nil, fmt.Errorf("%w: not base64", ErrBadDataURI)
		}
		if mt != "" {
			mimeType = mt
		}
		s = payload
	}
	if s == "" {
		return "", nil, fmt.Errorf("%w: empty", ErrBadDataURI)
	}
	data, err = base64.StdEncoding.DecodeString(s)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrBadDataURI, err)
	}
	return mimeType, data, nil
}

// SaveImage writes img to dir/drawing.png, replacing any earlier export, and
// returns the written path.
func SaveImage(dir string, img image.Image) (string, error) {
	data, err := EncodePNG(img)
	if err != nil {
		return "", err
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
