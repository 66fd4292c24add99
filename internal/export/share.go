package export

import (
	"errors"
	"image"
)

var ErrNoClipboard = errors.New("clipboard unavailable")

// Clipboard receives plain text. fyne's clipboard satisfies it directly.
type Clipboard interface {
	SetContent(content string)
}

// Share copies the PNG data URI of img to cb and returns the payload.
func Share(cb Clipboard, img image.Image) (string, error) {
	if cb == nil {
		return "", ErrNoClipboard
	}
	uri, err := DataURI(img)
	if err != nil {
		return "", err
	}
	cb.SetContent(uri)
	return uri, nil
}
