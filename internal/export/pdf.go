package export

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf"

	"MangaSketch/internal/render"
)

const pageMargin = 10.0

// WritePDF writes an A4 landscape page with img fitted inside the margins.
// Erased regions cannot be expressed as vector paths, so the page embeds
// the raster flattened onto white.
func WritePDF(w io.Writer, img image.Image) error {
	data, err := EncodePNG(render.Flatten(img, color.White))
	if err != nil {
		return err
	}

	p := gofpdf.New("L", "mm", "A4", "")
	p.SetTitle("MangaSketch", false)
	p.SetCreator("MangaSketch", false)
	p.AddPage()

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	p.RegisterImageOptionsReader("sketch", opts, bytes.NewReader(data))

	pageW, pageH := p.GetPageSize()
	boxW, boxH := pageW-2*pageMargin, pageH-2*pageMargin-8
	b := img.Bounds()
	scale := min(boxW/float64(b.Dx()), boxH/float64(b.Dy()))
	w2, h2 := float64(b.Dx())*scale, float64(b.Dy())*scale
	x := (pageW - w2) / 2
	y := pageMargin + 8

	p.SetFont("Helvetica", "", 9)
	p.Text(pageMargin, pageMargin+3, "MangaSketch - "+time.Now().Format("2006-01-02 15:04"))
	p.ImageOptions("sketch", x, y, w2, h2, false, opts, 0, "")

	if err := p.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// SavePDF writes the PDF export to dir/drawing.pdf and returns the path.
func SavePDF(dir string, img image.Image) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, PDFFileName)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	if err := WritePDF(f, img); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}
