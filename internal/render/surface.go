package render

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/srwiley/rasterx"
	"golang.org/x/image/math/fixed"

	"MangaSketch/internal/state"
)

const (
	DefaultWidth  = 800
	DefaultHeight = 600
)

var fallbackColor = color.NRGBA{A: 0xff}

// Surface renders a stroke list into a transparent RGBA image. Every Redraw
// starts from scratch; there is no incremental update.
type Surface struct {
	img     *image.RGBA
	maskBuf []uint8
	scanner *rasterx.ScannerGV
	stroker *rasterx.Stroker
}

func NewSurface(width, height int) *Surface {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	bounds := image.Rect(0, 0, width, height)
	scanner := rasterx.NewScannerGV(width, height, image.NewAlpha(bounds), bounds)
	scanner.SetColor(color.Opaque)
	return &Surface{
		img:     image.NewRGBA(bounds),
		maskBuf: make([]uint8, width*height),
		scanner: scanner,
		stroker: rasterx.NewStroker(width, height, scanner),
	}
}

// Render draws strokes onto a fresh surface of the given size.
func Render(width, height int, strokes []state.Stroke) *image.RGBA {
	s := NewSurface(width, height)
	s.Redraw(strokes)
	return s.Image()
}

func (s *Surface) Bounds() image.Rectangle { return s.img.Bounds() }

// Image returns the surface buffer. It is overwritten by the next Redraw.
func (s *Surface) Image() *image.RGBA { return s.img }

// Snapshot returns a copy of the current frame.
func (s *Surface) Snapshot() *image.RGBA {
	cp := image.NewRGBA(s.img.Bounds())
	copy(cp.Pix, s.img.Pix)
	return cp
}

// Redraw clears the surface and paints strokes in order.
func (s *Surface) Redraw(strokes []state.Stroke) {
	clear(s.img.Pix)
	for _, st := range strokes {
		s.paint(st)
	}
}

func (s *Surface) paint(st state.Stroke) {
	if !(st.Width > 0) {
		return
	}
	pts := finitePoints(st.Points)
	if len(pts) == 0 {
		return
	}
	r := st.Width / 2
	curves := spline(pts, Tension)

	area := strokeArea(curves, r, s.img.Bounds())
	if area.Empty() {
		return
	}
	mask := s.coverage(area, r, curves)

	if st.Tool == state.ToolEraser {
		destinationOut(s.img, mask, area)
		return
	}
	c, err := ParseColor(st.Color)
	if err != nil {
		c = fallbackColor
	}
	draw.DrawMask(s.img, area, image.NewUniform(c), image.Point{}, mask, area.Min, draw.Over)
}

// coverage strokes curves with round caps and joins and returns the
// coverage mask for area.
func (s *Surface) coverage(area image.Rectangle, r float64, curves []cubic) *image.Alpha {
	n := area.Dx() * area.Dy()
	mask := &image.Alpha{Pix: s.maskBuf[:n], Stride: area.Dx(), Rect: area}
	clear(mask.Pix)

	s.scanner.Dest = mask
	s.stroker.SetBounds(area.Dx(), area.Dy())
	s.stroker.SetStroke(fixed.Int26_6(2*r*64), 4<<6, rasterx.RoundCap, nil, rasterx.RoundGap, rasterx.Round)

	w := newPathWriter(s.stroker, area, r)
	for _, c := range curves {
		w.add(c)
	}
	w.stop()
	s.stroker.Draw()
	return mask
}

// destinationOut removes mask coverage from dst inside area. Unlike painting
// a background-colored line it leaves transparent pixels behind.
func destinationOut(dst *image.RGBA, mask *image.Alpha, area image.Rectangle) {
	for y := area.Min.Y; y < area.Max.Y; y++ {
		mi := mask.PixOffset(area.Min.X, y)
		di := dst.PixOffset(area.Min.X, y)
		for x := area.Min.X; x < area.Max.X; x++ {
			if ma := uint32(mask.Pix[mi]); ma != 0 {
				k := 255 - ma
				for c := 0; c < 4; c++ {
					dst.Pix[di+c] = uint8((uint32(dst.Pix[di+c])*k + 127) / 255)
				}
			}
			mi++
			di += 4
		}
	}
}

// Flatten composites img over an opaque background.
func Flatten(img image.Image, bg color.Color) *image.RGBA {
	out := image.NewRGBA(img.Bounds())
	draw.Draw(out, out.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Over)
	return out
}
