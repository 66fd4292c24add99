package render

import (
	"image"
	"math"

	"github.com/srwiley/rasterx"
	"golang.org/x/image/math/fixed"

	"MangaSketch/internal/state"
)

const (
	// Pieces are subdivided until their hull lies within this many pixels
	// of the visible area. Coordinates further out overflow the fixed point
	// math of the rasterizer.
	safeMargin = 1024
	// maxSplits bounds subdivision; halving a float64 extent down to
	// safeMargin never needs more.
	maxSplits = 1100
)

// box is a float rectangle. An empty box has Min > Max.
type box struct {
	MinX, MinY, MaxX, MaxY float64
}

func emptyBox() box {
	return box{math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)}
}

func rectBox(r image.Rectangle) box {
	return box{float64(r.Min.X), float64(r.Min.Y), float64(r.Max.X), float64(r.Max.Y)}
}

func (b box) add(p state.Point) box {
	return box{math.Min(b.MinX, p.X), math.Min(b.MinY, p.Y), math.Max(b.MaxX, p.X), math.Max(b.MaxY, p.Y)}
}

func (b box) union(o box) box {
	return box{math.Min(b.MinX, o.MinX), math.Min(b.MinY, o.MinY), math.Max(b.MaxX, o.MaxX), math.Max(b.MaxY, o.MaxY)}
}

func (b box) grow(d float64) box {
	return box{b.MinX - d, b.MinY - d, b.MaxX + d, b.MaxY + d}
}

func (b box) intersect(o box) box {
	return box{math.Max(b.MinX, o.MinX), math.Max(b.MinY, o.MinY), math.Min(b.MaxX, o.MaxX), math.Min(b.MaxY, o.MaxY)}
}

func (b box) empty() bool { return !(b.MinX <= b.MaxX && b.MinY <= b.MaxY) }

func (b box) overlaps(o box) bool { return !b.intersect(o).empty() }

func (b box) contains(o box) bool {
	return o.MinX >= b.MinX && o.MinY >= b.MinY && o.MaxX <= b.MaxX && o.MaxY <= b.MaxY
}

// strokeArea is the part of bounds a stroke of half-width r along curves
// can touch.
func strokeArea(curves []cubic, r float64, bounds image.Rectangle) image.Rectangle {
	hull := emptyBox()
	for _, c := range curves {
		hull = hull.union(c.hull())
	}
	b := hull.grow(r + 1).intersect(rectBox(bounds))
	if b.empty() {
		return image.Rectangle{}
	}
	return image.Rect(
		int(math.Floor(b.MinX)), int(math.Floor(b.MinY)),
		int(math.Ceil(b.MaxX)), int(math.Ceil(b.MaxY)),
	).Intersect(bounds)
}

// pathWriter feeds stroke pieces to a rasterx stroker, translated by -off.
// Pieces that cannot reach the visible box are dropped and the path is
// restarted after them; the caps this adds fall outside visible.
type pathWriter struct {
	s       *rasterx.Stroker
	off     image.Point
	visible box
	safe    box

	open bool
	pen  state.Point
}

func newPathWriter(s *rasterx.Stroker, area image.Rectangle, r float64) *pathWriter {
	visible := rectBox(area).grow(r + 2)
	return &pathWriter{s: s, off: area.Min, visible: visible, safe: visible.grow(safeMargin)}
}

func (w *pathWriter) pt(p state.Point) fixed.Point26_6 {
	return rasterx.ToFixedP(p.X-float64(w.off.X), p.Y-float64(w.off.Y))
}

func (w *pathWriter) add(c cubic) { w.addPiece(c, 0) }

func (w *pathWriter) addPiece(c cubic, depth int) {
	hull := c.hull()
	switch {
	case !hull.overlaps(w.visible):
		w.stop()
	case w.safe.contains(hull):
		w.emit(c)
	case depth >= maxSplits:
		w.stop()
	default:
		a, b := c.split()
		w.addPiece(a, depth+1)
		w.addPiece(b, depth+1)
	}
}

func (w *pathWriter) emit(c cubic) {
	if !w.open || w.pen != c.P0 {
		w.stop()
		w.s.Start(w.pt(c.P0))
		w.open = true
	}
	w.s.CubeBezier(w.pt(c.P1), w.pt(c.P2), w.pt(c.P3))
	w.pen = c.P3
}

// stop ends the current path with round caps.
func (w *pathWriter) stop() {
	if w.open {
		w.s.Stop(false)
		w.open = false
	}
}
