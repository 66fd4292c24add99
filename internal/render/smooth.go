package render

import (
	"math"

	"MangaSketch/internal/state"
)

// Tension of the cardinal spline drawn through stroke points.
const Tension = 0.5

// cubic is one Bezier piece of a stroke path, from P0 to P3.
type cubic struct {
	P0, P1, P2, P3 state.Point
}

func line(a, b state.Point) cubic { return cubic{a, a, b, b} }

// quad raises the quadratic a, q, b to a cubic.
func quad(a, q, b state.Point) cubic {
	return cubic{
		a,
		state.Pt(a.X+2*(q.X-a.X)/3, a.Y+2*(q.Y-a.Y)/3),
		state.Pt(b.X+2*(q.X-b.X)/3, b.Y+2*(q.Y-b.Y)/3),
		b,
	}
}

func (c cubic) finite() bool {
	for _, p := range [4]state.Point{c.P0, c.P1, c.P2, c.P3} {
		if !finite(p) {
			return false
		}
	}
	return true
}

// split cuts c in half with de Casteljau's construction.
func (c cubic) split() (cubic, cubic) {
	mid := func(a, b state.Point) state.Point { return state.Pt(a.X/2+b.X/2, a.Y/2+b.Y/2) }
	p01, p12, p23 := mid(c.P0, c.P1), mid(c.P1, c.P2), mid(c.P2, c.P3)
	p012, p123 := mid(p01, p12), mid(p12, p23)
	m := mid(p012, p123)
	return cubic{c.P0, p01, p012, m}, cubic{m, p123, p23, c.P3}
}

// hull is the bounding box of the control points, which contains the curve.
func (c cubic) hull() box {
	b := emptyBox()
	for _, p := range [4]state.Point{c.P0, c.P1, c.P2, c.P3} {
		b = b.add(p)
	}
	return b
}

// controlPoints returns the two Bezier handles around p1 for a cardinal
// spline through p0, p1, p2.
func controlPoints(p0, p1, p2 state.Point, t float64) (state.Point, state.Point) {
	d01 := math.Hypot(p1.X-p0.X, p1.Y-p0.Y)
	d12 := math.Hypot(p2.X-p1.X, p2.Y-p1.Y)
	var fa, fb float64
	if sum := d01 + d12; sum > 0 {
		fa = t * d01 / sum
		fb = t * d12 / sum
	}
	dx, dy := p2.X-p0.X, p2.Y-p0.Y
	return state.Pt(p1.X-fa*dx, p1.Y-fa*dy), state.Pt(p1.X+fb*dx, p1.Y+fb*dy)
}

// spline returns the Bezier pieces of the curve through pts: a quadratic
// into the second point, cubics between interior points and a quadratic
// out to the last one. Two points, or a zero tension, give straight lines.
// A single point gives one zero-length piece.
func spline(pts []state.Point, tension float64) []cubic {
	n := len(pts)
	switch {
	case n == 0:
		return nil
	case n == 1:
		return []cubic{line(pts[0], pts[0])}
	case n == 2 || tension == 0:
		out := make([]cubic, 0, n-1)
		for i := 1; i < n; i++ {
			out = append(out, line(pts[i-1], pts[i]))
		}
		return out
	}

	handles := make([][2]state.Point, n)
	for i := 1; i < n-1; i++ {
		a, b := controlPoints(pts[i-1], pts[i], pts[i+1], tension)
		handles[i] = [2]state.Point{a, b}
	}

	out := make([]cubic, 0, n-1)
	out = append(out, quad(pts[0], handles[1][0], pts[1]))
	for i := 1; i < n-2; i++ {
		out = append(out, cubic{pts[i], handles[i][1], handles[i+1][0], pts[i+1]})
	}
	out = append(out, quad(pts[n-2], handles[n-2][1], pts[n-1]))

	// Handles overflow only for points near the float64 limit; such
	// pieces are drawn as chords.
	for i, c := range out {
		if !c.finite() {
			out[i] = line(c.P0, c.P3)
		}
	}
	return out
}

func finite(p state.Point) bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// finitePoints drops points with a NaN or infinite coordinate.
func finitePoints(pts []state.Point) []state.Point {
	for i, p := range pts {
		if finite(p) {
			continue
		}
		out := append([]state.Point(nil), pts[:i]...)
		for _, q := range pts[i+1:] {
			if finite(q) {
				out = append(out, q)
			}
		}
		return out
	}
	return pts
}
