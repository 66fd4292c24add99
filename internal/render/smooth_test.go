package render

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MangaSketch/internal/state"
)

func TestSplinePassesThroughEveryPoint(t *testing.T) {
	pts := []state.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 30, Y: 5}, {X: 40, Y: 40}}
	curves := spline(pts, Tension)
	require.Len(t, curves, len(pts)-1)

	for i, c := range curves {
		assert.Equal(t, pts[i], c.P0)
		assert.Equal(t, pts[i+1], c.P3)
	}
}

func TestSplineMatchesCardinalHandles(t *testing.T) {
	pts := []state.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 20, Y: 10}, {X: 30, Y: 10}}
	curves := spline(pts, Tension)
	require.Len(t, curves, 3)

	_, out1 := controlPoints(pts[0], pts[1], pts[2], Tension)
	in2, _ := controlPoints(pts[1], pts[2], pts[3], Tension)
	assert.Equal(t, cubic{pts[1], out1, in2, pts[2]}, curves[1])
}

func TestSplineShortInputsAreLines(t *testing.T) {
	assert.Nil(t, spline(nil, Tension))
	assert.Equal(t, []cubic{line(state.Pt(5, 5), state.Pt(5, 5))}, spline([]state.Point{{X: 5, Y: 5}}, Tension))

	two := []state.Point{{X: 0, Y: 0}, {X: 5, Y: 5}}
	assert.Equal(t, []cubic{line(two[0], two[1])}, spline(two, Tension))

	three := []state.Point{{X: 0, Y: 0}, {X: 5, Y: 5}, {X: 10, Y: 0}}
	assert.Equal(t, []cubic{line(three[0], three[1]), line(three[1], three[2])}, spline(three, 0))
}

func TestSplineRepeatedPoints(t *testing.T) {
	pts := []state.Point{{X: 3, Y: 3}, {X: 3, Y: 3}, {X: 3, Y: 3}}
	for _, c := range spline(pts, Tension) {
		assert.Equal(t, line(state.Pt(3, 3), state.Pt(3, 3)), c)
	}
}

func TestSplineOverflowFallsBackToChord(t *testing.T) {
	pts := []state.Point{{X: -math.MaxFloat64, Y: 0}, {X: 0, Y: 0}, {X: math.MaxFloat64, Y: 1}}
	for _, c := range spline(pts, Tension) {
		assert.True(t, c.finite())
	}
}

func TestCubicSplitKeepsEnds(t *testing.T) {
	c := cubic{state.Pt(0, 0), state.Pt(0, 10), state.Pt(10, 10), state.Pt(10, 0)}
	a, b := c.split()
	assert.Equal(t, c.P0, a.P0)
	assert.Equal(t, a.P3, b.P0)
	assert.Equal(t, c.P3, b.P3)
	assert.Equal(t, state.Pt(5, 7.5), a.P3)
}

func TestFinitePoints(t *testing.T) {
	pts := []state.Point{{X: 1, Y: 1}, {X: math.NaN(), Y: 2}, {X: 3, Y: math.Inf(1)}, {X: 4, Y: 4}}
	assert.Equal(t, []state.Point{{X: 1, Y: 1}, {X: 4, Y: 4}}, finitePoints(pts))

	clean := []state.Point{{X: 1, Y: 1}, {X: 2, Y: 2}}
	assert.Equal(t, clean, finitePoints(clean))
}
