package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestControllerStateMachine(t *testing.T) {
	changes := 0
	c := NewController(nil)
	c.OnChange = func() { changes++ }

	c.PointerMove(Pt(1, 1))
	assert.Equal(t, Idle, c.Phase())
	assert.Equal(t, 0, c.Board().Len())
	assert.Equal(t, 0, changes)

	c.PointerDown(Pt(0, 0))
	assert.Equal(t, Capturing, c.Phase())
	for i := 1; i <= 25; i++ {
		c.PointerMove(Pt(float64(i), 0))
	}
	c.PointerUp()
	assert.Equal(t, Idle, c.Phase())

	last, ok := c.Board().Last()
	require.True(t, ok)
	assert.Len(t, last.Points, 26, "every move while capturing appends a point")
	assert.Equal(t, 27, changes)

	c.PointerUp()
	assert.Equal(t, 27, changes, "up while idle is ignored")
}

func TestControllerLeaveEndsStroke(t *testing.T) {
	c := NewController(nil)
	c.PointerDown(Pt(0, 0))
	c.PointerLeave()
	c.PointerMove(Pt(5, 5))

	last, _ := c.Board().Last()
	assert.Len(t, last.Points, 1)
	assert.Equal(t, Idle, c.Phase())
}

func TestEraserForcesEraseColor(t *testing.T) {
	c := NewController(nil)
	require.NoError(t, c.SetColor("#ff0000"))
	require.NoError(t, c.SetTool(ToolEraser))

	c.PointerDown(Pt(0, 0))
	c.PointerUp()

	last, _ := c.Board().Last()
	assert.Equal(t, ToolEraser, last.Tool)
	assert.Equal(t, EraseColor, last.Color)
	assert.Equal(t, "#ff0000", c.Settings().Color, "selected paint color is kept")
}

func TestSettingsOnlyAffectNextStroke(t *testing.T) {
	c := NewController(nil)
	require.NoError(t, c.SetColor("#112233"))
	require.NoError(t, c.SetWidth(3))
	c.PointerDown(Pt(0, 0))

	require.NoError(t, c.SetColor("#abcdef"))
	require.NoError(t, c.SetWidth(9))
	c.PointerMove(Pt(1, 1))
	c.PointerUp()

	c.PointerDown(Pt(2, 2))
	c.PointerUp()

	strokes := c.Board().Strokes()
	require.Len(t, strokes, 2)
	assert.Equal(t, "#112233", strokes[0].Color)
	assert.Equal(t, 3.0, strokes[0].Width)
	assert.Equal(t, "#abcdef", strokes[1].Color)
	assert.Equal(t, 9.0, strokes[1].Width)
}

func TestControllerSetterValidation(t *testing.T) {
	c := NewController(nil, WithMaxWidth(10))

	assert.ErrorIs(t, c.SetWidth(0), ErrInvalidWidth)
	assert.ErrorIs(t, c.SetWidth(-2), ErrInvalidWidth)
	assert.ErrorIs(t, c.SetColor("red"), ErrInvalidColor)
	assert.ErrorIs(t, c.SetTool("pencil"), ErrUnknownTool)
	assert.Equal(t, DefaultSettings(), c.Settings())

	require.NoError(t, c.SetWidth(50))
	assert.Equal(t, 10.0, c.Settings().Width)

	assert.Equal(t, ToolEraser, c.ToggleTool())
	assert.Equal(t, ToolBrush, c.ToggleTool())
}

func TestControllerClear(t *testing.T) {
	c := NewController(nil)
	c.PointerDown(Pt(0, 0))
	c.PointerMove(Pt(4, 4))
	c.Clear()

	assert.Equal(t, 0, c.Board().Len())
	assert.Equal(t, Idle, c.Phase())

	c.PointerMove(Pt(8, 8))
	assert.Equal(t, 0, c.Board().Len())
}
