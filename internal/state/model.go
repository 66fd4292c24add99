package state

import (
	"errors"
	"fmt"
	"strings"
)

// Tool selects how a stroke composites onto the surface.
type Tool string

const (
	ToolBrush  Tool = "brush"
	ToolEraser Tool = "eraser"
)

// EraseColor is recorded on eraser strokes. Rendering ignores it and erases
// through to transparency instead.
const EraseColor = "#ffffff"

const (
	DefaultColor = "#000000"
	DefaultWidth = 5.0
)

var (
	ErrUnknownTool  = errors.New("unknown tool")
	ErrInvalidColor = errors.New("invalid color")
	ErrInvalidWidth = errors.New("stroke width must be positive")
)

func (t Tool) Valid() bool {
	return t == ToolBrush || t == ToolEraser
}

func ParseTool(s string) (Tool, error) {
	t := Tool(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownTool, s)
	}
	return t, nil
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Stroke is one continuous pointer drag.
type Stroke struct {
	ID     string  `json:"id"`
	Tool   Tool    `json:"tool"`
	Points []Point `json:"points"`
	Color  string  `json:"color"`
	Width  float64 `json:"strokeWidth"`
}

// Settings are the current tool settings applied to the next stroke.
type Settings struct {
	Tool  Tool
	Color string
	Width float64
}

func DefaultSettings() Settings {
	return Settings{Tool: ToolBrush, Color: DefaultColor, Width: DefaultWidth}
}

// strokeColor is the color recorded on a stroke begun with these settings.
func (s Settings) strokeColor() string {
	if s.Tool == ToolEraser {
		return EraseColor
	}
	return s.Color
}

// NormalizeColor accepts #rgb, #rrggbb and #rrggbbaa (with or without the
// leading '#') and returns the lowercase '#'-prefixed form.
func NormalizeColor(s string) (string, error) {
	h := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "#"))
	switch len(h) {
	case 3, 6, 8:
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	for _, c := range h {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return "", fmt.Errorf("%w: %q", ErrInvalidColor, s)
		}
	}
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	return "#" + h, nil
}
