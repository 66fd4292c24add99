package render

import (
	"fmt"
	"image/color"
	"strconv"

	"MangaSketch/internal/state"
)

// ParseColor converts a hex color string into an NRGBA value.
func ParseColor(s string) (color.NRGBA, error) {
	norm, err := state.NormalizeColor(s)
	if err != nil {
		return color.NRGBA{}, err
	}
	v, err := strconv.ParseUint(norm[1:], 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("parse color %q: %w", s, err)
	}
	if len(norm) == 7 {
		return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// HexColor formats any color as #rrggbb, dropping alpha.
func HexColor(c color.Color) string {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return fmt.Sprintf("#%02x%02x%02x", n.R, n.G, n.B)
}
