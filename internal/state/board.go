package state

import "slices"

// Board is the stroke model of one view. It holds the ordered strokes and
// the capture target. It is not safe for concurrent use; a view mutates it
// from a single goroutine only.
//
// None of the operations fail. Calls that make no sense in the current
// state (extending with nothing open, ending twice) are no-ops.
type Board struct {
	strokes   []Stroke
	capturing bool
}

func NewBoard() *Board {
	return &Board{strokes: make([]Stroke, 0)}
}

// BeginStroke appends a new stroke seeded with p and a snapshot of s.
// The new stroke becomes the only capture target.
func (b *Board) BeginStroke(p Point, s Settings) {
	b.strokes = append(b.strokes, Stroke{
		ID:     nextStrokeID(),
		Tool:   s.Tool,
		Points: []Point{p},
		Color:  s.strokeColor(),
		Width:  s.Width,
	})
	b.capturing = true
}

// ExtendStroke appends p to the last stroke while capturing.
func (b *Board) ExtendStroke(p Point) {
	if !b.capturing || len(b.strokes) == 0 {
		return
	}
	last := len(b.strokes) - 1
	b.strokes[last].Points = append(b.strokes[last].Points, p)
}

// EndStroke freezes the open stroke.
func (b *Board) EndStroke() {
	b.capturing = false
}

// Clear drops every stroke. It cannot be undone.
func (b *Board) Clear() {
	b.strokes = b.strokes[:0:0]
	b.capturing = false
}

// Strokes returns the strokes in render order. The slice is a copy, but
// point slices are shared and must be treated as read-only.
func (b *Board) Strokes() []Stroke {
	return slices.Clone(b.strokes)
}

func (b *Board) Len() int { return len(b.strokes) }

func (b *Board) Capturing() bool { return b.capturing }

// Last returns the most recent stroke, if any.
func (b *Board) Last() (Stroke, bool) {
	if len(b.strokes) == 0 {
		return Stroke{}, false
	}
	return b.strokes[len(b.strokes)-1], true
}
