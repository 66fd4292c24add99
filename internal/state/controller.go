package state

import "fmt"

// Phase is the capture state of a Controller.
type Phase int

const (
	Idle Phase = iota
	Capturing
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Capturing:
		return "capturing"
	default:
		return "unknown"
	}
}

// MaxWidth bounds SetWidth when a Controller is built without a limit.
const MaxWidth = 20.0

// Controller maps pointer events and tool changes onto a Board.
//
//	Idle      --down-->  Capturing   (BeginStroke)
//	Capturing --move-->  Capturing   (ExtendStroke)
//	Capturing --up/leave--> Idle     (EndStroke)
//
// Moves while Idle are dropped. OnChange runs after every board mutation so
// the owner can redraw.
type Controller struct {
	board    *Board
	settings Settings
	phase    Phase
	maxWidth float64

	OnChange func()
}

type ControllerOption func(*Controller)

// WithSettings sets the initial tool settings.
func WithSettings(s Settings) ControllerOption {
	return func(c *Controller) { c.settings = s }
}

// WithMaxWidth caps the stroke width accepted by SetWidth.
func WithMaxWidth(w float64) ControllerOption {
	return func(c *Controller) {
		if w > 0 {
			c.maxWidth = w
		}
	}
}

func NewController(board *Board, opts ...ControllerOption) *Controller {
	if board == nil {
		board = NewBoard()
	}
	c := &Controller{
		board:    board,
		settings: DefaultSettings(),
		maxWidth: MaxWidth,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) Board() *Board { return c.board }

func (c *Controller) Phase() Phase { return c.phase }

func (c *Controller) Settings() Settings { return c.settings }

func (c *Controller) PointerDown(p Point) {
	c.phase = Capturing
	c.board.BeginStroke(p, c.settings)
	c.changed()
}

func (c *Controller) PointerMove(p Point) {
	if c.phase != Capturing {
		return
	}
	c.board.ExtendStroke(p)
	c.changed()
}

func (c *Controller) PointerUp() {
	if c.phase != Capturing {
		return
	}
	c.board.EndStroke()
	c.phase = Idle
	c.changed()
}

// PointerLeave ends the stroke when the pointer leaves the surface.
func (c *Controller) PointerLeave() { c.PointerUp() }

func (c *Controller) Clear() {
	c.board.Clear()
	c.phase = Idle
	c.changed()
}

func (c *Controller) SetTool(t Tool) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownTool, t)
	}
	c.settings.Tool = t
	return nil
}

// ToggleTool flips between brush and eraser and returns the new tool.
func (c *Controller) ToggleTool() Tool {
	if c.settings.Tool == ToolEraser {
		c.settings.Tool = ToolBrush
	} else {
		c.settings.Tool = ToolEraser
	}
	return c.settings.Tool
}

func (c *Controller) SetColor(color string) error {
	norm, err := NormalizeColor(color)
	if err != nil {
		return err
	}
	c.settings.Color = norm
	return nil
}

func (c *Controller) SetWidth(w float64) error {
	if !(w > 0) {
		return fmt.Errorf("%w: %v", ErrInvalidWidth, w)
	}
	c.settings.Width = min(w, c.maxWidth)
	return nil
}

func (c *Controller) changed() {
	if c.OnChange != nil {
		c.OnChange()
	}
}
