package ui

import (
	"image"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"MangaSketch/internal/render"
	"MangaSketch/internal/state"
)

// BoardWidget is the drawing surface of a window. It feeds pointer events to
// its Controller and shows the rendered Surface stretched over a solid
// background. All methods run on the fyne main goroutine.
type BoardWidget struct {
	widget.BaseWidget
	ctrl       *state.Controller
	surface    *render.Surface
	background color.Color

	// OnChange runs after the board has been redrawn.
	OnChange func()
}

var _ fyne.Widget = (*BoardWidget)(nil)
var _ fyne.Draggable = (*BoardWidget)(nil)
var _ desktop.Mouseable = (*BoardWidget)(nil)
var _ desktop.Hoverable = (*BoardWidget)(nil)

func NewBoardWidget(ctrl *state.Controller, width, height int, background color.Color) *BoardWidget {
	if background == nil {
		background = color.White
	}
	b := &BoardWidget{
		ctrl:       ctrl,
		surface:    render.NewSurface(width, height),
		background: background,
	}
	ctrl.OnChange = b.redraw
	b.surface.Redraw(ctrl.Board().Strokes())
	b.ExtendBaseWidget(b)
	return b
}

func (b *BoardWidget) Controller() *state.Controller { return b.ctrl }

// Snapshot copies the current transparent frame.
func (b *BoardWidget) Snapshot() *image.RGBA {
	return b.surface.Snapshot()
}

// Flattened returns the frame composited over the board background.
func (b *BoardWidget) Flattened() *image.RGBA {
	return render.Flatten(b.surface.Image(), b.background)
}

// redraw repaints every stroke after a board change.
func (b *BoardWidget) redraw() {
	b.surface.Redraw(b.ctrl.Board().Strokes())
	b.Refresh()
	if b.OnChange != nil {
		b.OnChange()
	}
}

// toSurface maps a widget position onto surface pixels. The image is
// stretched to the widget size, so both axes scale independently.
func (b *BoardWidget) toSurface(pos fyne.Position) state.Point {
	size := b.Size()
	bounds := b.surface.Bounds()
	x, y := float64(pos.X), float64(pos.Y)
	if size.Width > 0 && size.Height > 0 {
		x *= float64(bounds.Dx()) / float64(size.Width)
		y *= float64(bounds.Dy()) / float64(size.Height)
	}
	return state.Pt(x, y)
}

func (b *BoardWidget) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	b.ctrl.PointerDown(b.toSurface(e.Position))
}

func (b *BoardWidget) MouseUp(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	b.ctrl.PointerUp()
}

func (b *BoardWidget) Dragged(e *fyne.DragEvent) {
	b.ctrl.PointerMove(b.toSurface(e.Position))
}

func (b *BoardWidget) DragEnd() {
	b.ctrl.PointerUp()
}

func (b *BoardWidget) MouseIn(*desktop.MouseEvent)    {}
func (b *BoardWidget) MouseMoved(*desktop.MouseEvent) {}

func (b *BoardWidget) MouseOut() {
	b.ctrl.PointerLeave()
}

func (b *BoardWidget) CreateRenderer() fyne.WidgetRenderer {
	r := &boardWidgetRenderer{
		board:      b,
		background: canvas.NewRectangle(b.background),
		image:      canvas.NewImageFromImage(b.surface.Image()),
	}
	r.image.FillMode = canvas.ImageFillStretch
	r.image.ScaleMode = canvas.ImageScaleSmooth
	return r
}

type boardWidgetRenderer struct {
	board      *BoardWidget
	background *canvas.Rectangle
	image      *canvas.Image
}

func (r *boardWidgetRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.background, r.image}
}

func (r *boardWidgetRenderer) Refresh() {
	r.background.FillColor = r.board.background
	r.background.Refresh()
	r.image.Image = r.board.surface.Image()
	r.image.Refresh()
}

func (r *boardWidgetRenderer) Layout(size fyne.Size) {
	r.background.Resize(size)
	r.image.Resize(size)
}

func (r *boardWidgetRenderer) MinSize() fyne.Size {
	return fyne.NewSize(300, 300)
}

func (r *boardWidgetRenderer) Destroy() {}
