package ui

import (
	"fmt"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"MangaSketch/internal/render"
)

// palette is the row of one-tap colors next to the picker.
var palette = []color.Color{
	color.Black,
	color.NRGBA{R: 255, A: 255},
	color.NRGBA{G: 160, A: 255},
	color.NRGBA{B: 255, A: 255},
	color.NRGBA{R: 255, G: 200, A: 255},
	color.NRGBA{R: 128, G: 128, B: 128, A: 255},
}

type colorSwatch struct {
	widget.BaseWidget
	Color    color.Color
	OnTapped func(color.Color)
}

func newColorSwatch(c color.Color, tapped func(color.Color)) *colorSwatch {
	s := &colorSwatch{Color: c, OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	rect := canvas.NewRectangle(s.Color)
	rect.SetMinSize(fyne.NewSize(28, 28))

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1

	return widget.NewSimpleRenderer(container.NewStack(rect, border))
}

func (s *colorSwatch) Tapped(_ *fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(s.Color)
	}
}

// toolbar holds the widgets that mirror the editor's tool settings.
type toolbar struct {
	tool   *widget.Label
	width  *widget.Label
	slider *widget.Slider
	object fyne.CanvasObject
}

// sync copies the controller's settings into the toolbar widgets.
func (t *toolbar) sync(e *Editor) {
	s := e.ctrl.Settings()
	t.tool.SetText(fmt.Sprintf("%s %s", s.Tool, s.Color))
	t.width.SetText(fmt.Sprintf("%.0f px", s.Width))
	if t.slider.Value != s.Width {
		t.slider.SetValue(s.Width)
	}
}

func newToolbar(e *Editor) *toolbar {
	t := &toolbar{
		tool:  widget.NewLabel(""),
		width: widget.NewLabel(""),
	}

	tools := widget.NewToolbar(
		widget.NewToolbarAction(theme.DocumentCreateIcon(), e.UseBrush),
		widget.NewToolbarAction(theme.DeleteIcon(), e.ToggleEraser),
		widget.NewToolbarAction(theme.ColorPaletteIcon(), e.pickColor),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ContentClearIcon(), e.ClearBoard),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), e.SavePNG),
		widget.NewToolbarAction(theme.ContentCopyIcon(), e.Share),
		widget.NewToolbarAction(theme.DocumentPrintIcon(), e.SavePDF),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.MediaPlayIcon(), e.GuideFromSketch),
		widget.NewToolbarAction(theme.HelpIcon(), e.askPrompt),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.VisibilityIcon(), e.ToggleTheme),
	)

	swatches := container.NewHBox()
	for _, c := range palette {
		swatches.Add(newColorSwatch(c, e.useColor))
	}

	maxWidth := e.cfg.Brush.MaxWidth
	t.slider = widget.NewSlider(1, maxWidth)
	t.slider.Step = 1
	t.slider.SetValue(e.ctrl.Settings().Width)
	t.slider.OnChanged = func(v float64) {
		if err := e.ctrl.SetWidth(v); err != nil {
			e.log.Warn("rejected stroke width", "width", v, "err", err)
		}
		t.sync(e)
	}
	slider := container.New(layout.NewGridWrapLayout(fyne.NewSize(150, 35)), t.slider)

	t.object = container.NewHBox(
		tools,
		widget.NewSeparator(),
		swatches,
		widget.NewSeparator(),
		widget.NewLabel("Size:"),
		slider,
		t.width,
		layout.NewSpacer(),
		t.tool,
	)
	t.sync(e)
	return t
}

func (e *Editor) useColor(c color.Color) {
	if err := e.ctrl.SetColor(render.HexColor(c)); err != nil {
		e.log.Warn("rejected color", "err", err)
		return
	}
	e.toolbar.sync(e)
}

func (e *Editor) pickColor() {
	picker := dialog.NewColorPicker("Stroke color", "Pick a brush color", e.useColor, e.window)
	picker.Advanced = true
	picker.Show()
}
