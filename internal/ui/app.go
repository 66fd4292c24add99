package ui

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"MangaSketch/internal/config"
	"MangaSketch/internal/export"
	"MangaSketch/internal/guide"
	"MangaSketch/internal/render"
	"MangaSketch/internal/state"
)

const AppID = "io.mangasketch.app"

// Options configure a desktop editor.
type Options struct {
	Config config.Config
	// Guides answers the two guide actions. Nil means guide.Unavailable.
	Guides guide.Requester
	Logger *slog.Logger
	// OnReady runs on the main goroutine once the window exists, before it
	// is shown.
	OnReady func(*Editor)
}

// Editor is one MangaSketch window: a board, its toolbar and a status bar.
type Editor struct {
	app     fyne.App
	window  fyne.Window
	cfg     config.Config
	log     *slog.Logger
	ctrl    *state.Controller
	board   *BoardWidget
	toolbar *toolbar
	status  *widget.Label

	guides    guide.Requester
	guideBusy bool
	guideDone func()
	dark      bool
}

func NewEditor(a fyne.App, opts Options) *Editor {
	cfg := opts.Config
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Guides == nil {
		opts.Guides = guide.Unavailable{}
	}

	bg, err := render.ParseColor(cfg.Canvas.Background)
	if err != nil {
		bg = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	}

	e := &Editor{
		app:    a,
		window: a.NewWindow("MangaSketch"),
		cfg:    cfg,
		log:    opts.Logger,
		guides: opts.Guides,
		status: widget.NewLabel("Ready"),
		ctrl: state.NewController(nil,
			state.WithSettings(cfg.Settings()),
			state.WithMaxWidth(cfg.Brush.MaxWidth),
		),
	}
	e.board = NewBoardWidget(e.ctrl, cfg.Canvas.Width, cfg.Canvas.Height, bg)
	e.toolbar = newToolbar(e)

	e.window.SetContent(container.NewBorder(e.toolbar.object, e.status, nil, nil, e.board))
	e.window.Resize(fyne.NewSize(float32(cfg.Canvas.Width), float32(cfg.Canvas.Height)+90))

	if opts.OnReady != nil {
		opts.OnReady(e)
	}
	return e
}

// RunApp opens the editor window and blocks until it is closed.
func RunApp(opts Options) {
	e := NewEditor(app.NewWithID(AppID), opts)
	e.window.ShowAndRun()
}

func (e *Editor) Window() fyne.Window { return e.window }

func (e *Editor) Board() *BoardWidget { return e.board }

// SetGuides replaces the guide backend. Call on the main goroutine.
func (e *Editor) SetGuides(r guide.Requester) {
	if r == nil {
		r = guide.Unavailable{}
	}
	e.guides = r
}

func (e *Editor) SetStatus(text string) {
	e.status.SetText(text)
}

func (e *Editor) UseBrush() {
	_ = e.ctrl.SetTool(state.ToolBrush)
	e.toolbar.sync(e)
}

func (e *Editor) ToggleEraser() {
	t := e.ctrl.ToggleTool()
	e.toolbar.sync(e)
	e.SetStatus(fmt.Sprintf("Tool: %s", t))
}

func (e *Editor) ClearBoard() {
	e.ctrl.Clear()
	e.SetStatus("Cleared")
}

// SavePNG writes the transparent drawing into the export directory.
func (e *Editor) SavePNG() {
	path, err := export.SaveImage(e.cfg.Export.Dir, e.board.Snapshot())
	if err != nil {
		e.log.Error("failed to save drawing", "err", err)
		e.SetStatus("Could not save drawing")
		return
	}
	e.log.Info("drawing saved", "path", path)
	e.SetStatus("Saved " + path)
}

func (e *Editor) SavePDF() {
	path, err := export.SavePDF(e.cfg.Export.Dir, e.board.Snapshot())
	if err != nil {
		e.log.Error("failed to save pdf", "err", err)
		e.SetStatus("Could not save PDF")
		return
	}
	e.log.Info("pdf saved", "path", path)
	e.SetStatus("Saved " + path)
}

// Share copies the drawing to the clipboard as a PNG data URI.
func (e *Editor) Share() {
	uri, err := export.Share(e.app.Clipboard(), e.board.Snapshot())
	if err != nil {
		e.log.Error("failed to share drawing", "err", err)
		e.SetStatus("Could not copy drawing")
		return
	}
	e.log.Info("drawing copied to clipboard", "bytes", len(uri))
	e.SetStatus("Drawing copied to clipboard")
}

// GuideFromSketch sends the drawing, flattened over the canvas background,
// for an animation guide.
func (e *Editor) GuideFromSketch() {
	uri, err := export.DataURI(e.board.Flattened())
	if err != nil {
		e.log.Error("failed to encode drawing", "err", err)
		e.SetStatus(guide.SketchFailure)
		return
	}
	e.requestGuide("Animation guide", guide.SketchFailure, func(ctx context.Context, g guide.Requester) (string, error) {
		return g.FromSketch(ctx, uri)
	})
}

func (e *Editor) GuideFromPrompt(prompt string) {
	e.requestGuide("Guide", guide.PromptFailure, func(ctx context.Context, g guide.Requester) (string, error) {
		return g.FromPrompt(ctx, prompt)
	})
}

func (e *Editor) askPrompt() {
	entry := widget.NewMultiLineEntry()
	entry.SetPlaceHolder("A girl turning her head toward the wind")
	entry.Wrapping = fyne.TextWrapWord
	entry.SetMinRowsVisible(4)
	items := []*widget.FormItem{widget.NewFormItem("Prompt", entry)}
	dialog.ShowForm("Generate guide", "Generate", "Cancel", items, func(ok bool) {
		if ok && entry.Text != "" {
			e.GuideFromPrompt(entry.Text)
		}
	}, e.window)
}

// requestGuide runs call off the main goroutine. Only one request is in
// flight per window.
func (e *Editor) requestGuide(title, failure string, call func(context.Context, guide.Requester) (string, error)) {
	if e.guideBusy {
		e.SetStatus("A guide is already being generated")
		return
	}
	e.guideBusy = true
	g := e.guides
	e.SetStatus("Generating guide...")

	go func() {
		text, err := call(context.Background(), g)
		fyne.Do(func() {
			e.guideBusy = false
			if e.guideDone != nil {
				defer e.guideDone()
			}
			if err != nil {
				e.log.Error("guide request failed", "err", err)
				msg := failure
				if guide.IsUnavailable(err) {
					msg = "No guide backend configured"
				}
				e.SetStatus(msg)
				dialog.ShowError(errors.New(msg), e.window)
				return
			}
			e.SetStatus("Guide ready")
			e.showGuide(title, text)
		})
	}()
}

func (e *Editor) showGuide(title, text string) {
	body := widget.NewRichTextFromMarkdown(text)
	body.Wrapping = fyne.TextWrapWord
	scroll := container.NewVScroll(body)
	scroll.SetMinSize(fyne.NewSize(560, 420))
	dialog.ShowCustom(title, "Close", scroll, e.window)
}

// ToggleTheme switches between the light and dark variants.
func (e *Editor) ToggleTheme() {
	e.dark = !e.dark
	variant := theme.VariantLight
	if e.dark {
		variant = theme.VariantDark
	}
	e.app.Settings().SetTheme(fixedVariant{Theme: theme.DefaultTheme(), variant: variant})
}

// fixedVariant pins a theme to one variant regardless of the OS setting.
type fixedVariant struct {
	fyne.Theme
	variant fyne.ThemeVariant
}

func (t fixedVariant) Color(name fyne.ThemeColorName, _ fyne.ThemeVariant) color.Color {
	return t.Theme.Color(name, t.variant)
}
