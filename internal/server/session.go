package server

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gorilla/websocket"

	"MangaSketch/internal/export"
	lnet "MangaSketch/internal/net"
	"MangaSketch/internal/render"
	"MangaSketch/internal/state"
)

// Client message types.
const (
	MsgDown   = "down"
	MsgMove   = "move"
	MsgUp     = "up"
	MsgLeave  = "leave"
	MsgTool   = "tool"
	MsgColor  = "color"
	MsgWidth  = "width"
	MsgClear  = "clear"
	MsgExport = "export"
	MsgShare  = "share"
)

// Server message types.
const (
	MsgState = "state"
	MsgImage = "image"
	MsgError = "error"
)

var errUnknownMessage = errors.New("unknown message type")

// Message is what a sketch client sends.
type Message struct {
	Type  string  `json:"type"`
	X     float64 `json:"x,omitempty"`
	Y     float64 `json:"y,omitempty"`
	Tool  string  `json:"tool,omitempty"`
	Color string  `json:"color,omitempty"`
	Width float64 `json:"width,omitempty"`
}

// StateMessage reports the whole board after a mutation.
type StateMessage struct {
	Type      string         `json:"type"`
	Strokes   []state.Stroke `json:"strokes"`
	Capturing bool           `json:"capturing"`
	Tool      state.Tool     `json:"tool"`
	Color     string         `json:"color"`
	Width     float64        `json:"width"`
}

// ImageMessage carries a PNG data URI. Action is "export" or "share".
type ImageMessage struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Data   string `json:"data"`
}

type ErrorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// session is one independent view: its own board, controller and surface,
// touched only by the connection's read loop.
type session struct {
	peer      *lnet.Peer
	ctrl      *state.Controller
	surface   *render.Surface
	log       *slog.Logger
	maxPoints int
	dirty     bool
}

func newSession(peer *lnet.Peer, opts ServerOptions, log *slog.Logger) *session {
	s := &session{
		peer:      peer,
		surface:   render.NewSurface(opts.Width, opts.Height),
		log:       log.With("peer", peer.ID),
		maxPoints: opts.MaxStrokePoints,
	}
	s.ctrl = state.NewController(nil,
		state.WithSettings(opts.Settings),
		state.WithMaxWidth(opts.MaxWidth),
	)
	// The surface is only read on export, so repaint lazily.
	s.ctrl.OnChange = func() { s.dirty = true }
	return s
}

// run reads messages in order until the client goes away.
func (s *session) run() {
	if err := s.sendState(); err != nil {
		return
	}
	for {
		var msg Message
		if err := s.peer.Conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("session read failed", "err", err)
			}
			return
		}
		if err := s.handle(msg); err != nil {
			s.log.Warn("session write failed", "err", err)
			return
		}
	}
}

// handle applies one message. The returned error is a transport failure;
// bad input is answered with an error message instead.
func (s *session) handle(msg Message) error {
	p := state.Pt(msg.X, msg.Y)
	switch msg.Type {
	case MsgDown:
		s.ctrl.PointerDown(p)
	case MsgMove:
		if !s.strokeFull() {
			s.ctrl.PointerMove(p)
		}
		return nil
	case MsgUp:
		s.ctrl.PointerUp()
	case MsgLeave:
		s.ctrl.PointerLeave()
	case MsgClear:
		s.ctrl.Clear()
	case MsgTool:
		t, err := state.ParseTool(msg.Tool)
		if err == nil {
			err = s.ctrl.SetTool(t)
		}
		if err != nil {
			return s.sendError(err)
		}
	case MsgColor:
		if err := s.ctrl.SetColor(msg.Color); err != nil {
			return s.sendError(err)
		}
	case MsgWidth:
		if err := s.ctrl.SetWidth(msg.Width); err != nil {
			return s.sendError(err)
		}
	case MsgExport, MsgShare:
		return s.sendImage(msg.Type)
	default:
		return s.sendError(fmt.Errorf("%w: %q", errUnknownMessage, msg.Type))
	}
	return s.sendState()
}

func (s *session) strokeFull() bool {
	if s.maxPoints <= 0 || s.ctrl.Phase() != state.Capturing {
		return false
	}
	last, ok := s.ctrl.Board().Last()
	return ok && len(last.Points) >= s.maxPoints
}

func (s *session) image() *render.Surface {
	if s.dirty {
		s.surface.Redraw(s.ctrl.Board().Strokes())
		s.dirty = false
	}
	return s.surface
}

func (s *session) sendState() error {
	set := s.ctrl.Settings()
	return s.peer.Send(StateMessage{
		Type:      MsgState,
		Strokes:   s.ctrl.Board().Strokes(),
		Capturing: s.ctrl.Phase() == state.Capturing,
		Tool:      set.Tool,
		Color:     set.Color,
		Width:     set.Width,
	})
}

func (s *session) sendImage(action string) error {
	uri, err := export.DataURI(s.image().Image())
	if err != nil {
		s.log.Error("failed to encode drawing", "err", err)
		return s.sendError(err)
	}
	s.log.Info("drawing exported", "action", action, "strokes", s.ctrl.Board().Len())
	return s.peer.Send(ImageMessage{Type: MsgImage, Action: action, Data: uri})
}

func (s *session) sendError(err error) error {
	return s.peer.Send(ErrorMessage{Type: MsgError, Error: err.Error()})
}
