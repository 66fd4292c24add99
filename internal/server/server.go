// Package server hosts the guide endpoints and WebSocket sketch sessions.
package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"MangaSketch/internal/guide"
	lnet "MangaSketch/internal/net"
	"MangaSketch/internal/render"
	"MangaSketch/internal/state"
)

const (
	DefaultAddress = ":8888"
	WSPath         = "/ws"
	HealthPath     = "/healthz"

	DefaultMaxStrokePoints = 10000
)

// ServerOptions configures the HTTP server and the sessions it creates.
// There is no write timeout: guide requests wait on the backend for as long
// as the client keeps the connection open.
type ServerOptions struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	Logger            *slog.Logger

	// Canvas size and initial tool settings of every new session.
	Width    int
	Height   int
	Settings state.Settings
	MaxWidth float64

	// MaxMessageBytes is the read limit of a session connection.
	MaxMessageBytes int64
	// MaxStrokePoints caps the points of one stroke; further moves are
	// ignored until the pointer is released.
	MaxStrokePoints int
}

// Server serves POST /api/animate, POST /api/generate-guide, GET /healthz
// and GET /ws.
type Server struct {
	http  *http.Server
	log   *slog.Logger
	opts  ServerOptions
	peers *lnet.PeerManager

	mu sync.Mutex
	ln net.Listener
}

func NewServer(guides guide.Requester, opts ServerOptions) *Server {
	if guides == nil {
		panic("server.NewServer: guide requester is nil")
	}
	if opts.Addr == "" {
		opts.Addr = DefaultAddress
	}
	if opts.ReadHeaderTimeout == 0 {
		opts.ReadHeaderTimeout = 5 * time.Second
	}
	if opts.IdleTimeout == 0 {
		opts.IdleTimeout = 60 * time.Second
	}
	if opts.ShutdownTimeout == 0 {
		opts.ShutdownTimeout = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = render.DefaultWidth, render.DefaultHeight
	}
	if opts.Settings == (state.Settings{}) {
		opts.Settings = state.DefaultSettings()
	}
	if opts.MaxWidth <= 0 {
		opts.MaxWidth = state.MaxWidth
	}
	if opts.MaxMessageBytes <= 0 {
		opts.MaxMessageBytes = guide.MaxBodyBytes
	}
	if opts.MaxStrokePoints <= 0 {
		opts.MaxStrokePoints = DefaultMaxStrokePoints
	}

	s := &Server{
		log:   opts.Logger,
		opts:  opts,
		peers: lnet.NewPeerManager(opts.Logger),
	}

	mux := http.NewServeMux()
	guide.NewHandler(guides, opts.Logger).Register(mux)
	mux.HandleFunc("GET "+HealthPath, s.handleHealthz)
	mux.HandleFunc("GET "+WSPath, s.handleWS)

	s.http = &http.Server{
		Addr:              opts.Addr,
		Handler:           withLogging(mux, opts.Logger),
		ReadHeaderTimeout: opts.ReadHeaderTimeout,
		IdleTimeout:       opts.IdleTimeout,
		ErrorLog:          slog.NewLogLogger(opts.Logger.Handler(), slog.LevelWarn),
	}
	return s
}

// Handler exposes the routed handler, mainly for httptest.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// Start binds the listen address and serves in a background goroutine.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.opts.Addr, err)
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	go func() {
		s.log.Info("server listening", "addr", ln.Addr().String(), "site", state.SiteID())
		if err := s.http.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("serve failed", "err", err)
		}
	}()
	return nil
}

// Addr is the bound address once Start has succeeded.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return s.opts.Addr
	}
	return s.ln.Addr().String()
}

// Sessions is the number of open sketch sessions.
func (s *Server) Sessions() int { return s.peers.Count() }

// Stop closes every session and shuts the server down, waiting up to
// ShutdownTimeout for in-flight requests.
func (s *Server) Stop(ctx context.Context) error {
	if timeout := s.opts.ShutdownTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	s.peers.CloseAll()
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := lnet.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "err", err)
		return
	}
	conn.SetReadLimit(s.opts.MaxMessageBytes)
	peer := s.peers.Add(conn)
	defer func() {
		s.peers.Remove(peer)
		conn.Close()
	}()

	newSession(peer, s.opts, s.log).run()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack lets the WebSocket upgrade take over the connection.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

func withLogging(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
