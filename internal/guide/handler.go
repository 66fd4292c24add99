package guide

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Routes of the two forwarders.
const (
	SketchPath = "/api/animate"
	PromptPath = "/api/generate-guide"
)

// Error bodies returned for any failure. The cause is only logged.
const (
	SketchFailure = "Failed to generate animation guide"
	PromptFailure = "Failed to generate guide"
)

// MaxBodyBytes bounds request bodies and session messages; a full-canvas PNG
// data URI is well below.
const MaxBodyBytes = 16 << 20

type SketchRequest struct {
	Image string `json:"image"`
}

type PromptRequest struct {
	Prompt string `json:"prompt"`
}

type Response struct {
	Guide string `json:"guide"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// Handler serves the sketch-to-guide and prompt-to-guide endpoints.
type Handler struct {
	svc Requester
	log *slog.Logger
}

func NewHandler(svc Requester, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, log: log}
}

// Register mounts both endpoints on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST "+SketchPath, h.handleSketch)
	mux.HandleFunc("POST "+PromptPath, h.handlePrompt)
}

func (h *Handler) handleSketch(w http.ResponseWriter, r *http.Request) {
	var req SketchRequest
	if err := decode(w, r, &req); err != nil {
		h.log.Error("error generating animation guide", "err", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: SketchFailure})
		return
	}
	text, err := h.svc.FromSketch(r.Context(), req.Image)
	if err != nil {
		h.log.Error("error generating animation guide", "err", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: SketchFailure})
		return
	}
	writeJSON(w, http.StatusOK, Response{Guide: text})
}

func (h *Handler) handlePrompt(w http.ResponseWriter, r *http.Request) {
	var req PromptRequest
	if err := decode(w, r, &req); err != nil {
		h.log.Error("error generating guide", "err", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: PromptFailure})
		return
	}
	text, err := h.svc.FromPrompt(r.Context(), req.Prompt)
	if err != nil {
		h.log.Error("error generating guide", "err", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: PromptFailure})
		return
	}
	writeJSON(w, http.StatusOK, Response{Guide: text})
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes)).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
