package guide

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"MangaSketch/internal/export"
)

// SketchPrompt accompanies every sketch sent to the vision backend.
const SketchPrompt = "Generate a detailed manga-style drawing guide based on this sketch. " +
	"Include step-by-step instructions and tips for improving the drawing."

// Requester asks for drawing guides. Service answers in-process and
// RemoteClient asks another MangaSketch server.
type Requester interface {
	FromSketch(ctx context.Context, image string) (string, error)
	FromPrompt(ctx context.Context, prompt string) (string, error)
}

// Service forwards guide requests to a Generator.
type Service struct {
	gen         Generator
	textModel   string
	visionModel string
	log         *slog.Logger
}

type ServiceOption func(*Service)

func WithModels(text, vision string) ServiceOption {
	return func(s *Service) {
		s.textModel = text
		s.visionModel = vision
	}
}

func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

func NewService(gen Generator, opts ...ServiceOption) *Service {
	s := &Service{gen: gen, log: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FromSketch decodes a data URI image and asks the vision model for a guide.
func (s *Service) FromSketch(ctx context.Context, image string) (string, error) {
	mimeType, data, err := export.DecodeDataURI(image)
	if err != nil {
		return "", err
	}
	start := time.Now()
	text, err := s.gen.Generate(ctx, s.visionModel, TextPart(SketchPrompt), ImagePart(mimeType, data))
	if err != nil {
		return "", fmt.Errorf("sketch guide: %w", err)
	}
	s.log.Debug("sketch guide generated", "image_bytes", len(data), "chars", len(text), "took", time.Since(start))
	return text, nil
}

// FromPrompt forwards prompt verbatim to the text model.
func (s *Service) FromPrompt(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	text, err := s.gen.Generate(ctx, s.textModel, TextPart(prompt))
	if err != nil {
		return "", fmt.Errorf("prompt guide: %w", err)
	}
	s.log.Debug("prompt guide generated", "chars", len(text), "took", time.Since(start))
	return text, nil
}
