// Package guide relays sketches and prompts to a generative text backend
// and returns the drawing guide it writes.
//
// Each call is a single round trip. There is no retry, no streaming and no
// conversation state between calls.
package guide

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	ErrEmptyResponse   = errors.New("backend returned no text")
	ErrUnknownProvider = errors.New("unknown guide provider")
)

// Part is one piece of a request: either text or inline binary data.
type Part struct {
	Text     string
	MIMEType string
	Data     []byte
}

func TextPart(s string) Part { return Part{Text: s} }

func ImagePart(mimeType string, data []byte) Part {
	return Part{MIMEType: mimeType, Data: data}
}

func (p Part) IsText() bool { return p.Data == nil }

// Generator produces text for a single user turn.
type Generator interface {
	Generate(ctx context.Context, model string, parts ...Part) (string, error)
}

// APIError is a non-200 answer from a backend.
type APIError struct {
	Status  int
	Type    string
	Message string
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("API error (%d): %s - %s", e.Status, e.Type, e.Message)
	}
	return fmt.Sprintf("API error (%d): %s", e.Status, e.Message)
}

// Options configure a backend client.
type Options struct {
	APIKey  string
	BaseURL string
	// Timeout of zero means the request runs until it completes or its
	// context is cancelled.
	Timeout    time.Duration
	MaxTokens  int
	HTTPClient *http.Client
}

func (o Options) client() *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	return &http.Client{Timeout: o.Timeout}
}

// NewGenerator returns the client for the named provider.
func NewGenerator(provider string, opts Options) (Generator, error) {
	switch provider {
	case "", ProviderGemini:
		return NewGeminiClient(opts), nil
	case ProviderAnthropic:
		return NewAnthropicClient(opts), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
}
