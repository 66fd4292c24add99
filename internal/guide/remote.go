package guide

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// RemoteClient asks the guide endpoints of another MangaSketch server.
type RemoteClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewRemoteClient(baseURL string, httpClient *http.Client) *RemoteClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &RemoteClient{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

func (c *RemoteClient) BaseURL() string { return c.baseURL }

func (c *RemoteClient) FromSketch(ctx context.Context, image string) (string, error) {
	return c.post(ctx, SketchPath, SketchRequest{Image: image})
}

func (c *RemoteClient) FromPrompt(ctx context.Context, prompt string) (string, error) {
	return c.post(ctx, PromptPath, PromptRequest{Prompt: prompt})
}

func (c *RemoteClient) post(ctx context.Context, path string, payload any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var e ErrorResponse
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			return "", &APIError{Status: resp.StatusCode, Message: e.Error}
		}
		return "", &APIError{Status: resp.StatusCode, Message: string(raw)}
	}

	var out Response
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if out.Guide == "" {
		return "", ErrEmptyResponse
	}
	return out.Guide, nil
}

// IsUnavailable reports whether err means no backend is configured.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// ErrUnavailable is returned by Unavailable.
var ErrUnavailable = errors.New("guide backend not configured")

// Unavailable is the Requester used when neither a credential nor a remote
// server is configured.
type Unavailable struct{}

func (Unavailable) FromSketch(context.Context, string) (string, error) { return "", ErrUnavailable }
func (Unavailable) FromPrompt(context.Context, string) (string, error) { return "", ErrUnavailable }
