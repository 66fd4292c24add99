package guide

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	ProviderAnthropic     = "anthropic"
	anthropicDefaultURL   = "https://api.anthropic.com/v1"
	AnthropicDefaultModel = "claude-sonnet-4-5"
	anthropicVersion      = "2023-06-01"
	anthropicMaxTokens    = 4096
)

// AnthropicClient calls the Messages API.
type AnthropicClient struct {
	apiKey     string
	baseURL    string
	maxTokens  int
	httpClient *http.Client
}

func NewAnthropicClient(opts Options) *AnthropicClient {
	base := opts.BaseURL
	if base == "" {
		base = anthropicDefaultURL
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = anthropicMaxTokens
	}
	return &AnthropicClient{
		apiKey:     opts.APIKey,
		baseURL:    strings.TrimRight(base, "/"),
		maxTokens:  maxTokens,
		httpClient: opts.client(),
	}
}

type anthropicSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type anthropicBlock struct {
	Type   string           `json:"type"`
	Text   string           `json:"text,omitempty"`
	Source *anthropicSource `json:"source,omitempty"`
}

type anthropicMsg struct {
	Role    string           `json:"role"`
	Content []anthropicBlock `json:"content"`
}

type anthropicRequest struct {
	Model     string         `json:"model"`
	MaxTokens int            `json:"max_tokens"`
	Messages  []anthropicMsg `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

type anthropicError struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *AnthropicClient) Generate(ctx context.Context, model string, parts ...Part) (string, error) {
	if model == "" {
		model = AnthropicDefaultModel
	}

	msg := anthropicMsg{Role: "user"}
	for _, p := range parts {
		if p.IsText() {
			msg.Content = append(msg.Content, anthropicBlock{Type: "text", Text: p.Text})
			continue
		}
		msg.Content = append(msg.Content, anthropicBlock{Type: "image", Source: &anthropicSource{
			Type:      "base64",
			MediaType: p.MIMEType,
			Data:      base64.StdEncoding.EncodeToString(p.Data),
		}})
	}

	jsonBody, err := json.Marshal(anthropicRequest{
		Model:     model,
		MaxTokens: c.maxTokens,
		Messages:  []anthropicMsg{msg},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr anthropicError
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
			return "", &APIError{Status: resp.StatusCode, Type: apiErr.Error.Type, Message: apiErr.Error.Message}
		}
		return "", &APIError{Status: resp.StatusCode, Message: string(body)}
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	var content strings.Builder
	for _, block := range apiResp.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(content.String()) == "" {
		return "", ErrEmptyResponse
	}
	return content.String(), nil
}
