package guide

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	ProviderGemini      = "gemini"
	geminiDefaultURL    = "https://generativelanguage.googleapis.com/v1beta"
	GeminiDefaultModel  = "gemini-2.0-flash"
	geminiKeyHeaderName = "x-goog-api-key"
)

// GeminiClient calls the generateContent method of the Gemini REST API.
type GeminiClient struct {
	apiKey     string
	baseURL    string
	maxTokens  int
	httpClient *http.Client
}

func NewGeminiClient(opts Options) *GeminiClient {
	base := opts.BaseURL
	if base == "" {
		base = geminiDefaultURL
	}
	return &GeminiClient{
		apiKey:     opts.APIKey,
		baseURL:    strings.TrimRight(base, "/"),
		maxTokens:  opts.MaxTokens,
		httpClient: opts.client(),
	}
}

type geminiInlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens int `json:"maxOutputTokens,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

type geminiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Generate sends parts as one user turn and returns the text of the first
// candidate.
func (c *GeminiClient) Generate(ctx context.Context, model string, parts ...Part) (string, error) {
	if model == "" {
		model = GeminiDefaultModel
	}

	req := geminiRequest{Contents: []geminiContent{{Role: "user"}}}
	for _, p := range parts {
		if p.IsText() {
			req.Contents[0].Parts = append(req.Contents[0].Parts, geminiPart{Text: p.Text})
			continue
		}
		req.Contents[0].Parts = append(req.Contents[0].Parts, geminiPart{InlineData: &geminiInlineData{
			MIMEType: p.MIMEType,
			Data:     base64.StdEncoding.EncodeToString(p.Data),
		}})
	}
	if c.maxTokens > 0 {
		req.GenerationConfig = &geminiGenerationConfig{MaxOutputTokens: c.maxTokens}
	}

	jsonBody, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(model))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(geminiKeyHeaderName, c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr geminiError
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
			return "", &APIError{Status: resp.StatusCode, Type: apiErr.Error.Status, Message: apiErr.Error.Message}
		}
		return "", &APIError{Status: resp.StatusCode, Message: string(body)}
	}

	var apiResp geminiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if apiResp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: blocked (%s)", ErrEmptyResponse, apiResp.PromptFeedback.BlockReason)
	}
	if len(apiResp.Candidates) == 0 {
		return "", ErrEmptyResponse
	}

	var text strings.Builder
	for _, p := range apiResp.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	if strings.TrimSpace(text.String()) == "" {
		return "", ErrEmptyResponse
	}
	return text.String(), nil
}
