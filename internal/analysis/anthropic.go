package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/factchecker/realitycheck/internal/config"
	"github.com/factchecker/realitycheck/internal/models"
)

const defaultAnthropicURL = "https://api.anthropic.com"

// AnthropicProvider analyzes text using the Anthropic Messages API.
type AnthropicProvider struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewAnthropicProvider creates a new Anthropic provider.
func NewAnthropicProvider(cfg *config.AnthropicConfig) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "claude-3-haiku-20240307"
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultAnthropicURL
	}

	return &AnthropicProvider{
		apiKey:     cfg.APIKey,
		model:      model,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}, nil
}

// Name returns the provider name.
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Infer asks Claude for a verdict on the text payload.
func (p *AnthropicProvider) Infer(ctx context.Context, kind models.InputKind, payload Payload) (models.AnalysisResult, error) {
	if kind != models.KindText {
		return models.AnalysisResult{}, fmt.Errorf("anthropic provider cannot analyze %s", kind)
	}

	text := PlainText(payload.Text)
	if text == "" {
		return models.AnalysisResult{}, fmt.Errorf("no text to analyze")
	}
	text = truncate(text, maxPromptChars)

	bodyBytes, err := json.Marshal(anthropicRequest{
		Model:     p.model,
		MaxTokens: 256,
		System:    newsSystemPrompt,
		Messages: []anthropicMessage{
			{Role: "user", Content: "Text to analyze:\n\n" + text},
		},
	})
	if err != nil {
		return models.AnalysisResult{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/messages", bytes.NewReader(bodyBytes))
	if err != nil {
		return models.AnalysisResult{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return models.AnalysisResult{}, fmt.Errorf("Anthropic request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return models.AnalysisResult{}, fmt.Errorf("failed to read response: %w", err)
	}

	var result anthropicResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		if resp.StatusCode >= 300 {
			return models.AnalysisResult{}, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
		}
		return models.AnalysisResult{}, fmt.Errorf("failed to parse response: %w", err)
	}

	if result.Error != nil {
		return models.AnalysisResult{}, fmt.Errorf("Anthropic error: %s", result.Error.Message)
	}

	if len(result.Content) == 0 {
		return models.AnalysisResult{}, fmt.Errorf("Anthropic returned no content")
	}

	return parseVerdict(result.Content[0].Text)
}
