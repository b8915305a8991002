package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/factchecker/realitycheck/internal/config"
	"github.com/factchecker/realitycheck/internal/models"
	openai "github.com/sashabaranov/go-openai"
)

const newsSystemPrompt = `You are a misinformation analyst. Decide whether the text below is authentic human-written reporting or synthetic content (AI-generated or fabricated news).

Respond with a JSON object:
{
  "verdict": "real|fake",
  "confidence": 0.0-1.0
}

Only respond with the JSON object, no other text.`

// maxPromptChars bounds the article text sent to the model.
const maxPromptChars = 12000

// chatCompleter is the part of the OpenAI client used here.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIProvider analyzes text using an OpenAI chat model. It does not
// handle media kinds.
type OpenAIProvider struct {
	client chatCompleter
	model  string
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(cfg *config.OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	return &OpenAIProvider{
		client: openai.NewClient(cfg.APIKey),
		model:  model,
	}, nil
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Infer asks the model for a verdict on the text payload.
func (p *OpenAIProvider) Infer(ctx context.Context, kind models.InputKind, payload Payload) (models.AnalysisResult, error) {
	if kind != models.KindText {
		return models.AnalysisResult{}, fmt.Errorf("openai provider cannot analyze %s", kind)
	}

	text := PlainText(payload.Text)
	if text == "" {
		return models.AnalysisResult{}, fmt.Errorf("no text to analyze")
	}
	text = truncate(text, maxPromptChars)

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: newsSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: "Text to analyze:\n\n" + text},
		},
		MaxTokens:   256,
		Temperature: 0,
	})
	if err != nil {
		return models.AnalysisResult{}, fmt.Errorf("OpenAI completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return models.AnalysisResult{}, fmt.Errorf("OpenAI returned no choices")
	}

	return parseVerdict(resp.Choices[0].Message.Content)
}

type modelVerdict struct {
	Verdict    string  `json:"verdict"`
	Confidence float64 `json:"confidence"`
}

var codeFence = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")

// parseVerdict extracts the JSON verdict from a model response, tolerating
// markdown fences and surrounding prose.
func parseVerdict(response string) (models.AnalysisResult, error) {
	response = strings.TrimSpace(response)

	if strings.HasPrefix(response, "```") {
		if matches := codeFence.FindStringSubmatch(response); len(matches) > 1 {
			response = matches[1]
		}
	}

	var mv modelVerdict
	if err := json.Unmarshal([]byte(response), &mv); err != nil {
		start := strings.Index(response, "{")
		end := strings.LastIndex(response, "}")
		if start < 0 || end <= start {
			return models.AnalysisResult{}, fmt.Errorf("no JSON found in response")
		}
		if err := json.Unmarshal([]byte(response[start:end+1]), &mv); err != nil {
			return models.AnalysisResult{}, fmt.Errorf("invalid JSON: %w", err)
		}
	}

	verdict, err := models.ParseWireVerdict(mv.Verdict)
	if err != nil {
		return models.AnalysisResult{}, err
	}

	result := models.AnalysisResult{Verdict: verdict, Confidence: mv.Confidence}
	if err := result.Validate(); err != nil {
		return models.AnalysisResult{}, err
	}
	return result, nil
}
