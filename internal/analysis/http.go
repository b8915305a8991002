package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/factchecker/realitycheck/internal/config"
	"github.com/factchecker/realitycheck/internal/models"
	"golang.org/x/time/rate"
)

// StatusError is returned when a detection service answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("detector returned status %d: %s", e.StatusCode, e.Body)
}

// HTTPProvider submits content to a remote detection service, one endpoint
// per input kind, as multipart form data.
type HTTPProvider struct {
	baseURL    string
	endpoints  map[models.InputKind]string
	timeout    time.Duration
	limiter    *rate.Limiter
	httpClient *http.Client
}

// NewHTTPProvider creates a new HTTP detection provider.
func NewHTTPProvider(cfg *config.HTTPConfig, timeout time.Duration) (*HTTPProvider, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("detector base URL is required")
	}

	endpoints := make(map[models.InputKind]string, len(cfg.Endpoints))
	for k, path := range cfg.Endpoints {
		kind, err := models.ParseInputKind(k)
		if err != nil {
			return nil, fmt.Errorf("invalid endpoint: %w", err)
		}
		endpoints[kind] = path
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &HTTPProvider{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		endpoints:  endpoints,
		timeout:    timeout,
		limiter:    rate.NewLimiter(limit, 1),
		httpClient: &http.Client{},
	}, nil
}

// Name returns the provider name.
func (p *HTTPProvider) Name() string {
	return "http"
}

type detectResponse struct {
	Verdict    string   `json:"verdict"`
	Confidence *float64 `json:"confidence"`
	Error      string   `json:"error,omitempty"`
}

// Infer posts the payload to the kind's endpoint and decodes the verdict.
func (p *HTTPProvider) Infer(ctx context.Context, kind models.InputKind, payload Payload) (models.AnalysisResult, error) {
	path, ok := p.endpoints[kind]
	if !ok {
		return models.AnalysisResult{}, fmt.Errorf("no endpoint configured for %s", kind)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	if err := p.limiter.Wait(ctx); err != nil {
		// Wait refuses up front when the deadline is sooner than the next token.
		if _, ok := ctx.Deadline(); ok && ctx.Err() == nil {
			err = fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
		}
		return models.AnalysisResult{}, fmt.Errorf("rate limiter: %w", err)
	}

	body, contentType, err := encodePayload(kind, payload)
	if err != nil {
		return models.AnalysisResult{}, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, body)
	if err != nil {
		return models.AnalysisResult{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return models.AnalysisResult{}, fmt.Errorf("detector request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return models.AnalysisResult{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.AnalysisResult{}, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(respBody)),
		}
	}

	var result detectResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return models.AnalysisResult{}, fmt.Errorf("failed to parse response: %w", err)
	}
	if result.Error != "" {
		return models.AnalysisResult{}, fmt.Errorf("detector error: %s", result.Error)
	}

	verdict, err := models.ParseWireVerdict(result.Verdict)
	if err != nil {
		return models.AnalysisResult{}, err
	}
	if result.Confidence == nil {
		return models.AnalysisResult{}, fmt.Errorf("detector response missing confidence")
	}

	out := models.AnalysisResult{Verdict: verdict, Confidence: *result.Confidence}
	if err := out.Validate(); err != nil {
		return models.AnalysisResult{}, err
	}
	return out, nil
}

// encodePayload builds the multipart body: a "file" field for media kinds,
// a "text" field for text.
func encodePayload(kind models.InputKind, payload Payload) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if kind == models.KindText {
		if err := w.WriteField("text", payload.Text); err != nil {
			return nil, "", err
		}
	} else {
		if payload.File == nil {
			return nil, "", fmt.Errorf("%s payload has no file", kind)
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, payload.File.Name))
		ct := payload.File.MIMEHint
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(payload.File.Data); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
