// Package analysis provides a pluggable interface for deepfake analysis providers.
package analysis

import (
	"context"
	"fmt"

	"github.com/factchecker/realitycheck/internal/config"
	"github.com/factchecker/realitycheck/internal/models"
)

// Payload is the content submitted for analysis: a file for media cards or
// text for the text card.
type Payload struct {
	File *models.FileInput
	Text string
}

// Provider defines the interface for analysis providers.
type Provider interface {
	// Infer classifies the payload. Implementations must honour ctx and
	// return a result whose confidence lies in [0, 1].
	Infer(ctx context.Context, kind models.InputKind, payload Payload) (models.AnalysisResult, error)

	// Name returns the provider name.
	Name() string
}

// NewProvider creates an analysis provider based on configuration. Per-kind
// routes wrap the default provider in a RoutingProvider.
func NewProvider(cfg *config.AnalysisConfig) (Provider, error) {
	built := map[string]Provider{}
	build := func(name string) (Provider, error) {
		if p, ok := built[name]; ok {
			return p, nil
		}
		p, err := newNamed(name, cfg)
		if err != nil {
			return nil, err
		}
		built[name] = p
		return p, nil
	}

	fallback, err := build(cfg.Provider)
	if err != nil {
		return nil, err
	}
	if len(cfg.Routes) == 0 {
		return fallback, nil
	}

	routes := make(map[models.InputKind]Provider, len(cfg.Routes))
	for k, name := range cfg.Routes {
		kind, err := models.ParseInputKind(k)
		if err != nil {
			return nil, fmt.Errorf("invalid route: %w", err)
		}
		p, err := build(name)
		if err != nil {
			return nil, err
		}
		routes[kind] = p
	}
	return NewRoutingProvider(fallback, routes), nil
}

func newNamed(name string, cfg *config.AnalysisConfig) (Provider, error) {
	switch name {
	case "mock":
		return NewMockProvider(cfg.Mock), nil
	case "http":
		return NewHTTPProvider(&cfg.HTTP, cfg.Timeout)
	case "openai":
		return NewOpenAIProvider(&cfg.OpenAI)
	case "anthropic":
		return NewAnthropicProvider(&cfg.Anthropic)
	default:
		return nil, fmt.Errorf("unsupported analysis provider: %s", name)
	}
}
