package analysis

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/factchecker/realitycheck/internal/config"
	"github.com/factchecker/realitycheck/internal/models"
)

// MockProvider stands in for a real detector. It waits a random delay and
// returns a random verdict; it never looks at the payload.
type MockProvider struct {
	cfg config.MockConfig

	mu  sync.Mutex
	rng *rand.Rand
}

// NewMockProvider creates a mock provider. A zero seed picks a random one.
func NewMockProvider(cfg config.MockConfig) *MockProvider {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &MockProvider{
		cfg: cfg,
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Name returns the provider name.
func (p *MockProvider) Name() string {
	return "mock"
}

// Infer sleeps for a delay in [MinDelay, MaxDelay], then draws a verdict that
// is synthetic with probability SyntheticRate and a confidence uniform in
// [MinConfidence, MaxConfidence], rounded to two decimals.
func (p *MockProvider) Infer(ctx context.Context, kind models.InputKind, payload Payload) (models.AnalysisResult, error) {
	delay, result := p.draw()

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return models.AnalysisResult{}, ctx.Err()
	case <-timer.C:
	}
	return result, nil
}

func (p *MockProvider) draw() (time.Duration, models.AnalysisResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delay := p.cfg.MinDelay
	if span := p.cfg.MaxDelay - p.cfg.MinDelay; span > 0 {
		delay += time.Duration(p.rng.Int64N(int64(span) + 1))
	}

	verdict := models.VerdictAuthentic
	if p.rng.Float64() < p.cfg.SyntheticRate {
		verdict = models.VerdictSynthetic
	}

	lo, hi := p.cfg.MinConfidence, p.cfg.MaxConfidence
	confidence := math.Round((lo+p.rng.Float64()*(hi-lo))*100) / 100
	confidence = math.Max(lo, math.Min(hi, confidence))

	return delay, models.AnalysisResult{Verdict: verdict, Confidence: confidence}
}
