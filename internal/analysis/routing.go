package analysis

import (
	"context"
	"sort"
	"strings"

	"github.com/factchecker/realitycheck/internal/models"
)

// RoutingProvider dispatches each kind to its own provider and falls back to
// a default for unrouted kinds.
type RoutingProvider struct {
	fallback Provider
	routes   map[models.InputKind]Provider
}

// NewRoutingProvider creates a routing provider.
func NewRoutingProvider(fallback Provider, routes map[models.InputKind]Provider) *RoutingProvider {
	copied := make(map[models.InputKind]Provider, len(routes))
	for k, p := range routes {
		copied[k] = p
	}
	return &RoutingProvider{fallback: fallback, routes: copied}
}

// Name lists the routes, e.g. "routing(mock,text=openai)".
func (r *RoutingProvider) Name() string {
	parts := []string{r.fallback.Name()}
	kinds := make([]string, 0, len(r.routes))
	for k := range r.routes {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		parts = append(parts, k+"="+r.routes[models.InputKind(k)].Name())
	}
	return "routing(" + strings.Join(parts, ",") + ")"
}

// For returns the provider that handles kind.
func (r *RoutingProvider) For(kind models.InputKind) Provider {
	if p, ok := r.routes[kind]; ok {
		return p
	}
	return r.fallback
}

// Infer delegates to the provider routed for kind.
func (r *RoutingProvider) Infer(ctx context.Context, kind models.InputKind, payload Payload) (models.AnalysisResult, error) {
	return r.For(kind).Infer(ctx, kind, payload)
}
