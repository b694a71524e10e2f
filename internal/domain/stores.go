package domain

import (
	"context"
)

// DefinitionStore supplies corpus snapshots for duplicate detection. The core
// never caches corpus state; every call returns a fresh, consistent snapshot.
type DefinitionStore interface {
	Create(ctx context.Context, d *Definition) error
	// ListByScope returns definitions whose context shares at least one field
	// with scope, in insertion order.
	ListByScope(ctx context.Context, scope ContextRef) ([]Definition, error)
}

type LookupHit struct {
	Provider string  `json:"provider"`
	Title    string  `json:"title,omitempty"`
	Snippet  string  `json:"snippet,omitempty"`
	URL      string  `json:"url,omitempty"`
	Score    float64 `json:"score"`
}

// LookupResult aggregates hits across web-lookup providers. Failed holds the
// error text per provider that could not answer.
type LookupResult struct {
	Hits   []LookupHit       `json:"hits"`
	Score  float64           `json:"score"`
	Failed map[string]string `json:"failed,omitempty"`
}

// Degraded reports whether at least one provider failed.
func (r *LookupResult) Degraded() bool {
	return r != nil && len(r.Failed) > 0
}

// WebLookup enriches validation with external sources.
type WebLookup interface {
	Lookup(ctx context.Context, term string, scope ContextRef) (*LookupResult, error)
}
