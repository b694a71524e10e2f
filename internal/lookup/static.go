package lookup

import (
	"context"
	"strings"

	"github.com/Harshitk-cp/begrippen/internal/domain"
)

// StaticProvider answers from a fixed glossary, keyed case-insensitively.
type StaticProvider struct {
	name    string
	entries map[string]string
}

func NewStaticProvider(name string, entries map[string]string) *StaticProvider {
	norm := make(map[string]string, len(entries))
	for term, text := range entries {
		norm[glossaryKey(term)] = text
	}
	return &StaticProvider{name: name, entries: norm}
}

func (p *StaticProvider) Name() string {
	return p.name
}

func (p *StaticProvider) Search(_ context.Context, term string, _ domain.ContextRef) ([]domain.LookupHit, error) {
	text, ok := p.entries[glossaryKey(term)]
	if !ok {
		return nil, nil
	}
	return []domain.LookupHit{{Provider: p.name, Title: term, Snippet: text, Score: 1}}, nil
}

func glossaryKey(term string) string {
	return strings.Join(strings.Fields(strings.ToLower(term)), " ")
}
