package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Een handeling, tot vaststelling!", "een handeling tot vaststelling"},
		{"  Het   VASTSTELLEN\tvan\n", "het vaststellen van"},
		{"o.a. regels e.d.", "o a regels e d"},
		{"'n persoon", "'n persoon"},
		{"artikel 3:40 BW", "artikel 3 40 bw"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeText(tt.in), "normalizeText(%q)", tt.in)
	}
}

func TestStripArticles(t *testing.T) {
	assert.Equal(t, "handeling van overheid", stripArticles("een handeling van de overheid"))
	assert.Equal(t, "besluit", stripArticles("'n besluit"))
}

func TestTokenSet_DropsStopwords(t *testing.T) {
	got := tokenSet(normalizeText("Het vaststellen van iemands identiteit."))
	require.Len(t, got, 2)
	assert.Contains(t, got, "vaststellen")
	assert.Contains(t, got, "identiteit")
}

func TestJaccard(t *testing.T) {
	a := map[string]struct{}{"a": {}, "b": {}, "c": {}}
	b := map[string]struct{}{"b": {}, "c": {}, "d": {}}

	assert.InDelta(t, 0.5, jaccard(a, b), 1e-9)
	assert.Zero(t, jaccard(nil, nil), "two empty sets score 0")
	assert.InDelta(t, 1.0, jaccard(a, a), 1e-9, "identical sets score 1")
}

func TestContainsPhrase(t *testing.T) {
	assert.True(t, containsPhrase("naar aanleiding van aanvraag", "aanleiding van"))
	assert.False(t, containsPhrase("rechtspersoon", "persoon"), "phrases match on word boundaries")
}
