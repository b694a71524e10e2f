package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenSet(words ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		out[w] = struct{}{}
	}
	return out
}

func TestSynonymTable_Bidirectional(t *testing.T) {
	table := NewSynonymTable(map[string][]string{
		"vaststellen": {"vaststelling", "Bepalen"},
	})

	assert.ElementsMatch(t, []string{"vaststelling", "bepalen"}, table.Synonyms("vaststellen"))
	assert.ElementsMatch(t, []string{"vaststellen", "bepalen"}, table.Synonyms("vaststelling"))
	assert.ElementsMatch(t, []string{"vaststellen", "vaststelling"}, table.Synonyms("BEPALEN"))
	assert.Empty(t, table.Synonyms("identiteit"))
}

func TestSynonymTable_Expand(t *testing.T) {
	table := NewSynonymTable(map[string][]string{
		"vaststellen": {"vaststelling"},
		"sanctie":     {"strafmaatregel", "corrigerende actie"},
	})

	expanded := table.Expand("vaststelling identiteit", tokenSet("vaststelling", "identiteit"))
	assert.Equal(t, tokenSet("vaststelling", "vaststellen", "identiteit"), expanded)

	phrase := table.Expand("opgelegde corrigerende actie", tokenSet("opgelegde", "corrigerende", "actie"))
	assert.Contains(t, phrase, "sanctie")
	assert.Contains(t, phrase, "strafmaatregel")
}

func TestSynonymTable_NilSafe(t *testing.T) {
	var table *SynonymTable
	assert.Equal(t, 0, table.Len())
	assert.Nil(t, table.Synonyms("x"))
	assert.Equal(t, tokenSet("a"), table.Expand("a", tokenSet("a")))
}

func TestLoadSynonyms(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "juridisch")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "algemeen.yaml"),
		[]byte("vaststellen: [vaststelling]\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(nested, "sancties.yaml"),
		[]byte("sanctie: [strafmaatregel]\nvaststellen: [bepalen]\n"), 0o644))

	table, err := LoadSynonyms(filepath.Join(dir, "**", "*.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 2, table.Len())
	assert.ElementsMatch(t, []string{"vaststelling", "bepalen"}, table.Synonyms("vaststellen"))
	assert.ElementsMatch(t, []string{"strafmaatregel"}, table.Synonyms("sanctie"))
}

func TestLoadSynonyms_Malformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("- not a map"), 0o644))

	_, err := LoadSynonyms(filepath.Join(dir, "*.yaml"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
