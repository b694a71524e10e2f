package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Harshitk-cp/begrippen/internal/domain"
)

func TestCategorizer_Belastingplichtige(t *testing.T) {
	c := NewCategorizerService(zap.NewNop())

	res, err := c.Categorize("belastingplichtige",
		"Een natuurlijke persoon of rechtspersoon die belasting verschuldigd is.",
		domain.ContextRef{Jurisdiction: "NL"})
	require.NoError(t, err)

	assert.Equal(t, domain.CategoryType, res.Category)
	assert.Equal(t, StepHighConfidence, res.Step)
	assert.InDelta(t, 0.95, res.Scores.Type, 1e-9)
	assert.Contains(t, res.Reasoning, "step 4", "reasoning names the deciding step")
	assert.Contains(t, res.Reasoning, "above 0.60")
	assert.Contains(t, res.Reasoning, "type=0.95", "reasoning lists the top scores")
	assert.NoError(t, res.Scores.Validate())
}

func TestCategorizer_Deterministic(t *testing.T) {
	c := NewCategorizerService(zap.NewNop())
	ctx := domain.ContextRef{Organisation: "DJI", LegalAct: "Awb"}

	first, err := c.Categorize("sanctiebesluit", "Het resultaat van een beoordeling.", ctx)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := c.Categorize("sanctiebesluit", "Het resultaat van een beoordeling.", ctx)
		require.NoError(t, err)
		require.Equal(t, first.Category, again.Category, "run %d", i)
		require.Equal(t, first.Scores, again.Scores, "run %d", i)
		require.Equal(t, first.Reasoning, again.Reasoning, "run %d", i)
	}
	assert.Equal(t, domain.CategoryResult, first.Category)
}

func TestCategorizer_FallbackLevels(t *testing.T) {
	ctx := domain.ContextRef{Organisation: "OM"}

	tests := []struct {
		name     string
		term     string
		text     string
		wantCat  domain.Category
		wantStep DecisionStep
	}{
		{
			name:     "strict lexicon",
			term:     "verslag",
			text:     "Een stuk over de zaak.",
			wantCat:  domain.CategoryResult,
			wantStep: StepStrictLexicon,
		},
		{
			name:     "process phrase",
			term:     "beoordelen",
			text:     "Nagaan of iets klopt.",
			wantCat:  domain.CategoryProcess,
			wantStep: StepStructural,
		},
		{
			name:     "numbered term",
			term:     "zaak 2024",
			text:     "Iets dat speelt.",
			wantCat:  domain.CategoryInstance,
			wantStep: StepStructural,
		},
		{
			name:     "result participle",
			term:     "gegeven",
			text:     "Iets dat bekend is.",
			wantCat:  domain.CategoryResult,
			wantStep: StepStructural,
		},
		{
			name:     "default",
			term:     "zaak",
			text:     "Iets wat bestaat.",
			wantCat:  domain.CategoryType,
			wantStep: StepDefault,
		},
	}

	c := NewCategorizerService(zap.NewNop())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := c.Categorize(tt.term, tt.text, ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCat, res.Category)
			assert.Equal(t, tt.wantStep, res.Step)
			assert.Contains(t, res.Reasoning, "step 5", "fallback reasoning names step 5")
		})
	}
}

func TestCategorizer_TieFallsBack(t *testing.T) {
	c := NewCategorizerService(zap.NewNop())
	c.SetPriors(nil)
	c.SetLexicon([]LexiconEntry{
		{domain.CategoryType, KindTextKeyword, "alpha", 0.7, false},
		{domain.CategoryResult, KindTextKeyword, "beta", 0.7, false},
	})

	res, err := c.Categorize("zaak", "alpha beta", domain.ContextRef{Organisation: "X"})
	require.NoError(t, err)
	assert.NotEqual(t, StepHighConfidence, res.Step, "a tied maximum is not accepted at step 4")
	assert.Equal(t, domain.CategoryType, res.Category)
}

func TestCategorizer_HighConfidenceIsExclusive(t *testing.T) {
	c := NewCategorizerService(zap.NewNop())
	c.SetPriors(nil)
	c.SetLexicon([]LexiconEntry{
		{domain.CategoryResult, KindTextKeyword, "alpha", HighConfidence, false},
	})
	ctx := domain.ContextRef{Organisation: "X"}

	res, err := c.Categorize("zaak", "alpha", ctx)
	require.NoError(t, err)
	assert.InDelta(t, HighConfidence, res.Scores.Result, 1e-9)
	assert.NotEqual(t, StepHighConfidence, res.Step, "a score equal to the threshold falls back")

	require.NoError(t, c.SetHighConfidence(0.5))
	res, err = c.Categorize("zaak", "alpha", ctx)
	require.NoError(t, err)
	assert.Equal(t, StepHighConfidence, res.Step)
	assert.Equal(t, domain.CategoryResult, res.Category)
	assert.Contains(t, res.Reasoning, "above 0.50")
}

func TestCategorizer_SetHighConfidence(t *testing.T) {
	c := NewCategorizerService(zap.NewNop())

	require.NoError(t, c.SetHighConfidence(0.95))
	res, err := c.Categorize("belastingplichtige",
		"Een natuurlijke persoon of rechtspersoon die belasting verschuldigd is.",
		domain.ContextRef{Jurisdiction: "NL"})
	require.NoError(t, err)
	assert.Equal(t, StepStrictLexicon, res.Step, "0.95 does not exceed a 0.95 threshold")
	assert.Equal(t, domain.CategoryType, res.Category)

	for _, v := range []float64{0, 1, -0.2, 1.5} {
		assert.ErrorIs(t, c.SetHighConfidence(v), ErrConfidenceBounds, "threshold %v", v)
	}
}

func TestCategorizer_ScoresClipped(t *testing.T) {
	c := NewCategorizerService(zap.NewNop())
	c.SetLexicon([]LexiconEntry{
		{domain.CategoryProcess, KindTextKeyword, "handeling", 0.8, false},
		{domain.CategoryProcess, KindTextKeyword, "proces", 0.8, false},
	})

	res, err := c.Categorize("x", "handeling proces", domain.ContextRef{Organisation: "X"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Scores.Process)
	assert.True(t, res.Clipped, "clipping is recorded")
}

func TestCategorizer_Priors(t *testing.T) {
	c := NewCategorizerService(zap.NewNop())

	res, err := c.Categorize("zaak", "Iets wat bestaat.", domain.ContextRef{LegalAct: "Algemene wet bestuursrecht"})
	require.NoError(t, err)
	assert.InDelta(t, 0.15, res.Scores.Result, 1e-9)
}

func TestCategorizer_InputErrors(t *testing.T) {
	c := NewCategorizerService(zap.NewNop())

	_, err := c.Categorize(" ", "", domain.ContextRef{Organisation: "X"})
	assert.ErrorIs(t, err, ErrEmptyDefinition)

	_, err = c.Categorize("term", "tekst", domain.ContextRef{})
	assert.ErrorIs(t, err, ErrContextRequired)
}
