package service

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/Harshitk-cp/begrippen/internal/domain"
	"github.com/Harshitk-cp/begrippen/internal/metrics"
	"go.uber.org/zap"
)

var (
	ErrEmptyDefinition  = errors.New("term or definition text is required")
	ErrContextRequired  = errors.New("at least one context field is required")
	ErrConfidenceBounds = errors.New("high confidence threshold must be in (0,1)")
)

const (
	// HighConfidence is the default score a unique leader must exceed to be
	// accepted without fallback.
	HighConfidence = 0.60
)

// DecisionStep names the part of the protocol that picked the category.
type DecisionStep string

const (
	StepHighConfidence DecisionStep = "high_confidence"
	StepStrictLexicon  DecisionStep = "strict_lexicon"
	StepStructural     DecisionStep = "structural"
	StepDefault        DecisionStep = "default"
)

// LexiconKind says where a lexicon entry is matched.
type LexiconKind string

const (
	// KindTermSuffix matches the end of the last word of the term.
	KindTermSuffix LexiconKind = "term_suffix"
	// KindTermKeyword matches a whole word of the term.
	KindTermKeyword LexiconKind = "term_keyword"
	// KindTextKeyword matches a word or phrase in the definition text.
	KindTextKeyword LexiconKind = "text_keyword"
)

type LexiconEntry struct {
	Category domain.Category
	Kind     LexiconKind
	Value    string
	Weight   float64
	Strict   bool
}

// PriorBias boosts a category when a context field matches. Exact compares the
// whole normalized field, otherwise Value must be contained in it.
type PriorBias struct {
	Field    string // organisation, jurisdiction or legal_act
	Value    string
	Exact    bool
	Category domain.Category
	Boost    float64
}

// ScoreHit records one contribution to a category score.
type ScoreHit struct {
	Category domain.Category `json:"category"`
	Source   string          `json:"source"`
	Value    string          `json:"value"`
	Weight   float64         `json:"weight"`
	Strict   bool            `json:"strict"`
}

type CategorizeResult struct {
	Category  domain.Category       `json:"category"`
	Reasoning string                `json:"reasoning"`
	Scores    domain.CategoryScores `json:"scores"`
	Step      DecisionStep          `json:"step"`
	Hits      []ScoreHit            `json:"hits,omitempty"`
	Clipped   bool                  `json:"clipped,omitempty"`
}

// DefaultLexicon returns the built-in Dutch lexicon. Term morphology is strict
// evidence; cues in the definition text are soft.
func DefaultLexicon() []LexiconEntry {
	return []LexiconEntry{
		{domain.CategoryType, KindTermSuffix, "plichtige", 0.5, true},
		{domain.CategoryType, KindTermSuffix, "gerechtigde", 0.5, true},
		{domain.CategoryType, KindTermSuffix, "soort", 0.4, true},
		{domain.CategoryType, KindTermSuffix, "categorie", 0.4, true},
		{domain.CategoryType, KindTermSuffix, "persoon", 0.4, true},
		{domain.CategoryType, KindTermSuffix, "orgaan", 0.3, true},
		{domain.CategoryType, KindTextKeyword, "persoon", 0.2, false},
		{domain.CategoryType, KindTextKeyword, "rechtspersoon", 0.2, false},
		{domain.CategoryType, KindTextKeyword, "soort", 0.2, false},
		{domain.CategoryType, KindTextKeyword, "categorie", 0.2, false},
		{domain.CategoryType, KindTextKeyword, "klasse", 0.2, false},
		{domain.CategoryType, KindTextKeyword, "vorm van", 0.15, false},

		{domain.CategoryProcess, KindTermSuffix, "eren", 0.5, true},
		{domain.CategoryProcess, KindTermSuffix, "atie", 0.4, true},
		{domain.CategoryProcess, KindTermSuffix, "ing", 0.3, true},
		{domain.CategoryProcess, KindTermKeyword, "procedure", 0.4, true},
		{domain.CategoryProcess, KindTextKeyword, "handeling", 0.25, false},
		{domain.CategoryProcess, KindTextKeyword, "proces", 0.25, false},
		{domain.CategoryProcess, KindTextKeyword, "activiteit", 0.25, false},
		{domain.CategoryProcess, KindTextKeyword, "procedure", 0.25, false},
		{domain.CategoryProcess, KindTextKeyword, "uitvoeren", 0.2, false},
		{domain.CategoryProcess, KindTextKeyword, "verrichten", 0.2, false},
		{domain.CategoryProcess, KindTextKeyword, "stappen", 0.15, false},

		{domain.CategoryResult, KindTermSuffix, "besluit", 0.5, true},
		{domain.CategoryResult, KindTermSuffix, "beschikking", 0.5, true},
		{domain.CategoryResult, KindTermSuffix, "vonnis", 0.5, true},
		{domain.CategoryResult, KindTermSuffix, "rapport", 0.4, true},
		{domain.CategoryResult, KindTermSuffix, "verslag", 0.4, true},
		{domain.CategoryResult, KindTermSuffix, "vergunning", 0.4, true},
		{domain.CategoryResult, KindTermSuffix, "uitspraak", 0.4, true},
		{domain.CategoryResult, KindTermSuffix, "document", 0.3, true},
		{domain.CategoryResult, KindTextKeyword, "resultaat", 0.25, false},
		{domain.CategoryResult, KindTextKeyword, "uitkomst", 0.25, false},
		{domain.CategoryResult, KindTextKeyword, "gevolg", 0.2, false},
		{domain.CategoryResult, KindTextKeyword, "vastgelegd", 0.2, false},
		{domain.CategoryResult, KindTextKeyword, "opgesteld", 0.2, false},
		{domain.CategoryResult, KindTextKeyword, "afgegeven", 0.2, false},
		{domain.CategoryResult, KindTextKeyword, "verkregen", 0.2, false},
		{domain.CategoryResult, KindTextKeyword, "naar aanleiding van", 0.15, false},

		{domain.CategoryInstance, KindTermKeyword, "exemplaar", 0.4, true},
		{domain.CategoryInstance, KindTextKeyword, "specifiek", 0.25, false},
		{domain.CategoryInstance, KindTextKeyword, "specifieke", 0.25, false},
		{domain.CategoryInstance, KindTextKeyword, "concreet", 0.25, false},
		{domain.CategoryInstance, KindTextKeyword, "concrete", 0.25, false},
		{domain.CategoryInstance, KindTextKeyword, "exemplaar", 0.3, false},
		{domain.CategoryInstance, KindTextKeyword, "genaamd", 0.25, false},
		{domain.CategoryInstance, KindTextKeyword, "met kenmerk", 0.25, false},
	}
}

// DefaultPriors returns the built-in context biases.
func DefaultPriors() []PriorBias {
	return []PriorBias{
		{Field: "jurisdiction", Value: "nl", Exact: true, Category: domain.CategoryType, Boost: 0.05},
		{Field: "legal_act", Value: "awb", Category: domain.CategoryResult, Boost: 0.15},
		{Field: "legal_act", Value: "algemene wet bestuursrecht", Category: domain.CategoryResult, Boost: 0.15},
		{Field: "legal_act", Value: "wetboek", Category: domain.CategoryType, Boost: 0.1},
	}
}

type CategorizerService struct {
	lexicon        []LexiconEntry
	priors         []PriorBias
	highConfidence float64
	logger         *zap.Logger
	metrics        *metrics.Metrics
}

func NewCategorizerService(logger *zap.Logger) *CategorizerService {
	return &CategorizerService{
		lexicon:        DefaultLexicon(),
		priors:         DefaultPriors(),
		highConfidence: HighConfidence,
		logger:         logger,
	}
}

func (s *CategorizerService) SetLexicon(entries []LexiconEntry) {
	s.lexicon = entries
}

func (s *CategorizerService) SetPriors(priors []PriorBias) {
	s.priors = priors
}

// SetHighConfidence changes the score a unique leader must exceed for step 4.
func (s *CategorizerService) SetHighConfidence(v float64) error {
	if !(v > 0 && v < 1) {
		return fmt.Errorf("%w: got %v", ErrConfidenceBounds, v)
	}
	s.highConfidence = v
	return nil
}

func (s *CategorizerService) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// Categorize assigns exactly one category to a definition. The result is a
// pure function of its inputs and the configured lexicon and priors.
func (s *CategorizerService) Categorize(term, text string, ctxRef domain.ContextRef) (*CategorizeResult, error) {
	if strings.TrimSpace(term) == "" && strings.TrimSpace(text) == "" {
		return nil, ErrEmptyDefinition
	}
	if ctxRef.IsEmpty() {
		return nil, ErrContextRequired
	}

	normTerm := stripArticles(normalizeText(term))
	normText := stripArticles(normalizeText(text))

	var raw, strict domain.CategoryScores
	var hits []ScoreHit
	for _, e := range s.lexicon {
		if !matchLexicon(e, normTerm, normText) {
			continue
		}
		raw = raw.Add(e.Category, e.Weight)
		if e.Strict {
			strict = strict.Add(e.Category, e.Weight)
		}
		hits = append(hits, ScoreHit{
			Category: e.Category,
			Source:   string(e.Kind),
			Value:    e.Value,
			Weight:   e.Weight,
			Strict:   e.Strict,
		})
	}

	scope := ctxRef.Normalized()
	for _, p := range s.priors {
		if !matchPrior(p, scope) {
			continue
		}
		raw = raw.Add(p.Category, p.Boost)
		hits = append(hits, ScoreHit{
			Category: p.Category,
			Source:   "prior:" + p.Field,
			Value:    p.Value,
			Weight:   p.Boost,
		})
	}

	scores := raw.Clip()
	result := &CategorizeResult{
		Scores:  scores,
		Hits:    hits,
		Clipped: scores != raw,
	}

	leader, unique := scores.Leader()
	switch {
	case unique && leader.Score > s.highConfidence:
		result.Category = leader.Category
		result.Step = StepHighConfidence
	default:
		if lead, ok := strict.Clip().Leader(); ok && lead.Score > 0 {
			result.Category = lead.Category
			result.Step = StepStrictLexicon
		} else if cat, ok := structuralCategory(normTerm, normText); ok {
			result.Category = cat
			result.Step = StepStructural
		} else {
			result.Category = domain.CategoryType
			result.Step = StepDefault
		}
	}
	result.Reasoning = reasoning(result.Step, result.Category, scores, s.highConfidence)

	s.metrics.ObserveCategorization(string(result.Category), string(result.Step))
	s.logger.Debug("categorized definition",
		zap.String("term", term),
		zap.String("category", string(result.Category)),
		zap.String("step", string(result.Step)))

	return result, nil
}

func matchLexicon(e LexiconEntry, normTerm, normText string) bool {
	switch e.Kind {
	case KindTermSuffix:
		last := lastWord(normTerm)
		return last != "" && strings.HasSuffix(last, e.Value)
	case KindTermKeyword:
		return containsPhrase(normTerm, e.Value)
	case KindTextKeyword:
		return containsPhrase(normText, e.Value)
	}
	return false
}

func matchPrior(p PriorBias, scope domain.ContextRef) bool {
	var field string
	switch p.Field {
	case "organisation":
		field = scope.Organisation
	case "jurisdiction":
		field = scope.Jurisdiction
	case "legal_act":
		field = scope.LegalAct
	default:
		return false
	}
	field = strings.ToLower(field)
	value := strings.ToLower(p.Value)
	if field == "" {
		return false
	}
	if p.Exact {
		return field == value
	}
	return strings.Contains(field, value)
}

var (
	processGenus  = map[string]bool{"handeling": true, "proces": true, "activiteit": true, "procedure": true, "werkzaamheid": true}
	resultGenus   = map[string]bool{"resultaat": true, "uitkomst": true, "document": true, "besluit": true, "beslissing": true}
	instanceCues  = []string{"nummer", "kenmerk", "genaamd"}
	enumerations  = []string{"eerste", "tweede", "derde", "sub", "lid"}
	participleEnd = []string{"de", "te", "en"}
)

// structuralCategory applies the shape heuristics of the second fallback
// level, in fixed order: genus word of the text, process phrase, countable
// or enumerated instance, result participle.
func structuralCategory(normTerm, normText string) (domain.Category, bool) {
	genus := firstWord(normText)
	switch {
	case processGenus[genus]:
		return domain.CategoryProcess, true
	case resultGenus[genus]:
		return domain.CategoryResult, true
	}

	last := lastWord(normTerm)
	if len([]rune(last)) > 4 && strings.HasSuffix(last, "en") && !strings.HasPrefix(last, "ge") {
		return domain.CategoryProcess, true
	}

	if strings.IndexFunc(normTerm, unicode.IsDigit) >= 0 {
		return domain.CategoryInstance, true
	}
	for _, cue := range instanceCues {
		if containsPhrase(normText, cue) {
			return domain.CategoryInstance, true
		}
	}
	for _, cue := range enumerations {
		if containsPhrase(normTerm, cue) {
			return domain.CategoryInstance, true
		}
	}

	first := firstWord(normTerm)
	if strings.HasPrefix(first, "ge") && len([]rune(first)) > 4 {
		for _, end := range participleEnd {
			if strings.HasSuffix(first, end) {
				return domain.CategoryResult, true
			}
		}
	}
	return "", false
}

func reasoning(step DecisionStep, cat domain.Category, scores domain.CategoryScores, threshold float64) string {
	ranked := scores.Ranked()
	top := fmt.Sprintf("%s=%.2f, %s=%.2f", ranked[0].Category, ranked[0].Score, ranked[1].Category, ranked[1].Score)

	switch step {
	case StepHighConfidence:
		return fmt.Sprintf("step 4 (high confidence): %s is the unique top score above %.2f; top scores %s", cat, threshold, top)
	case StepStrictLexicon:
		return fmt.Sprintf("step 5 level 1 (strict lexicon re-score): %s leads on term morphology alone; top scores %s", cat, top)
	case StepStructural:
		return fmt.Sprintf("step 5 level 2 (structural heuristics): %s from the shape of term and text; top scores %s", cat, top)
	default:
		return fmt.Sprintf("step 5 level 3 (default): no decisive evidence, falling back to %s; top scores %s", cat, top)
	}
}
