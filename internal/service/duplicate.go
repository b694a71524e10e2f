package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Harshitk-cp/begrippen/internal/domain"
	"github.com/Harshitk-cp/begrippen/internal/metrics"
	"github.com/Harshitk-cp/begrippen/internal/registry"
	"go.uber.org/zap"
)

var ErrNoDefinitionStore = errors.New("no definition store configured")

const (
	// FuzzyThreshold is the inclusive minimum token Jaccard for a fuzzy match.
	FuzzyThreshold = 0.70
	// SynonymThreshold is the inclusive minimum expanded overlap for a synonym match.
	SynonymThreshold = 0.70

	ExactStageWeight   = 1.0
	SynonymStageWeight = 0.9
	FuzzyStageWeight   = 0.8
)

type DuplicateConfig struct {
	FuzzyThreshold     float64
	SynonymThreshold   float64
	ExactStageWeight   float64
	SynonymStageWeight float64
	FuzzyStageWeight   float64
}

func DefaultDuplicateConfig() DuplicateConfig {
	return DuplicateConfig{
		FuzzyThreshold:     FuzzyThreshold,
		SynonymThreshold:   SynonymThreshold,
		ExactStageWeight:   ExactStageWeight,
		SynonymStageWeight: SynonymStageWeight,
		FuzzyStageWeight:   FuzzyStageWeight,
	}
}

// Validate checks thresholds are in (0,1] and stage weights keep the order
// exact > synonym > fuzzy.
func (c DuplicateConfig) Validate() error {
	if c.FuzzyThreshold <= 0 || c.FuzzyThreshold > 1 {
		return fmt.Errorf("fuzzy threshold %v outside (0,1]", c.FuzzyThreshold)
	}
	if c.SynonymThreshold <= 0 || c.SynonymThreshold > 1 {
		return fmt.Errorf("synonym threshold %v outside (0,1]", c.SynonymThreshold)
	}
	if !(c.ExactStageWeight > c.SynonymStageWeight && c.SynonymStageWeight > c.FuzzyStageWeight && c.FuzzyStageWeight > 0) {
		return fmt.Errorf("stage weights must satisfy exact > synonym > fuzzy > 0")
	}
	return nil
}

// DuplicateService detects near-duplicate definitions. It keeps no corpus
// state; every call works on the corpus it is given.
type DuplicateService struct {
	cfg      DuplicateConfig
	synonyms *registry.SynonymTable
	store    domain.DefinitionStore
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

func NewDuplicateService(synonyms *registry.SynonymTable, logger *zap.Logger) *DuplicateService {
	return &DuplicateService{
		cfg:      DefaultDuplicateConfig(),
		synonyms: synonyms,
		logger:   logger,
	}
}

func (s *DuplicateService) SetConfig(cfg DuplicateConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.cfg = cfg
	return nil
}

func (s *DuplicateService) SetStore(store domain.DefinitionStore) {
	s.store = store
}

func (s *DuplicateService) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

type preparedText struct {
	normalized string
	tokens     map[string]struct{}
	expanded   map[string]struct{}
}

func (s *DuplicateService) prepare(text string) preparedText {
	n := normalizeText(text)
	tokens := tokenSet(n)
	return preparedText{
		normalized: n,
		tokens:     tokens,
		expanded:   s.synonyms.Expand(n, tokens),
	}
}

// FindDuplicates compares candidate with every in-scope member of corpus.
// Matches are ordered by combined score, then stage priority, then corpus
// order.
func (s *DuplicateService) FindDuplicates(candidate domain.Definition, corpus []domain.Definition) ([]domain.DuplicateMatch, error) {
	if strings.TrimSpace(candidate.Text) == "" {
		return nil, ErrEmptyDefinition
	}
	if candidate.Context.IsEmpty() {
		return nil, ErrContextRequired
	}

	cand := s.prepare(candidate.Text)
	candTerm := normalizeText(candidate.Term)
	matches := make([]domain.DuplicateMatch, 0)
	byPair := make(map[string]int)

	for i, existing := range corpus {
		if candidate.ID != "" && existing.ID == candidate.ID {
			continue
		}
		// without an id, an entry equal in term, text and context is the
		// candidate itself
		if candidate.ID == "" && sameDefinition(candTerm, cand.normalized, candidate.Context, existing) {
			continue
		}
		if existing.Context.IsEmpty() {
			continue
		}
		scope := candidate.Context.Scope(existing.Context)
		if scope == domain.ScopeIncompatible {
			continue
		}

		best, ok := s.bestStage(cand, s.prepare(existing.Text))
		if !ok {
			continue
		}
		best.CandidateID = candidate.ID
		best.ExistingID = existing.ID
		best.ExistingTerm = existing.Term
		best.ContextScopeMatched = scope == domain.ScopeExact

		key := existing.ID
		if key == "" {
			key = "#" + strconv.Itoa(i)
		}
		if j, seen := byPair[key]; seen {
			if better(best, matches[j]) {
				matches[j] = best
			}
			continue
		}
		byPair[key] = len(matches)
		matches = append(matches, best)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].CombinedScore != matches[j].CombinedScore {
			return matches[i].CombinedScore > matches[j].CombinedScore
		}
		return matches[i].Stage.Priority() < matches[j].Stage.Priority()
	})

	for _, m := range matches {
		s.metrics.ObserveDuplicate(string(m.Stage))
	}
	return matches, nil
}

func sameDefinition(term, text string, ctx domain.ContextRef, existing domain.Definition) bool {
	return term == normalizeText(existing.Term) &&
		text == normalizeText(existing.Text) &&
		ctx.Normalized() == existing.Context.Normalized()
}

// bestStage runs all three stages for one pair and keeps the highest scoring
// one.
func (s *DuplicateService) bestStage(a, b preparedText) (domain.DuplicateMatch, bool) {
	var stages []domain.DuplicateMatch

	if a.normalized != "" && a.normalized == b.normalized {
		stages = append(stages, domain.DuplicateMatch{
			Stage:         domain.StageExact,
			Similarity:    1.0,
			CombinedScore: s.cfg.ExactStageWeight,
		})
	}

	raw := jaccard(a.tokens, b.tokens)
	expanded := jaccard(a.expanded, b.expanded)
	if expanded > raw && expanded >= s.cfg.SynonymThreshold {
		stages = append(stages, domain.DuplicateMatch{
			Stage:         domain.StageSynonym,
			Similarity:    expanded,
			CombinedScore: expanded * s.cfg.SynonymStageWeight,
		})
	}
	if raw >= s.cfg.FuzzyThreshold {
		stages = append(stages, domain.DuplicateMatch{
			Stage:         domain.StageFuzzy,
			Similarity:    raw,
			CombinedScore: raw * s.cfg.FuzzyStageWeight,
		})
	}

	if len(stages) == 0 {
		return domain.DuplicateMatch{}, false
	}
	best := stages[0]
	for _, m := range stages[1:] {
		if better(m, best) {
			best = m
		}
	}
	return best, true
}

func better(a, b domain.DuplicateMatch) bool {
	if a.CombinedScore != b.CombinedScore {
		return a.CombinedScore > b.CombinedScore
	}
	return a.Stage.Priority() < b.Stage.Priority()
}

// FindDuplicatesInStore runs FindDuplicates against a fresh corpus snapshot
// from the configured store.
func (s *DuplicateService) FindDuplicatesInStore(ctx context.Context, candidate domain.Definition) ([]domain.DuplicateMatch, error) {
	if s.store == nil {
		return nil, ErrNoDefinitionStore
	}
	if candidate.Context.IsEmpty() {
		return nil, ErrContextRequired
	}

	corpus, err := s.store.ListByScope(ctx, candidate.Context)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}

	matches, err := s.FindDuplicates(candidate, corpus)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("duplicate check",
		zap.String("term", candidate.Term),
		zap.Int("corpus", len(corpus)),
		zap.Int("matches", len(matches)))
	return matches, nil
}
