package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Harshitk-cp/begrippen/internal/domain"
	"github.com/Harshitk-cp/begrippen/internal/metrics"
	"github.com/Harshitk-cp/begrippen/internal/registry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrTextRequired    = errors.New("definition text is required")
	ErrInvalidCategory = errors.New("invalid category")
	ErrRuleTimeout     = errors.New("rule evaluation timed out")
	ErrRulePanicked    = errors.New("rule evaluation panicked")
)

// DefaultRuleTimeout bounds a single rule evaluation when the request sets no
// budget.
const DefaultRuleTimeout = 5 * time.Second

type ValidationRequest struct {
	Begrip   string
	Text     string
	Category domain.Category
	Context  *domain.ContextRef
	// CorrelationID is used as-is when set; otherwise a new UUID is assigned.
	CorrelationID string
	// RuleTimeout is the per-rule budget for this request.
	RuleTimeout time.Duration
}

type ValidationService struct {
	registry    *registry.Holder
	catalog     *RuleCatalog
	ruleTimeout time.Duration
	logger      *zap.Logger
	metrics     *metrics.Metrics
}

func NewValidationService(holder *registry.Holder, catalog *RuleCatalog, logger *zap.Logger) *ValidationService {
	return &ValidationService{
		registry:    holder,
		catalog:     catalog,
		ruleTimeout: DefaultRuleTimeout,
		logger:      logger,
	}
}

func (s *ValidationService) SetRuleTimeout(d time.Duration) {
	if d > 0 {
		s.ruleTimeout = d
	}
}

func (s *ValidationService) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// Validate evaluates a definition against the current rule snapshot. Rule
// failures degrade the result instead of failing the call; only input errors
// and contract violations are returned as errors.
func (s *ValidationService) Validate(ctx context.Context, req ValidationRequest) (*domain.ValidationResult, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, ErrTextRequired
	}
	if req.Category != "" && !req.Category.IsSet() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, req.Category)
	}

	correlationID := req.CorrelationID
	if correlationID == "" {
		correlationID = uuid.NewString()
	}

	snap := s.registry.Current()
	if snap == nil {
		return s.finish(degradedResult(registry.DefaultContractVersion, correlationID, req.Category, "no rule snapshot loaded"))
	}

	rules := s.applicableRules(snap, req.Category)
	if len(rules) == 0 {
		return s.finish(degradedResult(snap.ContractVersion(), correlationID, req.Category, "no rules enabled for this category"))
	}

	budget := req.RuleTimeout
	if budget <= 0 {
		budget = s.ruleTimeout
	}
	var scope domain.ContextRef
	if req.Context != nil {
		scope = *req.Context
	}

	thresholds := snap.Thresholds()
	result := &domain.ValidationResult{
		Version:        snap.ContractVersion(),
		Violations:     []domain.Violation{},
		PassedRules:    []string{},
		DetailedScores: make(map[string]float64),
		Category:       req.Category,
		System:         domain.SystemInfo{CorrelationID: correlationID},
	}

	var weighted, weights, plain float64
	evaluated := 0

	for _, rule := range rules {
		ev, ok := s.catalog.Get(rule.Code)
		if !ok {
			result.RuleResults = append(result.RuleResults, domain.RuleResult{Code: rule.Code, Status: domain.RuleStatusUnavailable, Weight: rule.Weight})
			result.System.UnavailableRules = append(result.System.UnavailableRules, rule.Code)
			result.Violations = append(result.Violations, domain.NewViolation(rule.Code,
				fmt.Sprintf("rule %s is enabled but has no implementation", rule.Code), domain.SeverityInfo, false))
			s.metrics.ObserveRule(rule.Code, string(domain.RuleStatusUnavailable))
			continue
		}

		in := RuleInput{
			Begrip:   req.Begrip,
			Text:     req.Text,
			Category: req.Category,
			Context:  scope,
			Params:   rule.Params,
		}
		out, err := s.evaluate(ctx, ev, in, budget)
		if err != nil {
			s.logger.Warn("rule evaluation failed",
				zap.String("correlation_id", correlationID),
				zap.String("code", rule.Code),
				zap.Error(err))
			result.RuleResults = append(result.RuleResults, domain.RuleResult{Code: rule.Code, Status: domain.RuleStatusError, Weight: rule.Weight})
			result.System.FailedRules = append(result.System.FailedRules, rule.Code)
			result.Violations = append(result.Violations, domain.NewViolation(rule.Code,
				fmt.Sprintf("rule %s could not be evaluated: %v", rule.Code, err), domain.SeverityLow, false))
			s.metrics.ObserveRule(rule.Code, string(domain.RuleStatusError))
			continue
		}

		if math.IsNaN(out.Score) || out.Score < 0 || out.Score > 1 {
			return nil, fmt.Errorf("%w: rule %s scored %v", domain.ErrContractViolation, rule.Code, out.Score)
		}

		score := out.Score
		status := domain.RuleStatusPassed
		if out.Passed {
			result.PassedRules = append(result.PassedRules, rule.Code)
		} else {
			status = domain.RuleStatusFailed
			severity := out.Severity
			if severity == "" {
				severity = domain.SeverityMedium
			}
			result.Violations = append(result.Violations, domain.NewViolation(rule.Code, out.Message, severity, rule.Blocking))
		}
		result.RuleResults = append(result.RuleResults, domain.RuleResult{Code: rule.Code, Status: status, Score: &score, Weight: rule.Weight})
		result.DetailedScores[rule.Code] = score
		s.metrics.ObserveRule(rule.Code, string(status))

		weighted += rule.Weight * score
		weights += rule.Weight
		plain += score
		evaluated++
	}

	switch {
	case weights > 0:
		result.OverallScore = clip01(weighted / weights)
	case evaluated > 0:
		// every evaluated rule has weight zero
		result.OverallScore = clip01(plain / float64(evaluated))
	}

	notEvaluated := len(result.System.FailedRules) + len(result.System.UnavailableRules)
	if notEvaluated > 0 {
		result.System.Degraded = true
		result.System.DegradedReason = fmt.Sprintf("%d of %d rules could not be evaluated", notEvaluated, len(rules))
	}

	result.AcceptanceGate = gate(result, thresholds, snap, req.Category, evaluated, notEvaluated, len(rules))
	result.IsAcceptable = result.AcceptanceGate.Acceptable

	sort.SliceStable(result.Violations, func(i, j int) bool {
		a, b := result.Violations[i], result.Violations[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() < b.Severity.Rank()
		}
		return a.Code < b.Code
	})

	return s.finish(result)
}

// applicableRules returns the snapshot's rules for category, narrowed by the
// evaluator's own scope when the registry configures none.
func (s *ValidationService) applicableRules(snap *registry.Snapshot, category domain.Category) []domain.Rule {
	all := snap.Rules(category)
	out := make([]domain.Rule, 0, len(all))
	for _, r := range all {
		if len(r.CategoryScope) == 0 {
			if ev, ok := s.catalog.Get(r.Code); ok {
				r.CategoryScope = ev.Scope()
				if !r.AppliesTo(category) {
					continue
				}
			}
		}
		out = append(out, r)
	}
	return out
}

// evaluate runs one rule under its own deadline. Panics and timeouts become
// errors; the caller never sees partial output.
func (s *ValidationService) evaluate(ctx context.Context, ev RuleEvaluator, in RuleInput, budget time.Duration) (RuleOutcome, error) {
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	type outcome struct {
		out RuleOutcome
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("%w: %v", ErrRulePanicked, r)}
			}
		}()
		out, err := ev.Evaluate(ctx, in)
		done <- outcome{out: out, err: err}
	}()

	select {
	case o := <-done:
		return o.out, o.err
	case <-ctx.Done():
		return RuleOutcome{}, fmt.Errorf("%w after %s: %v", ErrRuleTimeout, budget, ctx.Err())
	}
}

func gate(r *domain.ValidationResult, th registry.Thresholds, snap *registry.Snapshot, category domain.Category, evaluated, notEvaluated, total int) domain.GateDecision {
	g := domain.GateDecision{Acceptable: true, OverallAccept: th.OverallAccept}

	if evaluated == 0 {
		g.Acceptable = false
		g.Reasons = append(g.Reasons, "no rule produced a score")
	}

	if r.OverallScore < th.OverallAccept {
		g.Acceptable = false
		g.Reasons = append(g.Reasons, fmt.Sprintf("overall score %.2f below threshold %.2f", r.OverallScore, th.OverallAccept))
	}

	for _, v := range r.Violations {
		if v.Blocking {
			g.BlockingViolations++
		}
	}
	if g.BlockingViolations > 0 {
		g.Acceptable = false
		g.Reasons = append(g.Reasons, fmt.Sprintf("%d blocking violation(s)", g.BlockingViolations))
	}

	if minScore, ok := snap.CategoryMin(category); ok {
		g.CategoryMin = &minScore
		if r.OverallScore < minScore {
			g.Acceptable = false
			g.Reasons = append(g.Reasons, fmt.Sprintf("overall score %.2f below minimum %.2f for %s", r.OverallScore, minScore, category))
		}
	}

	if total > 0 && float64(notEvaluated)/float64(total) > th.MaxFailureRatio {
		g.Acceptable = false
		g.Reasons = append(g.Reasons, fmt.Sprintf("%d of %d rules could not be evaluated", notEvaluated, total))
	}
	return g
}

func degradedResult(version, correlationID string, category domain.Category, reason string) *domain.ValidationResult {
	return &domain.ValidationResult{
		Version:        version,
		OverallScore:   0,
		IsAcceptable:   false,
		Violations:     []domain.Violation{},
		PassedRules:    []string{},
		DetailedScores: map[string]float64{},
		Category:       category,
		AcceptanceGate: domain.GateDecision{Acceptable: false, Reasons: []string{reason}},
		System: domain.SystemInfo{
			CorrelationID:  correlationID,
			Degraded:       true,
			DegradedReason: reason,
		},
	}
}

func (s *ValidationService) finish(r *domain.ValidationResult) (*domain.ValidationResult, error) {
	if err := r.CheckContract(); err != nil {
		s.logger.Error("validation result violates contract",
			zap.String("correlation_id", r.System.CorrelationID),
			zap.Error(err))
		return nil, err
	}
	if r.System.Degraded {
		s.logger.Warn("validation degraded",
			zap.String("correlation_id", r.System.CorrelationID),
			zap.String("reason", r.System.DegradedReason))
	}
	s.metrics.ObserveValidation(r.IsAcceptable, r.System.Degraded, r.OverallScore)
	return r, nil
}

func clip01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
