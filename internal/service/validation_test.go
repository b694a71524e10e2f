package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Harshitk-cp/begrippen/internal/domain"
	"github.com/Harshitk-cp/begrippen/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubRule is a configurable RuleEvaluator for orchestrator tests.
type stubRule struct {
	code    string
	scope   []domain.Category
	outcome RuleOutcome
	err     error
	panics  bool
	delay   time.Duration
}

func (r stubRule) Code() string { return r.code }

func (r stubRule) Scope() []domain.Category { return r.scope }

func (r stubRule) Evaluate(ctx context.Context, in RuleInput) (RuleOutcome, error) {
	if r.panics {
		panic("rule exploded")
	}
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return RuleOutcome{}, ctx.Err()
		}
	}
	return r.outcome, r.err
}

func passing(code string) stubRule {
	return stubRule{code: code, outcome: pass()}
}

func failing(code string, score float64, sev domain.Severity) stubRule {
	return stubRule{code: code, outcome: fail(score, sev, "%s failed", code)}
}

func newValidator(t *testing.T, rulesYAML string, rules ...RuleEvaluator) *ValidationService {
	t.Helper()
	snap, err := registry.Parse([]byte(rulesYAML))
	require.NoError(t, err)
	return NewValidationService(registry.NewStaticHolder(snap, zap.NewNop()), NewRuleCatalog(rules...), zap.NewNop())
}

func validate(t *testing.T, s *ValidationService, req ValidationRequest) *domain.ValidationResult {
	t.Helper()
	res, err := s.Validate(context.Background(), req)
	require.NoError(t, err)
	require.NoError(t, res.CheckContract())
	return res
}

func TestValidate_CopulaScenario(t *testing.T) {
	snap, err := registry.Parse([]byte(`
contract_version: "1.2.0"
enabled_codes: [STR-01]
`))
	require.NoError(t, err)
	s := NewValidationService(registry.NewStaticHolder(snap, zap.NewNop()), DefaultRuleCatalog(nil), zap.NewNop())

	res := validate(t, s, ValidationRequest{
		Begrip: "sanctie",
		Text:   "is een corrigerende actie opgelegd …",
	})

	require.Len(t, res.Violations, 1)
	v := res.Violations[0]
	assert.Equal(t, "STR-01", v.Code)
	assert.NotEmpty(t, v.Message)
	assert.Equal(t, v.Message, v.Description)
	assert.Equal(t, "1.2.0", res.Version)
	assert.NotEmpty(t, res.System.CorrelationID)
}

func TestValidate_Monotonicity(t *testing.T) {
	base := newValidator(t, "enabled_codes: [A, C]\n",
		failing("A", 0.4, domain.SeverityMedium), failing("C", 0.6, domain.SeverityLow), passing("B"))
	extended := newValidator(t, "enabled_codes: [A, C, B]\nweights:\n  B: 2\n",
		failing("A", 0.4, domain.SeverityMedium), failing("C", 0.6, domain.SeverityLow), passing("B"))

	req := ValidationRequest{Begrip: "x", Text: "tekst"}
	before := validate(t, base, req)
	after := validate(t, extended, req)

	assert.InDelta(t, 0.5, before.OverallScore, 1e-9)
	assert.GreaterOrEqual(t, after.OverallScore, before.OverallScore)
	assert.InDelta(t, 0.75, after.OverallScore, 1e-9)
}

func TestValidate_BlockingForcesReject(t *testing.T) {
	s := newValidator(t, `
enabled_codes: [A, B]
weights:
  A: 10
thresholds:
  overall_accept: 0.5
blocking: [B]
`, passing("A"), failing("B", 0.9, domain.SeverityHigh))

	res := validate(t, s, ValidationRequest{Begrip: "x", Text: "tekst"})

	assert.Greater(t, res.OverallScore, 0.5)
	assert.False(t, res.IsAcceptable)
	assert.Equal(t, 1, res.AcceptanceGate.BlockingViolations)
	require.Len(t, res.Violations, 1)
	assert.True(t, res.Violations[0].Blocking)
}

func TestValidate_Acceptable(t *testing.T) {
	s := newValidator(t, `
enabled_codes: [A, B]
thresholds:
  overall_accept: 0.7
  category_min:
    proces: 0.9
`, passing("A"), failing("B", 0.6, domain.SeverityLow))

	res := validate(t, s, ValidationRequest{Begrip: "x", Text: "tekst"})
	assert.InDelta(t, 0.8, res.OverallScore, 1e-9)
	assert.True(t, res.IsAcceptable)
	assert.Equal(t, []string{"A"}, res.PassedRules)
	assert.Equal(t, map[string]float64{"A": 1, "B": 0.6}, res.DetailedScores)

	res = validate(t, s, ValidationRequest{Begrip: "x", Text: "tekst", Category: domain.CategoryProcess})
	assert.False(t, res.IsAcceptable, "category minimum applies")
	require.NotNil(t, res.AcceptanceGate.CategoryMin)
	assert.Equal(t, 0.9, *res.AcceptanceGate.CategoryMin)
}

func TestValidate_DegradedRuleFailures(t *testing.T) {
	s := newValidator(t, `
contract_version: "3.0.0"
enabled_codes: [OK, ERR, PANIC, SLOW, MISSING]
thresholds:
  max_failure_ratio: 1
`,
		passing("OK"),
		stubRule{code: "ERR", err: errors.New("backend down")},
		stubRule{code: "PANIC", panics: true},
		stubRule{code: "SLOW", outcome: pass(), delay: time.Second},
	)

	res := validate(t, s, ValidationRequest{Begrip: "x", Text: "tekst", RuleTimeout: 20 * time.Millisecond})

	assert.Equal(t, "3.0.0", res.Version)
	assert.True(t, res.System.Degraded)
	assert.Equal(t, []string{"ERR", "PANIC", "SLOW"}, res.System.FailedRules)
	assert.Equal(t, []string{"MISSING"}, res.System.UnavailableRules)
	// failed rules are excluded from the aggregate
	assert.Equal(t, 1.0, res.OverallScore)
	assert.True(t, res.IsAcceptable)

	statuses := make(map[string]domain.RuleStatus)
	for _, r := range res.RuleResults {
		statuses[r.Code] = r.Status
	}
	assert.Equal(t, domain.RuleStatusPassed, statuses["OK"])
	assert.Equal(t, domain.RuleStatusError, statuses["SLOW"])
	assert.Equal(t, domain.RuleStatusUnavailable, statuses["MISSING"])

	for _, v := range res.Violations {
		assert.False(t, v.Blocking, "evaluation failures never block")
	}
}

func TestValidate_FailureRatioClosesGate(t *testing.T) {
	s := newValidator(t, `
enabled_codes: [OK, E1, E2]
thresholds:
  max_failure_ratio: 0.5
`,
		passing("OK"),
		stubRule{code: "E1", err: errors.New("x")},
		stubRule{code: "E2", err: errors.New("y")},
	)

	res := validate(t, s, ValidationRequest{Begrip: "x", Text: "tekst"})
	assert.Equal(t, 1.0, res.OverallScore)
	assert.False(t, res.IsAcceptable)
	assert.True(t, res.System.Degraded)
}

func TestValidate_NothingEvaluatedClosesGate(t *testing.T) {
	s := newValidator(t, `
enabled_codes: [E1, MISSING]
thresholds:
  overall_accept: 0
  max_failure_ratio: 1
`,
		stubRule{code: "E1", err: errors.New("backend down")},
	)

	res := validate(t, s, ValidationRequest{Begrip: "x", Text: "tekst"})
	assert.Equal(t, 0.0, res.OverallScore)
	assert.True(t, res.System.Degraded)
	assert.False(t, res.IsAcceptable)
	assert.Contains(t, res.AcceptanceGate.Reasons, "no rule produced a score")
}

func TestValidate_VersionStableWhenDegraded(t *testing.T) {
	t.Run("empty rule set", func(t *testing.T) {
		s := newValidator(t, "contract_version: \"4.1.0\"\n")
		res := validate(t, s, ValidationRequest{Begrip: "x", Text: "tekst"})
		assert.Equal(t, "4.1.0", res.Version)
		assert.True(t, res.System.Degraded)
		assert.False(t, res.IsAcceptable)
		assert.Equal(t, 0.0, res.OverallScore)
	})

	t.Run("no snapshot", func(t *testing.T) {
		s := NewValidationService(nil, NewRuleCatalog(), zap.NewNop())
		res := validate(t, s, ValidationRequest{Begrip: "x", Text: "tekst"})
		assert.Equal(t, registry.DefaultContractVersion, res.Version)
		assert.True(t, res.System.Degraded)
	})
}

func TestValidate_CategoryScope(t *testing.T) {
	s := newValidator(t, "enabled_codes: [A, PROC]\n",
		passing("A"),
		stubRule{code: "PROC", scope: []domain.Category{domain.CategoryProcess}, outcome: fail(0, domain.SeverityMedium, "no activity")},
	)

	res := validate(t, s, ValidationRequest{Begrip: "x", Text: "tekst", Category: domain.CategoryType})
	assert.Equal(t, []string{"A"}, res.PassedRules)
	assert.Len(t, res.RuleResults, 1)

	res = validate(t, s, ValidationRequest{Begrip: "x", Text: "tekst", Category: domain.CategoryProcess})
	assert.Len(t, res.RuleResults, 2)
	assert.Len(t, res.Violations, 1)
}

func TestValidate_ViolationOrder(t *testing.T) {
	s := newValidator(t, "enabled_codes: [Z, B, A]\n",
		failing("Z", 0, domain.SeverityCritical),
		failing("B", 0, domain.SeverityLow),
		failing("A", 0, domain.SeverityLow),
	)

	res := validate(t, s, ValidationRequest{Begrip: "x", Text: "tekst"})
	codes := make([]string, 0, len(res.Violations))
	for _, v := range res.Violations {
		codes = append(codes, v.Code)
	}
	assert.Equal(t, []string{"Z", "A", "B"}, codes)
}

func TestValidate_ContractViolation(t *testing.T) {
	s := newValidator(t, "enabled_codes: [BAD]\n",
		stubRule{code: "BAD", outcome: RuleOutcome{Passed: true, Score: 1.5}})

	_, err := s.Validate(context.Background(), ValidationRequest{Begrip: "x", Text: "tekst"})
	assert.ErrorIs(t, err, domain.ErrContractViolation)
}

func TestValidate_InputErrors(t *testing.T) {
	s := newValidator(t, "enabled_codes: [A]\n", passing("A"))

	_, err := s.Validate(context.Background(), ValidationRequest{Text: "   "})
	assert.ErrorIs(t, err, ErrTextRequired)

	_, err = s.Validate(context.Background(), ValidationRequest{Text: "tekst", Category: "concept"})
	assert.ErrorIs(t, err, ErrInvalidCategory)
}

func TestValidate_CorrelationID(t *testing.T) {
	s := newValidator(t, "enabled_codes: [A]\n", passing("A"))

	res := validate(t, s, ValidationRequest{Text: "tekst", CorrelationID: "req-123"})
	assert.Equal(t, "req-123", res.System.CorrelationID)

	a := validate(t, s, ValidationRequest{Text: "tekst"})
	b := validate(t, s, ValidationRequest{Text: "tekst"})
	assert.NotEqual(t, a.System.CorrelationID, b.System.CorrelationID)
	assert.Len(t, strings.Split(a.System.CorrelationID, "-"), 5)
}
