package domain

import (
	"errors"
	"fmt"
	"math"
)

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// Rank orders severities, most severe first.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	default:
		return 4
	}
}

// Rule is the registry view of a configured rule code.
type Rule struct {
	Code          string         `json:"code"`
	Weight        float64        `json:"weight"`
	CategoryScope []Category     `json:"category_scope,omitempty"` // empty means all
	Blocking      bool           `json:"blocking"`
	Params        map[string]any `json:"params,omitempty"`
}

// AppliesTo reports whether the rule is in scope for category c. An unset
// category matches every rule.
func (r Rule) AppliesTo(c Category) bool {
	if len(r.CategoryScope) == 0 || !c.IsSet() {
		return true
	}
	for _, s := range r.CategoryScope {
		if s == c {
			return true
		}
	}
	return false
}

type Violation struct {
	Code        string   `json:"code"`
	Message     string   `json:"message"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
	Blocking    bool     `json:"blocking"`
}

// NewViolation builds a violation whose description mirrors its message, as
// downstream displays read either field.
func NewViolation(code, message string, severity Severity, blocking bool) Violation {
	return Violation{
		Code:        code,
		Message:     message,
		Description: message,
		Severity:    severity,
		Blocking:    blocking,
	}
}

type RuleStatus string

const (
	RuleStatusPassed RuleStatus = "passed"
	RuleStatusFailed RuleStatus = "failed"
	// RuleStatusError means the rule is configured but could not evaluate.
	RuleStatusError RuleStatus = "error"
	// RuleStatusUnavailable means the code is enabled but no evaluator exists.
	RuleStatusUnavailable RuleStatus = "unavailable"
)

type RuleResult struct {
	Code   string     `json:"code"`
	Status RuleStatus `json:"status"`
	Score  *float64   `json:"score,omitempty"`
	Weight float64    `json:"weight"`
}

type GateDecision struct {
	Acceptable         bool     `json:"acceptable"`
	OverallAccept      float64  `json:"overall_accept"`
	CategoryMin        *float64 `json:"category_min,omitempty"`
	BlockingViolations int      `json:"blocking_violations"`
	Reasons            []string `json:"reasons,omitempty"`
}

type SystemInfo struct {
	CorrelationID    string   `json:"correlation_id"`
	Degraded         bool     `json:"degraded"`
	FailedRules      []string `json:"failed_rules,omitempty"`
	UnavailableRules []string `json:"unavailable_rules,omitempty"`
	DegradedReason   string   `json:"degraded_reason,omitempty"`
}

// ValidationResult is the versioned validation contract. Consumers must ignore
// fields they do not know.
type ValidationResult struct {
	Version        string             `json:"version"`
	OverallScore   float64            `json:"overall_score"`
	IsAcceptable   bool               `json:"is_acceptable"`
	Violations     []Violation        `json:"violations"`
	PassedRules    []string           `json:"passed_rules"`
	DetailedScores map[string]float64 `json:"detailed_scores"`
	RuleResults    []RuleResult       `json:"rule_results,omitempty"`
	Category       Category           `json:"category,omitempty"`
	AcceptanceGate GateDecision       `json:"acceptance_gate"`
	System         SystemInfo         `json:"system"`
}

var ErrContractViolation = errors.New("validation contract violated")

// CheckContract verifies the invariants every emitted result must satisfy.
func (r *ValidationResult) CheckContract() error {
	if r.Version == "" {
		return fmt.Errorf("%w: empty version", ErrContractViolation)
	}
	if r.System.CorrelationID == "" {
		return fmt.Errorf("%w: empty correlation_id", ErrContractViolation)
	}
	if math.IsNaN(r.OverallScore) || r.OverallScore < 0 || r.OverallScore > 1 {
		return fmt.Errorf("%w: overall_score %v outside [0,1]", ErrContractViolation, r.OverallScore)
	}
	for code, s := range r.DetailedScores {
		if math.IsNaN(s) || s < 0 || s > 1 {
			return fmt.Errorf("%w: score for %s %v outside [0,1]", ErrContractViolation, code, s)
		}
	}
	for _, v := range r.Violations {
		if v.Description != v.Message {
			return fmt.Errorf("%w: violation %s description differs from message", ErrContractViolation, v.Code)
		}
	}
	if r.IsAcceptable != r.AcceptanceGate.Acceptable {
		return fmt.Errorf("%w: is_acceptable disagrees with acceptance gate", ErrContractViolation)
	}
	return nil
}
