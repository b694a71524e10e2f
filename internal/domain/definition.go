package domain

import (
	"strings"
	"time"
)

// ContextRef scopes a definition to an organisation, jurisdiction and/or legal
// act. At least one of the three must be present before a definition can be
// categorized or compared.
type ContextRef struct {
	Organisation string `json:"organisation,omitempty"`
	Jurisdiction string `json:"jurisdiction,omitempty"`
	LegalAct     string `json:"legal_act,omitempty"`
}

func (c ContextRef) IsEmpty() bool {
	n := c.Normalized()
	return n.Organisation == "" && n.Jurisdiction == "" && n.LegalAct == ""
}

// Normalized returns the casefolded, trimmed form used for comparisons.
func (c ContextRef) Normalized() ContextRef {
	return ContextRef{
		Organisation: strings.ToLower(strings.Join(strings.Fields(c.Organisation), " ")),
		Jurisdiction: strings.ToLower(strings.Join(strings.Fields(c.Jurisdiction), " ")),
		LegalAct:     strings.ToLower(strings.Join(strings.Fields(c.LegalAct), " ")),
	}
}

func (c ContextRef) fields() [3]string {
	n := c.Normalized()
	return [3]string{n.Organisation, n.Jurisdiction, n.LegalAct}
}

// ScopeMatch describes how two context scopes relate.
type ScopeMatch int

const (
	ScopeIncompatible ScopeMatch = iota
	ScopeBroadened
	ScopeExact
)

func (m ScopeMatch) String() string {
	switch m {
	case ScopeExact:
		return "exact"
	case ScopeBroadened:
		return "broadened"
	default:
		return "incompatible"
	}
}

// Scope compares c with other. Scopes are incompatible when any field set on
// both sides differs, or when no field is set on both sides. They match
// exactly when the same fields are set with equal values; any other agreeing
// combination is a broadened match.
func (c ContextRef) Scope(other ContextRef) ScopeMatch {
	a, b := c.fields(), other.fields()
	shared := 0
	sameShape := true
	for i := range a {
		switch {
		case a[i] != "" && b[i] != "":
			if a[i] != b[i] {
				return ScopeIncompatible
			}
			shared++
		case a[i] != "" || b[i] != "":
			sameShape = false
		}
	}
	if shared == 0 {
		return ScopeIncompatible
	}
	if sameShape {
		return ScopeExact
	}
	return ScopeBroadened
}

// Definition is a candidate or stored term definition. Once validated it is
// treated as immutable; regeneration produces a new Definition.
type Definition struct {
	ID        string     `json:"id,omitempty"`
	Term      string     `json:"term"`
	Text      string     `json:"text"`
	Category  Category   `json:"category,omitempty"`
	Context   ContextRef `json:"context"`
	CreatedAt time.Time  `json:"created_at,omitempty"`
	Source    string     `json:"source,omitempty"`
}
