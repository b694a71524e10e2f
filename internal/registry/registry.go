package registry

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/Harshitk-cp/begrippen/internal/domain"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultContractVersion is stamped on results when the rule file does not
	// declare a contract_version, or when no rule file could be loaded.
	DefaultContractVersion = "1.0.0"
	// DefaultRuleWeight applies to enabled codes without a weights entry.
	DefaultRuleWeight = 1.0
	// DefaultMaxFailureRatio is the share of rules allowed to fail evaluation
	// before the acceptance gate is forced closed.
	DefaultMaxFailureRatio = 0.5
)

var ErrInvalidConfig = errors.New("invalid rule configuration")

// ruleFile mirrors the YAML rule configuration document.
type ruleFile struct {
	ContractVersion string                    `yaml:"contract_version"`
	EnabledCodes    []string                  `yaml:"enabled_codes"`
	Weights         map[string]float64        `yaml:"weights"`
	Thresholds      thresholdsFile            `yaml:"thresholds"`
	Params          map[string]map[string]any `yaml:"params"`
	CategoryScope   map[string][]string       `yaml:"category_scope"`
	Blocking        []string                  `yaml:"blocking"`
}

type thresholdsFile struct {
	OverallAccept   float64            `yaml:"overall_accept"`
	CategoryMin     map[string]float64 `yaml:"category_min"`
	MaxFailureRatio *float64           `yaml:"max_failure_ratio"`
}

type Thresholds struct {
	OverallAccept   float64                     `json:"overall_accept"`
	CategoryMin     map[domain.Category]float64 `json:"category_min,omitempty"`
	MaxFailureRatio float64                     `json:"max_failure_ratio"`
}

// Snapshot is an immutable view of a loaded rule configuration. Accessors hand
// out copies so callers cannot alter a snapshot shared by concurrent
// validations.
type Snapshot struct {
	contractVersion string
	enabled         []string
	rules           map[string]domain.Rule
	thresholds      Thresholds
	source          string
	loadedAt        time.Time
}

// Load reads and parses the rule file at path.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule file: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, err
	}
	s.source = path
	return s, nil
}

// Parse builds a snapshot from a YAML document. Unknown keys, out-of-range
// thresholds and invalid weights are configuration errors.
func Parse(data []byte) (*Snapshot, error) {
	var f ruleFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	s := &Snapshot{
		contractVersion: strings.TrimSpace(f.ContractVersion),
		rules:           make(map[string]domain.Rule, len(f.EnabledCodes)),
		loadedAt:        time.Now().UTC(),
	}
	if s.contractVersion == "" {
		s.contractVersion = DefaultContractVersion
	}

	th, err := parseThresholds(f.Thresholds)
	if err != nil {
		return nil, err
	}
	s.thresholds = th

	blocking := make(map[string]bool, len(f.Blocking))
	for _, code := range f.Blocking {
		blocking[strings.TrimSpace(code)] = true
	}

	for _, raw := range f.EnabledCodes {
		code := strings.TrimSpace(raw)
		if code == "" {
			return nil, fmt.Errorf("%w: empty rule code in enabled_codes", ErrInvalidConfig)
		}
		if _, dup := s.rules[code]; dup {
			return nil, fmt.Errorf("%w: rule code %s enabled twice", ErrInvalidConfig, code)
		}

		weight := DefaultRuleWeight
		if w, ok := f.Weights[code]; ok {
			if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
				return nil, fmt.Errorf("%w: weight for %s must be a non-negative number", ErrInvalidConfig, code)
			}
			weight = w
		}

		var scope []domain.Category
		for _, c := range f.CategoryScope[code] {
			cat, err := domain.ParseCategory(c)
			if err != nil || cat == "" {
				return nil, fmt.Errorf("%w: category_scope for %s: unknown category %q", ErrInvalidConfig, code, c)
			}
			scope = append(scope, cat)
		}

		s.enabled = append(s.enabled, code)
		s.rules[code] = domain.Rule{
			Code:          code,
			Weight:        weight,
			CategoryScope: scope,
			Blocking:      blocking[code],
			Params:        copyParams(f.Params[code]),
		}
	}

	return s, nil
}

func parseThresholds(f thresholdsFile) (Thresholds, error) {
	th := Thresholds{
		OverallAccept:   f.OverallAccept,
		MaxFailureRatio: DefaultMaxFailureRatio,
	}
	if !inUnit(th.OverallAccept) {
		return th, fmt.Errorf("%w: thresholds.overall_accept %v outside [0,1]", ErrInvalidConfig, th.OverallAccept)
	}
	if f.MaxFailureRatio != nil {
		if !inUnit(*f.MaxFailureRatio) {
			return th, fmt.Errorf("%w: thresholds.max_failure_ratio %v outside [0,1]", ErrInvalidConfig, *f.MaxFailureRatio)
		}
		th.MaxFailureRatio = *f.MaxFailureRatio
	}
	if len(f.CategoryMin) > 0 {
		th.CategoryMin = make(map[domain.Category]float64, len(f.CategoryMin))
		for k, v := range f.CategoryMin {
			cat, err := domain.ParseCategory(k)
			if err != nil || cat == "" {
				return th, fmt.Errorf("%w: thresholds.category_min: unknown category %q", ErrInvalidConfig, k)
			}
			if !inUnit(v) {
				return th, fmt.Errorf("%w: thresholds.category_min.%s %v outside [0,1]", ErrInvalidConfig, k, v)
			}
			th.CategoryMin[cat] = v
		}
	}
	return th, nil
}

func inUnit(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}

func copyParams(p map[string]any) map[string]any {
	if len(p) == 0 {
		return nil
	}
	out := make(map[string]any, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

func copyRule(r domain.Rule) domain.Rule {
	r.Params = copyParams(r.Params)
	if r.CategoryScope != nil {
		r.CategoryScope = append([]domain.Category(nil), r.CategoryScope...)
	}
	return r
}

func (s *Snapshot) ContractVersion() string {
	return s.contractVersion
}

func (s *Snapshot) Source() string {
	return s.source
}

func (s *Snapshot) LoadedAt() time.Time {
	return s.loadedAt
}

// EnabledCodes returns the enabled rule codes in configuration order,
// restricted to rules in scope for category when it is set.
func (s *Snapshot) EnabledCodes(category domain.Category) []string {
	codes := make([]string, 0, len(s.enabled))
	for _, code := range s.enabled {
		if s.rules[code].AppliesTo(category) {
			codes = append(codes, code)
		}
	}
	return codes
}

// Rule returns the configured rule for code. The boolean is false when the
// code is not enabled, which callers must distinguish from a failing rule.
func (s *Snapshot) Rule(code string) (domain.Rule, bool) {
	r, ok := s.rules[code]
	if !ok {
		return domain.Rule{}, false
	}
	return copyRule(r), true
}

// Rules returns the enabled rules in scope for category.
func (s *Snapshot) Rules(category domain.Category) []domain.Rule {
	codes := s.EnabledCodes(category)
	rules := make([]domain.Rule, 0, len(codes))
	for _, code := range codes {
		rules = append(rules, copyRule(s.rules[code]))
	}
	return rules
}

func (s *Snapshot) Thresholds() Thresholds {
	th := s.thresholds
	if th.CategoryMin != nil {
		th.CategoryMin = make(map[domain.Category]float64, len(s.thresholds.CategoryMin))
		for k, v := range s.thresholds.CategoryMin {
			th.CategoryMin[k] = v
		}
	}
	return th
}

// CategoryMin returns the minimum overall score for category, if configured.
func (s *Snapshot) CategoryMin(category domain.Category) (float64, bool) {
	v, ok := s.thresholds.CategoryMin[category]
	return v, ok
}

// Summary describes the snapshot for introspection endpoints.
type Summary struct {
	ContractVersion string        `json:"contract_version"`
	Source          string        `json:"source,omitempty"`
	LoadedAt        time.Time     `json:"loaded_at"`
	Rules           []domain.Rule `json:"rules"`
	Thresholds      Thresholds    `json:"thresholds"`
}

func (s *Snapshot) Summary() Summary {
	rules := s.Rules("")
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Code < rules[j].Code })
	return Summary{
		ContractVersion: s.contractVersion,
		Source:          s.source,
		LoadedAt:        s.loadedAt,
		Rules:           rules,
		Thresholds:      s.Thresholds(),
	}
}
