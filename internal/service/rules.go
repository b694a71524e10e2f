package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Harshitk-cp/begrippen/internal/domain"
)

var (
	ErrRuleInput         = errors.New("rule input incomplete")
	ErrRuleParam         = errors.New("invalid rule parameter")
	ErrLookupUnavailable = errors.New("web lookup not configured")
)

// RuleInput is everything a rule may look at. Rules must not keep references
// to it after Evaluate returns.
type RuleInput struct {
	Begrip   string
	Text     string
	Category domain.Category
	Context  domain.ContextRef
	Params   map[string]any
}

// RuleOutcome is a rule's verdict. A passing rule scores 1.
type RuleOutcome struct {
	Passed   bool
	Score    float64
	Message  string
	Severity domain.Severity
}

func pass() RuleOutcome {
	return RuleOutcome{Passed: true, Score: 1}
}

func fail(score float64, severity domain.Severity, format string, args ...any) RuleOutcome {
	return RuleOutcome{Score: score, Severity: severity, Message: fmt.Sprintf(format, args...)}
}

// RuleEvaluator checks one quality rule. Evaluate returns an error when the
// rule cannot reach a verdict.
type RuleEvaluator interface {
	Code() string
	// Scope is the default category scope, used when the registry sets none.
	Scope() []domain.Category
	Evaluate(ctx context.Context, in RuleInput) (RuleOutcome, error)
}

type ruleFunc struct {
	code  string
	scope []domain.Category
	fn    func(ctx context.Context, in RuleInput) (RuleOutcome, error)
}

func (r ruleFunc) Code() string { return r.code }

func (r ruleFunc) Scope() []domain.Category { return r.scope }

func (r ruleFunc) Evaluate(ctx context.Context, in RuleInput) (RuleOutcome, error) {
	return r.fn(ctx, in)
}

// RuleCatalog maps rule codes to their evaluators.
type RuleCatalog struct {
	rules map[string]RuleEvaluator
}

func NewRuleCatalog(evaluators ...RuleEvaluator) *RuleCatalog {
	c := &RuleCatalog{rules: make(map[string]RuleEvaluator, len(evaluators))}
	for _, e := range evaluators {
		c.Register(e)
	}
	return c
}

// DefaultRuleCatalog returns every built-in rule. lookup may be nil, in which
// case SAM-01 reports that it cannot evaluate.
func DefaultRuleCatalog(lookup domain.WebLookup) *RuleCatalog {
	return NewRuleCatalog(
		ruleFunc{code: "STR-01", fn: checkNoCopula},
		ruleFunc{code: "STR-02", fn: checkNoArticleOpening},
		ruleFunc{code: "CON-01", fn: checkNotCircular},
		ruleFunc{code: "INT-01", fn: checkSingleSentence},
		ruleFunc{code: "LEN-01", fn: checkLength},
		ruleFunc{code: "ESS-01", fn: checkNoPurpose},
		ruleFunc{code: "ARAI-01", fn: checkNoVagueness},
		ruleFunc{code: "CAT-PROC", scope: []domain.Category{domain.CategoryProcess}, fn: checkProcessWording},
		ruleFunc{code: "CAT-RES", scope: []domain.Category{domain.CategoryResult}, fn: checkResultWording},
		NewWebLookupRule(lookup),
	)
}

func (c *RuleCatalog) Register(e RuleEvaluator) {
	c.rules[e.Code()] = e
}

// Get returns the evaluator for code. ok is false when the code has no
// implementation.
func (c *RuleCatalog) Get(code string) (RuleEvaluator, bool) {
	if c == nil {
		return nil, false
	}
	e, ok := c.rules[code]
	return e, ok
}

func (c *RuleCatalog) Codes() []string {
	codes := make([]string, 0, len(c.rules))
	for code := range c.rules {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

var copulas = map[string]bool{
	"is": true, "zijn": true, "wordt": true, "worden": true, "was": true, "betreft": true,
}

func checkNoCopula(_ context.Context, in RuleInput) (RuleOutcome, error) {
	first := firstWord(normalizeText(in.Text))
	if copulas[first] {
		return fail(0, domain.SeverityHigh,
			"definition opens with the copula %q; start with the genus term instead", first), nil
	}
	return pass(), nil
}

func checkNoArticleOpening(_ context.Context, in RuleInput) (RuleOutcome, error) {
	first := firstWord(normalizeText(in.Text))
	if articles[first] {
		return fail(0, domain.SeverityLow,
			"definition opens with the article %q", first), nil
	}
	return pass(), nil
}

func checkNotCircular(_ context.Context, in RuleInput) (RuleOutcome, error) {
	term := normalizeText(in.Begrip)
	if term == "" {
		return RuleOutcome{}, fmt.Errorf("%w: term is required", ErrRuleInput)
	}
	if containsPhrase(normalizeText(in.Text), term) {
		return fail(0, domain.SeverityHigh,
			"definition uses the term %q it defines", in.Begrip), nil
	}
	return pass(), nil
}

// defaultAbbreviations are abbreviations common in Dutch legal text whose
// trailing period does not end a sentence. Matching ignores case and the
// final period.
var defaultAbbreviations = []string{
	"art", "artt", "bijv", "bv", "ca", "d.w.z", "e.a", "e.d", "enz", "etc",
	"i.c", "i.v.m", "jo", "lid", "m.b.t", "mr", "nr", "o.a", "p", "par",
	"resp", "stb", "stcrt", "sub", "t.a.v", "vgl", "zgn",
}

func checkSingleSentence(_ context.Context, in RuleInput) (RuleOutcome, error) {
	maxSentences, err := paramInt(in.Params, "max_sentences", 1)
	if err != nil {
		return RuleOutcome{}, err
	}
	if maxSentences < 1 {
		return RuleOutcome{}, fmt.Errorf("%w: max_sentences must be positive", ErrRuleParam)
	}
	extra, err := paramStrings(in.Params, "abbreviations")
	if err != nil {
		return RuleOutcome{}, err
	}

	abbrev := make(map[string]bool, len(defaultAbbreviations)+len(extra))
	for _, a := range append(append([]string{}, defaultAbbreviations...), extra...) {
		abbrev[strings.TrimSuffix(strings.ToLower(strings.TrimSpace(a)), ".")] = true
	}

	count := countSentences(in.Text, abbrev)
	if count > maxSentences {
		return fail(float64(maxSentences)/float64(count), domain.SeverityMedium,
			"definition has %d sentences, at most %d allowed", count, maxSentences), nil
	}
	return pass(), nil
}

// countSentences counts words ending in terminal punctuation as sentence
// ends. A period after a known abbreviation, or one followed by a word
// starting with a lowercase letter or digit, continues the sentence.
func countSentences(text string, abbrev map[string]bool) int {
	words := strings.Fields(text)
	count := 0
	open := false
	for i, w := range words {
		open = true
		body := strings.TrimRight(w, ".!?")
		if body == w {
			continue
		}
		if i+1 < len(words) {
			if w[len(body):] == "." && abbrev[strings.ToLower(strings.TrimLeft(body, "(\"'"))] {
				continue
			}
			next, _ := utf8.DecodeRuneInString(words[i+1])
			if unicode.IsLower(next) || unicode.IsDigit(next) {
				continue
			}
		}
		count++
		open = false
	}
	if open {
		count++
	}
	return count
}

func checkLength(_ context.Context, in RuleInput) (RuleOutcome, error) {
	minLen, err := paramInt(in.Params, "min_length", 15)
	if err != nil {
		return RuleOutcome{}, err
	}
	maxLen, err := paramInt(in.Params, "max_length", 400)
	if err != nil {
		return RuleOutcome{}, err
	}
	if minLen < 0 || maxLen < minLen {
		return RuleOutcome{}, fmt.Errorf("%w: need 0 <= min_length <= max_length, got %d and %d", ErrRuleParam, minLen, maxLen)
	}

	n := utf8.RuneCountInString(strings.TrimSpace(in.Text))
	switch {
	case n < minLen:
		return fail(float64(n)/float64(minLen), domain.SeverityMedium,
			"definition is %d characters, minimum is %d", n, minLen), nil
	case n > maxLen:
		return fail(float64(maxLen)/float64(n), domain.SeverityLow,
			"definition is %d characters, maximum is %d", n, maxLen), nil
	}
	return pass(), nil
}

var purposePhrases = []string{"om te", "met als doel", "bedoeld om", "ten einde", "teneinde", "opdat"}

func checkNoPurpose(_ context.Context, in RuleInput) (RuleOutcome, error) {
	text := normalizeText(in.Text)
	for _, p := range purposePhrases {
		if containsPhrase(text, p) {
			return fail(0, domain.SeverityMedium,
				"definition states a purpose (%q); describe what it is, not what it is for", p), nil
		}
	}
	return pass(), nil
}

var vaguePhrases = []string{"etc", "enzovoort", "enz", "e d", "en dergelijke", "o a", "onder andere", "bijvoorbeeld", "bijv", "zoals"}

func checkNoVagueness(_ context.Context, in RuleInput) (RuleOutcome, error) {
	text := normalizeText(in.Text)
	var found []string
	for _, p := range vaguePhrases {
		if containsPhrase(text, p) {
			found = append(found, p)
		}
	}
	if len(found) > 0 {
		return fail(0, domain.SeverityLow,
			"definition contains open-ended wording: %s", strings.Join(found, ", ")), nil
	}
	return pass(), nil
}

var processWords = []string{"handeling", "handelingen", "proces", "activiteit", "procedure", "werkzaamheid", "werkzaamheden", "uitvoeren", "verrichten"}

func checkProcessWording(_ context.Context, in RuleInput) (RuleOutcome, error) {
	text := stripArticles(normalizeText(in.Text))
	for _, w := range processWords {
		if containsPhrase(text, w) {
			return pass(), nil
		}
	}
	// a nominalised infinitive as genus ("vaststellen van ...") is fine too
	if first := firstWord(text); len(first) > 4 && strings.HasSuffix(first, "en") {
		return pass(), nil
	}
	return fail(0, domain.SeverityMedium,
		"process definition does not describe an activity"), nil
}

var resultWords = []string{"resultaat", "uitkomst", "gevolg", "verkregen", "vastgesteld", "vastgelegd", "opgesteld", "afgegeven", "genomen", "opgelegd", "naar aanleiding van"}

func checkResultWording(_ context.Context, in RuleInput) (RuleOutcome, error) {
	text := normalizeText(in.Text)
	for _, w := range resultWords {
		if containsPhrase(text, w) {
			return pass(), nil
		}
	}
	return fail(0, domain.SeverityMedium,
		"result definition does not say what produced it"), nil
}

// NewWebLookupRule returns SAM-01, which requires the term to be found in at
// least min_hits external sources.
func NewWebLookupRule(lookup domain.WebLookup) RuleEvaluator {
	return ruleFunc{
		code: "SAM-01",
		fn: func(ctx context.Context, in RuleInput) (RuleOutcome, error) {
			if lookup == nil {
				return RuleOutcome{}, ErrLookupUnavailable
			}
			if strings.TrimSpace(in.Begrip) == "" {
				return RuleOutcome{}, fmt.Errorf("%w: term is required", ErrRuleInput)
			}
			minHits, err := paramInt(in.Params, "min_hits", 1)
			if err != nil {
				return RuleOutcome{}, err
			}

			res, err := lookup.Lookup(ctx, in.Begrip, in.Context)
			if err != nil {
				return RuleOutcome{}, fmt.Errorf("web lookup: %w", err)
			}
			if len(res.Hits) >= minHits {
				return pass(), nil
			}
			if res.Degraded() {
				return RuleOutcome{}, fmt.Errorf("web lookup incomplete: %d of %d hits with %d provider(s) failing",
					len(res.Hits), minHits, len(res.Failed))
			}
			return fail(float64(len(res.Hits))/float64(minHits), domain.SeverityLow,
				"term %q found in %d external source(s), expected at least %d", in.Begrip, len(res.Hits), minHits), nil
		},
	}
}

// paramInt reads an integer parameter. YAML numbers arrive as int or float64.
// paramStrings reads a list of strings; YAML decodes lists as []any.
func paramStrings(params map[string]any, key string) ([]string, error) {
	v, ok := params[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch list := v.(type) {
	case []string:
		return list, nil
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s entry %v (%T) is not a string", ErrRuleParam, key, item, item)
			}
			out = append(out, str)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %s=%v (%T) is not a list", ErrRuleParam, key, v, v)
}

func paramInt(params map[string]any, key string, def int) (int, error) {
	v, ok := params[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%w: %s=%v is not an integer", ErrRuleParam, key, v)
		}
		return int(n), nil
	}
	return 0, fmt.Errorf("%w: %s=%v (%T) is not a number", ErrRuleParam, key, v, v)
}
