package service

import (
	"strings"
	"unicode"
)

var articles = map[string]bool{
	"de":  true,
	"het": true,
	"een": true,
	"'n":  true,
	"n":   true, // 'n after punctuation stripping
}

// stopwords are dropped from token sets before similarity scoring.
var stopwords = map[string]bool{
	"de": true, "het": true, "een": true, "en": true, "of": true, "van": true,
	"in": true, "op": true, "te": true, "tot": true, "voor": true, "met": true,
	"door": true, "aan": true, "als": true, "bij": true, "om": true, "naar": true,
	"uit": true, "over": true, "onder": true, "is": true, "zijn": true, "wordt": true,
	"worden": true, "was": true, "die": true, "dat": true, "dit": true, "deze": true,
	"wie": true, "wat": true, "welke": true, "waarbij": true, "waarin": true,
	"er": true, "ook": true, "niet": true, "geen": true, "nog": true, "maar": true,
	"dan": true, "zo": true, "al": true, "iemand": true, "iemands": true, "iets": true,
	"hij": true, "zij": true, "ze": true, "hun": true, "haar": true, "hem": true,
	"n": true,
}

// normalizeText casefolds s, turns punctuation into spaces and collapses
// whitespace. Apostrophes inside words are kept.
func normalizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '\'' || r == '’':
			b.WriteRune('\'')
		default:
			b.WriteRune(' ')
		}
	}
	words := strings.Fields(b.String())
	for i, w := range words {
		words[i] = strings.Trim(w, "'")
		if w == "'n" {
			words[i] = w
		}
	}
	return strings.Join(dropEmpty(words), " ")
}

// stripArticles removes Dutch articles from normalized text.
func stripArticles(normalized string) string {
	words := strings.Fields(normalized)
	out := words[:0]
	for _, w := range words {
		if !articles[w] {
			out = append(out, w)
		}
	}
	return strings.Join(out, " ")
}

// tokenSet returns the distinct non-stopword words of normalized text.
func tokenSet(normalized string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range strings.Fields(normalized) {
		if stopwords[w] {
			continue
		}
		out[w] = struct{}{}
	}
	return out
}

// jaccard is |a∩b| / |a∪b|; two empty sets score 0.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for tok := range small {
		if _, ok := large[tok]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// containsPhrase reports whether phrase occurs in normalized text on word
// boundaries.
func containsPhrase(normalized, phrase string) bool {
	if phrase == "" {
		return false
	}
	return strings.Contains(" "+normalized+" ", " "+phrase+" ")
}

func firstWord(normalized string) string {
	if i := strings.IndexByte(normalized, ' '); i >= 0 {
		return normalized[:i]
	}
	return normalized
}

func lastWord(normalized string) string {
	if i := strings.LastIndexByte(normalized, ' '); i >= 0 {
		return normalized[i+1:]
	}
	return normalized
}

func dropEmpty(words []string) []string {
	out := words[:0]
	for _, w := range words {
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}
