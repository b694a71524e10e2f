package registry

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// SynonymTable expands terms to their synonym groups. Every canonical term
// forms a group with its synonyms, and expansion is bidirectional: any member
// of a group expands to all members.
type SynonymTable struct {
	groups  [][]string
	byTerm  map[string][]int
	phrases []string // multi-word members, longest first
}

// NewSynonymTable builds a table from canonical term → synonyms.
func NewSynonymTable(entries map[string][]string) *SynonymTable {
	t := &SynonymTable{byTerm: make(map[string][]int)}

	canonicals := make([]string, 0, len(entries))
	for k := range entries {
		canonicals = append(canonicals, k)
	}
	sort.Strings(canonicals)

	for _, canonical := range canonicals {
		seen := make(map[string]bool)
		var group []string
		for _, term := range append([]string{canonical}, entries[canonical]...) {
			n := normalizeTerm(term)
			if n == "" || seen[n] {
				continue
			}
			seen[n] = true
			group = append(group, n)
		}
		if len(group) < 2 {
			continue
		}
		idx := len(t.groups)
		t.groups = append(t.groups, group)
		for _, term := range group {
			t.byTerm[term] = append(t.byTerm[term], idx)
			if strings.Contains(term, " ") {
				t.phrases = append(t.phrases, term)
			}
		}
	}

	sort.SliceStable(t.phrases, func(i, j int) bool { return len(t.phrases[i]) > len(t.phrases[j]) })
	return t
}

// LoadSynonyms reads every YAML file matching pattern (doublestar syntax, e.g.
// "config/synonyms/**/*.yaml") into one table. Later files extend groups of
// earlier ones with the same canonical term.
func LoadSynonyms(pattern string) (*SynonymTable, error) {
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob synonym files: %w", err)
	}
	sort.Strings(matches)

	merged := make(map[string][]string)
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read synonym file %s: %w", path, err)
		}
		var entries map[string][]string
		if err := yaml.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("%w: synonym file %s: %v", ErrInvalidConfig, path, err)
		}
		for canonical, syns := range entries {
			merged[canonical] = append(merged[canonical], syns...)
		}
	}
	return NewSynonymTable(merged), nil
}

// Len returns the number of synonym groups.
func (t *SynonymTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.groups)
}

// Synonyms returns every term sharing a group with term, excluding term itself.
func (t *SynonymTable) Synonyms(term string) []string {
	if t == nil {
		return nil
	}
	n := normalizeTerm(term)
	seen := map[string]bool{n: true}
	var out []string
	for _, idx := range t.byTerm[n] {
		for _, member := range t.groups[idx] {
			if !seen[member] {
				seen[member] = true
				out = append(out, member)
			}
		}
	}
	return out
}

// Expand returns tokens extended with the synonym groups of every token, and
// of every multi-word synonym phrase that occurs in text. text must already be
// normalized to single-space separated lowercase words.
func (t *SynonymTable) Expand(text string, tokens map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(tokens))
	for tok := range tokens {
		out[tok] = struct{}{}
	}
	if t == nil {
		return out
	}

	for tok := range tokens {
		for _, idx := range t.byTerm[tok] {
			for _, member := range t.groups[idx] {
				out[member] = struct{}{}
			}
		}
	}

	padded := " " + text + " "
	for _, phrase := range t.phrases {
		if !strings.Contains(padded, " "+phrase+" ") {
			continue
		}
		for _, idx := range t.byTerm[phrase] {
			for _, member := range t.groups[idx] {
				out[member] = struct{}{}
			}
		}
	}
	return out
}

func normalizeTerm(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
