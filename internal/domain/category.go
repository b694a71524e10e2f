package domain

import (
	"fmt"
	"math"
	"strings"
)

// Category is the ontological class assigned to a definition.
type Category string

const (
	CategoryType     Category = "type"
	CategoryProcess  Category = "proces"
	CategoryResult   Category = "resultaat"
	CategoryInstance Category = "exemplaar"
)

// AllCategories returns the four categories in their fixed evaluation order.
// Every component that iterates categories uses this order so results are
// deterministic.
func AllCategories() []Category {
	return []Category{CategoryType, CategoryProcess, CategoryResult, CategoryInstance}
}

func ValidCategory(c string) bool {
	switch Category(c) {
	case CategoryType, CategoryProcess, CategoryResult, CategoryInstance:
		return true
	}
	return false
}

// ParseCategory accepts the canonical Dutch values and their English aliases.
// An empty string parses to the unset category.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "type":
		return CategoryType, nil
	case "proces", "process":
		return CategoryProcess, nil
	case "resultaat", "result":
		return CategoryResult, nil
	case "exemplaar", "instance":
		return CategoryInstance, nil
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// IsSet reports whether c holds one of the four concrete categories.
func (c Category) IsSet() bool {
	return ValidCategory(string(c))
}

// Priority is the position of c in AllCategories, used as a tie breaker.
func (c Category) Priority() int {
	switch c {
	case CategoryType:
		return 0
	case CategoryProcess:
		return 1
	case CategoryResult:
		return 2
	case CategoryInstance:
		return 3
	default:
		return 4
	}
}

// CategoryScores holds one confidence per category. Being a struct rather than
// a map, it always has exactly one entry per variant.
type CategoryScores struct {
	Type     float64 `json:"type"`
	Process  float64 `json:"proces"`
	Result   float64 `json:"resultaat"`
	Instance float64 `json:"exemplaar"`
}

func (s CategoryScores) Get(c Category) float64 {
	switch c {
	case CategoryType:
		return s.Type
	case CategoryProcess:
		return s.Process
	case CategoryResult:
		return s.Result
	case CategoryInstance:
		return s.Instance
	}
	return 0
}

// Add returns a copy of s with delta added to the score of c.
func (s CategoryScores) Add(c Category, delta float64) CategoryScores {
	switch c {
	case CategoryType:
		s.Type += delta
	case CategoryProcess:
		s.Process += delta
	case CategoryResult:
		s.Result += delta
	case CategoryInstance:
		s.Instance += delta
	}
	return s
}

// Clip returns a copy of s with every score limited to [0,1].
func (s CategoryScores) Clip() CategoryScores {
	return CategoryScores{
		Type:     clipUnit(s.Type),
		Process:  clipUnit(s.Process),
		Result:   clipUnit(s.Result),
		Instance: clipUnit(s.Instance),
	}
}

// RankedScore pairs a category with its score.
type RankedScore struct {
	Category Category `json:"category"`
	Score    float64  `json:"score"`
}

// Ranked returns the categories ordered by descending score. Equal scores keep
// the AllCategories order.
func (s CategoryScores) Ranked() []RankedScore {
	ranked := make([]RankedScore, 0, 4)
	for _, c := range AllCategories() {
		ranked = append(ranked, RankedScore{Category: c, Score: s.Get(c)})
	}
	// insertion sort keeps it stable and the slice is tiny
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && ranked[j].Score > ranked[j-1].Score; j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}
	return ranked
}

// Leader returns the highest scoring category and whether it is the unique
// maximum.
func (s CategoryScores) Leader() (RankedScore, bool) {
	ranked := s.Ranked()
	return ranked[0], ranked[0].Score > ranked[1].Score
}

// Validate checks every score is a finite number in [0,1].
func (s CategoryScores) Validate() error {
	for _, c := range AllCategories() {
		v := s.Get(c)
		if math.IsNaN(v) || v < 0 || v > 1 {
			return fmt.Errorf("category score %s=%v outside [0,1]", c, v)
		}
	}
	return nil
}

func clipUnit(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
