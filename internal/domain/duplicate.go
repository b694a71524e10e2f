package domain

type MatchStage string

const (
	StageExact   MatchStage = "exact"
	StageSynonym MatchStage = "synonym"
	StageFuzzy   MatchStage = "fuzzy"
)

// Priority orders stages for tie breaking; lower wins.
func (s MatchStage) Priority() int {
	switch s {
	case StageExact:
		return 0
	case StageSynonym:
		return 1
	case StageFuzzy:
		return 2
	default:
		return 3
	}
}

// DuplicateMatch reports that a candidate resembles an existing definition.
type DuplicateMatch struct {
	CandidateID         string     `json:"candidate_id"`
	ExistingID          string     `json:"existing_id"`
	ExistingTerm        string     `json:"existing_term,omitempty"`
	Stage               MatchStage `json:"stage"`
	Similarity          float64    `json:"similarity"`
	CombinedScore       float64    `json:"combined_score"`
	ContextScopeMatched bool       `json:"context_scope_matched"`
}
