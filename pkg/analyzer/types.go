package analyzer

import "context"

// CriterionSpec describes one scoring dimension the analyzer should mark.
type CriterionSpec struct {
	ID       uint    `json:"id"`
	Title    string  `json:"title"`
	MaxMarks float64 `json:"max_marks"`
}

// Request carries the submission content handed to the analyzer.
type Request struct {
	EventTitle string          `json:"event_title"`
	RoundName  string          `json:"round_name"`
	NotesText  string          `json:"notes_text"`
	Links      []string        `json:"links"`
	Criteria   []CriterionSpec `json:"criteria"`
}

// CriterionScore is the analyzer's mark for a single criterion.
type CriterionScore struct {
	CriterionID uint    `json:"criterion_id"`
	Title       string  `json:"title"`
	MaxMarks    float64 `json:"max_marks"`
	Score       float64 `json:"score"`
	Reason      string  `json:"reason"`
}

// Result is the structured outcome of an automated analysis.
type Result struct {
	Total           float64          `json:"total"`
	Scores          []CriterionScore `json:"scores"`
	Summary         string           `json:"summary"`
	Strengths       []string         `json:"strengths"`
	Weaknesses      []string         `json:"weaknesses"`
	ImprovementTips []string         `json:"improvement_tips"`
	RiskFlags       []string         `json:"risk_flags"`
	Confidence      float64          `json:"confidence"`
	Provider        string           `json:"provider"`
}

// Analyzer scores a submission against the round's criteria. Callers treat
// any error as "no score yet"; an analyzer failure is never fatal to the
// submission that triggered it.
type Analyzer interface {
	Analyze(ctx context.Context, request Request) (Result, error)
}

// MaxTotal sums the maximum marks across the requested criteria.
func (r Request) MaxTotal() float64 {
	var total float64
	for _, criterion := range r.Criteria {
		total += criterion.MaxMarks
	}
	return total
}

func clampScores(result *Result) {
	var total float64
	for i := range result.Scores {
		score := &result.Scores[i]
		if score.Score < 0 {
			score.Score = 0
		}
		if score.MaxMarks > 0 && score.Score > score.MaxMarks {
			score.Score = score.MaxMarks
		}
		total += score.Score
	}
	if len(result.Scores) > 0 {
		result.Total = total
	}
}
