package models

import "time"

// Evaluation is one judge's complete set of per-criterion marks for one
// submission. At most one row exists per (submission, judge); a judge
// re-scoring overwrites their marks. Aggregates are never stored here: the
// final total is always derived fresh from the full evaluation set.
type Evaluation struct {
	ID           uint             `gorm:"primaryKey" json:"id"`
	SubmissionID uint             `gorm:"not null;index:idx_submission_judge,unique" json:"submission_id"`
	EventID      uint             `gorm:"not null;index" json:"event_id"`
	RoundID      uint             `gorm:"not null" json:"round_id"`
	JudgeID      uint             `gorm:"not null;index:idx_submission_judge,unique" json:"judge_id"`
	Comments     string           `gorm:"type:text" json:"comments"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	Scores       []CriterionScore `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"scores"`
}

// CriterionScore records the marks a judge gave for a single criterion.
type CriterionScore struct {
	ID             uint    `gorm:"primaryKey" json:"id"`
	EvaluationID   uint    `gorm:"not null;index" json:"evaluation_id"`
	CriterionID    uint    `gorm:"not null" json:"criterion_id"`
	CriterionTitle string  `gorm:"size:255" json:"criterion_title"`
	MaxMarks       float64 `gorm:"not null" json:"max_marks"`
	GivenMarks     float64 `gorm:"not null" json:"given_marks"`
	Comment        string  `gorm:"type:text" json:"comment"`
}

// Total sums the given marks across all criteria.
func (e Evaluation) Total() float64 {
	var total float64
	for _, score := range e.Scores {
		total += score.GivenMarks
	}
	return total
}
