package models

import (
	"time"

	"gorm.io/datatypes"
)

// Submission workflow statuses.
const (
	SubmissionStatusSubmitted   = "submitted"
	SubmissionStatusResubmitted = "resubmitted"
	SubmissionStatusLocked      = "locked"
)

// Submission is the versioned work entry a team hands in for a round. A
// submission is never deleted; re-submits bump the version in place until the
// row is locked.
type Submission struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	EventID     uint      `gorm:"not null;index" json:"event_id"`
	RoundID     uint      `gorm:"not null;index:idx_round_team,unique" json:"round_id"`
	RoundOrder  int       `gorm:"not null" json:"round_order"`
	TeamID      uint      `gorm:"not null;index:idx_round_team,unique" json:"team_id"`
	SubmittedBy uint      `gorm:"not null" json:"submitted_by"`
	Version     int       `gorm:"not null;default:1" json:"version"`
	Status      string    `gorm:"size:32;not null;default:submitted" json:"status"`
	IsLocked    bool      `gorm:"default:false" json:"is_locked"`
	LockedAt    *time.Time `json:"locked_at"`
	SubmittedAt time.Time `gorm:"not null" json:"submitted_at"`

	// Fields holds the payload conforming to the round's submission schema.
	Fields datatypes.JSONMap `json:"fields"`

	// Analyzer output, attached out-of-band after submit. A nil total means
	// "no score yet", which is distinct from a computed zero.
	AnalyzerTotal  *float64          `json:"analyzer_total"`
	AnalyzerReport datatypes.JSONMap `json:"analyzer_report"`
	AnalyzedAt     *time.Time        `json:"analyzed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasAnalyzerScore reports whether the analyzer has attached a score.
func (s Submission) HasAnalyzerScore() bool {
	return s.AnalyzerTotal != nil
}
