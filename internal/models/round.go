package models

import (
	"time"

	"gorm.io/datatypes"
)

// Stored round lifecycle statuses. StatusScheduled is never persisted; it is
// a read-only projection for rounds whose start time has not arrived yet.
const (
	RoundStatusDraft            = "draft"
	RoundStatusOpen             = "open"
	RoundStatusSubmissionClosed = "submission_closed"
	RoundStatusJudging          = "judging"
	RoundStatusPublished        = "published"
	RoundStatusScheduled        = "scheduled"
)

// Scoring modes blending judge marks and the analyzer score.
const (
	ScoringModeHybrid    = "hybrid"
	ScoringModeJudgeOnly = "judge_only"
	ScoringModeAIOnly    = "ai_only"
)

// Round is one judged phase of an event with its own criteria, weight, and
// scoring configuration.
type Round struct {
	ID                     uint           `gorm:"primaryKey" json:"id"`
	EventID                uint           `gorm:"not null;index:idx_event_round_order,unique" json:"event_id"`
	Name                   string         `gorm:"size:255;not null" json:"name"`
	Description            string         `gorm:"type:text" json:"description"`
	Order                  int            `gorm:"column:round_order;not null;index:idx_event_round_order,unique" json:"order"`
	MaxScore               float64        `gorm:"not null" json:"max_score"`
	WeightagePercent       float64        `gorm:"not null" json:"weightage_percent"`
	Status                 string         `gorm:"size:32;not null;default:draft" json:"status"`
	ScoringMode            string         `gorm:"size:32;not null;default:hybrid" json:"scoring_mode"`
	JudgeWeight            float64        `gorm:"default:0.7" json:"judge_weight"`
	AIWeight               float64        `gorm:"column:ai_weight;default:0.3" json:"ai_weight"`
	StartTime              *time.Time     `json:"start_time"`
	EndTime                *time.Time     `json:"end_time"`
	AutoTimeControlEnabled bool           `gorm:"default:true" json:"auto_time_control_enabled"`
	SubmissionSchema       datatypes.JSON `json:"submission_schema"`
	Criteria               []Criterion    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"criteria"`
}

// Criterion is a single named, capped scoring dimension within a round.
type Criterion struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	RoundID     uint    `gorm:"not null;index" json:"round_id"`
	Title       string  `gorm:"size:255;not null" json:"title"`
	Description string  `gorm:"type:text" json:"description"`
	MaxMarks    float64 `gorm:"not null" json:"max_marks"`
}

// CriteriaTotal sums the maximum marks across all criteria.
func (r Round) CriteriaTotal() float64 {
	var total float64
	for _, criterion := range r.Criteria {
		total += criterion.MaxMarks
	}
	return total
}

// CriterionByID looks up a criterion belonging to this round.
func (r Round) CriterionByID(id uint) (Criterion, bool) {
	for _, criterion := range r.Criteria {
		if criterion.ID == id {
			return criterion, true
		}
	}
	return Criterion{}, false
}
