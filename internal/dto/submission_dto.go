package dto

import (
	"time"

	"gorm.io/datatypes"

	"github.com/noah-isme/arena-go-api/internal/models"
)

// SubmissionCreateRequest is the payload for submitting or re-submitting a
// team's work for a round. Fields is the round-specific payload validated
// against the round's submission schema when one is configured.
type SubmissionCreateRequest struct {
	EventID    uint                   `json:"event_id" validate:"required,gt=0"`
	RoundOrder int                    `json:"round_order" validate:"required,gte=1"`
	Fields     map[string]interface{} `json:"fields" validate:"required"`
}

// SubmissionResponse serializes a submission.
type SubmissionResponse struct {
	ID             uint                   `json:"id"`
	EventID        uint                   `json:"event_id"`
	RoundID        uint                   `json:"round_id"`
	RoundOrder     int                    `json:"round_order"`
	TeamID         uint                   `json:"team_id"`
	SubmittedBy    uint                   `json:"submitted_by"`
	Version        int                    `json:"version"`
	Status         string                 `json:"status"`
	IsLocked       bool                   `json:"is_locked"`
	LockedAt       *time.Time             `json:"locked_at,omitempty"`
	SubmittedAt    time.Time              `json:"submitted_at"`
	Fields         map[string]interface{} `json:"fields"`
	AnalyzerTotal  *float64               `json:"analyzer_total"`
	AnalyzerReport map[string]interface{} `json:"analyzer_report,omitempty"`
	AnalyzedAt     *time.Time             `json:"analyzed_at,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// JudgeScoreResponse is one judge's total in a score breakdown.
type JudgeScoreResponse struct {
	JudgeID uint    `json:"judge_id"`
	Total   float64 `json:"total"`
}

// ScoreBreakdownResponse explains how a submission's final total was
// produced under the round's scoring mode.
type ScoreBreakdownResponse struct {
	SubmissionID      uint                 `json:"submission_id"`
	RoundID           uint                 `json:"round_id"`
	ScoringMode       string               `json:"scoring_mode"`
	JudgeScores       []JudgeScoreResponse `json:"judge_scores"`
	AverageJudgeScore float64              `json:"average_judge_score"`
	AnalyzerScore     *float64             `json:"analyzer_score"`
	FinalTotal        float64              `json:"final_total"`
}

// NewSubmissionResponse converts a submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:             model.ID,
		EventID:        model.EventID,
		RoundID:        model.RoundID,
		RoundOrder:     model.RoundOrder,
		TeamID:         model.TeamID,
		SubmittedBy:    model.SubmittedBy,
		Version:        model.Version,
		Status:         model.Status,
		IsLocked:       model.IsLocked,
		LockedAt:       model.LockedAt,
		SubmittedAt:    model.SubmittedAt,
		Fields:         map[string]interface{}(model.Fields),
		AnalyzerTotal:  model.AnalyzerTotal,
		AnalyzerReport: map[string]interface{}(model.AnalyzerReport),
		AnalyzedAt:     model.AnalyzedAt,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}
}

// ToSubmissionFields converts a request payload into the storage type.
func ToSubmissionFields(fields map[string]interface{}) datatypes.JSONMap {
	return datatypes.JSONMap(fields)
}
