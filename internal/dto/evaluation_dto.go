package dto

import (
	"time"

	"github.com/noah-isme/arena-go-api/internal/models"
)

// CriterionMarkRequest is one criterion's marks in a judge's evaluation.
type CriterionMarkRequest struct {
	CriterionID uint    `json:"criterion_id" validate:"required,gt=0"`
	GivenMarks  float64 `json:"given_marks" validate:"gte=0"`
	Comment     string  `json:"comment"`
}

// EvaluationSubmitRequest records or replaces a judge's marks for a
// submission. The mark set always replaces the judge's previous one whole.
type EvaluationSubmitRequest struct {
	SubmissionID uint                   `json:"submission_id" validate:"required,gt=0"`
	Scores       []CriterionMarkRequest `json:"scores" validate:"required,min=1,dive"`
	Comments     string                 `json:"comments"`
}

// CriterionScoreResponse serializes one criterion's marks.
type CriterionScoreResponse struct {
	CriterionID    uint    `json:"criterion_id"`
	CriterionTitle string  `json:"criterion_title"`
	MaxMarks       float64 `json:"max_marks"`
	GivenMarks     float64 `json:"given_marks"`
	Comment        string  `json:"comment,omitempty"`
}

// EvaluationResponse serializes a judge's evaluation of a submission.
type EvaluationResponse struct {
	ID           uint                     `json:"id"`
	SubmissionID uint                     `json:"submission_id"`
	JudgeID      uint                     `json:"judge_id"`
	Scores       []CriterionScoreResponse `json:"scores"`
	Comments     string                   `json:"comments,omitempty"`
	Total        float64                  `json:"total"`
	CreatedAt    time.Time                `json:"created_at"`
	UpdatedAt    time.Time                `json:"updated_at"`
}

// NewEvaluationResponse converts an evaluation model into a DTO.
func NewEvaluationResponse(model models.Evaluation) EvaluationResponse {
	scores := make([]CriterionScoreResponse, 0, len(model.Scores))
	for _, score := range model.Scores {
		scores = append(scores, CriterionScoreResponse{
			CriterionID:    score.CriterionID,
			CriterionTitle: score.CriterionTitle,
			MaxMarks:       score.MaxMarks,
			GivenMarks:     score.GivenMarks,
			Comment:        score.Comment,
		})
	}

	return EvaluationResponse{
		ID:           model.ID,
		SubmissionID: model.SubmissionID,
		JudgeID:      model.JudgeID,
		Scores:       scores,
		Comments:     model.Comments,
		Total:        model.Total(),
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}
