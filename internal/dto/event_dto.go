package dto

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"github.com/noah-isme/arena-go-api/internal/models"
	"github.com/noah-isme/arena-go-api/internal/scoring"
)

// CriterionRequest describes one scoring dimension of a round.
type CriterionRequest struct {
	Title       string  `json:"title" validate:"required,min=2"`
	Description string  `json:"description"`
	MaxMarks    float64 `json:"max_marks" validate:"gte=0"`
}

// RoundRequest describes one round in an event create or update payload.
type RoundRequest struct {
	Name                   string             `json:"name" validate:"required,min=2"`
	Description            string             `json:"description"`
	Order                  int                `json:"order" validate:"required,gte=1"`
	MaxScore               float64            `json:"max_score" validate:"gte=0"`
	WeightagePercent       float64            `json:"weightage_percent" validate:"gte=0,lte=100"`
	ScoringMode            string             `json:"scoring_mode" validate:"omitempty,oneof=hybrid judge_only ai_only"`
	JudgeWeight            *float64           `json:"judge_weight" validate:"omitempty,gte=0,lte=1"`
	AIWeight               *float64           `json:"ai_weight" validate:"omitempty,gte=0,lte=1"`
	StartTime              *time.Time         `json:"start_time"`
	EndTime                *time.Time         `json:"end_time"`
	AutoTimeControlEnabled *bool              `json:"auto_time_control_enabled"`
	SubmissionSchema       json.RawMessage    `json:"submission_schema"`
	Criteria               []CriterionRequest `json:"criteria" validate:"dive"`
}

// EventCreateRequest is the payload for creating an event.
type EventCreateRequest struct {
	Title       string         `json:"title" validate:"required,min=3"`
	Description string         `json:"description" validate:"required"`
	Theme       string         `json:"theme" validate:"required"`
	StartDate   time.Time      `json:"start_date" validate:"required"`
	EndDate     time.Time      `json:"end_date" validate:"required,gtfield=StartDate"`
	Rounds      []RoundRequest `json:"rounds" validate:"required,min=1,dive"`
}

// EventUpdateRequest is the payload for updating an event. Absent fields are
// left untouched; supplying rounds replaces the whole round configuration.
type EventUpdateRequest struct {
	Title       *string        `json:"title" validate:"omitempty,min=3"`
	Description *string        `json:"description"`
	Theme       *string        `json:"theme"`
	StartDate   *time.Time     `json:"start_date"`
	EndDate     *time.Time     `json:"end_date"`
	IsActive    *bool          `json:"is_active"`
	Rounds      []RoundRequest `json:"rounds" validate:"omitempty,min=1,dive"`
}

// EventFilter describes query string filters for listing events.
type EventFilter struct {
	Search   string `query:"search"`
	Theme    string `query:"theme"`
	Status   string `query:"status" validate:"omitempty,oneof=upcoming active past"`
	Page     int    `query:"page" validate:"omitempty,gte=1"`
	PageSize int    `query:"page_size" validate:"omitempty,gte=1,lte=100"`
}

// RoundStatusRequest transitions a round's stored status. Override unlocks
// the administrator escape hatches back to open or draft.
type RoundStatusRequest struct {
	Status   string `json:"status" validate:"required,oneof=draft open submission_closed judging published"`
	Override bool   `json:"override"`
}

// JudgeAssignRequest attaches a judge to an event, optionally scoped to a
// single round order.
type JudgeAssignRequest struct {
	JudgeID    uint `json:"judge_id" validate:"required,gt=0"`
	RoundOrder *int `json:"round_order" validate:"omitempty,gte=1"`
}

// CriterionResponse serializes a criterion.
type CriterionResponse struct {
	ID          uint    `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	MaxMarks    float64 `json:"max_marks"`
}

// RoundResponse serializes a round, including the time-projected effective
// status alongside the stored one.
type RoundResponse struct {
	ID                     uint                `json:"id"`
	Name                   string              `json:"name"`
	Description            string              `json:"description"`
	Order                  int                 `json:"order"`
	MaxScore               float64             `json:"max_score"`
	WeightagePercent       float64             `json:"weightage_percent"`
	Status                 string              `json:"status"`
	EffectiveStatus        string              `json:"effective_status"`
	ScoringMode            string              `json:"scoring_mode"`
	JudgeWeight            float64             `json:"judge_weight"`
	AIWeight               float64             `json:"ai_weight"`
	StartTime              *time.Time          `json:"start_time"`
	EndTime                *time.Time          `json:"end_time"`
	AutoTimeControlEnabled bool                `json:"auto_time_control_enabled"`
	SubmissionSchema       json.RawMessage     `json:"submission_schema,omitempty"`
	Criteria               []CriterionResponse `json:"criteria"`
}

// EventResponse serializes an event with its rounds.
type EventResponse struct {
	ID          uint            `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Theme       string          `json:"theme"`
	StartDate   time.Time       `json:"start_date"`
	EndDate     time.Time       `json:"end_date"`
	CreatedBy   uint            `json:"created_by"`
	IsActive    bool            `json:"is_active"`
	Judges      []uint          `json:"judges"`
	Rounds      []RoundResponse `json:"rounds"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ListMeta carries pagination metadata for list responses.
type ListMeta struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int   `json:"pages"`
}

// EventListResponse pairs events with pagination metadata.
type EventListResponse struct {
	Data []EventResponse `json:"data"`
	Meta ListMeta        `json:"meta"`
}

// NewRoundResponse converts a round model into a DTO, projecting the
// effective status at the given instant.
func NewRoundResponse(model models.Round, now time.Time) RoundResponse {
	criteria := make([]CriterionResponse, 0, len(model.Criteria))
	for _, criterion := range model.Criteria {
		criteria = append(criteria, CriterionResponse{
			ID:          criterion.ID,
			Title:       criterion.Title,
			Description: criterion.Description,
			MaxMarks:    criterion.MaxMarks,
		})
	}

	return RoundResponse{
		ID:                     model.ID,
		Name:                   model.Name,
		Description:            model.Description,
		Order:                  model.Order,
		MaxScore:               model.MaxScore,
		WeightagePercent:       model.WeightagePercent,
		Status:                 model.Status,
		EffectiveStatus:        scoring.EffectiveStatus(model, now),
		ScoringMode:            model.ScoringMode,
		JudgeWeight:            model.JudgeWeight,
		AIWeight:               model.AIWeight,
		StartTime:              model.StartTime,
		EndTime:                model.EndTime,
		AutoTimeControlEnabled: model.AutoTimeControlEnabled,
		SubmissionSchema:       json.RawMessage(model.SubmissionSchema),
		Criteria:               criteria,
	}
}

// NewEventResponse converts an event model into a DTO.
func NewEventResponse(model models.Event, now time.Time) EventResponse {
	rounds := make([]RoundResponse, 0, len(model.Rounds))
	for _, round := range model.Rounds {
		rounds = append(rounds, NewRoundResponse(round, now))
	}

	judges := make([]uint, 0, len(model.Judges))
	for _, judge := range model.Judges {
		judges = append(judges, judge.JudgeID)
	}

	return EventResponse{
		ID:          model.ID,
		Title:       model.Title,
		Description: model.Description,
		Theme:       model.Theme,
		StartDate:   model.StartDate,
		EndDate:     model.EndDate,
		CreatedBy:   model.CreatedBy,
		IsActive:    model.IsActive,
		Judges:      judges,
		Rounds:      rounds,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// ToRoundModels converts round requests into models, applying defaults for
// omitted scoring configuration.
func ToRoundModels(requests []RoundRequest) []models.Round {
	rounds := make([]models.Round, 0, len(requests))
	for _, request := range requests {
		round := models.Round{
			Name:                   request.Name,
			Description:            request.Description,
			Order:                  request.Order,
			MaxScore:               request.MaxScore,
			WeightagePercent:       request.WeightagePercent,
			Status:                 models.RoundStatusDraft,
			ScoringMode:            request.ScoringMode,
			JudgeWeight:            0.7,
			AIWeight:               0.3,
			StartTime:              request.StartTime,
			EndTime:                request.EndTime,
			AutoTimeControlEnabled: true,
			SubmissionSchema:       datatypes.JSON(request.SubmissionSchema),
		}
		if round.ScoringMode == "" {
			round.ScoringMode = models.ScoringModeHybrid
		}
		if request.JudgeWeight != nil {
			round.JudgeWeight = *request.JudgeWeight
		}
		if request.AIWeight != nil {
			round.AIWeight = *request.AIWeight
		}
		if request.AutoTimeControlEnabled != nil {
			round.AutoTimeControlEnabled = *request.AutoTimeControlEnabled
		}
		for _, criterion := range request.Criteria {
			round.Criteria = append(round.Criteria, models.Criterion{
				Title:       criterion.Title,
				Description: criterion.Description,
				MaxMarks:    criterion.MaxMarks,
			})
		}
		rounds = append(rounds, round)
	}
	return rounds
}
