package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/arena-go-api/internal/dto"
	"github.com/noah-isme/arena-go-api/internal/models"
	"github.com/noah-isme/arena-go-api/internal/repository"
	"github.com/noah-isme/arena-go-api/internal/scoring"
)

// ErrEventNotFound indicates the requested event does not exist.
var ErrEventNotFound = errors.New("event not found")

// ErrRoundNotFound indicates the event has no round with the given order.
var ErrRoundNotFound = errors.New("round not found")

// ErrNotEventOwner indicates the caller did not create the event.
var ErrNotEventOwner = errors.New("event can only be managed by its creator")

// ErrInvalidTransition indicates the round cannot move to the requested status.
var ErrInvalidTransition = errors.New("invalid round status transition")

// ErrInvalidRoundConfig wraps round configuration validation failures.
var ErrInvalidRoundConfig = errors.New("invalid round configuration")

// ErrRoundConfigFrozen indicates rounds can no longer be reconfigured because
// at least one of them has left draft.
var ErrRoundConfigFrozen = errors.New("round configuration is frozen once a round leaves draft")

// ErrJudgeAlreadyAssigned indicates the judge already holds an overlapping assignment.
var ErrJudgeAlreadyAssigned = errors.New("judge is already assigned to this event")

// ErrJudgeNotAssigned indicates the judge holds no assignment on the event.
var ErrJudgeNotAssigned = errors.New("judge is not assigned to this event")

// EventService exposes event and round lifecycle use cases.
type EventService interface {
	List(ctx context.Context, filter dto.EventFilter) (dto.EventListResponse, error)
	Get(ctx context.Context, id uint) (dto.EventResponse, error)
	Create(ctx context.Context, userID uint, payload dto.EventCreateRequest) (dto.EventResponse, error)
	Update(ctx context.Context, id, userID uint, payload dto.EventUpdateRequest) (dto.EventResponse, error)
	TransitionRound(ctx context.Context, eventID uint, roundOrder int, userID uint, payload dto.RoundStatusRequest) (dto.RoundResponse, error)
	AssignJudge(ctx context.Context, eventID, userID uint, payload dto.JudgeAssignRequest) (dto.EventResponse, error)
	RemoveJudge(ctx context.Context, eventID, judgeID, userID uint) error
}

type eventService struct {
	repo      repository.EventRepository
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewEventService builds a new event service.
func NewEventService(repo repository.EventRepository, validate *validator.Validate, logger zerolog.Logger) EventService {
	return &eventService{
		repo:      repo,
		validator: validate,
		logger:    logger.With().Str("component", "event_service").Logger(),
		now:       time.Now,
	}
}

func (s *eventService) List(ctx context.Context, filter dto.EventFilter) (dto.EventListResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return dto.EventListResponse{}, err
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	events, total, err := s.repo.ListWithFilter(ctx, repository.EventFilter{
		Search:   filter.Search,
		Theme:    filter.Theme,
		Status:   filter.Status,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return dto.EventListResponse{}, err
	}

	now := s.now()
	responses := make([]dto.EventResponse, 0, len(events))
	for _, event := range events {
		responses = append(responses, dto.NewEventResponse(event, now))
	}

	return dto.EventListResponse{
		Data: responses,
		Meta: dto.ListMeta{
			Total: total,
			Page:  page,
			Limit: pageSize,
			Pages: int(math.Ceil(float64(total) / float64(pageSize))),
		},
	}, nil
}

func (s *eventService) Get(ctx context.Context, id uint) (dto.EventResponse, error) {
	event, err := s.getEvent(ctx, id)
	if err != nil {
		return dto.EventResponse{}, err
	}

	return dto.NewEventResponse(event, s.now()), nil
}

func (s *eventService) Create(ctx context.Context, userID uint, payload dto.EventCreateRequest) (dto.EventResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EventResponse{}, err
	}

	rounds := dto.ToRoundModels(payload.Rounds)
	if err := scoring.ValidateRounds(rounds); err != nil {
		return dto.EventResponse{}, fmt.Errorf("%w: %v", ErrInvalidRoundConfig, err)
	}

	event := models.Event{
		Title:       payload.Title,
		Description: payload.Description,
		Theme:       payload.Theme,
		StartDate:   payload.StartDate,
		EndDate:     payload.EndDate,
		CreatedBy:   userID,
		IsActive:    true,
		Rounds:      rounds,
	}

	if err := s.repo.Create(ctx, &event); err != nil {
		return dto.EventResponse{}, err
	}

	s.logger.Info().
		Uint("event_id", event.ID).
		Int("rounds", len(event.Rounds)).
		Msg("event created")

	return dto.NewEventResponse(event, s.now()), nil
}

func (s *eventService) Update(ctx context.Context, id, userID uint, payload dto.EventUpdateRequest) (dto.EventResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EventResponse{}, err
	}

	event, err := s.getEvent(ctx, id)
	if err != nil {
		return dto.EventResponse{}, err
	}

	if !event.IsOwnedBy(userID) {
		return dto.EventResponse{}, ErrNotEventOwner
	}

	if payload.Title != nil {
		event.Title = *payload.Title
	}
	if payload.Description != nil {
		event.Description = *payload.Description
	}
	if payload.Theme != nil {
		event.Theme = *payload.Theme
	}
	if payload.StartDate != nil {
		event.StartDate = *payload.StartDate
	}
	if payload.EndDate != nil {
		event.EndDate = *payload.EndDate
	}
	if payload.IsActive != nil {
		event.IsActive = *payload.IsActive
	}

	if !event.EndDate.After(event.StartDate) {
		return dto.EventResponse{}, fmt.Errorf("end date must be after start date")
	}

	if err := s.repo.Update(ctx, &event); err != nil {
		return dto.EventResponse{}, err
	}

	if len(payload.Rounds) > 0 {
		for _, round := range event.Rounds {
			if round.Status != models.RoundStatusDraft {
				return dto.EventResponse{}, ErrRoundConfigFrozen
			}
		}

		rounds := dto.ToRoundModels(payload.Rounds)
		if err := scoring.ValidateRounds(rounds); err != nil {
			return dto.EventResponse{}, fmt.Errorf("%w: %v", ErrInvalidRoundConfig, err)
		}
		if err := s.repo.ReplaceRounds(ctx, event.ID, rounds); err != nil {
			return dto.EventResponse{}, err
		}
	}

	updated, err := s.getEvent(ctx, id)
	if err != nil {
		return dto.EventResponse{}, err
	}

	s.logger.Info().Uint("event_id", event.ID).Msg("event updated")

	return dto.NewEventResponse(updated, s.now()), nil
}

// TransitionRound moves a round to a new stored status. Forward moves follow
// the lifecycle chain; moving back to open or draft requires the override
// flag. Targets that close submissions lock every unlocked submission in the
// same transaction.
func (s *eventService) TransitionRound(ctx context.Context, eventID uint, roundOrder int, userID uint, payload dto.RoundStatusRequest) (dto.RoundResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.RoundResponse{}, err
	}

	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return dto.RoundResponse{}, err
	}

	if !event.IsOwnedBy(userID) {
		return dto.RoundResponse{}, ErrNotEventOwner
	}

	round, ok := event.RoundByOrder(roundOrder)
	if !ok {
		return dto.RoundResponse{}, ErrRoundNotFound
	}

	if !scoring.CanTransition(round.Status, payload.Status, payload.Override) {
		return dto.RoundResponse{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, round.Status, payload.Status)
	}

	now := s.now().UTC()
	lock := scoring.LocksSubmissions(payload.Status)
	if err := s.repo.TransitionRound(ctx, round.ID, payload.Status, lock, now); err != nil {
		return dto.RoundResponse{}, err
	}

	s.logger.Info().
		Uint("event_id", eventID).
		Int("round_order", roundOrder).
		Str("from", round.Status).
		Str("to", payload.Status).
		Bool("locked_submissions", lock).
		Msg("round transitioned")

	round.Status = payload.Status

	return dto.NewRoundResponse(round, now), nil
}

func (s *eventService) AssignJudge(ctx context.Context, eventID, userID uint, payload dto.JudgeAssignRequest) (dto.EventResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EventResponse{}, err
	}

	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return dto.EventResponse{}, err
	}

	if !event.IsOwnedBy(userID) {
		return dto.EventResponse{}, ErrNotEventOwner
	}

	if payload.RoundOrder != nil {
		if _, ok := event.RoundByOrder(*payload.RoundOrder); !ok {
			return dto.EventResponse{}, ErrRoundNotFound
		}
	}

	for _, assignment := range event.Judges {
		if assignment.JudgeID != payload.JudgeID {
			continue
		}
		if assignment.RoundOrder == nil || payload.RoundOrder == nil ||
			*assignment.RoundOrder == *payload.RoundOrder {
			return dto.EventResponse{}, ErrJudgeAlreadyAssigned
		}
	}

	assignment := models.EventJudge{
		EventID:    eventID,
		JudgeID:    payload.JudgeID,
		RoundOrder: payload.RoundOrder,
	}
	if err := s.repo.AddJudge(ctx, &assignment); err != nil {
		return dto.EventResponse{}, err
	}

	s.logger.Info().
		Uint("event_id", eventID).
		Uint("judge_id", payload.JudgeID).
		Msg("judge assigned")

	updated, err := s.getEvent(ctx, eventID)
	if err != nil {
		return dto.EventResponse{}, err
	}

	return dto.NewEventResponse(updated, s.now()), nil
}

func (s *eventService) RemoveJudge(ctx context.Context, eventID, judgeID, userID uint) error {
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return err
	}

	if !event.IsOwnedBy(userID) {
		return ErrNotEventOwner
	}

	assigned := false
	for _, assignment := range event.Judges {
		if assignment.JudgeID == judgeID {
			assigned = true
			break
		}
	}
	if !assigned {
		return ErrJudgeNotAssigned
	}

	if err := s.repo.RemoveJudge(ctx, eventID, judgeID); err != nil {
		return err
	}

	s.logger.Info().
		Uint("event_id", eventID).
		Uint("judge_id", judgeID).
		Msg("judge removed")

	return nil
}

func (s *eventService) getEvent(ctx context.Context, id uint) (models.Event, error) {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Event{}, ErrEventNotFound
		}

		return models.Event{}, err
	}

	return event, nil
}
