package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/arena-go-api/internal/dto"
	"github.com/noah-isme/arena-go-api/internal/models"
	"github.com/noah-isme/arena-go-api/internal/observability"
	"github.com/noah-isme/arena-go-api/internal/repository"
)

// ErrEvaluationNotFound indicates the judge has not evaluated the submission.
var ErrEvaluationNotFound = errors.New("evaluation not found")

// ErrJudgingClosed indicates the round is not in its judging window.
var ErrJudgingClosed = errors.New("round is not open for judging")

// ErrAIOnlyRound indicates the round takes no judge evaluations at all.
var ErrAIOnlyRound = errors.New("round is scored by the analyzer only")

// ErrNotAssignedJudge indicates the caller holds no judge assignment covering
// the submission's round.
var ErrNotAssignedJudge = errors.New("judge is not assigned to this round")

// ErrUnknownCriterion indicates a mark references a criterion outside the round.
var ErrUnknownCriterion = errors.New("criterion does not belong to this round")

// ErrMarksOutOfRange indicates a mark falls outside a criterion's range.
var ErrMarksOutOfRange = errors.New("marks outside the criterion range")

// ErrIncompleteEvaluation indicates the mark set does not cover every
// criterion exactly once.
var ErrIncompleteEvaluation = errors.New("evaluation must mark every criterion exactly once")

// EvaluationService exposes judge evaluation use cases.
type EvaluationService interface {
	Record(ctx context.Context, judgeID uint, payload dto.EvaluationSubmitRequest) (dto.EvaluationResponse, error)
	GetMine(ctx context.Context, submissionID, judgeID uint) (dto.EvaluationResponse, error)
	ListBySubmission(ctx context.Context, submissionID uint) ([]dto.EvaluationResponse, error)
}

type evaluationService struct {
	evaluations repository.EvaluationRepository
	submissions repository.SubmissionRepository
	events      repository.EventRepository
	sanitizer   *bluemonday.Policy
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewEvaluationService builds a new evaluation service.
func NewEvaluationService(
	evaluations repository.EvaluationRepository,
	submissions repository.SubmissionRepository,
	events repository.EventRepository,
	validate *validator.Validate,
	logger zerolog.Logger,
) EvaluationService {
	return &evaluationService{
		evaluations: evaluations,
		submissions: submissions,
		events:      events,
		sanitizer:   bluemonday.StrictPolicy(),
		validator:   validate,
		logger:      logger.With().Str("component", "evaluation_service").Logger(),
		now:         time.Now,
	}
}

// Record writes a judge's full mark set for a submission. Re-recording
// replaces the judge's previous marks whole; partial mark sets are rejected
// so an evaluation is always internally consistent.
func (s *evaluationService) Record(ctx context.Context, judgeID uint, payload dto.EvaluationSubmitRequest) (dto.EvaluationResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EvaluationResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, payload.SubmissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EvaluationResponse{}, ErrSubmissionNotFound
		}

		return dto.EvaluationResponse{}, err
	}

	event, err := s.events.GetByID(ctx, submission.EventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EvaluationResponse{}, ErrEventNotFound
		}

		return dto.EvaluationResponse{}, err
	}

	round, ok := event.RoundByOrder(submission.RoundOrder)
	if !ok {
		return dto.EvaluationResponse{}, ErrRoundNotFound
	}

	if round.ScoringMode == models.ScoringModeAIOnly {
		return dto.EvaluationResponse{}, ErrAIOnlyRound
	}

	// Judging is a manually entered state, so the stored status is the
	// effective one here.
	if round.Status != models.RoundStatusJudging {
		return dto.EvaluationResponse{}, ErrJudgingClosed
	}

	if !event.HasJudge(judgeID, round.Order) {
		return dto.EvaluationResponse{}, ErrNotAssignedJudge
	}

	scores, err := s.buildScores(round, payload.Scores)
	if err != nil {
		return dto.EvaluationResponse{}, err
	}

	evaluation := models.Evaluation{
		SubmissionID: submission.ID,
		JudgeID:      judgeID,
		EventID:      event.ID,
		RoundID:      round.ID,
		Comments:     strings.TrimSpace(s.sanitizer.Sanitize(payload.Comments)),
		Scores:       scores,
	}

	if err := s.evaluations.Upsert(ctx, &evaluation); err != nil {
		return dto.EvaluationResponse{}, err
	}

	observability.EvaluationsRecordedTotal().WithLabelValues(round.ScoringMode).Inc()

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("judge_id", judgeID).
		Float64("total", evaluation.Total()).
		Msg("evaluation recorded")

	return dto.NewEvaluationResponse(evaluation), nil
}

func (s *evaluationService) GetMine(ctx context.Context, submissionID, judgeID uint) (dto.EvaluationResponse, error) {
	evaluation, err := s.evaluations.GetBySubmissionAndJudge(ctx, submissionID, judgeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EvaluationResponse{}, ErrEvaluationNotFound
		}

		return dto.EvaluationResponse{}, err
	}

	return dto.NewEvaluationResponse(evaluation), nil
}

func (s *evaluationService) ListBySubmission(ctx context.Context, submissionID uint) ([]dto.EvaluationResponse, error) {
	if _, err := s.submissions.GetByID(ctx, submissionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}

		return nil, err
	}

	evaluations, err := s.evaluations.ListBySubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.EvaluationResponse, 0, len(evaluations))
	for _, evaluation := range evaluations {
		responses = append(responses, dto.NewEvaluationResponse(evaluation))
	}

	return responses, nil
}

func (s *evaluationService) buildScores(round models.Round, marks []dto.CriterionMarkRequest) ([]models.CriterionScore, error) {
	if len(marks) != len(round.Criteria) {
		return nil, ErrIncompleteEvaluation
	}

	seen := make(map[uint]bool, len(marks))
	scores := make([]models.CriterionScore, 0, len(marks))
	for _, mark := range marks {
		criterion, ok := round.CriterionByID(mark.CriterionID)
		if !ok {
			return nil, fmt.Errorf("%w: criterion %d", ErrUnknownCriterion, mark.CriterionID)
		}
		if seen[mark.CriterionID] {
			return nil, ErrIncompleteEvaluation
		}
		seen[mark.CriterionID] = true

		if mark.GivenMarks < 0 || mark.GivenMarks > criterion.MaxMarks {
			return nil, fmt.Errorf("%w: %q takes 0 to %g, got %g",
				ErrMarksOutOfRange, criterion.Title, criterion.MaxMarks, mark.GivenMarks)
		}

		scores = append(scores, models.CriterionScore{
			CriterionID:    criterion.ID,
			CriterionTitle: criterion.Title,
			MaxMarks:       criterion.MaxMarks,
			GivenMarks:     mark.GivenMarks,
			Comment:        strings.TrimSpace(s.sanitizer.Sanitize(mark.Comment)),
		})
	}

	return scores, nil
}
