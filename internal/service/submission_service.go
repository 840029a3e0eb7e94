package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/arena-go-api/internal/dto"
	"github.com/noah-isme/arena-go-api/internal/models"
	"github.com/noah-isme/arena-go-api/internal/observability"
	"github.com/noah-isme/arena-go-api/internal/repository"
	"github.com/noah-isme/arena-go-api/internal/scoring"
	"github.com/noah-isme/arena-go-api/pkg/analyzer"
)

const analyzedSubject = "arena.submissions.analyzed"

// ErrSubmissionNotFound indicates the requested submission does not exist.
var ErrSubmissionNotFound = errors.New("submission not found")

// ErrTeamNotFound indicates the user belongs to no team in the event.
var ErrTeamNotFound = errors.New("team not found for this event")

// ErrNotTeamLeader indicates only the team leader may submit.
var ErrNotTeamLeader = errors.New("only the team leader can submit")

// ErrNotTeamMember indicates the user may not read another team's submission.
var ErrNotTeamMember = errors.New("submission belongs to another team")

// ErrRoundNotOpen indicates the round's effective status rejects submissions.
var ErrRoundNotOpen = errors.New("round is not accepting submissions")

// ErrSubmissionLocked indicates the submission has been frozen for judging.
var ErrSubmissionLocked = errors.New("submission is locked")

// ErrInvalidSubmissionPayload wraps schema validation failures.
var ErrInvalidSubmissionPayload = errors.New("submission payload does not match round schema")

// SubmissionService exposes the submission ledger use cases.
type SubmissionService interface {
	Submit(ctx context.Context, userID uint, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error)
	Get(ctx context.Context, id, userID uint, role string) (dto.SubmissionResponse, error)
	ListByRound(ctx context.Context, eventID uint, roundOrder int) ([]dto.SubmissionResponse, error)
	ListMine(ctx context.Context, eventID, userID uint) ([]dto.SubmissionResponse, error)
	Lock(ctx context.Context, id, userID uint) (dto.SubmissionResponse, error)
	Breakdown(ctx context.Context, id uint) (dto.ScoreBreakdownResponse, error)
}

type submissionService struct {
	submissions     repository.SubmissionRepository
	events          repository.EventRepository
	teams           repository.TeamRepository
	evaluations     repository.EvaluationRepository
	analyzer        analyzer.Analyzer
	analyzerTimeout time.Duration
	nats            *nats.Conn
	validator       *validator.Validate
	logger          zerolog.Logger
	tracer          trace.Tracer
	now             func() time.Time
}

// NewSubmissionService builds a new submission service. The analyzer may be
// nil, in which case submissions are accepted without automated analysis.
func NewSubmissionService(
	submissions repository.SubmissionRepository,
	events repository.EventRepository,
	teams repository.TeamRepository,
	evaluations repository.EvaluationRepository,
	submissionAnalyzer analyzer.Analyzer,
	analyzerTimeout time.Duration,
	natsConn *nats.Conn,
	validate *validator.Validate,
	logger zerolog.Logger,
) SubmissionService {
	return &submissionService{
		submissions:     submissions,
		events:          events,
		teams:           teams,
		evaluations:     evaluations,
		analyzer:        submissionAnalyzer,
		analyzerTimeout: analyzerTimeout,
		nats:            natsConn,
		validator:       validate,
		logger:          logger.With().Str("component", "submission_service").Logger(),
		tracer:          otel.Tracer("github.com/noah-isme/arena-go-api/internal/service/submission"),
		now:             time.Now,
	}
}

// Submit records a team's work for a round, creating version 1 or bumping the
// version of the existing submission in place. The open-window and lock
// checks run inside the write transaction, so a round that closes between the
// first read and the write still rejects the edit.
func (s *submissionService) Submit(ctx context.Context, userID uint, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	attrs := []attribute.KeyValue{
		attribute.Int64("event.id", int64(payload.EventID)),
		attribute.Int("round.order", payload.RoundOrder),
	}
	spanCtx, span := s.tracer.Start(ctx, "submissions.submit", trace.WithAttributes(attrs...))
	defer span.End()

	event, err := s.getEvent(spanCtx, payload.EventID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	round, ok := event.RoundByOrder(payload.RoundOrder)
	if !ok {
		return dto.SubmissionResponse{}, ErrRoundNotFound
	}

	team, err := s.teams.GetByMember(spanCtx, payload.EventID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrTeamNotFound
		}

		return dto.SubmissionResponse{}, err
	}

	if team.LeaderID != userID {
		return dto.SubmissionResponse{}, ErrNotTeamLeader
	}

	if err := s.validateAgainstSchema(round, payload.Fields); err != nil {
		return dto.SubmissionResponse{}, err
	}

	now := s.now().UTC()
	draft := models.Submission{
		EventID:     payload.EventID,
		RoundID:     round.ID,
		RoundOrder:  round.Order,
		TeamID:      team.ID,
		SubmittedBy: userID,
		SubmittedAt: now,
		Fields:      dto.ToSubmissionFields(payload.Fields),
	}

	check := func(current models.Round, existing *models.Submission) error {
		if existing != nil && existing.IsLocked {
			return ErrSubmissionLocked
		}
		if !scoring.AcceptsSubmissions(current, now) {
			return ErrRoundNotOpen
		}
		return nil
	}

	if err := s.submissions.Submit(spanCtx, &draft, check); err != nil {
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	observability.SubmissionsReceivedTotal().WithLabelValues(round.ScoringMode).Inc()

	s.logger.Info().
		Uint("submission_id", draft.ID).
		Uint("team_id", team.ID).
		Int("round_order", round.Order).
		Int("version", draft.Version).
		Msg("submission recorded")

	if s.analyzer != nil {
		go s.analyze(draft, event, round)
	}

	return dto.NewSubmissionResponse(draft), nil
}

func (s *submissionService) Get(ctx context.Context, id, userID uint, role string) (dto.SubmissionResponse, error) {
	submission, err := s.getSubmission(ctx, id)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	if role == models.RoleParticipant {
		team, err := s.teams.GetByID(ctx, submission.TeamID)
		if err != nil {
			return dto.SubmissionResponse{}, err
		}
		if !team.HasMember(userID) {
			return dto.SubmissionResponse{}, ErrNotTeamMember
		}
	}

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) ListByRound(ctx context.Context, eventID uint, roundOrder int) ([]dto.SubmissionResponse, error) {
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	round, ok := event.RoundByOrder(roundOrder)
	if !ok {
		return nil, ErrRoundNotFound
	}

	submissions, err := s.submissions.ListByRound(ctx, round.ID)
	if err != nil {
		return nil, err
	}

	return newSubmissionResponses(submissions), nil
}

func (s *submissionService) ListMine(ctx context.Context, eventID, userID uint) ([]dto.SubmissionResponse, error) {
	team, err := s.teams.GetByMember(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamNotFound
		}

		return nil, err
	}

	submissions, err := s.submissions.ListByTeam(ctx, team.ID)
	if err != nil {
		return nil, err
	}

	return newSubmissionResponses(submissions), nil
}

// Lock manually freezes a single submission ahead of any round transition.
func (s *submissionService) Lock(ctx context.Context, id, userID uint) (dto.SubmissionResponse, error) {
	submission, err := s.getSubmission(ctx, id)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	event, err := s.getEvent(ctx, submission.EventID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	if !event.IsOwnedBy(userID) {
		return dto.SubmissionResponse{}, ErrNotEventOwner
	}

	if err := s.submissions.Lock(ctx, id, s.now().UTC()); err != nil {
		return dto.SubmissionResponse{}, err
	}

	locked, err := s.getSubmission(ctx, id)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().Uint("submission_id", id).Msg("submission locked")

	return dto.NewSubmissionResponse(locked), nil
}

// Breakdown recomputes the submission's derived score state from scratch.
func (s *submissionService) Breakdown(ctx context.Context, id uint) (dto.ScoreBreakdownResponse, error) {
	submission, err := s.getSubmission(ctx, id)
	if err != nil {
		return dto.ScoreBreakdownResponse{}, err
	}

	event, err := s.getEvent(ctx, submission.EventID)
	if err != nil {
		return dto.ScoreBreakdownResponse{}, err
	}

	round, ok := event.RoundByOrder(submission.RoundOrder)
	if !ok {
		return dto.ScoreBreakdownResponse{}, ErrRoundNotFound
	}

	policy, err := scoring.PolicyFor(round)
	if err != nil {
		return dto.ScoreBreakdownResponse{}, err
	}

	evaluations, err := s.evaluations.ListBySubmission(ctx, id)
	if err != nil {
		return dto.ScoreBreakdownResponse{}, err
	}

	breakdown, err := scoring.Aggregate(policy, evaluations, submission.AnalyzerTotal)
	if err != nil {
		return dto.ScoreBreakdownResponse{}, err
	}

	judgeScores := make([]dto.JudgeScoreResponse, 0, len(breakdown.JudgeScores))
	for _, score := range breakdown.JudgeScores {
		judgeScores = append(judgeScores, dto.JudgeScoreResponse{
			JudgeID: score.JudgeID,
			Total:   scoring.Round2(score.Total),
		})
	}

	return dto.ScoreBreakdownResponse{
		SubmissionID:      submission.ID,
		RoundID:           round.ID,
		ScoringMode:       round.ScoringMode,
		JudgeScores:       judgeScores,
		AverageJudgeScore: scoring.Round2(breakdown.AverageJudgeScore),
		AnalyzerScore:     breakdown.AnalyzerScore,
		FinalTotal:        scoring.Round2(breakdown.FinalTotal),
	}, nil
}

// analyze runs the automated analyzer out of band and attaches its score to
// the submission. Failures are logged and swallowed; the submission itself is
// already durable.
func (s *submissionService) analyze(submission models.Submission, event models.Event, round models.Round) {
	ctx, cancel := context.WithTimeout(context.Background(), s.analyzerTimeout)
	defer cancel()

	criteria := make([]analyzer.CriterionSpec, 0, len(round.Criteria))
	for _, criterion := range round.Criteria {
		criteria = append(criteria, analyzer.CriterionSpec{
			ID:       criterion.ID,
			Title:    criterion.Title,
			MaxMarks: criterion.MaxMarks,
		})
	}

	request := analyzer.Request{
		EventTitle: event.Title,
		RoundName:  round.Name,
		NotesText:  notesFromFields(submission.Fields),
		Links:      linksFromFields(submission.Fields),
		Criteria:   criteria,
	}

	result, err := s.analyzer.Analyze(ctx, request)
	if err != nil {
		s.logger.Warn().Err(err).
			Uint("submission_id", submission.ID).
			Msg("analyzer failed, submission keeps no automated score")
		return
	}

	report := datatypes.JSONMap{
		"provider":         result.Provider,
		"summary":          result.Summary,
		"strengths":        result.Strengths,
		"weaknesses":       result.Weaknesses,
		"improvement_tips": result.ImprovementTips,
		"risk_flags":       result.RiskFlags,
		"confidence":       result.Confidence,
		"scores":           result.Scores,
	}

	if err := s.submissions.AttachAnalyzerScore(ctx, submission.ID, result.Total, report, s.now().UTC()); err != nil {
		s.logger.Error().Err(err).
			Uint("submission_id", submission.ID).
			Msg("failed to attach analyzer score")
		return
	}

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Float64("total", result.Total).
		Str("provider", result.Provider).
		Msg("analyzer score attached")

	s.publishAnalyzed(submission, result)
}

func (s *submissionService) publishAnalyzed(submission models.Submission, result analyzer.Result) {
	if s.nats == nil {
		return
	}

	payload, err := json.Marshal(map[string]interface{}{
		"submission_id": submission.ID,
		"event_id":      submission.EventID,
		"round_order":   submission.RoundOrder,
		"team_id":       submission.TeamID,
		"total":         result.Total,
		"provider":      result.Provider,
	})
	if err != nil {
		return
	}

	if err := s.nats.Publish(analyzedSubject, payload); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish analyzed event")
	}
}

func (s *submissionService) validateAgainstSchema(round models.Round, fields map[string]interface{}) error {
	if len(round.SubmissionSchema) == 0 {
		return nil
	}

	schema, err := jsonschema.CompileString(fmt.Sprintf("round-%d.schema.json", round.ID), string(round.SubmissionSchema))
	if err != nil {
		return fmt.Errorf("round schema is not valid: %w", err)
	}

	if err := schema.Validate(map[string]interface{}(fields)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSubmissionPayload, err)
	}

	return nil
}

func (s *submissionService) getEvent(ctx context.Context, id uint) (models.Event, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Event{}, ErrEventNotFound
		}

		return models.Event{}, err
	}

	return event, nil
}

func (s *submissionService) getSubmission(ctx context.Context, id uint) (models.Submission, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Submission{}, ErrSubmissionNotFound
		}

		return models.Submission{}, err
	}

	return submission, nil
}

func newSubmissionResponses(submissions []models.Submission) []dto.SubmissionResponse {
	responses := make([]dto.SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, dto.NewSubmissionResponse(submission))
	}
	return responses
}

func notesFromFields(fields datatypes.JSONMap) string {
	var parts []string
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value, ok := fields[key].(string)
		if !ok || isLink(value) {
			continue
		}
		parts = append(parts, value)
	}

	return strings.Join(parts, "\n\n")
}

func linksFromFields(fields datatypes.JSONMap) []string {
	var links []string
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		switch value := fields[key].(type) {
		case string:
			if isLink(value) {
				links = append(links, value)
			}
		case []interface{}:
			for _, item := range value {
				if text, ok := item.(string); ok && isLink(text) {
					links = append(links, text)
				}
			}
		}
	}

	return links
}

func isLink(value string) bool {
	return strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://")
}
