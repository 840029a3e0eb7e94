package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/arena-go-api/internal/dto"
	"github.com/noah-isme/arena-go-api/internal/models"
)

const judgeID = uint(51)

type evaluationFixture struct {
	fixture    *submissionFixture
	service    EvaluationService
	submission models.Submission
	round      models.Round
}

func newEvaluationFixture(t *testing.T, roundStatus, scoringMode string) *evaluationFixture {
	t.Helper()

	fixture := newSubmissionFixture(t, roundStatus)

	event := fixture.event
	event.Rounds[0].ScoringMode = scoringMode
	require.NoError(t, fixture.events.ReplaceRounds(context.Background(), event.ID, event.Rounds))
	event, err := fixture.events.GetByID(context.Background(), event.ID)
	require.NoError(t, err)
	fixture.event = event

	require.NoError(t, fixture.events.AddJudge(context.Background(), &models.EventJudge{
		EventID: event.ID,
		JudgeID: judgeID,
	}))

	round := event.Rounds[0]
	submission := models.Submission{
		EventID:     event.ID,
		RoundID:     round.ID,
		RoundOrder:  round.Order,
		TeamID:      fixture.team.ID,
		SubmittedBy: leaderID,
		SubmittedAt: time.Now(),
	}
	require.NoError(t, fixture.submissions.Submit(context.Background(), &submission, nil))

	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewEvaluationService(
		fixture.evaluations, fixture.submissions, fixture.events, validate, zerolog.New(io.Discard))

	return &evaluationFixture{
		fixture:    fixture,
		service:    svc,
		submission: submission,
		round:      round,
	}
}

func (f *evaluationFixture) payload() dto.EvaluationSubmitRequest {
	return dto.EvaluationSubmitRequest{
		SubmissionID: f.submission.ID,
		Scores: []dto.CriterionMarkRequest{
			{CriterionID: f.round.Criteria[0].ID, GivenMarks: 45, Comment: "Clean architecture"},
			{CriterionID: f.round.Criteria[1].ID, GivenMarks: 30},
		},
		Comments: "Strong overall",
	}
}

func TestEvaluationServiceRecord(t *testing.T) {
	fx := newEvaluationFixture(t, models.RoundStatusJudging, models.ScoringModeHybrid)

	recorded, err := fx.service.Record(context.Background(), judgeID, fx.payload())
	require.NoError(t, err)
	require.Equal(t, judgeID, recorded.JudgeID)
	require.Len(t, recorded.Scores, 2)
	require.InDelta(t, 75, recorded.Total, 1e-9)

	mine, err := fx.service.GetMine(context.Background(), fx.submission.ID, judgeID)
	require.NoError(t, err)
	require.Equal(t, recorded.ID, mine.ID)
}

func TestEvaluationServiceRecordReplacesPrevious(t *testing.T) {
	fx := newEvaluationFixture(t, models.RoundStatusJudging, models.ScoringModeHybrid)

	first, err := fx.service.Record(context.Background(), judgeID, fx.payload())
	require.NoError(t, err)

	payload := fx.payload()
	payload.Scores[0].GivenMarks = 55
	second, err := fx.service.Record(context.Background(), judgeID, payload)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.InDelta(t, 85, second.Total, 1e-9)

	all, err := fx.service.ListBySubmission(context.Background(), fx.submission.ID)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestEvaluationServiceRecordOutsideJudging(t *testing.T) {
	fx := newEvaluationFixture(t, models.RoundStatusOpen, models.ScoringModeHybrid)

	_, err := fx.service.Record(context.Background(), judgeID, fx.payload())
	require.ErrorIs(t, err, ErrJudgingClosed)
}

func TestEvaluationServiceRecordAIOnlyRound(t *testing.T) {
	fx := newEvaluationFixture(t, models.RoundStatusJudging, models.ScoringModeAIOnly)

	_, err := fx.service.Record(context.Background(), judgeID, fx.payload())
	require.ErrorIs(t, err, ErrAIOnlyRound)
}

func TestEvaluationServiceRecordRequiresAssignment(t *testing.T) {
	fx := newEvaluationFixture(t, models.RoundStatusJudging, models.ScoringModeHybrid)

	_, err := fx.service.Record(context.Background(), uint(77), fx.payload())
	require.ErrorIs(t, err, ErrNotAssignedJudge)

	// Assignment scoped to a different round does not cover this one.
	otherRound := 2
	require.NoError(t, fx.fixture.events.AddJudge(context.Background(), &models.EventJudge{
		EventID:    fx.fixture.event.ID,
		JudgeID:    78,
		RoundOrder: &otherRound,
	}))

	_, err = fx.service.Record(context.Background(), uint(78), fx.payload())
	require.ErrorIs(t, err, ErrNotAssignedJudge)
}

func TestEvaluationServiceRecordRejectsBadMarks(t *testing.T) {
	fx := newEvaluationFixture(t, models.RoundStatusJudging, models.ScoringModeHybrid)

	payload := fx.payload()
	payload.Scores[0].GivenMarks = 61
	_, err := fx.service.Record(context.Background(), judgeID, payload)
	require.ErrorIs(t, err, ErrMarksOutOfRange)

	payload = fx.payload()
	payload.Scores[1].CriterionID = 9999
	_, err = fx.service.Record(context.Background(), judgeID, payload)
	require.ErrorIs(t, err, ErrUnknownCriterion)
}

func TestEvaluationServiceRecordRequiresFullMarkSet(t *testing.T) {
	fx := newEvaluationFixture(t, models.RoundStatusJudging, models.ScoringModeHybrid)

	payload := fx.payload()
	payload.Scores = payload.Scores[:1]
	_, err := fx.service.Record(context.Background(), judgeID, payload)
	require.ErrorIs(t, err, ErrIncompleteEvaluation)

	payload = fx.payload()
	payload.Scores[1].CriterionID = payload.Scores[0].CriterionID
	_, err = fx.service.Record(context.Background(), judgeID, payload)
	require.ErrorIs(t, err, ErrIncompleteEvaluation)
}

func TestEvaluationServiceRecordSanitizesComments(t *testing.T) {
	fx := newEvaluationFixture(t, models.RoundStatusJudging, models.ScoringModeHybrid)

	payload := fx.payload()
	payload.Comments = `<script>alert("x")</script>Good work`
	recorded, err := fx.service.Record(context.Background(), judgeID, payload)
	require.NoError(t, err)
	require.Equal(t, "Good work", recorded.Comments)
}

func TestEvaluationServiceGetMineMissing(t *testing.T) {
	fx := newEvaluationFixture(t, models.RoundStatusJudging, models.ScoringModeHybrid)

	_, err := fx.service.GetMine(context.Background(), fx.submission.ID, judgeID)
	require.ErrorIs(t, err, ErrEvaluationNotFound)
}
