package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/arena-go-api/internal/config"
	"github.com/noah-isme/arena-go-api/internal/dto"
	"github.com/noah-isme/arena-go-api/internal/handler"
	"github.com/noah-isme/arena-go-api/internal/models"
	"github.com/noah-isme/arena-go-api/internal/repository"
	"github.com/noah-isme/arena-go-api/internal/router"
	"github.com/noah-isme/arena-go-api/internal/service"
)

const (
	testOrganizerID = 1
	testLeaderID    = 10
	testMemberID    = 11
	testJudgeID     = 20
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
}

// testAuth replaces the JWT middleware: identity comes from request headers
// so a single app can serve every role in one test.
func testAuth(c *fiber.Ctx) error {
	if raw := c.Get("X-Test-User"); raw != "" {
		if id, err := strconv.Atoi(raw); err == nil {
			c.Locals("user_id", uint(id))
		}
	}
	if role := c.Get("X-Test-Role"); role != "" {
		c.Locals("user_role", role)
	}
	return c.Next()
}

func newTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Event{}, &models.EventJudge{}, &models.Round{}, &models.Criterion{},
		&models.Team{}, &models.TeamMember{},
		&models.Submission{}, &models.Evaluation{}, &models.CriterionScore{},
		&models.LeaderboardSnapshot{},
	))

	logger := zerolog.New(io.Discard)
	validate := validator.New(validator.WithRequiredStructEnabled())

	eventRepo := repository.NewEventRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	evaluationRepo := repository.NewEvaluationRepository(db)
	leaderboardRepo := repository.NewLeaderboardRepository(db)

	eventService := service.NewEventService(eventRepo, validate, logger)
	submissionService := service.NewSubmissionService(
		submissionRepo, eventRepo, teamRepo, evaluationRepo, nil, time.Second, nil, validate, logger)
	evaluationService := service.NewEvaluationService(
		evaluationRepo, submissionRepo, eventRepo, validate, logger)
	leaderboardService := service.NewLeaderboardService(
		eventRepo, teamRepo, submissionRepo, evaluationRepo, leaderboardRepo, nil, 0, nil, logger)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "ARENA API"}, router.Dependencies{
		EventHandler:       handler.NewEventHandler(eventService, logger),
		SubmissionHandler:  handler.NewSubmissionHandler(submissionService, logger),
		EvaluationHandler:  handler.NewEvaluationHandler(evaluationService, logger),
		LeaderboardHandler: handler.NewLeaderboardHandler(leaderboardService, logger),
		JWTMiddleware:      testAuth,
	})

	return app, db
}

func doRequest(t *testing.T, app *fiber.App, method, path string, userID int, role string, body interface{}) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Test-User", strconv.Itoa(userID))
	req.Header.Set("X-Test-Role", role)

	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	defer resp.Body.Close()

	var parsed envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	return resp.StatusCode, parsed
}

func decodeData(t *testing.T, raw json.RawMessage, target interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, target))
}

func createEventPayload() dto.EventCreateRequest {
	start := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	return dto.EventCreateRequest{
		Title:       "City Hackathon",
		Description: "Two day city hackathon",
		Theme:       "mobility",
		StartDate:   start,
		EndDate:     start.Add(48 * time.Hour),
		Rounds: []dto.RoundRequest{
			{
				Name:             "Build",
				Order:            1,
				MaxScore:         100,
				WeightagePercent: 100,
				ScoringMode:      models.ScoringModeJudgeOnly,
				Criteria: []dto.CriterionRequest{
					{Title: "Impact", MaxMarks: 60},
					{Title: "Polish", MaxMarks: 40},
				},
			},
		},
	}
}

func createEvent(t *testing.T, app *fiber.App) dto.EventResponse {
	t.Helper()

	status, resp := doRequest(t, app, http.MethodPost, "/api/v1/events",
		testOrganizerID, models.RoleOrganizer, createEventPayload())
	require.Equal(t, http.StatusCreated, status, resp.Message)

	var event dto.EventResponse
	decodeData(t, resp.Data, &event)
	return event
}

func transitionRound(t *testing.T, app *fiber.App, eventID uint, order int, target string) {
	t.Helper()

	path := fmt.Sprintf("/api/v1/events/%d/rounds/%d/status", eventID, order)
	status, resp := doRequest(t, app, http.MethodPatch, path,
		testOrganizerID, models.RoleOrganizer, dto.RoundStatusRequest{Status: target})
	require.Equal(t, http.StatusOK, status, resp.Message)
}

func seedTeam(t *testing.T, db *gorm.DB, eventID uint) models.Team {
	t.Helper()

	team := models.Team{
		EventID:  eventID,
		Name:     "Night Owls",
		Code:     "OWL-7",
		LeaderID: testLeaderID,
		Members: []models.TeamMember{
			{UserID: testLeaderID},
			{UserID: testMemberID},
		},
	}
	require.NoError(t, db.Create(&team).Error)
	return team
}

func TestHealthEndpoint(t *testing.T) {
	app, _ := newTestApp(t)

	req, err := http.NewRequest(http.MethodGet, "/api/v1/health", nil)
	require.NoError(t, err)

	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestEventEndpointsLifecycle(t *testing.T) {
	app, _ := newTestApp(t)

	event := createEvent(t, app)
	require.NotZero(t, event.ID)
	require.Len(t, event.Rounds, 1)
	require.Equal(t, models.RoundStatusDraft, event.Rounds[0].Status)

	status, resp := doRequest(t, app, http.MethodGet,
		fmt.Sprintf("/api/v1/events/%d", event.ID), testJudgeID, models.RoleJudge, nil)
	require.Equal(t, http.StatusOK, status)
	var fetched dto.EventResponse
	decodeData(t, resp.Data, &fetched)
	require.Equal(t, event.Title, fetched.Title)

	// Only organizers create events.
	status, _ = doRequest(t, app, http.MethodPost, "/api/v1/events",
		testJudgeID, models.RoleJudge, createEventPayload())
	require.Equal(t, http.StatusForbidden, status)

	transitionRound(t, app, event.ID, 1, models.RoundStatusOpen)

	// Forward skips come back as a state conflict.
	path := fmt.Sprintf("/api/v1/events/%d/rounds/1/status", event.ID)
	status, resp = doRequest(t, app, http.MethodPatch, path,
		testOrganizerID, models.RoleOrganizer, dto.RoundStatusRequest{Status: models.RoundStatusPublished})
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, "state_conflict", resp.Code)

	status, _ = doRequest(t, app, http.MethodPost,
		fmt.Sprintf("/api/v1/events/%d/judges", event.ID),
		testOrganizerID, models.RoleOrganizer, dto.JudgeAssignRequest{JudgeID: testJudgeID})
	require.Equal(t, http.StatusOK, status)

	status, _ = doRequest(t, app, http.MethodGet,
		fmt.Sprintf("/api/v1/events/%d", event.ID+100), testOrganizerID, models.RoleOrganizer, nil)
	require.Equal(t, http.StatusNotFound, status)
}

func TestCompetitionFlow(t *testing.T) {
	app, db := newTestApp(t)

	event := createEvent(t, app)
	team := seedTeam(t, db, event.ID)
	transitionRound(t, app, event.ID, 1, models.RoundStatusOpen)

	status, _ := doRequest(t, app, http.MethodPost,
		fmt.Sprintf("/api/v1/events/%d/judges", event.ID),
		testOrganizerID, models.RoleOrganizer, dto.JudgeAssignRequest{JudgeID: testJudgeID})
	require.Equal(t, http.StatusOK, status)

	submitBody := dto.SubmissionCreateRequest{
		EventID:    event.ID,
		RoundOrder: 1,
		Fields: map[string]interface{}{
			"repo_url": "https://example.com/owls/city",
			"notes":    "Routing engine for night buses.",
		},
	}

	status, resp := doRequest(t, app, http.MethodPost, "/api/v1/submissions",
		testLeaderID, models.RoleParticipant, submitBody)
	require.Equal(t, http.StatusCreated, status, resp.Message)
	var submission dto.SubmissionResponse
	decodeData(t, resp.Data, &submission)
	require.Equal(t, 1, submission.Version)
	require.Equal(t, team.ID, submission.TeamID)

	// Non-leader members cannot submit.
	status, resp = doRequest(t, app, http.MethodPost, "/api/v1/submissions",
		testMemberID, models.RoleParticipant, submitBody)
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, "forbidden", resp.Code)

	status, resp = doRequest(t, app, http.MethodPost, "/api/v1/submissions",
		testLeaderID, models.RoleParticipant, submitBody)
	require.Equal(t, http.StatusCreated, status)
	decodeData(t, resp.Data, &submission)
	require.Equal(t, 2, submission.Version)

	transitionRound(t, app, event.ID, 1, models.RoundStatusSubmissionClosed)

	// Closing the round locks the existing ledger entry.
	status, resp = doRequest(t, app, http.MethodPost, "/api/v1/submissions",
		testLeaderID, models.RoleParticipant, submitBody)
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, "submission_locked", resp.Code)

	// A team with no prior submission hits the closed window instead.
	lateLeaderID := 12
	lateTeam := models.Team{
		EventID:  event.ID,
		Name:     "River Foxes",
		Code:     "FOX-3",
		LeaderID: uint(lateLeaderID),
		Members:  []models.TeamMember{{UserID: uint(lateLeaderID)}},
	}
	require.NoError(t, db.Create(&lateTeam).Error)
	status, resp = doRequest(t, app, http.MethodPost, "/api/v1/submissions",
		lateLeaderID, models.RoleParticipant, submitBody)
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, "round_closed", resp.Code)

	transitionRound(t, app, event.ID, 1, models.RoundStatusJudging)

	evaluateBody := dto.EvaluationSubmitRequest{
		SubmissionID: submission.ID,
		Scores: []dto.CriterionMarkRequest{
			{CriterionID: event.Rounds[0].Criteria[0].ID, GivenMarks: 50},
			{CriterionID: event.Rounds[0].Criteria[1].ID, GivenMarks: 30},
		},
		Comments: "Well scoped",
	}
	status, resp = doRequest(t, app, http.MethodPost, "/api/v1/evaluations",
		testJudgeID, models.RoleJudge, evaluateBody)
	require.Equal(t, http.StatusCreated, status, resp.Message)
	var evaluation dto.EvaluationResponse
	decodeData(t, resp.Data, &evaluation)
	require.InDelta(t, 80, evaluation.Total, 1e-9)

	status, resp = doRequest(t, app, http.MethodGet,
		fmt.Sprintf("/api/v1/submissions/%d/score", submission.ID),
		testJudgeID, models.RoleJudge, nil)
	require.Equal(t, http.StatusOK, status)
	var breakdown dto.ScoreBreakdownResponse
	decodeData(t, resp.Data, &breakdown)
	require.InDelta(t, 80, breakdown.FinalTotal, 1e-9)

	transitionRound(t, app, event.ID, 1, models.RoundStatusPublished)

	status, resp = doRequest(t, app, http.MethodGet,
		fmt.Sprintf("/api/v1/events/%d/leaderboard", event.ID),
		testOrganizerID, models.RoleOrganizer, nil)
	require.Equal(t, http.StatusOK, status)
	var board dto.LeaderboardResponse
	decodeData(t, resp.Data, &board)
	require.Len(t, board.Rows, 1)
	require.Equal(t, 1, board.Rows[0].Rank)
	require.Equal(t, team.ID, board.Rows[0].TeamID)
	require.InDelta(t, 80, board.Rows[0].TotalScore, 1e-9)
}

func TestSubmissionVisibility(t *testing.T) {
	app, db := newTestApp(t)

	event := createEvent(t, app)
	seedTeam(t, db, event.ID)
	transitionRound(t, app, event.ID, 1, models.RoundStatusOpen)

	submitBody := dto.SubmissionCreateRequest{
		EventID:    event.ID,
		RoundOrder: 1,
		Fields:     map[string]interface{}{"notes": "First draft"},
	}
	status, resp := doRequest(t, app, http.MethodPost, "/api/v1/submissions",
		testLeaderID, models.RoleParticipant, submitBody)
	require.Equal(t, http.StatusCreated, status)
	var submission dto.SubmissionResponse
	decodeData(t, resp.Data, &submission)

	// A participant outside the team is rejected; a judge is not.
	status, _ = doRequest(t, app, http.MethodGet,
		fmt.Sprintf("/api/v1/submissions/%d", submission.ID),
		99, models.RoleParticipant, nil)
	require.Equal(t, http.StatusForbidden, status)

	status, _ = doRequest(t, app, http.MethodGet,
		fmt.Sprintf("/api/v1/submissions/%d", submission.ID),
		testJudgeID, models.RoleJudge, nil)
	require.Equal(t, http.StatusOK, status)

	status, resp = doRequest(t, app, http.MethodGet,
		fmt.Sprintf("/api/v1/submissions/mine?event_id=%d", event.ID),
		testMemberID, models.RoleParticipant, nil)
	require.Equal(t, http.StatusOK, status)
	var mine []dto.SubmissionResponse
	decodeData(t, resp.Data, &mine)
	require.Len(t, mine, 1)
}
