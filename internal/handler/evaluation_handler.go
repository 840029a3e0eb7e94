package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/arena-go-api/internal/dto"
	"github.com/noah-isme/arena-go-api/internal/middleware"
	"github.com/noah-isme/arena-go-api/internal/models"
	"github.com/noah-isme/arena-go-api/internal/service"
	"github.com/noah-isme/arena-go-api/internal/utils"
)

// EvaluationHandler wires judge evaluation HTTP routes.
type EvaluationHandler struct {
	service service.EvaluationService
	logger  zerolog.Logger
}

// NewEvaluationHandler constructs the handler.
func NewEvaluationHandler(service service.EvaluationService, logger zerolog.Logger) *EvaluationHandler {
	return &EvaluationHandler{
		service: service,
		logger:  logger.With().Str("component", "evaluation_handler").Logger(),
	}
}

// Register attaches evaluation endpoints to the router group.
func (h *EvaluationHandler) Register(router fiber.Router) {
	router.Post("", middleware.RequireRole(models.RoleJudge), h.record)
	router.Get("", middleware.RequireRole(models.RoleOrganizer), h.listBySubmission)
	router.Get("/mine", middleware.RequireRole(models.RoleJudge), h.getMine)
}

func (h *EvaluationHandler) record(c *fiber.Ctx) error {
	var payload dto.EvaluationSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	evaluation, err := h.service.Record(c.UserContext(), userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "evaluation recorded", evaluation)
}

func (h *EvaluationHandler) listBySubmission(c *fiber.Ctx) error {
	submissionID, err := parseQueryUint(c, "submission_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	evaluations, err := h.service.ListBySubmission(c.UserContext(), submissionID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "evaluations retrieved", evaluations)
}

func (h *EvaluationHandler) getMine(c *fiber.Ctx) error {
	submissionID, err := parseQueryUint(c, "submission_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	evaluation, err := h.service.GetMine(c.UserContext(), submissionID, userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "evaluation retrieved", evaluation)
}

func (h *EvaluationHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrEvaluationNotFound):
		return utils.SendErrorWithCode(c, fiber.StatusNotFound, codeNotFound, "evaluation not found")
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendErrorWithCode(c, fiber.StatusNotFound, codeNotFound, "submission not found")
	case errors.Is(err, service.ErrEventNotFound):
		return utils.SendErrorWithCode(c, fiber.StatusNotFound, codeNotFound, "event not found")
	case errors.Is(err, service.ErrRoundNotFound):
		return utils.SendErrorWithCode(c, fiber.StatusNotFound, codeNotFound, "round not found")
	case errors.Is(err, service.ErrAIOnlyRound):
		return utils.SendErrorWithCode(c, fiber.StatusForbidden, codeForbidden, "round is scored by the analyzer only")
	case errors.Is(err, service.ErrNotAssignedJudge):
		return utils.SendErrorWithCode(c, fiber.StatusForbidden, codeForbidden, "judge is not assigned to this round")
	case errors.Is(err, service.ErrJudgingClosed):
		return utils.SendErrorWithCode(c, fiber.StatusConflict, codeStateConflict, "round is not open for judging")
	case errors.Is(err, service.ErrUnknownCriterion),
		errors.Is(err, service.ErrMarksOutOfRange),
		errors.Is(err, service.ErrIncompleteEvaluation):
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, codeValidation, err.Error())
	case errors.As(err, &validationErrors):
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, codeValidation, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Str("correlation_id", middleware.GetCorrelationID(c)).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
