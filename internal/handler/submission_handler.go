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

// SubmissionHandler wires submission ledger HTTP routes.
type SubmissionHandler struct {
	service service.SubmissionService
	logger  zerolog.Logger
}

// NewSubmissionHandler constructs the handler.
func NewSubmissionHandler(service service.SubmissionService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service: service,
		logger:  logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register attaches submission endpoints to the router group.
func (h *SubmissionHandler) Register(router fiber.Router) {
	router.Post("", middleware.RequireRole(models.RoleParticipant), h.submit)
	router.Get("", middleware.RequireRole(models.RoleOrganizer, models.RoleJudge), h.listByRound)
	router.Get("/mine", middleware.RequireRole(models.RoleParticipant), h.listMine)
	router.Get("/:id", h.get)
	router.Get("/:id/score", middleware.RequireRole(models.RoleOrganizer, models.RoleJudge), h.breakdown)
	router.Post("/:id/lock", middleware.RequireRole(models.RoleOrganizer), h.lock)
}

func (h *SubmissionHandler) submit(c *fiber.Ctx) error {
	var payload dto.SubmissionCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	submission, err := h.service.Submit(c.UserContext(), userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "submission recorded", submission)
}

func (h *SubmissionHandler) listByRound(c *fiber.Ctx) error {
	eventID, err := parseQueryUint(c, "event_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	order, err := parseQueryInt(c, "round_order")
	if err != nil || order <= 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid round_order")
	}

	submissions, err := h.service.ListByRound(c.UserContext(), eventID, order)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *SubmissionHandler) listMine(c *fiber.Ctx) error {
	eventID, err := parseQueryUint(c, "event_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submissions, err := h.service.ListMine(c.UserContext(), eventID, userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *SubmissionHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.service.Get(c.UserContext(), id, userIDFromContext(c), userRoleFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission retrieved", submission)
}

func (h *SubmissionHandler) breakdown(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	breakdown, err := h.service.Breakdown(c.UserContext(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "score breakdown computed", breakdown)
}

func (h *SubmissionHandler) lock(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.service.Lock(c.UserContext(), id, userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission locked", submission)
}

func (h *SubmissionHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendErrorWithCode(c, fiber.StatusNotFound, codeNotFound, "submission not found")
	case errors.Is(err, service.ErrEventNotFound):
		return utils.SendErrorWithCode(c, fiber.StatusNotFound, codeNotFound, "event not found")
	case errors.Is(err, service.ErrRoundNotFound):
		return utils.SendErrorWithCode(c, fiber.StatusNotFound, codeNotFound, "round not found")
	case errors.Is(err, service.ErrTeamNotFound):
		return utils.SendErrorWithCode(c, fiber.StatusNotFound, codeNotFound, "team not found for this event")
	case errors.Is(err, service.ErrNotTeamLeader):
		return utils.SendErrorWithCode(c, fiber.StatusForbidden, codeForbidden, "only the team leader can submit")
	case errors.Is(err, service.ErrNotTeamMember):
		return utils.SendErrorWithCode(c, fiber.StatusForbidden, codeForbidden, "submission belongs to another team")
	case errors.Is(err, service.ErrNotEventOwner):
		return utils.SendErrorWithCode(c, fiber.StatusForbidden, codeForbidden, "event can only be managed by its creator")
	case errors.Is(err, service.ErrSubmissionLocked):
		return utils.SendErrorWithCode(c, fiber.StatusConflict, codeSubmissionLocked, "submission is locked")
	case errors.Is(err, service.ErrRoundNotOpen):
		return utils.SendErrorWithCode(c, fiber.StatusConflict, codeRoundClosed, "round is not accepting submissions")
	case errors.Is(err, service.ErrInvalidSubmissionPayload):
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, codeValidation, err.Error())
	case errors.As(err, &validationErrors):
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, codeValidation, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Str("correlation_id", middleware.GetCorrelationID(c)).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
