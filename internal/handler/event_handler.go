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

// EventHandler wires event and round lifecycle HTTP routes.
type EventHandler struct {
	service service.EventService
	logger  zerolog.Logger
}

// NewEventHandler constructs the handler.
func NewEventHandler(service service.EventService, logger zerolog.Logger) *EventHandler {
	return &EventHandler{
		service: service,
		logger:  logger.With().Str("component", "event_handler").Logger(),
	}
}

// Register attaches event endpoints to the router group.
func (h *EventHandler) Register(router fiber.Router) {
	organizerOnly := middleware.RequireRole(models.RoleOrganizer)

	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Post("", organizerOnly, h.create)
	router.Patch("/:id", organizerOnly, h.update)
	router.Patch("/:id/rounds/:order/status", organizerOnly, h.transitionRound)
	router.Post("/:id/judges", organizerOnly, h.assignJudge)
	router.Delete("/:id/judges/:judgeId", organizerOnly, h.removeJudge)
}

func (h *EventHandler) list(c *fiber.Ctx) error {
	var filter dto.EventFilter
	if err := c.QueryParser(&filter); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	events, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "events retrieved", events)
}

func (h *EventHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	event, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "event retrieved", event)
}

func (h *EventHandler) create(c *fiber.Ctx) error {
	var payload dto.EventCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	event, err := h.service.Create(c.UserContext(), userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "event created", event)
}

func (h *EventHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.EventUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	event, err := h.service.Update(c.UserContext(), id, userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "event updated", event)
}

func (h *EventHandler) transitionRound(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	order, err := parseIntParam(c, "order")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.RoundStatusRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	round, err := h.service.TransitionRound(c.UserContext(), id, order, userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "round transitioned", round)
}

func (h *EventHandler) assignJudge(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.JudgeAssignRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	event, err := h.service.AssignJudge(c.UserContext(), id, userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "judge assigned", event)
}

func (h *EventHandler) removeJudge(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	judgeID, err := parseUintParam(c, "judgeId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.RemoveJudge(c.UserContext(), id, judgeID, userIDFromContext(c)); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "judge removed", fiber.Map{"judge_id": judgeID})
}

func (h *EventHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrEventNotFound):
		return utils.SendErrorWithCode(c, fiber.StatusNotFound, codeNotFound, "event not found")
	case errors.Is(err, service.ErrRoundNotFound):
		return utils.SendErrorWithCode(c, fiber.StatusNotFound, codeNotFound, "round not found")
	case errors.Is(err, service.ErrJudgeNotAssigned):
		return utils.SendErrorWithCode(c, fiber.StatusNotFound, codeNotFound, "judge is not assigned to this event")
	case errors.Is(err, service.ErrNotEventOwner):
		return utils.SendErrorWithCode(c, fiber.StatusForbidden, codeForbidden, "event can only be managed by its creator")
	case errors.Is(err, service.ErrInvalidTransition):
		return utils.SendErrorWithCode(c, fiber.StatusConflict, codeStateConflict, err.Error())
	case errors.Is(err, service.ErrRoundConfigFrozen):
		return utils.SendErrorWithCode(c, fiber.StatusConflict, codeStateConflict, err.Error())
	case errors.Is(err, service.ErrJudgeAlreadyAssigned):
		return utils.SendErrorWithCode(c, fiber.StatusConflict, codeStateConflict, err.Error())
	case errors.Is(err, service.ErrInvalidRoundConfig):
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, codeValidation, err.Error())
	case errors.As(err, &validationErrors):
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, codeValidation, validationErrors.Error())
	default:
		return h.internalError(c, err)
	}
}

func (h *EventHandler) internalError(c *fiber.Ctx, err error) error {
	h.logger.Error().Err(err).Str("correlation_id", middleware.GetCorrelationID(c)).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
