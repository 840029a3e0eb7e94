package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/arena-go-api/internal/middleware"
	"github.com/noah-isme/arena-go-api/internal/models"
	"github.com/noah-isme/arena-go-api/internal/service"
	"github.com/noah-isme/arena-go-api/internal/utils"
)

// LeaderboardHandler wires leaderboard HTTP routes, including the live
// websocket feed.
type LeaderboardHandler struct {
	service service.LeaderboardService
	logger  zerolog.Logger
}

// NewLeaderboardHandler constructs the handler.
func NewLeaderboardHandler(service service.LeaderboardService, logger zerolog.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{
		service: service,
		logger:  logger.With().Str("component", "leaderboard_handler").Logger(),
	}
}

// Register attaches leaderboard endpoints under the events group.
func (h *LeaderboardHandler) Register(router fiber.Router) {
	router.Get("/:id/leaderboard", h.get)
	router.Post("/:id/leaderboard/refresh", middleware.RequireRole(models.RoleOrganizer), h.refresh)
	router.Get("/:id/leaderboard/shortlist", middleware.RequireRole(models.RoleOrganizer, models.RoleJudge), h.shortlist)

	router.Use("/:id/leaderboard/live", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/:id/leaderboard/live", websocket.New(h.live))
}

func (h *LeaderboardHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	leaderboard, err := h.service.Get(c.UserContext(), id, userRoleFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "leaderboard retrieved", leaderboard)
}

func (h *LeaderboardHandler) refresh(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	leaderboard, err := h.service.Refresh(c.UserContext(), id, userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "leaderboard recomputed", leaderboard)
}

func (h *LeaderboardHandler) shortlist(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	shortlist, err := h.service.Shortlist(c.UserContext(), id, limit)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "shortlist computed", shortlist)
}

// live streams masked leaderboard updates over a websocket. The client gets
// the current board on connect and a fresh one after every rebuild.
func (h *LeaderboardHandler) live(conn *websocket.Conn) {
	defer func() { _ = conn.Close() }()

	eventID := websocketEventID(conn)
	if eventID == 0 {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "invalid event id"))
		return
	}

	leaderboard, err := h.service.Get(context.Background(), eventID, models.RoleParticipant)
	if err != nil && !errors.Is(err, service.ErrEventNotFound) {
		h.logger.Warn().Err(err).Uint("event_id", eventID).Msg("live leaderboard initial fetch failed")
	}
	if err == nil {
		if err := conn.WriteJSON(leaderboard); err != nil {
			return
		}
	}

	updates, cleanup := h.service.Subscribe(eventID)
	defer cleanup()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	h.logger.Info().Uint("event_id", eventID).Msg("leaderboard websocket connected")
	defer h.logger.Info().Uint("event_id", eventID).Msg("leaderboard websocket disconnected")

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(update); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (h *LeaderboardHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrEventNotFound):
		return utils.SendErrorWithCode(c, fiber.StatusNotFound, codeNotFound, "event not found")
	case errors.Is(err, service.ErrNotEventOwner):
		return utils.SendErrorWithCode(c, fiber.StatusForbidden, codeForbidden, "event can only be managed by its creator")
	default:
		h.logger.Error().Err(err).Str("correlation_id", middleware.GetCorrelationID(c)).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

func websocketEventID(conn *websocket.Conn) uint {
	raw := strings.TrimSpace(conn.Params("id"))
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0
	}
	return uint(parsed)
}
