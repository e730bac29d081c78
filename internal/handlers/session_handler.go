package handlers

import (
	"context"
	"strings"

	"github.com/MUHAMMEDJasir72/MindEase/internal/models"
	"github.com/MUHAMMEDJasir72/MindEase/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type SessionHandler struct {
	service sessionApplicationService
	logger  *zap.Logger
}

type sessionApplicationService interface {
	Book(ctx context.Context, actor services.Actor, input services.BookSessionInput) (*models.Session, error)
	List(ctx context.Context, actor services.Actor, filter services.SessionFilter) ([]models.Session, error)
	Get(ctx context.Context, actor services.Actor, sessionID int64) (*models.Session, error)
	Cancel(ctx context.Context, actor services.Actor, sessionID int64, reason string) (*models.Session, error)
	MarkAttendance(ctx context.Context, actor services.Actor, sessionID int64) (*models.Session, error)
	Complete(ctx context.Context, actor services.Actor, sessionID int64) (*models.Session, error)
	Feedback(ctx context.Context, actor services.Actor, sessionID int64, input services.FeedbackInput) (*models.Session, error)
	Rating(ctx context.Context, actor services.Actor) (*models.RatingSummary, error)
}

func NewSessionHandler(service sessionApplicationService, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{service: service, logger: logger}
}

type bookSessionRequest struct {
	TherapistID int64  `json:"therapist_id"`
	SlotID      int64  `json:"slot_id"`
	Date        string `json:"date"`
	Mode        string `json:"mode"`
}

type cancelSessionRequest struct {
	Reason string `json:"reason"`
}

type feedbackRequest struct {
	Feedback string `json:"feedback"`
	Rating   int    `json:"rating"`
}

func (h *SessionHandler) BookSession(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}

	var req bookSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	session, err := h.service.Book(c.Context(), actor, services.BookSessionInput{
		TherapistID: req.TherapistID,
		SlotID:      req.SlotID,
		Date:        strings.TrimSpace(req.Date),
		Mode:        models.SessionMode(strings.ToLower(strings.TrimSpace(req.Mode))),
	})
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"session": session})
}

func (h *SessionHandler) ListSessions(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}

	timeframe := strings.TrimSpace(c.Query("timeframe"))
	if timeframe != "" && timeframe != "upcoming" && timeframe != "past" {
		return badRequest(c, "timeframe must be upcoming or past")
	}

	sessions, err := h.service.List(c.Context(), actor, services.SessionFilter{
		Status:    strings.TrimSpace(c.Query("status")),
		Timeframe: timeframe,
		Limit:     listLimit(c.Query("limit")),
	})
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{"sessions": sessions})
}

func (h *SessionHandler) GetSession(c *fiber.Ctx) error {
	return h.withSession(c, func(ctx context.Context, actor services.Actor, id int64) (*models.Session, error) {
		return h.service.Get(ctx, actor, id)
	})
}

func (h *SessionHandler) CancelSession(c *fiber.Ctx) error {
	var req cancelSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	return h.withSession(c, func(ctx context.Context, actor services.Actor, id int64) (*models.Session, error) {
		return h.service.Cancel(ctx, actor, id, req.Reason)
	})
}

func (h *SessionHandler) MarkAttendance(c *fiber.Ctx) error {
	return h.withSession(c, func(ctx context.Context, actor services.Actor, id int64) (*models.Session, error) {
		return h.service.MarkAttendance(ctx, actor, id)
	})
}

func (h *SessionHandler) CompleteSession(c *fiber.Ctx) error {
	return h.withSession(c, func(ctx context.Context, actor services.Actor, id int64) (*models.Session, error) {
		return h.service.Complete(ctx, actor, id)
	})
}

func (h *SessionHandler) SubmitFeedback(c *fiber.Ctx) error {
	var req feedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	return h.withSession(c, func(ctx context.Context, actor services.Actor, id int64) (*models.Session, error) {
		return h.service.Feedback(ctx, actor, id, services.FeedbackInput{
			Feedback: req.Feedback,
			Rating:   req.Rating,
		})
	})
}

// GetRating returns the calling therapist's average session rating.
func (h *SessionHandler) GetRating(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}

	summary, err := h.service.Rating(c.Context(), actor)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{"rating": summary})
}

func (h *SessionHandler) withSession(
	c *fiber.Ctx,
	op func(ctx context.Context, actor services.Actor, id int64) (*models.Session, error),
) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}

	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid session id")
	}

	session, err := op(c.Context(), actor, sessionID)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{"session": session})
}
