package handlers

import (
	"context"

	"github.com/MUHAMMEDJasir72/MindEase/internal/models"
	"github.com/MUHAMMEDJasir72/MindEase/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type notificationApplicationService interface {
	List(ctx context.Context, actor services.Actor, beforeID int64, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, actor services.Actor, notificationID int64) error
	MarkAllRead(ctx context.Context, actor services.Actor) (int64, error)
	UnreadCount(ctx context.Context, actor services.Actor) (int64, error)
}

type NotificationHandler struct {
	service notificationApplicationService
	logger  *zap.Logger
}

func NewNotificationHandler(service notificationApplicationService, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{service: service, logger: logger}
}

func (h *NotificationHandler) ListNotifications(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}

	before, err := parseCursor(c.Query("before"))
	if err != nil {
		return badRequest(c, "before must be a notification id")
	}

	notifications, err := h.service.List(c.Context(), actor, before, listLimit(c.Query("limit")))
	if err != nil {
		return writeError(c, h.logger, err)
	}
	unread, err := h.service.UnreadCount(c.Context(), actor)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{
		"notifications": notifications,
		"unread_count":  unread,
	})
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}

	notificationID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid notification id")
	}

	if err := h.service.MarkRead(c.Context(), actor, notificationID); err != nil {
		return writeError(c, h.logger, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}

	updated, err := h.service.MarkAllRead(c.Context(), actor)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{"updated": updated})
}
