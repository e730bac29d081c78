package handlers

import (
	"context"
	"iter"
	"strings"
	"time"

	"github.com/MUHAMMEDJasir72/MindEase/internal/models"
	"github.com/MUHAMMEDJasir72/MindEase/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type slotApplicationService interface {
	AddSlots(ctx context.Context, actor services.Actor, date string, times []string) ([]models.Slot, error)
	RemoveSlot(ctx context.Context, actor services.Actor, slotID int64) error
	ListAvailable(ctx context.Context, therapistID int64, fromDate string) iter.Seq2[models.Slot, error]
}

type SlotHandler struct {
	service slotApplicationService
	logger  *zap.Logger
	now     func() time.Time
}

func NewSlotHandler(service slotApplicationService, logger *zap.Logger) *SlotHandler {
	return &SlotHandler{service: service, logger: logger, now: time.Now}
}

type addSlotsRequest struct {
	Date  string   `json:"date"`
	Times []string `json:"times"`
}

func (h *SlotHandler) AddSlots(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}

	var req addSlotsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	slots, err := h.service.AddSlots(c.Context(), actor, strings.TrimSpace(req.Date), req.Times)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"slots": slots})
}

func (h *SlotHandler) RemoveSlot(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}

	slotID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid slot id")
	}

	if err := h.service.RemoveSlot(c.Context(), actor, slotID); err != nil {
		return writeError(c, h.logger, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ListAvailable returns up to limit open slots from the given date on. The
// date defaults to today.
func (h *SlotHandler) ListAvailable(c *fiber.Ctx) error {
	therapistID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid therapist id")
	}

	from := strings.TrimSpace(c.Query("from"))
	if from == "" {
		from = h.now().UTC().Format("2006-01-02")
	}
	limit := listLimit(c.Query("limit"))

	slots := make([]models.Slot, 0, limit)
	for slot, err := range h.service.ListAvailable(c.Context(), therapistID, from) {
		if err != nil {
			return writeError(c, h.logger, err)
		}
		slots = append(slots, slot)
		if len(slots) == limit {
			break
		}
	}

	return c.JSON(fiber.Map{"slots": slots})
}
