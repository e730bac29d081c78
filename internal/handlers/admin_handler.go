package handlers

import (
	"context"

	"github.com/MUHAMMEDJasir72/MindEase/internal/models"
	"github.com/MUHAMMEDJasir72/MindEase/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type sweeper interface {
	ApplyDueTransitions(ctx context.Context) (services.SweepReport, error)
}

type AdminHandler struct {
	sweeper sweeper
	logger  *zap.Logger
}

func NewAdminHandler(sweeper sweeper, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{sweeper: sweeper, logger: logger}
}

// RunSweep settles overdue sessions on demand.
func (h *AdminHandler) RunSweep(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}
	if actor.Role != models.RoleOperator {
		return writeError(c, h.logger, services.ErrForbidden)
	}

	report, err := h.sweeper.ApplyDueTransitions(c.Context())
	if err != nil {
		return writeError(c, h.logger, err)
	}

	h.logger.Info("manual sweep finished",
		zap.Int64("operator_id", actor.ID),
		zap.Int("scanned", report.Scanned),
		zap.Int("failed", report.Failed),
	)
	return c.JSON(fiber.Map{"report": report})
}
