package handlers

import (
	"strconv"

	"github.com/MUHAMMEDJasir72/MindEase/internal/models"
	"github.com/MUHAMMEDJasir72/MindEase/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// currentActor reads the identity the auth middleware stored on the request.
func currentActor(c *fiber.Ctx) (services.Actor, bool) {
	userIDStr, ok := c.Locals("user_id").(string)
	if !ok {
		return services.Actor{}, false
	}
	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil || userID <= 0 {
		return services.Actor{}, false
	}
	role, _ := c.Locals("role").(string)
	switch r := models.Role(role); r {
	case models.RoleClient, models.RoleTherapist, models.RoleOperator:
		return services.Actor{ID: userID, Role: r}, true
	}
	return services.Actor{}, false
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": message})
}

func parseIDParam(c *fiber.Ctx, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// writeError maps a service error to a status. Internal errors are logged and
// answered with a generic body.
func writeError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	status := fiber.StatusInternalServerError
	switch services.KindOf(err) {
	case services.KindNotFound:
		status = fiber.StatusNotFound
	case services.KindConflict:
		status = fiber.StatusConflict
	case services.KindPreconditionFailed:
		status = fiber.StatusPreconditionFailed
	case services.KindInsufficientFunds:
		status = fiber.StatusPaymentRequired
	case services.KindForbidden:
		status = fiber.StatusForbidden
	case services.KindValidation:
		status = fiber.StatusBadRequest
	default:
		logger.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return c.Status(status).JSON(fiber.Map{"error": "Internal server error"})
	}
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
		"code":  services.KindOf(err).String(),
	})
}
