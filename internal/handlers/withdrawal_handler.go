package handlers

import (
	"context"
	"strings"

	"github.com/MUHAMMEDJasir72/MindEase/internal/models"
	"github.com/MUHAMMEDJasir72/MindEase/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type withdrawalApplicationService interface {
	Request(ctx context.Context, actor services.Actor, amount int64, payoutHandle string) (*models.WithdrawalRequest, error)
	Process(ctx context.Context, actor services.Actor, requestID int64) (*models.WithdrawalRequest, error)
	List(ctx context.Context, actor services.Actor, pendingOnly bool, limit int) ([]models.WithdrawalRequest, error)
}

type WithdrawalHandler struct {
	service withdrawalApplicationService
	logger  *zap.Logger
}

func NewWithdrawalHandler(service withdrawalApplicationService, logger *zap.Logger) *WithdrawalHandler {
	return &WithdrawalHandler{service: service, logger: logger}
}

type withdrawalRequest struct {
	Amount       int64  `json:"amount"`
	PayoutHandle string `json:"payout_handle"`
}

func (h *WithdrawalHandler) RequestWithdrawal(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}

	var req withdrawalRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	request, err := h.service.Request(c.Context(), actor, req.Amount, strings.TrimSpace(req.PayoutHandle))
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"withdrawal": request})
}

func (h *WithdrawalHandler) ListWithdrawals(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}

	pendingOnly := c.QueryBool("pending", false)
	requests, err := h.service.List(c.Context(), actor, pendingOnly, listLimit(c.Query("limit")))
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{"withdrawals": requests})
}

func (h *WithdrawalHandler) ProcessWithdrawal(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}

	requestID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid withdrawal id")
	}

	request, err := h.service.Process(c.Context(), actor, requestID)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{"withdrawal": request})
}
