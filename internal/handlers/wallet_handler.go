package handlers

import (
	"context"
	"iter"

	"github.com/MUHAMMEDJasir72/MindEase/internal/models"
	"github.com/MUHAMMEDJasir72/MindEase/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type walletApplicationService interface {
	OpenWallet(ctx context.Context, ownerID int64) (*models.Wallet, error)
	Balance(ctx context.Context, ownerID int64) (*models.Wallet, error)
	TransactionsBefore(ctx context.Context, ownerID, beforeID int64) iter.Seq2[models.WalletTransaction, error]
	Reconcile(ctx context.Context, ownerID int64) (*models.Reconciliation, error)
}

type WalletHandler struct {
	service walletApplicationService
	logger  *zap.Logger
}

func NewWalletHandler(service walletApplicationService, logger *zap.Logger) *WalletHandler {
	return &WalletHandler{service: service, logger: logger}
}

func (h *WalletHandler) GetWallet(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}

	wallet, err := h.service.Balance(c.Context(), actor.ID)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{"wallet": wallet})
}

// OpenWallet creates the caller's wallet. Calling it again returns the
// existing one.
func (h *WalletHandler) OpenWallet(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}

	wallet, err := h.service.OpenWallet(c.Context(), actor.ID)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"wallet": wallet})
}

// ListTransactions pages through the ledger newest first. next_before is the
// cursor for the following page, or 0 when this page is the last.
func (h *WalletHandler) ListTransactions(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}

	before, err := parseCursor(c.Query("before"))
	if err != nil {
		return badRequest(c, "before must be a transaction id")
	}
	limit := listLimit(c.Query("limit"))

	entries := make([]models.WalletTransaction, 0, limit)
	var nextBefore int64
	for entry, err := range h.service.TransactionsBefore(c.Context(), actor.ID, before) {
		if err != nil {
			return writeError(c, h.logger, err)
		}
		if len(entries) == limit {
			nextBefore = entries[len(entries)-1].ID
			break
		}
		entries = append(entries, entry)
	}

	return c.JSON(fiber.Map{
		"transactions": entries,
		"next_before":  nextBefore,
	})
}

// Reconcile is an operator check of one wallet against its ledger.
func (h *WalletHandler) Reconcile(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}
	if actor.Role != models.RoleOperator {
		return writeError(c, h.logger, services.ErrForbidden)
	}

	ownerID, ok := parseIDParam(c, "ownerId")
	if !ok {
		return badRequest(c, "Invalid owner id")
	}

	report, err := h.service.Reconcile(c.Context(), ownerID)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{"reconciliation": report})
}
