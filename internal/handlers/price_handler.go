package handlers

import (
	"context"

	"github.com/MUHAMMEDJasir72/MindEase/internal/models"
	"github.com/MUHAMMEDJasir72/MindEase/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type priceApplicationService interface {
	Get(ctx context.Context) (*models.PriceList, error)
	Set(ctx context.Context, actor services.Actor, prices models.PriceList) (*models.PriceList, error)
}

type PriceHandler struct {
	service priceApplicationService
	logger  *zap.Logger
}

func NewPriceHandler(service priceApplicationService, logger *zap.Logger) *PriceHandler {
	return &PriceHandler{service: service, logger: logger}
}

type setPricesRequest struct {
	VideoCall int64 `json:"video_call"`
	VoiceCall int64 `json:"voice_call"`
	Message   int64 `json:"message"`
}

func (h *PriceHandler) GetPrices(c *fiber.Ctx) error {
	prices, err := h.service.Get(c.Context())
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"prices": prices})
}

func (h *PriceHandler) SetPrices(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}

	var req setPricesRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	prices, err := h.service.Set(c.Context(), actor, models.PriceList{
		VideoCall: req.VideoCall,
		VoiceCall: req.VoiceCall,
		Message:   req.Message,
	})
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{"prices": prices})
}
