package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/MUHAMMEDJasir72/MindEase/internal/models"
	"github.com/MUHAMMEDJasir72/MindEase/internal/services"
	chatws "github.com/MUHAMMEDJasir72/MindEase/internal/websocket"
	"github.com/MUHAMMEDJasir72/MindEase/pkg/utils"
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type chatApplicationService interface {
	ListConversations(ctx context.Context, actor services.Actor) ([]models.ConversationSummary, error)
	OpenConversation(ctx context.Context, actor services.Actor, therapistID int64) (*models.Conversation, error)
	ListMessages(ctx context.Context, actor services.Actor, conversationID int64, page int, limit int) ([]models.ChatMessage, int, error)
	SendMessage(ctx context.Context, actor services.Actor, conversationID int64, content string) (*services.ChatDelivery, error)
}

type ChatHandler struct {
	service   chatApplicationService
	hub       *chatws.Hub
	jwtSecret string
	logger    *zap.Logger
}

type createConversationRequest struct {
	TherapistID int64 `json:"therapist_id"`
}

func NewChatHandler(service chatApplicationService, hub *chatws.Hub, jwtSecret string, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		service:   service,
		hub:       hub,
		jwtSecret: jwtSecret,
		logger:    logger,
	}
}

func (h *ChatHandler) ListConversations(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}

	conversations, err := h.service.ListConversations(c.Context(), actor)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{"conversations": conversations})
}

func (h *ChatHandler) CreateConversation(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}

	var req createConversationRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	conversation, err := h.service.OpenConversation(c.Context(), actor, req.TherapistID)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"conversation": conversation})
}

func (h *ChatHandler) GetMessages(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}

	conversationID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid conversation id")
	}

	page := parsePositiveInt(c.Query("page"), 1)
	limit := min(parsePositiveInt(c.Query("limit"), defaultPageLimit), maxPageLimit)

	messages, total, err := h.service.ListMessages(c.Context(), actor, conversationID, page, limit)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{
		"messages":   messages,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

// WebSocketAuth accepts the token from the query string since browsers
// cannot set headers on an upgrade request.
func (h *ChatHandler) WebSocketAuth(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{"error": "WebSocket upgrade required"})
	}

	claims, err := h.parseWSClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
	}
	if _, err := chatws.ActorFromClaims(claims.UserID, claims.Role); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
	}

	c.Locals("user_id", claims.UserID)
	c.Locals("role", claims.Role)
	return c.Next()
}

func (h *ChatHandler) HandleWebSocket(conn *websocket.Conn) {
	userID, _ := conn.Locals("user_id").(string)
	role, _ := conn.Locals("role").(string)
	actor, err := chatws.ActorFromClaims(userID, role)
	if err != nil {
		_ = conn.Close()
		return
	}
	client := chatws.NewClient(h.hub, conn, actor)

	h.hub.Register(client)
	go client.WritePump()
	client.ReadPump(h.service)
}

func (h *ChatHandler) parseWSClaims(c *fiber.Ctx) (*utils.Claims, error) {
	tokenString := strings.TrimSpace(c.Query("token"))
	if tokenString == "" {
		authHeader := strings.TrimSpace(c.Get("Authorization"))
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}
	}

	if tokenString == "" {
		return nil, errors.New("missing token")
	}

	return utils.ValidateToken(tokenString, h.jwtSecret)
}
