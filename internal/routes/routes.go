package routes

import (
	"github.com/MUHAMMEDJasir72/MindEase/internal/config"
	"github.com/MUHAMMEDJasir72/MindEase/internal/handlers"
	"github.com/MUHAMMEDJasir72/MindEase/internal/middleware"
	"github.com/MUHAMMEDJasir72/MindEase/internal/models"
	"github.com/MUHAMMEDJasir72/MindEase/internal/services"
	chatws "github.com/MUHAMMEDJasir72/MindEase/internal/websocket"
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Services is everything the HTTP layer calls into.
type Services struct {
	Slots         *services.SlotService
	Sessions      *services.SessionService
	Ledger        *services.LedgerService
	Withdrawals   *services.WithdrawalService
	Notifications *services.NotificationService
	Prices        *services.PriceService
	Chat          *services.ChatService
	Hub           *chatws.Hub
}

func RegisterRoutes(app *fiber.App, cfg *config.Config, svc Services, logger *zap.Logger) {
	slotHandler := handlers.NewSlotHandler(svc.Slots, logger)
	sessionHandler := handlers.NewSessionHandler(svc.Sessions, logger)
	walletHandler := handlers.NewWalletHandler(svc.Ledger, logger)
	withdrawalHandler := handlers.NewWithdrawalHandler(svc.Withdrawals, logger)
	notificationHandler := handlers.NewNotificationHandler(svc.Notifications, logger)
	priceHandler := handlers.NewPriceHandler(svc.Prices, logger)
	adminHandler := handlers.NewAdminHandler(svc.Sessions, logger)
	chatHandler := handlers.NewChatHandler(svc.Chat, svc.Hub, cfg.JWTSecret, logger)

	client := string(models.RoleClient)
	therapist := string(models.RoleTherapist)
	operator := string(models.RoleOperator)

	auth := middleware.AuthRequired(cfg.JWTSecret)
	api := app.Group("/api")
	v1 := api.Group("/v1")

	// the websocket route authenticates from the query string, so bearer
	// auth is attached per group below rather than on /v1 as a whole
	v1.Use("/ws", chatHandler.WebSocketAuth)
	v1.Get("/ws", websocket.New(chatHandler.HandleWebSocket))

	slots := v1.Group("/slots", auth, middleware.RequireRole(therapist))
	slots.Post("", slotHandler.AddSlots)
	slots.Delete("/:id", slotHandler.RemoveSlot)

	v1.Get("/therapists/:id/slots", auth, slotHandler.ListAvailable)

	sessions := v1.Group("/sessions", auth)
	sessions.Post("/book", middleware.RequireRole(client), sessionHandler.BookSession)
	sessions.Get("", sessionHandler.ListSessions)
	sessions.Get("/:id", sessionHandler.GetSession)
	sessions.Post("/:id/cancel", middleware.RequireRole(client, therapist), sessionHandler.CancelSession)
	sessions.Post("/:id/attendance", middleware.RequireRole(client, therapist), sessionHandler.MarkAttendance)
	sessions.Post("/:id/complete", middleware.RequireRole(therapist), sessionHandler.CompleteSession)
	sessions.Put("/:id/feedback", middleware.RequireRole(client), sessionHandler.SubmitFeedback)

	v1.Get("/therapist/rating", auth, middleware.RequireRole(therapist), sessionHandler.GetRating)

	wallet := v1.Group("/wallet", auth)
	wallet.Get("", walletHandler.GetWallet)
	wallet.Post("", walletHandler.OpenWallet)
	wallet.Get("/transactions", walletHandler.ListTransactions)

	withdrawals := v1.Group("/withdrawals", auth)
	withdrawals.Post("", middleware.RequireRole(client, therapist), withdrawalHandler.RequestWithdrawal)
	withdrawals.Get("", withdrawalHandler.ListWithdrawals)
	withdrawals.Post("/:id/process", middleware.RequireRole(operator), withdrawalHandler.ProcessWithdrawal)

	notifications := v1.Group("/notifications", auth)
	notifications.Get("", notificationHandler.ListNotifications)
	notifications.Patch("/read-all", notificationHandler.MarkAllRead)
	notifications.Patch("/:id/read", notificationHandler.MarkRead)

	v1.Get("/prices", auth, priceHandler.GetPrices)
	v1.Put("/prices", auth, middleware.RequireRole(operator), priceHandler.SetPrices)

	admin := v1.Group("/admin", auth, middleware.RequireRole(operator))
	admin.Post("/sweep", adminHandler.RunSweep)
	admin.Get("/wallets/:ownerId/reconcile", walletHandler.Reconcile)

	conversations := v1.Group("/conversations", auth, middleware.RequireRole(client, therapist))
	conversations.Get("", chatHandler.ListConversations)
	conversations.Post("", chatHandler.CreateConversation)
	conversations.Get("/:id/messages", chatHandler.GetMessages)
}
