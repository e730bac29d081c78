package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MUHAMMEDJasir72/MindEase/internal/config"
	"github.com/MUHAMMEDJasir72/MindEase/internal/database"
	applogger "github.com/MUHAMMEDJasir72/MindEase/internal/logger"
	"github.com/MUHAMMEDJasir72/MindEase/internal/notify"
	"github.com/MUHAMMEDJasir72/MindEase/internal/routes"
	"github.com/MUHAMMEDJasir72/MindEase/internal/services"
	chatws "github.com/MUHAMMEDJasir72/MindEase/internal/websocket"
	"github.com/MUHAMMEDJasir72/MindEase/internal/worker"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := applogger.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to Database
	if cfg.DBUrl == "" {
		zl.Fatal("DB_URL is required")
	}
	pool, err := database.Connect(ctx, cfg.DBUrl, zl)
	if err != nil {
		zl.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	// 3. Live delivery: the local hub always, Redis when configured so every
	// instance sees every notification
	hub := chatws.NewHub(zl.Named("hub"))
	go hub.Run(ctx)

	var publisher notify.Publisher = hub
	if cfg.RedisEnabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()

		broker := notify.NewRedisBroker(rdb, zl.Named("broker"))
		if err := broker.Subscribe(ctx, hub); err != nil {
			zl.Fatal("failed to subscribe to notifications", zap.Error(err))
		}
		publisher = broker
	}

	// 4. Services
	policy := cfg.Policy()
	store := services.NewPgStore(pool)
	ledger := services.NewLedgerService(store, zl.Named("ledger"))
	notes := services.NewNotificationService(store, publisher, zl.Named("notify"))
	sessions := services.NewSessionService(store, ledger, notes, policy, zl.Named("sessions"))

	if cfg.SweepInterval > 0 {
		sweeper := worker.NewSessionSweeper(sessions, cfg.SweepInterval, zl.Named("sweeper"))
		go sweeper.Start(ctx)
	}

	// 5. Setup Fiber
	app := fiber.New()

	// Middleware
	app.Use(cors.New())
	app.Use(logger.New())
	app.Use(recover.New())

	// Routes
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})
	routes.RegisterRoutes(app, cfg, routes.Services{
		Slots:         services.NewSlotService(store, zl.Named("slots")),
		Sessions:      sessions,
		Ledger:        ledger,
		Withdrawals:   services.NewWithdrawalService(store, ledger, notes, policy, zl.Named("withdrawals")),
		Notifications: notes,
		Prices:        services.NewPriceService(store),
		Chat:          services.NewChatService(store),
		Hub:           hub,
	}, zl)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			zl.Error("server shutdown", zap.Error(err))
		}
	}()

	// 6. Start Server
	zl.Info("server starting", zap.String("port", cfg.Port), zap.String("env", cfg.AppEnv))
	if err := app.Listen(":" + cfg.Port); err != nil {
		zl.Fatal("server failed to start", zap.Error(err))
	}
	zl.Info("server stopped")
}
