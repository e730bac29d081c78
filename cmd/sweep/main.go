// Command sweep settles overdue sessions once and exits. It is meant for cron
// style schedulers when the server runs with SWEEP_INTERVAL=0. Failures are
// logged and the exit status is always 0; the next run retries.
package main

import (
	"context"
	"log"
	"time"

	"github.com/MUHAMMEDJasir72/MindEase/internal/config"
	"github.com/MUHAMMEDJasir72/MindEase/internal/database"
	applogger "github.com/MUHAMMEDJasir72/MindEase/internal/logger"
	"github.com/MUHAMMEDJasir72/MindEase/internal/notify"
	"github.com/MUHAMMEDJasir72/MindEase/internal/services"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		return
	}
	zl, err := applogger.New(cfg.AppEnv)
	if err != nil {
		log.Printf("Failed to build logger: %v", err)
		return
	}
	defer func() { _ = zl.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DBUrl, zl)
	if err != nil {
		zl.Error("failed to connect to database", zap.Error(err))
		return
	}
	defer pool.Close()

	var publisher notify.Publisher
	if cfg.RedisEnabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		publisher = notify.NewRedisBroker(rdb, zl.Named("broker"))
	}

	store := services.NewPgStore(pool)
	ledger := services.NewLedgerService(store, zl.Named("ledger"))
	notes := services.NewNotificationService(store, publisher, zl.Named("notify"))
	sessions := services.NewSessionService(store, ledger, notes, cfg.Policy(), zl.Named("sessions"))

	report, err := sessions.ApplyDueTransitions(ctx)
	if err != nil {
		// the next run picks up whatever was left
		zl.Error("sweep aborted", zap.Error(err), zap.Int("scanned", report.Scanned))
	} else {
		zl.Info("sweep finished",
			zap.Int("scanned", report.Scanned),
			zap.Int("completed", report.Completed),
			zap.Int("absent_client", report.AbsentClient),
			zap.Int("absent_therapist", report.AbsentTherapist),
			zap.Int("no_show_both", report.NoShowBoth),
			zap.Int("skipped", report.Skipped),
			zap.Int("failed", report.Failed),
		)
	}

	// let queued pushes drain before exiting
	time.Sleep(500 * time.Millisecond)
}
