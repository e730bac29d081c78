package worker

import (
	"context"
	"sync"
	"time"

	"github.com/MUHAMMEDJasir72/MindEase/internal/services"
	"go.uber.org/zap"
)

type transitioner interface {
	ApplyDueTransitions(ctx context.Context) (services.SweepReport, error)
}

// SessionSweeper settles overdue sessions on a fixed interval.
type SessionSweeper struct {
	sessions transitioner
	interval time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
	stopOnce sync.Once
}

func NewSessionSweeper(sessions transitioner, interval time.Duration, logger *zap.Logger) *SessionSweeper {
	return &SessionSweeper{
		sessions: sessions,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start blocks until ctx is done or Stop is called. It sweeps once up front so
// a restart does not leave sessions waiting a full interval.
func (w *SessionSweeper) Start(ctx context.Context) {
	w.logger.Info("starting session sweeper", zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.sweep(ctx)
	for {
		select {
		case <-ticker.C:
			w.sweep(ctx)
		case <-w.stopChan:
			w.logger.Info("stopping session sweeper")
			return
		case <-ctx.Done():
			w.logger.Info("context cancelled, stopping session sweeper")
			return
		}
	}
}

func (w *SessionSweeper) sweep(ctx context.Context) {
	report, err := w.sessions.ApplyDueTransitions(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Error("session sweep failed", zap.Error(err))
		}
		return
	}
	if report.Scanned == 0 {
		return
	}
	w.logger.Info("session sweep finished",
		zap.Int("scanned", report.Scanned),
		zap.Int("completed", report.Completed),
		zap.Int("absent_client", report.AbsentClient),
		zap.Int("absent_therapist", report.AbsentTherapist),
		zap.Int("no_show_both", report.NoShowBoth),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
	)
}

// Stop ends Start. Calling it more than once is safe.
func (w *SessionSweeper) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopChan)
	})
}
