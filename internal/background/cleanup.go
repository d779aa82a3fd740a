package background

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const sweepTimeout = 30 * time.Second

// AttemptSweeper evicts idle login attempt records
type AttemptSweeper interface {
	CleanupOldEntries(ctx context.Context) (int64, error)
}

// CleanupManager periodically sweeps stale login attempt records. Reads
// already ignore stale records, so the sweep only bounds memory and table size.
type CleanupManager struct {
	sweeper  AttemptSweeper
	logger   *slog.Logger
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(sweeper AttemptSweeper, logger *slog.Logger, interval time.Duration) *CleanupManager {
	if interval <= 0 {
		interval = time.Hour
	}
	return &CleanupManager{
		sweeper:  sweeper,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start runs the sweep immediately and then every interval until Stop is
// called or ctx is cancelled. It blocks; run it in a goroutine.
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	cm.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runCleanup(ctx)
		case <-cm.stopCh:
			cm.logger.Info("attempt cleanup stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("attempt cleanup context cancelled")
			return
		}
	}
}

func (cm *CleanupManager) runCleanup(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	removed, err := cm.sweeper.CleanupOldEntries(cleanupCtx)
	if err != nil {
		cm.logger.Error("failed to sweep login attempts", slog.Any("error", err))
		return
	}

	if removed > 0 {
		cm.logger.Info("stale login attempts swept", slog.Int64("removed", removed))
	}
}

// Stop signals the cleanup manager to stop. Safe to call more than once.
func (cm *CleanupManager) Stop() {
	cm.stopOnce.Do(func() { close(cm.stopCh) })
}
