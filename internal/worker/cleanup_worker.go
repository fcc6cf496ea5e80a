package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/garyjia/sri-declaraciones/internal/service"
	"go.uber.org/zap"
)

// Cleaner deletes documents past the retention period
type Cleaner interface {
	Cleanup(ctx context.Context, dryRun bool) (*service.CleanupStats, error)
}

// CleanupWorker runs the retention cleanup on a fixed interval
type CleanupWorker struct {
	cleaner  Cleaner
	interval time.Duration
	dryRun   bool
	logger   *zap.Logger

	mu        sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
	lastStats *service.CleanupStats
}

// NewCleanupWorker creates a cleanup worker
func NewCleanupWorker(cleaner Cleaner, interval time.Duration, dryRun bool, logger *zap.Logger) *CleanupWorker {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &CleanupWorker{
		cleaner:  cleaner,
		interval: interval,
		dryRun:   dryRun,
		logger:   logger,
	}
}

// Name implements Worker
func (w *CleanupWorker) Name() string { return "document-cleanup" }

// Start runs one cleanup right away, then one per interval
func (w *CleanupWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return fmt.Errorf("cleanup worker already running")
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	go w.loop(ctx, w.done)

	w.logger.Info("CleanupWorker started",
		zap.Duration("interval", w.interval),
		zap.Bool("dry_run", w.dryRun))
	return nil
}

// Stop cancels the loop and waits for a running cleanup to return
func (w *CleanupWorker) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel = nil
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// LastStats returns the outcome of the most recent run, nil before the first one
func (w *CleanupWorker) LastStats() *service.CleanupStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastStats
}

func (w *CleanupWorker) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single cleanup pass
func (w *CleanupWorker) RunOnce(ctx context.Context) {
	stats, err := w.cleaner.Cleanup(ctx, w.dryRun)
	if err != nil {
		w.logger.Error("Scheduled cleanup failed", zap.Error(err))
		return
	}
	w.mu.Lock()
	w.lastStats = stats
	w.mu.Unlock()
}
