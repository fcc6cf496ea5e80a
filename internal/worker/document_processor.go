package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/garyjia/sri-declaraciones/internal/models"
	"go.uber.org/zap"
)

// DocumentPipeline claims queued uploads and runs extraction on them
type DocumentPipeline interface {
	ClaimPending(ctx context.Context, limit int) ([]*models.Document, error)
	Process(ctx context.Context, doc *models.Document) error
	RecoverInterrupted(ctx context.Context) error
}

// ProcessorStatus reports the document processor's counters
type ProcessorStatus struct {
	IsRunning      bool          `json:"is_running"`
	LastPoll       time.Time     `json:"last_poll"`
	ProcessedCount int           `json:"processed_count"`
	FailedCount    int           `json:"failed_count"`
	Uptime         time.Duration `json:"uptime"`
	IsHealthy      bool          `json:"is_healthy"`
	LastError      string        `json:"last_error,omitempty"`
}

// DocumentProcessor polls for pending documents and processes them in batches
type DocumentProcessor struct {
	pollInterval   time.Duration
	batchSize      int
	processTimeout time.Duration

	pipeline DocumentPipeline
	logger   *zap.Logger

	mu             sync.RWMutex
	ctx            context.Context
	cancel         context.CancelFunc
	done           chan struct{}
	isRunning      bool
	lastPoll       time.Time
	processedCount int
	failedCount    int
	startTime      time.Time
	lastError      error
}

// NewDocumentProcessor creates a processor with the given poll interval and batch size
func NewDocumentProcessor(pipeline DocumentPipeline, pollInterval time.Duration, batchSize int, logger *zap.Logger) *DocumentProcessor {
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 5
	}
	return &DocumentProcessor{
		pollInterval:   pollInterval,
		batchSize:      batchSize,
		processTimeout: 2 * time.Minute,
		pipeline:       pipeline,
		logger:         logger,
		lastPoll:       time.Now(),
		startTime:      time.Now(),
	}
}

// Name implements Worker
func (p *DocumentProcessor) Name() string { return "document-processor" }

// Start requeues interrupted work and begins the polling loop
func (p *DocumentProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.isRunning {
		p.mu.Unlock()
		return fmt.Errorf("processor already running")
	}
	p.ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})
	p.isRunning = true
	p.startTime = time.Now()
	p.mu.Unlock()

	if err := p.pipeline.RecoverInterrupted(p.ctx); err != nil {
		p.logger.Warn("Failed to requeue interrupted documents", zap.Error(err))
	}

	p.logger.Info("DocumentProcessor started",
		zap.Duration("poll_interval", p.pollInterval),
		zap.Int("batch_size", p.batchSize))

	go p.pollLoop()
	return nil
}

// Stop cancels the loop and waits for the current batch to finish
func (p *DocumentProcessor) Stop() {
	p.mu.Lock()
	if !p.isRunning {
		p.mu.Unlock()
		return
	}
	p.isRunning = false
	cancel, done := p.cancel, p.done
	p.mu.Unlock()

	cancel()
	<-done

	p.mu.RLock()
	defer p.mu.RUnlock()
	p.logger.Info("DocumentProcessor stopped",
		zap.Int("processed_count", p.processedCount),
		zap.Int("failed_count", p.failedCount))
}

// GetStatus returns the current counters
func (p *DocumentProcessor) GetStatus() ProcessorStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()

	status := ProcessorStatus{
		IsRunning:      p.isRunning,
		LastPoll:       p.lastPoll,
		ProcessedCount: p.processedCount,
		FailedCount:    p.failedCount,
		Uptime:         time.Since(p.startTime),
		IsHealthy:      p.isRunning && time.Since(p.lastPoll) < 5*time.Minute,
	}
	if p.lastError != nil {
		status.LastError = p.lastError.Error()
	}
	return status
}

func (p *DocumentProcessor) pollLoop() {
	defer close(p.done)

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			p.logger.Debug("Poll loop context cancelled")
			return
		case <-ticker.C:
			if err := p.processBatch(p.ctx); err != nil {
				p.logger.Error("Failed to process pending documents", zap.Error(err))
			}
		}
	}
}

// processBatch claims one batch of pending documents and processes each in turn
func (p *DocumentProcessor) processBatch(ctx context.Context) error {
	p.mu.RLock()
	batchSize := p.batchSize
	p.mu.RUnlock()

	docs, err := p.pipeline.ClaimPending(ctx, batchSize)

	p.mu.Lock()
	p.lastPoll = time.Now()
	if err != nil {
		p.lastError = err
	}
	p.mu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to claim pending documents: %w", err)
	}
	if len(docs) == 0 {
		return nil
	}
	p.logger.Debug("Processing pending documents", zap.Int("count", len(docs)))

	for _, doc := range docs {
		docCtx, cancel := context.WithTimeout(ctx, p.processTimeout)
		err := p.pipeline.Process(docCtx, doc)
		cancel()

		p.mu.Lock()
		if err != nil {
			p.failedCount++
			p.lastError = err
		} else {
			p.processedCount++
		}
		p.mu.Unlock()

		if err != nil {
			p.logger.Warn("Failed to process document",
				zap.Int64("document_id", doc.ID),
				zap.String("filename", doc.OriginalFilename),
				zap.Error(err))
		}
	}
	return nil
}

// SetPollInterval sets the polling interval; takes effect on the next Start
func (p *DocumentProcessor) SetPollInterval(interval time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pollInterval = interval
}

// SetBatchSize sets how many documents are claimed per poll
func (p *DocumentProcessor) SetBatchSize(size int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batchSize = size
}

// ProcessNow runs one batch synchronously
func (p *DocumentProcessor) ProcessNow(ctx context.Context) error {
	return p.processBatch(ctx)
}
