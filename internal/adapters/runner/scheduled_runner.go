package runner

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mikey/outreach-reply-engine/internal/core"
	"github.com/mikey/outreach-reply-engine/internal/ports"
	"go.uber.org/zap"
)

// ScheduledRunner processes a batch immediately and then on every tick.
// Batches never overlap: a tick that fires while a batch is running is
// dropped.
type ScheduledRunner struct {
	processor ports.BatchProcessor
	spec      core.BatchSpec
	interval  time.Duration
	logger    *zap.Logger

	batchMu sync.Mutex

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduledRunner creates a new scheduled runner
func NewScheduledRunner(processor ports.BatchProcessor, spec core.BatchSpec, interval time.Duration, logger *zap.Logger) (*ScheduledRunner, error) {
	if interval <= 0 {
		return nil, errors.New("batch interval must be positive")
	}
	return &ScheduledRunner{
		processor: processor,
		spec:      spec,
		interval:  interval,
		logger:    logger,
	}, nil
}

// RunOnce implements ports.Runner. It waits for any in-flight batch.
func (r *ScheduledRunner) RunOnce(ctx context.Context) (*core.BatchReport, error) {
	r.batchMu.Lock()
	defer r.batchMu.Unlock()
	return r.runLocked(ctx)
}

func (r *ScheduledRunner) runLocked(ctx context.Context) (*core.BatchReport, error) {
	started := time.Now()
	report, err := r.processor.Run(ctx, r.spec)
	if err != nil {
		r.logger.Error("Scheduled batch failed", zap.Error(err))
		return report, err
	}
	r.logger.Info("Scheduled batch finished",
		zap.Int("processed", report.Summary.TotalProcessed),
		zap.Int("skipped", report.Summary.SkippedCount),
		zap.Int("errors", report.Summary.ErrorCount),
		zap.Duration("duration", time.Since(started)))
	return report, nil
}

// Start launches the schedule in the background
func (r *ScheduledRunner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return errors.New("runner already started")
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})

	r.logger.Info("Starting scheduled runner", zap.Duration("interval", r.interval))
	go r.loop(ctx, r.done)
	return nil
}

func (r *ScheduledRunner) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *ScheduledRunner) tick(ctx context.Context) {
	if !r.batchMu.TryLock() {
		r.logger.Warn("Previous batch still running, skipping tick")
		return
	}
	defer r.batchMu.Unlock()
	_, _ = r.runLocked(ctx)
}

// Stop cancels the schedule and waits for the current batch to return
func (r *ScheduledRunner) Stop() error {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	r.logger.Info("Scheduled runner stopped")
	return nil
}
