package runner

import (
	"context"
	"io"

	"github.com/mikey/outreach-reply-engine/internal/core"
	"github.com/mikey/outreach-reply-engine/internal/ports"
	"go.uber.org/zap"
)

// OnceRunner processes a single batch and prints its summary
type OnceRunner struct {
	processor ports.BatchProcessor
	spec      core.BatchSpec
	out       io.Writer
	logger    *zap.Logger
}

// NewOnceRunner creates a new single-batch runner
func NewOnceRunner(processor ports.BatchProcessor, spec core.BatchSpec, out io.Writer, logger *zap.Logger) *OnceRunner {
	return &OnceRunner{
		processor: processor,
		spec:      spec,
		out:       out,
		logger:    logger,
	}
}

// RunOnce implements ports.Runner
func (r *OnceRunner) RunOnce(ctx context.Context) (*core.BatchReport, error) {
	report, err := r.processor.Run(ctx, r.spec)
	if report != nil {
		PrintReport(r.out, report)
	}
	if err != nil {
		r.logger.Error("Batch failed", zap.Error(err))
		return report, err
	}
	return report, nil
}

// Start runs the batch in the foreground
func (r *OnceRunner) Start() error {
	_, err := r.RunOnce(context.Background())
	return err
}

// Stop is a no-op for the single-batch runner
func (r *OnceRunner) Stop() error {
	return nil
}
