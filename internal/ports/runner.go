package ports

import (
	"context"

	"github.com/mikey/outreach-reply-engine/internal/core"
)

// BatchProcessor processes one batch of inbound replies
type BatchProcessor interface {
	Run(ctx context.Context, spec core.BatchSpec) (*core.BatchReport, error)
}

// Runner defines how batches are triggered
type Runner interface {
	// RunOnce processes a single batch and returns its report
	RunOnce(ctx context.Context) (*core.BatchReport, error)

	// Start starts the runner
	Start() error

	// Stop stops the runner. An in-flight batch is cancelled and Stop
	// waits for it to return.
	Stop() error
}
