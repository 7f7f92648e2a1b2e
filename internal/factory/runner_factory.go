package factory

import (
	"fmt"
	"os"

	"github.com/mikey/outreach-reply-engine/internal/adapters/runner"
	"github.com/mikey/outreach-reply-engine/internal/config"
	"github.com/mikey/outreach-reply-engine/internal/core"
	"github.com/mikey/outreach-reply-engine/internal/ports"
	"go.uber.org/zap"
)

// RunnerFactory creates runners based on configuration
type RunnerFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewRunnerFactory creates a new runner factory
func NewRunnerFactory(cfg *config.Config, logger *zap.Logger) *RunnerFactory {
	return &RunnerFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateRunner creates the runner selected by runner.mode
func (f *RunnerFactory) CreateRunner(processor ports.BatchProcessor) (ports.Runner, error) {
	batchCfg, err := f.cfg.GetBatch()
	if err != nil {
		return nil, err
	}
	spec := core.BatchSpec{
		Query:       batchCfg.Query,
		MaxMessages: batchCfg.MaxMessages,
	}

	mode := f.cfg.GetString("runner.mode")
	switch mode {
	case "once":
		return runner.NewOnceRunner(processor, spec, os.Stdout, f.logger), nil
	case "scheduled":
		r, err := runner.NewScheduledRunner(processor, spec, batchCfg.Interval, f.logger)
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unsupported runner mode: %s", mode)
	}
}
