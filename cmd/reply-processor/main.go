package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikey/outreach-reply-engine/internal/config"
	"github.com/mikey/outreach-reply-engine/internal/di"
	"github.com/mikey/outreach-reply-engine/internal/factory"
	"github.com/mikey/outreach-reply-engine/internal/ports"
	"go.uber.org/zap"
)

func main() {
	configFile := flag.String("config", "", "Path to config file")
	flag.Parse()

	// Build the dependency injection container
	container, err := di.BuildContainer(*configFile)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	cfg *config.Config,
	logger *zap.Logger,
	runner ports.Runner,
	store factory.Store,
	generator factory.Generator,
) error {
	defer logger.Sync()
	defer closeResources(logger, store, generator)

	if cfg.GetString("runner.mode") == "once" {
		// An interrupt stops the batch between messages
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		_, err := runner.RunOnce(ctx)
		return err
	}

	// Start the runner
	if err := runner.Start(); err != nil {
		logger.Error("Failed to start runner", zap.Error(err))
		return err
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Shutting down...")

	// Stop cancels the running batch, which ends after the current message
	if err := runner.Stop(); err != nil {
		logger.Error("Failed to stop runner", zap.Error(err))
	}

	logger.Info("Shutdown complete")
	return nil
}

// closeResources releases the store and any client that holds a connection
func closeResources(logger *zap.Logger, store factory.Store, generator factory.Generator) {
	if closer, ok := generator.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close LLM client", zap.Error(err))
		}
	}
	if err := store.Close(); err != nil {
		logger.Error("Failed to close store", zap.Error(err))
	}
}
