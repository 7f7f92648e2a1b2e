package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mikey/outreach-reply-engine/internal/adapters/mailbox"
	"github.com/mikey/outreach-reply-engine/internal/config"
	"github.com/mikey/outreach-reply-engine/internal/core"
	"github.com/mikey/outreach-reply-engine/internal/di"
	"github.com/mikey/outreach-reply-engine/internal/factory"
	"go.uber.org/zap"
)

func main() {
	flags := di.ParseFlags()

	// Build the dependency injection container
	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

func run(
	flags *di.CLIFlags,
	cfg *config.Config,
	logger *zap.Logger,
	classifier core.Classifier,
	generator factory.Generator,
) error {
	defer logger.Sync()
	defer func() {
		// Close any resources that need closing
		if closer, ok := generator.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				logger.Error("Failed to close LLM client", zap.Error(err))
			}
		}
	}()

	// Read email from file or stdin
	var emailReader io.Reader
	if flags.InputFile != "" {
		file, err := os.Open(flags.InputFile)
		if err != nil {
			return fmt.Errorf("failed to open input file: %w", err)
		}
		defer file.Close()
		emailReader = file
		logger.Info("Reading email from file", zap.String("file", flags.InputFile))
	} else {
		emailReader = os.Stdin
		logger.Info("Reading email from stdin")
	}

	parsed, err := mailbox.ParseMessage(emailReader)
	if err != nil {
		return err
	}

	msg := &core.InboundMessage{
		ID:         parsed.MessageID,
		ThreadID:   parsed.ThreadID(),
		Sender:     parsed.From,
		Subject:    parsed.Subject,
		Body:       parsed.Text,
		ReceivedAt: parsed.Date,
	}
	identity := core.ParseSender(msg.Sender)

	// Print email summary
	fmt.Printf("\n=== Email Summary ===\n")
	fmt.Printf("From: %s\n", msg.Sender)
	fmt.Printf("Sender name: %s\n", identity.Name)
	fmt.Printf("Sender address: %s\n", identity.Address)
	fmt.Printf("Subject: %s\n", msg.Subject)
	fmt.Printf("Body length: %d bytes\n", len(msg.Body))
	if flags.Verbose {
		preview := msg.Body
		if len(preview) > 500 {
			preview = preview[:500] + "..."
		}
		fmt.Printf("\nBody preview:\n%s\n", preview)
	}
	fmt.Printf("\n")

	// Classify
	fmt.Printf("=== Classification ===\n")
	fmt.Printf("Provider: %s\n", cfg.GetLLM().Provider)

	startTime := time.Now()
	result := classifier.Classify(context.Background(), msg)
	duration := time.Since(startTime)

	// Print results
	fmt.Printf("\n=== Results ===\n")
	fmt.Printf("Intent: %s\n", result.Intent)
	fmt.Printf("Confidence: %.2f\n", result.Confidence)
	fmt.Printf("Reasoning: %s\n", result.Rationale)
	fmt.Printf("Key phrases: %s\n", strings.Join(result.KeyPhrases, ", "))
	fmt.Printf("Suggested action: %s\n", result.SuggestedAction)
	fmt.Printf("Method: %s\n", result.Method)
	if result.ModelUsed != "" {
		fmt.Printf("Model used: %s\n", result.ModelUsed)
	}
	fmt.Printf("Processing time: %v\n", duration)

	return nil
}
