package factory

import (
	"context"
	"fmt"

	"github.com/mikey/outreach-reply-engine/internal/adapters/bedrock"
	"github.com/mikey/outreach-reply-engine/internal/adapters/gemini"
	"github.com/mikey/outreach-reply-engine/internal/adapters/openai"
	"github.com/mikey/outreach-reply-engine/internal/config"
	"github.com/mikey/outreach-reply-engine/internal/core"
	"github.com/mikey/outreach-reply-engine/internal/utils"
	"go.uber.org/zap"
)

// ProviderNone disables generation; replies are classified by patterns and
// follow-ups use the built-in templates
const ProviderNone = "none"

// Generator is a text generator that knows which model it talks to
type Generator interface {
	core.TextGenerator
	ModelName() string
}

// LLMFactory creates text generators and the components built on them
type LLMFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewLLMFactory creates a new LLM factory
func NewLLMFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *LLMFactory {
	return &LLMFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateGenerator creates a text generator based on the configuration. It
// returns nil without an error when generation is disabled.
func (f *LLMFactory) CreateGenerator(ctx context.Context) (Generator, error) {
	llmConfig := f.cfg.GetLLM()

	var (
		generator Generator
		err       error
	)
	switch llmConfig.Provider {
	case ProviderNone, "":
		f.logger.Info("Text generation disabled, using pattern classification only")
		return nil, nil
	case "bedrock":
		generator, err = bedrock.NewFactory(f.cfg, f.logger).CreateClient(ctx)
	case "gemini":
		generator, err = gemini.NewFactory(f.cfg, f.logger).CreateClient(ctx)
	case "openai":
		generator, err = openai.NewFactory(f.cfg, f.logger).CreateClient()
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", llmConfig.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", llmConfig.Provider, err)
	}

	f.logger.Info("Initialized text generator",
		zap.String("provider", llmConfig.Provider),
		zap.String("model", generator.ModelName()))
	return generator, nil
}

// MaxBodySize returns the prompt body limit of the configured provider
func (f *LLMFactory) MaxBodySize() int {
	switch f.cfg.GetLLM().Provider {
	case "bedrock":
		return f.cfg.GetBedrock().MaxBodySize
	case "openai":
		return f.cfg.GetOpenAI().MaxBodySize
	default:
		return f.cfg.GetGemini().MaxBodySize
	}
}

// CreateClassifier creates the reply classifier. A nil generator yields a
// pattern-only classifier.
func (f *LLMFactory) CreateClassifier(generator Generator) *core.ReplyClassifier {
	if generator == nil {
		return core.NewReplyClassifier(nil, f.logger)
	}
	strategy := core.NewAIStrategy(generator, f.textProcessor, f.MaxBodySize(), generator.ModelName())
	return core.NewReplyClassifier(strategy, f.logger)
}

// CreateComposer creates the follow-up composer. A nil generator makes every
// composition fail so that callers fall back to their templates.
func (f *LLMFactory) CreateComposer(generator Generator, profile core.Profile) *core.Composer {
	var tg core.TextGenerator
	if generator != nil {
		tg = generator
	}
	return core.NewComposer(tg, f.textProcessor, profile, f.MaxBodySize())
}
