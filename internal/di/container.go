package di

import (
	"context"
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/outreach-reply-engine/internal/config"
	"github.com/mikey/outreach-reply-engine/internal/core"
	"github.com/mikey/outreach-reply-engine/internal/factory"
	"github.com/mikey/outreach-reply-engine/internal/ignorelist"
	"github.com/mikey/outreach-reply-engine/internal/logging"
	"github.com/mikey/outreach-reply-engine/internal/ports"
	"github.com/mikey/outreach-reply-engine/internal/utils"
)

// BuildContainer creates and configures a dependency injection container.
// An empty configFile searches the default config locations.
func BuildContainer(configFile string) (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(func() (*config.Config, error) {
		return config.NewFromFile(configFile)
	}); err != nil {
		return nil, err
	}

	if err := provideEngine(container); err != nil {
		return nil, err
	}
	return container, nil
}

// provideEngine registers everything below the configuration
func provideEngine(container *dig.Container) error {
	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return err
	}

	// Register text processor
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return err
	}

	// Register factories
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewStoreFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewMailboxFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewRunnerFactory); err != nil {
		return err
	}

	// Register text generator, nil when generation is disabled
	if err := container.Provide(func(f *factory.LLMFactory) (factory.Generator, error) {
		return f.CreateGenerator(context.Background())
	}); err != nil {
		return err
	}

	// Register classifier
	if err := container.Provide(func(f *factory.LLMFactory, g factory.Generator) core.Classifier {
		return f.CreateClassifier(g)
	}); err != nil {
		return err
	}

	// Register store
	if err := container.Provide(func(f *factory.StoreFactory) (factory.Store, error) {
		return f.CreateStore()
	}); err != nil {
		return err
	}

	// Register outreach profile
	if err := container.Provide(func(cfg *config.Config) core.Profile {
		outreach := cfg.GetOutreach()
		return core.Profile{
			Organization:   outreach.Organization,
			Signatory:      outreach.Signatory,
			OperatorEmail:  outreach.OperatorEmail,
			ColleagueEmail: outreach.ColleagueEmail,
		}
	}); err != nil {
		return err
	}

	// Register daily send quota, seeded with today's sends
	if err := container.Provide(func(cfg *config.Config, s factory.Store, logger *zap.Logger) (*core.SendQuota, error) {
		quota := core.NewSendQuota(cfg.GetOutreach().DailyEmailLimit, time.Now)
		if err := core.SeedQuota(context.Background(), quota, s); err != nil {
			return nil, err
		}
		logger.Info("Daily send quota ready", zap.Int("remaining", quota.Remaining()))
		return quota, nil
	}); err != nil {
		return err
	}

	// Register rate limited mailer
	if err := container.Provide(func(f *factory.MailboxFactory, quota *core.SendQuota, s factory.Store, logger *zap.Logger) (core.Mailer, error) {
		mailer, err := f.CreateMailer()
		if err != nil {
			return nil, err
		}
		return core.NewGatedMailer(mailer, quota, s, logger), nil
	}); err != nil {
		return err
	}

	// Register message source
	if err := container.Provide(func(f *factory.MailboxFactory) (core.MessageSource, error) {
		return f.CreateSource()
	}); err != nil {
		return err
	}

	// Register dispatcher
	if err := container.Provide(func(
		cfg *config.Config,
		f *factory.LLMFactory,
		g factory.Generator,
		mailer core.Mailer,
		s factory.Store,
		profile core.Profile,
		logger *zap.Logger,
	) (*core.Dispatcher, error) {
		return core.NewDispatcher(core.DispatcherDeps{
			Mailer:       mailer,
			Suppressions: s,
			Ledger:       s,
			Activity:     s,
			Composer:     f.CreateComposer(g, profile),
		}, profile, cfg.GetOutreach().SlotDays, time.Now, logger)
	}); err != nil {
		return err
	}

	// Register internal sender ignore list
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *ignorelist.Checker {
		outreach := cfg.GetOutreach()
		entries := append([]string{outreach.OperatorEmail, outreach.ColleagueEmail}, outreach.InternalDomains...)
		return ignorelist.NewChecker(entries, logger)
	}); err != nil {
		return err
	}

	// Register orchestrator
	if err := container.Provide(func(
		source core.MessageSource,
		classifier core.Classifier,
		dispatcher *core.Dispatcher,
		s factory.Store,
		ignore *ignorelist.Checker,
		logger *zap.Logger,
	) *core.Orchestrator {
		return core.NewOrchestrator(source, classifier, dispatcher, s, ignore, logger)
	}); err != nil {
		return err
	}

	// Register runner
	if err := container.Provide(func(f *factory.RunnerFactory, o *core.Orchestrator) (ports.Runner, error) {
		return f.CreateRunner(o)
	}); err != nil {
		return err
	}

	return nil
}
