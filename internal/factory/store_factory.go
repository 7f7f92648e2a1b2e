package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mikey/outreach-reply-engine/internal/adapters/store"
	"github.com/mikey/outreach-reply-engine/internal/config"
	"github.com/mikey/outreach-reply-engine/internal/core"
	"go.uber.org/zap"
)

// Store is a persistence backend that holds resources until closed
type Store interface {
	core.Store
	Close() error
}

// StoreFactory creates persistence backends based on configuration
type StoreFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewStoreFactory creates a new store factory
func NewStoreFactory(cfg *config.Config, logger *zap.Logger) *StoreFactory {
	return &StoreFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateStore creates a store based on the configuration
func (f *StoreFactory) CreateStore() (Store, error) {
	storeCfg := f.cfg.GetStore()

	var dsn string
	switch storeCfg.Type {
	case "memory":
		f.logger.Warn("Using in-memory store: ledger changes are lost on exit and only " +
			"mail sent by this process counts as prior outreach, so replies to earlier " +
			"campaigns are skipped as not_campaign_reply")
		return store.NewMemoryStore(f.logger), nil
	case "sqlite":
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(storeCfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		dsn = storeCfg.SQLitePath
	case "mysql":
		dsn = storeCfg.MySQLDSN
	case "postgres":
		dsn = storeCfg.PostgresDSN
	}

	dialect, ok := store.DialectByName(storeCfg.Type)
	if !ok {
		return nil, fmt.Errorf("unsupported store type: %s", storeCfg.Type)
	}
	s, err := store.NewSQLStore(dialect, dsn, f.logger)
	if err != nil {
		return nil, err
	}
	return s, nil
}
