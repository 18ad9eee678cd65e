package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/pressroom/snowball/internal/adapters/store"
	"github.com/pressroom/snowball/internal/config"
	"github.com/pressroom/snowball/internal/core"
)

// Store bundles the two persistence ports every backend serves from the
// same underlying database.
type Store struct {
	Entries core.EntryStore
	Events  core.EventLog
	closer  func() error
}

// Close releases the underlying database, if any
func (s *Store) Close() error {
	if s.closer != nil {
		return s.closer()
	}
	return nil
}

// StoreFactory creates entry stores based on configuration
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

// CreateStore creates an entry store based on the configuration
func (f *StoreFactory) CreateStore() (*Store, error) {
	storeCfg := f.cfg.GetStore()

	switch storeCfg.Type {
	case "memory":
		s := store.NewMemoryStore(f.logger)
		return &Store{Entries: s, Events: s}, nil
	case "sqlite":
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(storeCfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		s, err := store.NewSQLiteStore(storeCfg.SQLitePath, f.logger)
		if err != nil {
			return nil, err
		}
		return &Store{Entries: s, Events: s, closer: s.Close}, nil
	case "mysql":
		s, err := store.NewMySQLStore(storeCfg.MySQLDSN, f.logger)
		if err != nil {
			return nil, err
		}
		return &Store{Entries: s, Events: s, closer: s.Close}, nil
	default:
		return nil, fmt.Errorf("unsupported store type: %s", storeCfg.Type)
	}
}
