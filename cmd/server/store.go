package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rpggio/crisisdesk/internal/badgerdb"
	"github.com/rpggio/crisisdesk/internal/cache"
	"github.com/rpggio/crisisdesk/internal/config"
	"github.com/rpggio/crisisdesk/internal/domain/crisis"
	"github.com/rpggio/crisisdesk/internal/memstore"
	"github.com/rpggio/crisisdesk/internal/sqlite"
)

// store bundles the repositories of the configured backend.
type store struct {
	updates crisis.Repository
	ids     crisis.IDAllocator
	apiKeys *sqlite.APIKeyRepository // sqlite only
	closers []func() error
}

func (s *store) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}

func openStore(cfg config.Config, logger *slog.Logger) (*store, error) {
	var (
		st  *store
		err error
	)
	switch cfg.Store.Backend {
	case config.BackendSQLite:
		st, err = openSQLite(cfg.Store.DBPath)
	case config.BackendBadger:
		st, err = openBadger(cfg.Store.BadgerPath, logger)
	case config.BackendMemory:
		logger.Warn("memory backend selected, updates will not survive a restart")
		mem := memstore.New()
		st = &store{updates: mem, ids: mem}
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Cache.Size > 0 {
		st.updates = cache.New(st.updates, cfg.Cache.Size, cfg.Cache.TTL)
	}
	logger.Info("store opened", "backend", cfg.Store.Backend, "cache_size", cfg.Cache.Size)
	return st, nil
}

func openSQLite(path string) (*store, error) {
	if err := ensureDBDir(path); err != nil {
		return nil, fmt.Errorf("prepare database path: %w", err)
	}
	db, err := sqlite.New(path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.RunMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &store{
		updates: sqlite.NewCrisisRepository(db),
		ids:     sqlite.NewCounterRepository(db, sqlite.CrisisUpdateCounter),
		apiKeys: sqlite.NewAPIKeyRepository(db),
		closers: []func() error{db.Close},
	}, nil
}

func openBadger(path string, logger *slog.Logger) (*store, error) {
	cfg := badgerdb.DefaultConfig()
	cfg.Path = path
	cfg.Logger = logger
	db, err := badgerdb.OpenDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &store{
		updates: badgerdb.NewCrisisRepository(db),
		ids:     badgerdb.NewCounter(db),
		closers: []func() error{db.Close},
	}, nil
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
