package query

import (
	"path"
	"time"

	"tir/internal/errors"
	"tir/internal/output"
	"tir/internal/paths"
	"tir/internal/storage"
)

// specifierStore returns the persistent cache table, opening the database
// when the engine has not already done so.
func (e *Engine) specifierStore() (*storage.SpecifierStore, error) {
	if e.db == nil {
		db, err := storage.Open(e.root, e.logger)
		if err != nil {
			return nil, errors.NewTirError(errors.CacheUnavailable, "cannot open specifier cache", err)
		}
		e.db = db
	}
	return storage.NewSpecifierStore(e.db), nil
}

// CacheStats summarizes the persistent specifier cache
func (e *Engine) CacheStats() (*output.CacheReport, error) {
	store, err := e.specifierStore()
	if err != nil {
		return nil, err
	}
	stats, err := store.Stats()
	if err != nil {
		return nil, errors.NewTirError(errors.CacheUnavailable, "cannot read specifier cache", err)
	}
	return &output.CacheReport{
		Path:  path.Join(paths.ToolDirName, paths.CacheDBFileName),
		Stats: stats,
	}, nil
}

// ClearCache removes every cached entry and returns how many were removed
func (e *Engine) ClearCache() (int64, error) {
	store, err := e.specifierStore()
	if err != nil {
		return 0, err
	}
	n, err := store.Clear()
	if err != nil {
		return 0, errors.NewTirError(errors.CacheUnavailable, "cannot clear specifier cache", err)
	}
	e.logger.Info("Specifier cache cleared", "entries", n)
	return n, nil
}

// PruneCache removes entries not refreshed within maxAge
func (e *Engine) PruneCache(maxAge time.Duration) (int64, error) {
	store, err := e.specifierStore()
	if err != nil {
		return 0, err
	}
	n, err := store.PruneOlderThan(time.Now().Add(-maxAge))
	if err != nil {
		return 0, errors.NewTirError(errors.CacheUnavailable, "cannot prune specifier cache", err)
	}
	e.logger.Info("Specifier cache pruned", "entries", n, "maxAge", maxAge.String())
	return n, nil
}
