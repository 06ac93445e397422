// Package query provides the central query engine that coordinates all tir operations.
// It connects discovery, extraction, resolution, closure building and the
// specifier cache, and shapes results for the output package.
package query

import (
	"log/slog"
	"path"

	"github.com/google/uuid"

	"tir/internal/config"
	"tir/internal/diag"
	"tir/internal/discover"
	"tir/internal/errors"
	"tir/internal/extract"
	"tir/internal/extract/cache"
	"tir/internal/graph"
	"tir/internal/paths"
	"tir/internal/resolve"
	"tir/internal/storage"
)

// Engine is the central query coordinator for tir. It may serve many queries;
// the in-memory cache layer is shared between them.
type Engine struct {
	root      string
	config    *config.Config
	logger    *slog.Logger
	extractor extract.Extractor

	db       *storage.DB
	cache    cache.Cache
	cacheErr error
}

// NewEngine creates a query engine for the project at root. A nil cfg loads
// <root>/.tir/config.toml.
func NewEngine(root string, cfg *config.Config, logger *slog.Logger) (*Engine, error) {
	resolved, err := paths.ResolveRoot(root)
	if err != nil {
		return nil, errors.NewTirError(errors.ProjectRootUnreadable, "cannot read project root "+root, err)
	}

	if cfg == nil {
		cfg, err = config.LoadConfig(resolved)
		if err != nil {
			return nil, errors.NewTirError(errors.ConfigInvalid, "failed to load configuration", err)
		}
	} else if err := cfg.Validate(); err != nil {
		return nil, errors.NewTirError(errors.ConfigInvalid, "invalid configuration", err)
	}

	engine := &Engine{
		root:      resolved,
		config:    cfg,
		logger:    logger,
		extractor: extract.Default(),
	}
	engine.openCache()

	logger.Debug("Query engine initialized",
		"root", resolved,
		"extractor", engine.extractor.Name(),
		"cache", engine.cache != nil,
	)
	return engine, nil
}

// openCache builds the cache layers the configuration asks for. A layer that
// fails to open is skipped and remembered so every run can report it.
func (e *Engine) openCache() {
	if !e.config.Cache.Enabled {
		return
	}

	var fast, slow cache.Cache
	if n := e.config.Cache.MemoryEntries; n > 0 {
		mem, err := cache.NewMemory(n)
		if err != nil {
			e.cacheErr = err
		} else {
			fast = mem
		}
	}
	if e.config.Cache.Persist {
		db, err := storage.Open(e.root, e.logger)
		if err != nil {
			e.logger.Warn("Persistent specifier cache unavailable", "error", err.Error())
			e.cacheErr = err
		} else {
			e.db = db
			slow = cache.NewPersistent(db)
		}
	}

	switch {
	case fast != nil && slow != nil:
		e.cache = cache.NewTiered(fast, slow)
	case fast != nil:
		e.cache = fast
	case slow != nil:
		e.cache = slow
	}
}

// Root returns the absolute, symlink-free project root
func (e *Engine) Root() string {
	return e.root
}

// Config returns the active configuration
func (e *Engine) Config() *config.Config {
	return e.config
}

// Extractor returns the import extractor used by every query
func (e *Engine) Extractor() extract.Extractor {
	return e.extractor
}

// Close releases the cache database
func (e *Engine) Close() error {
	if e.db != nil {
		err := e.db.Close()
		e.db = nil
		return err
	}
	return nil
}

// run is the state of one query. Nothing in it outlives the query, so file
// changes between queries are always observed.
type run struct {
	id     string
	logger *slog.Logger
	sink   *diag.Collector
	source *extract.Source
}

func (e *Engine) newRun() *run {
	id := uuid.New().String()
	r := &run{
		id:     id,
		logger: e.logger.With("runId", id),
		sink:   diag.NewCollector(),
	}
	if e.cacheErr != nil {
		r.sink.Reportf(diag.StageCache, path.Join(paths.ToolDirName, paths.CacheDBFileName), e.cacheErr)
	}
	r.source = extract.NewSource(e.root, e.extractor,
		extract.WithCache(e.cache),
		extract.WithMaxFileSize(e.config.Analysis.MaxFileSizeBytes),
		extract.WithSink(r.sink),
		extract.WithLogger(r.logger),
	)
	return r
}

func (e *Engine) finder(r *run) *discover.Finder {
	return discover.NewFinder(discover.Options{
		TestPatterns:     e.config.Discovery.TestPatterns,
		SourceExtensions: e.config.Discovery.SourceExtensions,
		Ignore:           e.config.Discovery.Ignore,
		Sink:             r.sink,
		Logger:           r.logger,
	})
}

func (e *Engine) resolver(ghosts []string) *resolve.Resolver {
	return resolve.New(e.root, resolve.Options{
		Extensions: e.config.Resolve.Extensions,
		IndexName:  e.config.Resolve.IndexName,
		Ghosts:     ghosts,
	})
}

func (e *Engine) builder(r *run, res graph.Resolver) *graph.Builder {
	return graph.NewBuilder(r.source, res,
		graph.WithWorkers(e.config.Analysis.Workers),
		graph.WithSink(r.sink),
		graph.WithLogger(r.logger),
	)
}
