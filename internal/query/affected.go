package query

import (
	"context"
	"os"
	"sort"
	"time"

	"tir/internal/changeset"
	"tir/internal/errors"
	"tir/internal/extract"
	"tir/internal/impact"
	"tir/internal/output"
	"tir/internal/paths"
)

// AffectedOptions contains options for GetAffectedTests.
type AffectedOptions struct {
	// Changes are raw changed paths, absolute or relative to the root.
	Changes []string
	// Chains adds the import chain from each test to its trigger.
	Chains bool
}

// GetAffectedTests finds the tests whose own file or dependency closure
// intersects the change set. An empty change set is a normal outcome with no
// affected tests.
func (e *Engine) GetAffectedTests(ctx context.Context, opts AffectedOptions) (*output.ImpactReport, error) {
	start := time.Now()
	r := e.newRun()

	cs, err := changeset.Normalize(e.root, opts.Changes)
	if err != nil {
		return nil, err
	}

	var ghosts []string
	if e.config.Resolve.DeletedAsChanged {
		ghosts = cs.Deleted
	}

	tests, err := e.finder(r).Find(ctx, e.root)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.NewTirError(errors.ProjectRootUnreadable, "cannot list project root", err)
	}

	closures, err := e.builder(r, e.resolver(ghosts)).BuildAll(ctx, tests)
	if err != nil {
		return nil, err
	}

	analyzer := impact.NewAnalyzer()
	if opts.Chains {
		analyzer = impact.NewAnalyzerWithChains()
	}
	result := analyzer.Analyze(closures, cs)

	diags := r.sink.Sorted()
	limits := impact.DetermineLimits(impact.LimitInputs{
		Extractor:        e.extractor.Name(),
		FallbackScanner:  !extract.IsTreeSitterAvailable(),
		Diagnostics:      len(diags),
		DeletedFiles:     len(cs.Deleted),
		DeletedAsChanged: e.config.Resolve.DeletedAsChanged,
	})

	stats := r.source.Stats()
	r.logger.Info("Affected tests computed",
		"tests", result.Summary.TotalTests,
		"affected", result.Summary.Affected,
		"changed", cs.Len(),
		"deleted", len(cs.Deleted),
		"diagnostics", len(diags),
		"cacheHits", stats.CacheHits,
		"cacheMisses", stats.CacheMisses,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return output.NewImpactReport(result, diags, limits.Notes), nil
}

// GetClosure computes the dependency closure of one file. The file need not
// match the test patterns, which makes this useful for inspecting any module.
func (e *Engine) GetClosure(ctx context.Context, file string, withEdges bool) (*output.ClosureReport, error) {
	rel, err := changeset.NormalizeEntry(e.root, file)
	if err != nil || rel == "" {
		return nil, errors.NewTirError(errors.TestFileNotFound, "not a file in the project: "+file, err)
	}
	info, err := os.Stat(paths.JoinRepoPath(e.root, rel))
	if err != nil {
		return nil, errors.NewTirError(errors.TestFileNotFound, "not a file in the project: "+file, err)
	}
	if !info.Mode().IsRegular() {
		return nil, errors.Errorf(errors.TestFileNotFound, "not a regular file: %s", file)
	}

	r := e.newRun()
	c, err := e.builder(r, e.resolver(nil)).Closure(ctx, rel)
	if err != nil {
		return nil, err
	}
	sort.Strings(c.Files)

	r.logger.Debug("Closure computed", "file", rel, "files", len(c.Files))
	return output.NewClosureReport(c, withEdges, r.sink.Sorted()), nil
}

// Discover lists the project's test files in sorted order.
func (e *Engine) Discover(ctx context.Context) (*output.DiscoverReport, error) {
	r := e.newRun()
	tests, err := e.finder(r).Find(ctx, e.root)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.NewTirError(errors.ProjectRootUnreadable, "cannot list project root", err)
	}
	return output.NewDiscoverReport(tests, r.sink.Sorted()), nil
}
