// Package discover finds test files under a project root.
package discover

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar"

	"tir/internal/diag"
	"tir/internal/paths"
	"tir/internal/slogutil"
)

// skipDirs are never walked: VCS metadata, dependency caches, build output.
var skipDirs = map[string]bool{
	".git":             true,
	".hg":              true,
	".svn":             true,
	paths.ToolDirName:  true,
	"node_modules":     true,
	"bower_components": true,
	"jspm_packages":    true,
	".yarn":            true,
	".pnpm-store":      true,
	"vendor":           true,
	"dist":             true,
	"build":            true,
	"out":              true,
	"coverage":         true,
	".nyc_output":      true,
	".next":            true,
	".nuxt":            true,
	".svelte-kit":      true,
	".turbo":           true,
	".cache":           true,
	".parcel-cache":    true,
}

// IsSkippedDir reports whether a directory with this base name is never walked.
func IsSkippedDir(name string) bool {
	return skipDirs[name]
}

// Options configures discovery.
type Options struct {
	TestPatterns     []string
	SourceExtensions []string
	Ignore           []string
	Sink             diag.Sink
	Logger           *slog.Logger
}

// Finder matches and collects test files.
type Finder struct {
	patterns   []string
	extensions map[string]bool
	ignore     []string
	sink       diag.Sink
	logger     *slog.Logger
}

// NewFinder creates a finder. Patterns are doublestar globs over
// root-relative, slash-separated paths.
func NewFinder(opts Options) *Finder {
	exts := make(map[string]bool, len(opts.SourceExtensions))
	for _, e := range opts.SourceExtensions {
		exts[strings.ToLower(e)] = true
	}
	f := &Finder{
		patterns:   opts.TestPatterns,
		extensions: exts,
		ignore:     opts.Ignore,
		sink:       opts.Sink,
		logger:     opts.Logger,
	}
	if f.sink == nil {
		f.sink = diag.Discard
	}
	if f.logger == nil {
		f.logger = slogutil.NewDiscardLogger()
	}
	return f
}

// IsTestFile reports whether the root-relative path rel is a test file.
func (f *Finder) IsTestFile(rel string) bool {
	if !f.isSource(rel) || f.isIgnored(rel) {
		return false
	}
	for _, dir := range strings.Split(rel, "/") {
		if skipDirs[dir] {
			return false
		}
	}
	return matchAny(f.patterns, rel)
}

func (f *Finder) isSource(rel string) bool {
	lower := strings.ToLower(rel)
	if strings.HasSuffix(lower, ".d.ts") {
		return false
	}
	return f.extensions[filepath.Ext(lower)]
}

func (f *Finder) isIgnored(rel string) bool {
	return matchAny(f.ignore, rel)
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// Find walks root and returns every test file as a sorted list of
// root-relative paths. Only a failure to read root itself is an error.
func (f *Finder) Find(ctx context.Context, root string) ([]string, error) {
	var tests []string

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if p == root {
				return err
			}
			rel, _ := paths.RelativeTo(root, p)
			f.logger.Debug("Skipping unreadable entry", "path", rel, "error", err.Error())
			f.sink.Report(diag.Diagnostic{Path: rel, Stage: diag.StageDiscover, Message: err.Error()})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if p == root {
			return nil
		}

		rel, relErr := paths.RelativeTo(root, p)
		if relErr != nil {
			return nil //nolint:nilerr // not under root, nothing to collect
		}
		if d.IsDir() {
			if skipDirs[d.Name()] || f.isIgnored(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if f.IsTestFile(rel) {
			tests = append(tests, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(tests)
	f.logger.Debug("Discovered test files", "count", len(tests))
	return tests, nil
}
