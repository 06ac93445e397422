// Package graph computes the transitive import closure of test files.
package graph

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"runtime"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	"tir/internal/diag"
	"tir/internal/slogutil"
)

// SpecifierSource returns the raw specifiers of a root-relative file.
type SpecifierSource interface {
	Specifiers(ctx context.Context, rel string) []string
}

// Resolver maps a specifier referenced from a root-relative directory to a
// root-relative file.
type Resolver interface {
	Resolve(spec, fromDir string) (string, bool)
	IsGhost(rel string) bool
}

// Closure is the set of files one test file depends on.
type Closure struct {
	TestFile string
	// Files lists dependencies in breadth-first discovery order. The test
	// file itself is never included.
	Files []string
	Graph *Graph
	// Err is set when the traversal was aborted; Files is then empty.
	Err error
}

// Contains reports whether p is a dependency of the test file.
func (c *Closure) Contains(p string) bool {
	return c.Graph != nil && p != c.TestFile && c.Graph.HasNode(p)
}

// Chain returns the import chain from the test file to p, or nil.
func (c *Closure) Chain(p string) []string {
	if !c.Contains(p) {
		return nil
	}
	return c.Graph.PathTo(p)
}

// Builder runs closure traversals.
type Builder struct {
	source   SpecifierSource
	resolver Resolver
	workers  int
	sink     diag.Sink
	logger   *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithWorkers bounds parallel traversals. Zero or less means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(b *Builder) { b.workers = n }
}

// WithSink sets the diagnostics sink.
func WithSink(sink diag.Sink) Option {
	return func(b *Builder) { b.sink = sink }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) { b.logger = logger }
}

// NewBuilder creates a closure builder.
func NewBuilder(source SpecifierSource, resolver Resolver, opts ...Option) *Builder {
	b := &Builder{
		source:   source,
		resolver: resolver,
		sink:     diag.Discard,
		logger:   slogutil.NewDiscardLogger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.workers <= 0 {
		b.workers = runtime.GOMAXPROCS(0)
	}
	return b
}

// Closure computes the transitive dependencies of testFile by breadth-first
// traversal. The visited set is seeded with the test file, so cycles back
// to it, or between dependencies, terminate. Unresolved specifiers are
// dropped. Ghost files are included but never expanded.
func (b *Builder) Closure(ctx context.Context, testFile string) (*Closure, error) {
	g := NewGraph()
	g.AddNode(testFile)

	var files []string
	queue := []string{testFile}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		current := queue[0]
		queue = queue[1:]

		if b.resolver.IsGhost(current) {
			continue
		}

		dir := path.Dir(current)
		for _, spec := range b.source.Specifiers(ctx, current) {
			resolved, ok := b.resolver.Resolve(spec, dir)
			if !ok {
				continue
			}
			if g.AddEdge(current, resolved) {
				files = append(files, resolved)
				queue = append(queue, resolved)
			}
		}
	}

	return &Closure{TestFile: testFile, Files: files, Graph: g}, nil
}

// BuildAll computes closures for every test file on a bounded worker pool.
// The result has one slot per input, in input order. A failure inside one
// traversal is recorded on its Closure and as a diagnostic; it never affects
// the others. Only context cancellation fails the whole call.
func (b *Builder) BuildAll(ctx context.Context, testFiles []string) ([]*Closure, error) {
	start := time.Now()
	results := make([]*Closure, len(testFiles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i, tf := range testFiles {
		i, tf := i, tf
		g.Go(func() error {
			c, err := b.safeClosure(gctx, tf)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				b.sink.Report(diag.Diagnostic{Path: tf, Stage: diag.StageClosure, Message: err.Error()})
				c = &Closure{TestFile: tf, Graph: NewGraph(), Err: err}
				c.Graph.AddNode(tf)
			}
			results[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	b.logger.Debug("Closures built",
		"tests", len(testFiles),
		"workers", b.workers,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return results, nil
}

func (b *Builder) safeClosure(ctx context.Context, testFile string) (c *Closure, err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Closure traversal panicked",
				"test", testFile,
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
			c, err = nil, fmt.Errorf("internal error: %v", r)
		}
	}()
	return b.Closure(ctx, testFile)
}
