package extract

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"golang.org/x/crypto/blake2b"

	"tir/internal/diag"
	"tir/internal/extract/cache"
	"tir/internal/slogutil"
)

// DefaultMaxFileSize is the largest file Source will read.
const DefaultMaxFileSize int64 = 2 << 20

// Source reads files under a root and returns their specifiers. Every
// per-file failure is reported to the diagnostics sink and yields an empty
// list; Specifiers never fails.
type Source struct {
	root      string
	extractor Extractor
	cache     cache.Cache
	maxSize   int64
	sink      diag.Sink
	logger    *slog.Logger

	hits      atomic.Int64
	misses    atomic.Int64
	extracted atomic.Int64
}

// SourceOption configures a Source.
type SourceOption func(*Source)

// WithCache sets the specifier cache. A nil cache disables caching.
func WithCache(c cache.Cache) SourceOption {
	return func(s *Source) { s.cache = c }
}

// WithMaxFileSize sets the size guard. Files larger than n bytes get no edges.
func WithMaxFileSize(n int64) SourceOption {
	return func(s *Source) {
		if n > 0 {
			s.maxSize = n
		}
	}
}

// WithSink sets the diagnostics sink.
func WithSink(sink diag.Sink) SourceOption {
	return func(s *Source) { s.sink = sink }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) SourceOption {
	return func(s *Source) { s.logger = logger }
}

// NewSource creates a Source reading from the absolute directory root.
func NewSource(root string, ex Extractor, opts ...SourceOption) *Source {
	s := &Source{
		root:      root,
		extractor: ex,
		maxSize:   DefaultMaxFileSize,
		sink:      diag.Discard,
		logger:    slogutil.NewDiscardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SourceStats counts cache effectiveness for one Source.
type SourceStats struct {
	CacheHits   int64
	CacheMisses int64
	Extracted   int64
}

// Stats returns counters accumulated so far.
func (s *Source) Stats() SourceStats {
	return SourceStats{
		CacheHits:   s.hits.Load(),
		CacheMisses: s.misses.Load(),
		Extracted:   s.extracted.Load(),
	}
}

// Specifiers returns the specifiers of the root-relative, slash-separated file rel.
func (s *Source) Specifiers(ctx context.Context, rel string) []string {
	abs := filepath.Join(s.root, filepath.FromSlash(rel))

	info, err := os.Stat(abs)
	if err != nil {
		s.report(diag.StageExtract, rel, err)
		return nil
	}
	if info.Size() > s.maxSize {
		s.report(diag.StageExtract, rel, fmt.Errorf("file size %d exceeds limit %d", info.Size(), s.maxSize))
		return nil
	}

	src, err := os.ReadFile(abs)
	if err != nil {
		s.report(diag.StageExtract, rel, err)
		return nil
	}

	var key cache.Key
	if s.cache != nil {
		sum := blake2b.Sum256(src)
		key = cache.Key{Path: rel, Hash: hex.EncodeToString(sum[:]), Extractor: s.extractor.Name()}
		specs, ok, err := s.cache.Get(key)
		if err != nil {
			s.report(diag.StageCache, rel, err)
		}
		if ok {
			s.hits.Add(1)
			return specs
		}
		s.misses.Add(1)
	}

	specs, err := s.extractor.Extract(ctx, src, LanguageFor(rel))
	if err != nil {
		s.report(diag.StageExtract, rel, err)
		return nil
	}
	s.extracted.Add(1)

	if s.cache != nil {
		if err := s.cache.Put(key, specs); err != nil {
			s.report(diag.StageCache, rel, err)
		}
	}
	return specs
}

func (s *Source) report(stage diag.Stage, rel string, err error) {
	s.logger.Debug("Soft failure", "stage", string(stage), "path", rel, "error", err.Error())
	s.sink.Report(diag.Diagnostic{Path: rel, Stage: stage, Message: err.Error()})
}
