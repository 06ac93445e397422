// Package diag collects per-file soft errors. A diagnostic never aborts a run;
// it is reported next to the result.
package diag

import (
	"fmt"
	"sort"
	"sync"
)

// Stage names the component that recorded a diagnostic.
type Stage string

const (
	StageExtract  Stage = "extract"
	StageDiscover Stage = "discover"
	StageClosure  Stage = "closure"
	StageCache    Stage = "cache"
)

// Diagnostic is one recovered problem with a single file or directory.
type Diagnostic struct {
	Path    string `json:"path" yaml:"path" toml:"path"`
	Stage   Stage  `json:"stage" yaml:"stage" toml:"stage"`
	Message string `json:"message" yaml:"message" toml:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Stage, d.Path, d.Message)
}

// Sink receives diagnostics. Implementations must be safe for concurrent use.
type Sink interface {
	Report(d Diagnostic)
}

// Collector is a concurrency-safe Sink that deduplicates entries.
type Collector struct {
	mu    sync.Mutex
	items []Diagnostic
	seen  map[Diagnostic]struct{}
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{seen: make(map[Diagnostic]struct{})}
}

// Report records d once.
func (c *Collector) Report(d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, dup := c.seen[d]; dup {
		return
	}
	c.seen[d] = struct{}{}
	c.items = append(c.items, d)
}

// Reportf records a diagnostic built from an error.
func (c *Collector) Reportf(stage Stage, path string, err error) {
	c.Report(Diagnostic{Path: path, Stage: stage, Message: err.Error()})
}

// Len returns the number of distinct diagnostics.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Sorted returns a copy ordered by path, stage, then message, so that output
// does not depend on worker scheduling.
func (c *Collector) Sorted() []Diagnostic {
	c.mu.Lock()
	out := make([]Diagnostic, len(c.items))
	copy(out, c.items)
	c.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		if out[i].Stage != out[j].Stage {
			return out[i].Stage < out[j].Stage
		}
		return out[i].Message < out[j].Message
	})
	return out
}

// Discard is a Sink that drops everything.
var Discard Sink = discard{}

type discard struct{}

func (discard) Report(Diagnostic) {}
