// Package watcher reports debounced batches of file changes under a project root.
package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar"
	"github.com/fsnotify/fsnotify"

	"tir/internal/discover"
	"tir/internal/paths"
)

// EventType represents the type of file system event
type EventType int

const (
	EventCreate EventType = iota
	EventModify
	EventDelete
	EventRename
)

// String returns a string representation of the event type
func (e EventType) String() string {
	switch e {
	case EventCreate:
		return "create"
	case EventModify:
		return "modify"
	case EventDelete:
		return "delete"
	case EventRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Event represents a file system event. Path is root-relative with forward
// slashes.
type Event struct {
	Type      EventType
	Path      string
	Timestamp time.Time
}

// ChangeHandler is called with each debounced batch, sorted by path
type ChangeHandler func(events []Event)

// Config contains watcher configuration
type Config struct {
	DebounceMs     int      `json:"debounceMs" mapstructure:"debounceMs"`
	IgnorePatterns []string `json:"ignorePatterns" mapstructure:"ignorePatterns"`
}

// DefaultConfig returns the default watcher configuration
func DefaultConfig() Config {
	return Config{
		DebounceMs: 300,
		IgnorePatterns: []string{
			"**/*.log",
			"**/*.tmp",
			"**/*.swp",
			"**/*~",
		},
	}
}

// Watcher watches a project tree with fsnotify. Directories the discovery
// stage never enters (node_modules, .git, .tir and the like) are not watched.
type Watcher struct {
	root    string
	config  Config
	logger  *slog.Logger
	handler ChangeHandler

	fsw   *fsnotify.Watcher
	batch *BatchDebouncer

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu       sync.RWMutex
	watching bool
	dirs     int
	events   int64
}

// New creates a watcher for the absolute directory root
func New(root string, config Config, logger *slog.Logger, handler ChangeHandler) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if config.DebounceMs <= 0 {
		config.DebounceMs = DefaultConfig().DebounceMs
	}

	w := &Watcher{
		root:    root,
		config:  config,
		logger:  logger,
		handler: handler,
		fsw:     fsw,
		done:    make(chan struct{}),
	}
	w.batch = NewBatchDebouncer(time.Duration(config.DebounceMs)*time.Millisecond, w.emit)
	return w, nil
}

// Start adds every watched directory and begins processing events. Watching
// ends when ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.watching {
		w.mu.Unlock()
		return nil
	}
	w.watching = true
	w.mu.Unlock()

	if err := w.addRecursive(w.root); err != nil {
		return err
	}

	w.logger.Info("Starting file watcher",
		"root", w.root,
		"directories", w.watchedDirs(),
		"debounceMs", w.config.DebounceMs,
	)

	w.wg.Add(1)
	go w.processEvents(ctx)
	return nil
}

// Stop stops watching and drops events not yet emitted
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fsw.Close()
		w.wg.Wait()
		w.batch.Cancel()

		w.mu.Lock()
		w.watching = false
		w.mu.Unlock()
		w.logger.Info("File watcher stopped")
	})
	return err
}

// IsIgnored reports whether the root-relative path rel is excluded from
// watching
func (w *Watcher) IsIgnored(rel string) bool {
	for _, segment := range strings.Split(rel, "/") {
		if discover.IsSkippedDir(segment) {
			return true
		}
	}
	for _, pattern := range w.config.IgnorePatterns {
		if matched, _ := doublestar.Match(pattern, rel); matched {
			return true
		}
	}
	return false
}

// Stats returns watcher statistics
func (w *Watcher) Stats() map[string]interface{} {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return map[string]interface{}{
		"watching":       w.watching,
		"directories":    w.dirs,
		"events":         w.events,
		"debounceMs":     w.config.DebounceMs,
		"ignorePatterns": len(w.config.IgnorePatterns),
	}
}

func (w *Watcher) watchedDirs() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.dirs
}

// addRecursive adds a directory and all subdirectories to the watch list
func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == dir {
				return err
			}
			w.logger.Debug("Skipping unreadable directory", "path", p, "error", err.Error())
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != w.root {
			if rel, ok := w.relative(p); !ok || w.IsIgnored(rel) {
				return filepath.SkipDir
			}
		}
		if err := w.fsw.Add(p); err != nil {
			w.logger.Warn("Cannot watch directory", "path", p, "error", err.Error())
			return nil
		}
		w.mu.Lock()
		w.dirs++
		w.mu.Unlock()
		return nil
	})
}

func (w *Watcher) relative(abs string) (string, bool) {
	rel, err := paths.RelativeTo(w.root, abs)
	if err != nil || !paths.IsConfined(rel) {
		return "", false
	}
	return rel, true
}

// processEvents converts fsnotify events to Events and feeds the debouncer
func (w *Watcher) processEvents(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("File watcher error", "error", err.Error())
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	rel, ok := w.relative(event.Name)
	if !ok || w.IsIgnored(rel) {
		return
	}

	// New directories are watched as they appear; their files arrive as
	// separate events.
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(event.Name); err != nil {
				w.logger.Debug("Cannot watch new directory", "path", rel, "error", err.Error())
			}
			return
		}
	}
	if event.Op == fsnotify.Chmod {
		return
	}

	w.mu.Lock()
	w.events++
	w.mu.Unlock()

	w.batch.Add(Event{Type: convertOp(event.Op), Path: rel, Timestamp: time.Now()})
}

// convertOp converts fsnotify.Op to EventType
func convertOp(op fsnotify.Op) EventType {
	switch {
	case op.Has(fsnotify.Create):
		return EventCreate
	case op.Has(fsnotify.Remove):
		return EventDelete
	case op.Has(fsnotify.Rename):
		return EventRename
	default:
		return EventModify
	}
}

func (w *Watcher) emit(events []Event) {
	w.logger.Debug("File changes detected", "events", len(events))
	if w.handler != nil {
		w.handler(events)
	}
}

// Paths returns the paths of a batch in order
func Paths(events []Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Path
	}
	return out
}
