package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"tir/internal/slogutil"
)

func TestEventTypeString(t *testing.T) {
	tests := []struct {
		eventType EventType
		want      string
	}{
		{EventCreate, "create"},
		{EventModify, "modify"},
		{EventDelete, "delete"},
		{EventRename, "rename"},
		{EventType(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := tt.eventType.String()
			if got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.DebounceMs != 300 {
		t.Errorf("DebounceMs = %d, want 300", config.DebounceMs)
	}
	if len(config.IgnorePatterns) == 0 {
		t.Error("IgnorePatterns should not be empty")
	}
}

func newTestWatcher(t *testing.T, root string, handler ChangeHandler) *Watcher {
	t.Helper()
	config := DefaultConfig()
	config.DebounceMs = 50
	w, err := New(root, config, slogutil.NewDiscardLogger(), handler)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = w.Stop() })
	return w
}

func TestWatcherIsIgnored(t *testing.T) {
	w := newTestWatcher(t, t.TempDir(), nil)

	tests := []struct {
		path    string
		ignored bool
	}{
		{"debug.log", true},
		{"src/temp.tmp", true},
		{"src/.app.ts.swp", true},
		{"node_modules/package/index.js", true},
		{"packages/web/node_modules/x.js", true},
		{".git/config", true},
		{".tir/cache.db", true},
		{"src/app.ts", false},
		{"src/app.test.ts", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := w.IsIgnored(tt.path)
			if got != tt.ignored {
				t.Errorf("IsIgnored(%q) = %v, want %v", tt.path, got, tt.ignored)
			}
		})
	}
}

func TestWatcherStopWithoutStart(t *testing.T) {
	w := newTestWatcher(t, t.TempDir(), nil)
	if err := w.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
}

func TestWatcherReportsChanges(t *testing.T) {
	root, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(root, "src"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(root, "node_modules", "pkg"), 0o755); err != nil {
		t.Fatal(err)
	}

	batches := make(chan []Event, 10)
	w := newTestWatcher(t, root, func(events []Event) { batches <- events })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := os.WriteFile(filepath.Join(root, "node_modules", "pkg", "index.js"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "src", "a.ts"), []byte("export {};\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case events := <-batches:
		got := Paths(events)
		if len(got) != 1 || got[0] != "src/a.ts" {
			t.Errorf("batch paths = %v, want [src/a.ts]", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change batch")
	}

	stats := w.Stats()
	if stats["watching"] != true {
		t.Errorf("stats[watching] = %v, want true", stats["watching"])
	}
	if dirs, _ := stats["directories"].(int); dirs != 2 {
		t.Errorf("stats[directories] = %v, want 2 (root and src)", stats["directories"])
	}
}

func TestWatcherFollowsNewDirectories(t *testing.T) {
	root, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	seen := make(map[string]bool)
	got := make(chan struct{}, 1)
	w := newTestWatcher(t, root, func(events []Event) {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range events {
			seen[e.Path] = true
		}
		if seen["lib/deep/b.ts"] {
			select {
			case got <- struct{}{}:
			default:
			}
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := os.MkdirAll(filepath.Join(root, "lib", "deep"), 0o755); err != nil {
		t.Fatal(err)
	}
	// Give the watcher a moment to register the new directories.
	time.Sleep(200 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(root, "lib", "deep", "b.ts"), []byte("export {};\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-got:
	case <-time.After(5 * time.Second):
		t.Fatal("change in a new directory was not reported")
	}
}

func TestBatchDebouncer(t *testing.T) {
	var mu sync.Mutex
	var emitted [][]Event
	b := NewBatchDebouncer(time.Hour, func(events []Event) {
		mu.Lock()
		emitted = append(emitted, events)
		mu.Unlock()
	})

	b.Add(Event{Type: EventCreate, Path: "src/z.ts"})
	b.Add(Event{Type: EventModify, Path: "src/z.ts"})
	b.Add(Event{Type: EventModify, Path: "src/a.ts"})
	b.Add(Event{Type: EventDelete, Path: "src/a.ts"})

	if n := b.EventCount(); n != 2 {
		t.Fatalf("EventCount() = %d, want 2", n)
	}

	b.Flush()

	mu.Lock()
	defer mu.Unlock()
	if len(emitted) != 1 {
		t.Fatalf("expected 1 batch, got %d", len(emitted))
	}
	batch := emitted[0]
	if len(batch) != 2 || batch[0].Path != "src/a.ts" || batch[1].Path != "src/z.ts" {
		t.Fatalf("batch = %+v", batch)
	}
	if batch[0].Type != EventDelete {
		t.Errorf("src/a.ts type = %v, want delete", batch[0].Type)
	}
	if batch[1].Type != EventCreate {
		t.Errorf("src/z.ts type = %v, want create", batch[1].Type)
	}
}

func TestBatchDebouncerCancel(t *testing.T) {
	called := false
	b := NewBatchDebouncer(time.Hour, func([]Event) { called = true })

	b.Add(Event{Type: EventModify, Path: "a.ts"})
	b.Cancel()
	b.Flush()

	if called {
		t.Error("cancelled events must not be emitted")
	}
	if b.EventCount() != 0 {
		t.Errorf("EventCount() = %d, want 0", b.EventCount())
	}
}

func TestBatchDebouncerFiresAfterDelay(t *testing.T) {
	done := make(chan []Event, 1)
	b := NewBatchDebouncer(20*time.Millisecond, func(events []Event) { done <- events })

	b.Add(Event{Type: EventModify, Path: "a.ts"})

	select {
	case events := <-done:
		if len(events) != 1 || events[0].Path != "a.ts" {
			t.Errorf("events = %+v", events)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("debouncer never fired")
	}
}
