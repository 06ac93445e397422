package watcher

import (
	"sort"
	"sync"
	"time"
)

// BatchDebouncer collects events per path and emits them as one batch, sorted
// by path, once no new event has arrived for the configured delay. Batches are
// emitted one at a time; a batch that arrives while the previous emit is still
// running waits for it.
type BatchDebouncer struct {
	delay   time.Duration
	timer   *time.Timer
	mu      sync.Mutex
	pending map[string]Event
	emitMu  sync.Mutex
	emit    func([]Event)
}

// NewBatchDebouncer creates a new batch debouncer
func NewBatchDebouncer(delay time.Duration, emit func([]Event)) *BatchDebouncer {
	return &BatchDebouncer{
		delay:   delay,
		pending: make(map[string]Event),
		emit:    emit,
	}
}

// Add adds an event to the batch. A later event for the same path replaces
// the earlier one, except that a modify after a create stays a create.
func (b *BatchDebouncer) Add(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if prev, ok := b.pending[event.Path]; ok && prev.Type == EventCreate && event.Type == EventModify {
		event.Type = EventCreate
	}
	b.pending[event.Path] = event

	// Reset timer
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.delay, b.flush)
}

// flush emits collected events
func (b *BatchDebouncer) flush() {
	b.mu.Lock()
	events := make([]Event, 0, len(b.pending))
	for _, e := range b.pending {
		events = append(events, e)
	}
	b.pending = make(map[string]Event)
	b.timer = nil
	b.mu.Unlock()

	if len(events) == 0 || b.emit == nil {
		return
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Path < events[j].Path })

	b.emitMu.Lock()
	defer b.emitMu.Unlock()
	b.emit(events)
}

// Cancel drops any pending events
func (b *BatchDebouncer) Cancel() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.pending = make(map[string]Event)
}

// Flush immediately emits any pending events
func (b *BatchDebouncer) Flush() {
	b.mu.Lock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.mu.Unlock()

	b.flush()
}

// EventCount returns the number of distinct pending paths
func (b *BatchDebouncer) EventCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}
