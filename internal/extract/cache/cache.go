// Package cache stores extracted specifier lists keyed by file path, content
// hash and extractor name, in memory and optionally in the sqlite database.
package cache

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/klauspost/compress/zstd"

	"tir/internal/storage"
)

// Key identifies one extraction result.
type Key struct {
	Path      string
	Hash      string
	Extractor string
}

// Cache is a specifier cache. A stale entry (different hash or extractor)
// is reported as a miss.
type Cache interface {
	Get(key Key) ([]string, bool, error)
	Put(key Key, specs []string) error
}

type memEntry struct {
	hash      string
	extractor string
	specs     []string
}

// Memory is a bounded in-process LRU cache.
type Memory struct {
	lru *lru.Cache[string, memEntry]
}

// NewMemory creates a memory cache holding up to size paths.
func NewMemory(size int) (*Memory, error) {
	c, err := lru.New[string, memEntry](size)
	if err != nil {
		return nil, err
	}
	return &Memory{lru: c}, nil
}

// Get implements Cache.
func (m *Memory) Get(key Key) ([]string, bool, error) {
	e, ok := m.lru.Get(key.Path)
	if !ok || e.hash != key.Hash || e.extractor != key.Extractor {
		return nil, false, nil
	}
	return e.specs, true, nil
}

// Put implements Cache.
func (m *Memory) Put(key Key, specs []string) error {
	m.lru.Add(key.Path, memEntry{hash: key.Hash, extractor: key.Extractor, specs: specs})
	return nil
}

// Len returns the number of cached paths.
func (m *Memory) Len() int {
	return m.lru.Len()
}

// Persistent stores zstd-compressed specifier lists in the sqlite cache table.
type Persistent struct {
	store *storage.SpecifierStore

	codecOnce sync.Once
	enc       *zstd.Encoder
	dec       *zstd.Decoder
	codecErr  error
}

// NewPersistent creates a persistent cache over an open database.
func NewPersistent(db *storage.DB) *Persistent {
	return &Persistent{store: storage.NewSpecifierStore(db)}
}

func (p *Persistent) codec() error {
	p.codecOnce.Do(func() {
		p.enc, p.codecErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
		if p.codecErr != nil {
			return
		}
		p.dec, p.codecErr = zstd.NewReader(nil)
	})
	return p.codecErr
}

// Get implements Cache.
func (p *Persistent) Get(key Key) ([]string, bool, error) {
	payload, ok, err := p.store.Get(key.Path, key.Hash, key.Extractor)
	if err != nil || !ok {
		return nil, false, err
	}
	specs, err := p.decode(payload)
	if err != nil {
		// Drop the row so the next Put replaces it instead of missing forever.
		if delErr := p.store.Delete(key.Path); delErr != nil {
			err = stderrors.Join(err, delErr)
		}
		return nil, false, fmt.Errorf("corrupt cache entry for %s: %w", key.Path, err)
	}
	return specs, true, nil
}

// Put implements Cache.
func (p *Persistent) Put(key Key, specs []string) error {
	payload, err := p.encode(specs)
	if err != nil {
		return err
	}
	return p.store.Put(storage.SpecifierEntry{
		Path:        key.Path,
		ContentHash: key.Hash,
		Extractor:   key.Extractor,
		Payload:     payload,
	})
}

// payloadVersion prefixes every stored payload.
const payloadVersion byte = 1

// Specifiers are joined with NUL, which cannot appear in a source file we extract from.
func (p *Persistent) encode(specs []string) ([]byte, error) {
	if err := p.codec(); err != nil {
		return nil, err
	}
	raw := []byte(strings.Join(specs, "\x00"))
	return p.enc.EncodeAll(raw, []byte{payloadVersion}), nil
}

func (p *Persistent) decode(payload []byte) ([]string, error) {
	if err := p.codec(); err != nil {
		return nil, err
	}
	if len(payload) == 0 || payload[0] != payloadVersion {
		return nil, fmt.Errorf("unknown payload version")
	}
	raw, err := p.dec.DecodeAll(payload[1:], nil)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	parts := bytes.Split(raw, []byte{0})
	specs := make([]string, len(parts))
	for i, part := range parts {
		specs[i] = string(part)
	}
	return specs, nil
}

// Tiered consults a fast cache before a slow one and promotes slow hits.
type Tiered struct {
	fast Cache
	slow Cache
}

// NewTiered layers fast over slow.
func NewTiered(fast, slow Cache) *Tiered {
	return &Tiered{fast: fast, slow: slow}
}

// Get implements Cache. A slow-tier error is returned alongside a miss so the
// caller can report it and carry on.
func (t *Tiered) Get(key Key) ([]string, bool, error) {
	if specs, ok, _ := t.fast.Get(key); ok {
		return specs, true, nil
	}
	specs, ok, err := t.slow.Get(key)
	if err != nil || !ok {
		return nil, false, err
	}
	_ = t.fast.Put(key, specs)
	return specs, true, nil
}

// Put implements Cache.
func (t *Tiered) Put(key Key, specs []string) error {
	_ = t.fast.Put(key, specs)
	return t.slow.Put(key, specs)
}
