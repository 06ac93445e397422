package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SpecifierEntry is one cached extraction result
type SpecifierEntry struct {
	Path        string
	ContentHash string
	Extractor   string
	Payload     []byte
	UpdatedAt   time.Time
}

// CacheStats summarizes the specifier cache
type CacheStats struct {
	Entries      int   `json:"entries" yaml:"entries" toml:"entries"`
	PayloadBytes int64 `json:"payloadBytes" yaml:"payloadBytes" toml:"payloadBytes"`
	Oldest       int64 `json:"oldest,omitempty" yaml:"oldest,omitempty" toml:"oldest,omitempty"`
	Newest       int64 `json:"newest,omitempty" yaml:"newest,omitempty" toml:"newest,omitempty"`
}

// SpecifierStore reads and writes the specifier_cache table
type SpecifierStore struct {
	db *DB
}

// NewSpecifierStore creates a new store instance
func NewSpecifierStore(db *DB) *SpecifierStore {
	return &SpecifierStore{db: db}
}

// Get returns the payload for path if it was stored for the same content hash
// and extractor. A hash or extractor mismatch is a miss, not an error.
func (s *SpecifierStore) Get(path, contentHash, extractor string) ([]byte, bool, error) {
	var payload []byte
	err := s.db.QueryRow(`
		SELECT payload FROM specifier_cache
		WHERE path = ? AND content_hash = ? AND extractor = ?
	`, path, contentHash, extractor).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("specifier cache lookup failed: %w", err)
	}
	return payload, true, nil
}

// Put stores or replaces the entry for e.Path
func (s *SpecifierStore) Put(e SpecifierEntry) error {
	updated := e.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO specifier_cache (path, content_hash, extractor, payload, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			content_hash = excluded.content_hash,
			extractor    = excluded.extractor,
			payload      = excluded.payload,
			updated_at   = excluded.updated_at
	`, e.Path, e.ContentHash, e.Extractor, e.Payload, updated.Unix())
	if err != nil {
		return fmt.Errorf("specifier cache write failed: %w", err)
	}
	return nil
}

// Delete removes the entry for path
func (s *SpecifierStore) Delete(path string) error {
	if _, err := s.db.Exec(`DELETE FROM specifier_cache WHERE path = ?`, path); err != nil {
		return fmt.Errorf("specifier cache delete failed: %w", err)
	}
	return nil
}

// Clear removes every entry and returns how many were removed
func (s *SpecifierStore) Clear() (int64, error) {
	res, err := s.db.Exec(`DELETE FROM specifier_cache`)
	if err != nil {
		return 0, fmt.Errorf("specifier cache clear failed: %w", err)
	}
	return res.RowsAffected()
}

// PruneOlderThan removes entries not refreshed since cutoff
func (s *SpecifierStore) PruneOlderThan(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM specifier_cache WHERE updated_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("specifier cache prune failed: %w", err)
	}
	return res.RowsAffected()
}

// Stats returns entry count, payload size and age bounds
func (s *SpecifierStore) Stats() (CacheStats, error) {
	var stats CacheStats
	var oldest, newest sql.NullInt64
	err := s.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(LENGTH(payload)), 0), MIN(updated_at), MAX(updated_at)
		FROM specifier_cache
	`).Scan(&stats.Entries, &stats.PayloadBytes, &oldest, &newest)
	if err != nil {
		return stats, fmt.Errorf("specifier cache stats failed: %w", err)
	}
	stats.Oldest = oldest.Int64
	stats.Newest = newest.Int64
	return stats, nil
}
