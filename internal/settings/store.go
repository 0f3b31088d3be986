package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starford/iotodash/internal/filter"
	"github.com/starford/iotodash/internal/queries"
	"github.com/starford/iotodash/internal/results"
)

// Blob keys.
const (
	keyFolders       = "folders"
	keyPageSize      = "page_size"
	keySavedQueries  = "saved_queries"
	keyCustomFilters = "custom_filters"
)

// Folders are the vault folders the dashboard reads.
type Folders struct {
	Input   string `yaml:"input" json:"input"`
	Output  string `yaml:"output" json:"output"`
	Outcome string `yaml:"outcome" json:"outcome"`
	Task    string `yaml:"task" json:"task"`
}

// Settings is the persisted settings blob.
type Settings struct {
	Folders       Folders
	PageSize      int
	SavedQueries  []queries.SavedQuery
	CustomFilters []filter.CustomFilter
}

// Clone returns a deep copy of s.
func (s Settings) Clone() Settings {
	cp := s
	cp.SavedQueries = make([]queries.SavedQuery, 0, len(s.SavedQueries))
	for _, q := range s.SavedQueries {
		cp.SavedQueries = append(cp.SavedQueries, q.Clone())
	}
	cp.CustomFilters = slices.Clone(s.CustomFilters)
	return cp
}

// Store reads and writes the settings blob. Every write replaces the whole
// blob in one transaction and updates the in-memory copy only on success.
type Store struct {
	conn *sql.DB

	mu      sync.Mutex
	current Settings
}

// Open opens (or creates) the settings database. Keys that were never
// written take their values from defaults.
func Open(ctx context.Context, dsn string, defaults Settings) (*Store, error) {
	conn, err := openDB(dsn)
	if err != nil {
		return nil, err
	}
	s := &Store{conn: conn, current: defaults.Clone()}
	if err := s.load(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	s.current.PageSize = results.ClampPageSize(s.current.PageSize)
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) load(ctx context.Context) error {
	targets := map[string]any{
		keyFolders:       &s.current.Folders,
		keyPageSize:      &s.current.PageSize,
		keySavedQueries:  &s.current.SavedQueries,
		keyCustomFilters: &s.current.CustomFilters,
	}
	for key, target := range targets {
		var raw string
		err := s.conn.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&raw)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return fmt.Errorf("settings: load %s: %w", key, err)
		}
		if err := yaml.Unmarshal([]byte(raw), target); err != nil {
			return fmt.Errorf("settings: decode %s: %w", key, err)
		}
	}
	return nil
}

// Settings returns a copy of the current settings.
func (s *Store) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// SaveQueries persists the saved query collection.
func (s *Store) SaveQueries(ctx context.Context, qs []queries.SavedQuery) error {
	return s.update(ctx, func(next *Settings) {
		next.SavedQueries = qs
	})
}

// SaveCustomFilters persists the custom filter schema.
func (s *Store) SaveCustomFilters(ctx context.Context, fs []filter.CustomFilter) error {
	return s.update(ctx, func(next *Settings) {
		next.CustomFilters = slices.Clone(fs)
	})
}

// SavePageSize persists the page size, clamped to the allowed range.
func (s *Store) SavePageSize(ctx context.Context, n int) (int, error) {
	n = results.ClampPageSize(n)
	err := s.update(ctx, func(next *Settings) {
		next.PageSize = n
	})
	return n, err
}

// SaveFolders persists the folder layout.
func (s *Store) SaveFolders(ctx context.Context, f Folders) error {
	return s.update(ctx, func(next *Settings) {
		next.Folders = f
	})
}

func (s *Store) update(ctx context.Context, fn func(*Settings)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current.Clone()
	fn(&next)
	next = next.Clone()
	if err := s.write(ctx, next); err != nil {
		return err
	}
	s.current = next
	return nil
}

func (s *Store) write(ctx context.Context, blob Settings) error {
	values := map[string]any{
		keyFolders:       blob.Folders,
		keyPageSize:      blob.PageSize,
		keySavedQueries:  blob.SavedQueries,
		keyCustomFilters: blob.CustomFilters,
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("settings: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value      = excluded.value,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("settings: prepare: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for key, v := range values {
		raw, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("settings: encode %s: %w", key, err)
		}
		if _, err := stmt.ExecContext(ctx, key, string(raw), now); err != nil {
			return fmt.Errorf("settings: write %s: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("settings: commit: %w", err)
	}
	return nil
}
