package queries

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/starford/iotodash/internal/apperr"
)

// Persister writes the complete saved query collection.
type Persister interface {
	SaveQueries(ctx context.Context, qs []SavedQuery) error
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock sets the clock used to mint query IDs.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// Store owns the saved query collection. Every mutation is persisted before
// it becomes visible; a failed write leaves the collection unchanged.
type Store struct {
	persist Persister
	now     func() time.Time

	mu     sync.Mutex
	items  []SavedQuery
	lastID int64
}

// NewStore creates a Store seeded with previously persisted queries.
func NewStore(initial []SavedQuery, p Persister, opts ...StoreOption) *Store {
	s := &Store{persist: p, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	for _, q := range initial {
		s.items = append(s.items, q.Clone())
		if n, err := strconv.ParseInt(q.ID, 10, 64); err == nil && n > s.lastID {
			s.lastID = n
		}
	}
	return s
}

// All returns a copy of every saved query.
func (s *Store) All() []SavedQuery {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SavedQuery, 0, len(s.items))
	for _, q := range s.items {
		out = append(out, q.Clone())
	}
	return out
}

// List returns a copy of the queries owned by view.
func (s *Store) List(view string) []SavedQuery {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []SavedQuery
	for _, q := range s.items {
		if q.View == view {
			out = append(out, q.Clone())
		}
	}
	return out
}

// Get returns a copy of the query with id.
func (s *Store) Get(id string) (SavedQuery, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return SavedQuery{}, false
	}
	return s.items[i].Clone(), true
}

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.items, func(q SavedQuery) bool { return q.ID == id })
}

func (s *Store) nameTaken(view, name, exceptID string) bool {
	return slices.ContainsFunc(s.items, func(q SavedQuery) bool {
		return q.View == view && q.Name == name && q.ID != exceptID
	})
}

func (s *Store) nextID() string {
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	return strconv.FormatInt(id, 10)
}

// commit persists next and installs it. Callers hold s.mu.
func (s *Store) commit(ctx context.Context, next []SavedQuery) error {
	if s.persist != nil {
		if err := s.persist.SaveQueries(ctx, next); err != nil {
			return fmt.Errorf("queries: persist: %w", err)
		}
	}
	s.items = next
	return nil
}

func (s *Store) create(ctx context.Context, q SavedQuery, unique bool) (SavedQuery, error) {
	q.Name = strings.TrimSpace(q.Name)
	if q.Name == "" {
		return SavedQuery{}, fmt.Errorf("queries: empty name: %w", apperr.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if unique && s.nameTaken(q.View, q.Name, "") {
		return SavedQuery{}, fmt.Errorf("queries: save %q: %w", q.Name, apperr.ErrDuplicateName)
	}

	id := s.nextID()
	q.ID = id
	q = q.Clone()
	next := append(slices.Clone(s.items), q)
	if err := s.commit(ctx, next); err != nil {
		return SavedQuery{}, err
	}
	s.lastID, _ = strconv.ParseInt(id, 10, 64)
	return q.Clone(), nil
}

func (s *Store) modify(ctx context.Context, view, id string, fn func(*SavedQuery) error) (SavedQuery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 || s.items[i].View != view {
		return SavedQuery{}, fmt.Errorf("queries: query %s: %w", id, apperr.ErrNotFound)
	}

	next := slices.Clone(s.items)
	q := next[i].Clone()
	if err := fn(&q); err != nil {
		return SavedQuery{}, err
	}
	next[i] = q
	if err := s.commit(ctx, next); err != nil {
		return SavedQuery{}, err
	}
	return q.Clone(), nil
}

func (s *Store) remove(ctx context.Context, view, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 || s.items[i].View != view {
		return fmt.Errorf("queries: query %s: %w", id, apperr.ErrNotFound)
	}
	return s.commit(ctx, slices.Delete(slices.Clone(s.items), i, i+1))
}
