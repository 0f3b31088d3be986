package queries

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/starford/iotodash/internal/apperr"
)

// ViewOptions are the per-view query policies.
type ViewOptions struct {
	// UniqueNames rejects saving or renaming to a name already in use
	// by another query of the same view.
	UniqueNames bool
	// RestampOnUpdate overwrites the stored category and tab on Update.
	RestampOnUpdate bool
}

// View tracks the active query of one view. With no active query the view
// is in the NoActiveQuery state.
type View struct {
	store *Store
	name  string
	opts  ViewOptions

	mu     sync.Mutex
	active string
}

// View returns a query tracker for the named view.
func (s *Store) View(name string, opts ViewOptions) *View {
	return &View{store: s, name: name, opts: opts}
}

// Name returns the view name queries are stamped with.
func (v *View) Name() string {
	return v.name
}

// List returns the queries owned by the view.
func (v *View) List() []SavedQuery {
	return v.store.List(v.name)
}

// Active returns the active query ID.
func (v *View) Active() (string, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.active, v.active != ""
}

// Clear returns the view to NoActiveQuery.
func (v *View) Clear() {
	v.mu.Lock()
	v.active = ""
	v.mu.Unlock()
}

func (v *View) setActive(id string) {
	v.mu.Lock()
	v.active = id
	v.mu.Unlock()
}

// Save persists snap under name and makes it the active query.
func (v *View) Save(ctx context.Context, name string, snap Snapshot) (SavedQuery, error) {
	q, err := v.store.create(ctx, SavedQuery{Name: name, View: v.name, Snapshot: snap}, v.opts.UniqueNames)
	if err != nil {
		return SavedQuery{}, err
	}
	v.setActive(q.ID)
	return q, nil
}

// Load returns a deep copy of the query's snapshot with missing filter
// fields defaulted, and makes it the active query.
func (v *View) Load(id string) (Snapshot, error) {
	q, ok := v.store.Get(id)
	if !ok || q.View != v.name {
		return Snapshot{}, fmt.Errorf("queries: load %s: %w", id, apperr.ErrNotFound)
	}
	snap := q.Snapshot.Clone()
	snap.Filters = snap.Filters.WithDefaults()
	v.setActive(id)
	return snap, nil
}

// Update overwrites the active query's filters, sort and group with snap.
func (v *View) Update(ctx context.Context, snap Snapshot) (SavedQuery, error) {
	id, ok := v.Active()
	if !ok {
		return SavedQuery{}, fmt.Errorf("queries: update: %w", apperr.ErrNoActiveQuery)
	}
	q, err := v.store.modify(ctx, v.name, id, func(q *SavedQuery) error {
		q.Filters = snap.Filters.Clone()
		q.Sort = snap.Sort
		q.Order = snap.Order
		q.Group = snap.Group
		if v.opts.RestampOnUpdate {
			q.Category = snap.Category
			q.Tab = snap.Tab
		}
		return nil
	})
	if err != nil {
		return SavedQuery{}, err
	}
	return q, nil
}

// Rename changes only the name of a query.
func (v *View) Rename(ctx context.Context, id, name string) (SavedQuery, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return SavedQuery{}, fmt.Errorf("queries: empty name: %w", apperr.ErrInvalidInput)
	}
	return v.store.modify(ctx, v.name, id, func(q *SavedQuery) error {
		if v.opts.UniqueNames && v.store.nameTaken(v.name, name, id) {
			return fmt.Errorf("queries: rename %q: %w", name, apperr.ErrDuplicateName)
		}
		q.Name = name
		return nil
	})
}

// Delete removes a query. It reports whether the query was active, in which
// case the view returns to NoActiveQuery. Filter state is not touched.
func (v *View) Delete(ctx context.Context, id string) (bool, error) {
	if err := v.store.remove(ctx, v.name, id); err != nil {
		return false, err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.active == id {
		v.active = ""
		return true, nil
	}
	return false, nil
}
