package dashboard

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/starford/iotodash/internal/apperr"
	"github.com/starford/iotodash/internal/filter"
	"github.com/starford/iotodash/internal/locale"
	"github.com/starford/iotodash/internal/models"
	"github.com/starford/iotodash/internal/queries"
	"github.com/starford/iotodash/internal/results"
)

// Result is the derived state of a view after filtering, sorting,
// pagination and grouping. Only the current page is grouped.
type Result struct {
	View        Kind
	Snapshot    queries.Snapshot
	ActiveQuery string
	Showing     Tab
	Page        results.Page
	Notes       []results.Group[*models.Document]
	Tasks       []results.Group[models.TaskRecord]
}

// Session is the live state of one view. Every mutation replaces a field
// and recomputes the result before the lock is released, so readers never
// observe filters and results out of step.
type Session struct {
	kind    Kind
	policy  Policy
	svc     *Service
	queries *queries.View

	mu      sync.Mutex
	st      queries.Snapshot
	page    int
	gen     uint64
	fileGen map[string]uint64
	docs    []*models.Document
	tasks   []models.TaskRecord
	result  Result
}

func newSession(svc *Service, kind Kind) *Session {
	p := PolicyFor(kind)
	s := &Session{
		kind:    kind,
		policy:  p,
		svc:     svc,
		queries: svc.queries.View(kind.String(), p.Queries),
		st:      p.Initial.Clone(),
		page:    1,
		fileGen: make(map[string]uint64),
	}
	s.recomputeLocked()
	return s
}

// Kind returns the view the session serves.
func (s *Session) Kind() Kind {
	return s.kind
}

// View returns the current result.
func (s *Session) View() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// SetFilters replaces the filter state and returns to the first page.
func (s *Session) SetFilters(f filter.State) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.Filters = f.WithDefaults()
	s.page = 1
	s.recomputeLocked()
	return s.result
}

// ResetFilters restores the default filter state.
func (s *Session) ResetFilters() Result {
	if s.policy.ClearOnReset {
		s.queries.Clear()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.Filters = filter.Default()
	s.page = 1
	s.recomputeLocked()
	return s.result
}

// ToggleType adds or removes c from the category set of the shown
// collection. Removing the last selected category is refused.
func (s *Session) ToggleType(c models.Category) (Result, error) {
	if !c.IsSection() {
		return Result{}, fmt.Errorf("dashboard: toggle type %s: %w", c, apperr.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.showingLocked() {
	case TabTasks:
		if next, ok := s.st.Filters.TaskTypes.Toggle(c); ok {
			s.st.Filters.TaskTypes = next
			s.page = 1
		}
	case TabNotes:
		if next, ok := s.st.Filters.NoteTypes.Toggle(c); ok {
			s.st.Filters.NoteTypes = next
			s.page = 1
		}
	}
	s.recomputeLocked()
	return s.result, nil
}

// SetSort changes the sort key and direction.
func (s *Session) SetSort(key results.SortKey, order results.SortOrder) (Result, error) {
	switch key {
	case results.SortName, results.SortCreated, results.SortModified, results.SortSize:
	default:
		return Result{}, fmt.Errorf("dashboard: sort key %q: %w", key, apperr.ErrInvalidInput)
	}
	if order != results.Ascending && order != results.Descending {
		return Result{}, fmt.Errorf("dashboard: sort order %q: %w", order, apperr.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.Sort = key
	s.st.Order = order
	s.recomputeLocked()
	return s.result, nil
}

// SetGroup changes the group option.
func (s *Session) SetGroup(opt results.GroupOption) (Result, error) {
	switch opt {
	case results.GroupNone, results.GroupProject, results.GroupCreated, results.GroupModified, results.GroupType:
	default:
		return Result{}, fmt.Errorf("dashboard: group option %q: %w", opt, apperr.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.Group = opt
	s.recomputeLocked()
	return s.result, nil
}

// SetPage moves to page n, clamped into range.
func (s *Session) SetPage(n int) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.page = n
	s.recomputeLocked()
	return s.result
}

// SetTab switches the shown collection of a switchable view.
func (s *Session) SetTab(t Tab) (Result, error) {
	if !s.policy.Switchable {
		return Result{}, fmt.Errorf("dashboard: %s has a fixed tab: %w", s.kind, apperr.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.st.Tab != string(t) {
		s.st.Tab = string(t)
		s.page = 1
	}
	s.recomputeLocked()
	return s.result, nil
}

// SetCategory switches the section a switchable view reads from. The active
// query is cleared and the data reloaded.
func (s *Session) SetCategory(ctx context.Context, c models.Category) (Result, error) {
	if !s.policy.Switchable {
		return Result{}, fmt.Errorf("dashboard: %s has a fixed category: %w", s.kind, apperr.ErrInvalidInput)
	}
	if !c.IsSection() {
		return Result{}, fmt.Errorf("dashboard: category %s: %w", c, apperr.ErrInvalidInput)
	}
	s.queries.Clear()
	s.mu.Lock()
	s.st.Category = c
	s.page = 1
	s.recomputeLocked()
	s.mu.Unlock()

	if err := s.Refresh(ctx); err != nil {
		return Result{}, err
	}
	return s.View(), nil
}

// Queries returns the saved queries of the view.
func (s *Session) Queries() []queries.SavedQuery {
	return s.queries.List()
}

// SaveQuery stores the current state under name and makes it active.
func (s *Session) SaveQuery(ctx context.Context, name string) (queries.SavedQuery, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return queries.SavedQuery{}, fmt.Errorf("dashboard: empty query name: %w", apperr.ErrInvalidInput)
	}
	q, err := s.queries.Save(ctx, name, s.snapshot())
	if err != nil {
		return queries.SavedQuery{}, err
	}
	s.touch()
	return q, nil
}

// LoadQuery replaces the view state with the saved query's snapshot.
func (s *Session) LoadQuery(ctx context.Context, id string) (Result, error) {
	snap, err := s.queries.Load(id)
	if err != nil {
		return Result{}, err
	}

	s.mu.Lock()
	reload := false
	if s.policy.Switchable {
		if snap.Category.IsSection() && snap.Category != s.st.Category {
			s.st.Category = snap.Category
			reload = true
		}
		if t, err := ParseTab(snap.Tab); err == nil {
			s.st.Tab = string(t)
		}
	}
	if snap.Sort != "" {
		s.st.Sort = snap.Sort
	}
	if snap.Order != "" {
		s.st.Order = snap.Order
	}
	if snap.Group != "" {
		s.st.Group = snap.Group
	}
	s.st.Filters = snap.Filters
	s.page = 1
	s.recomputeLocked()
	s.mu.Unlock()

	if reload {
		if err := s.Refresh(ctx); err != nil {
			return Result{}, err
		}
	}
	return s.View(), nil
}

// UpdateQuery overwrites the active query with the current state.
func (s *Session) UpdateQuery(ctx context.Context) (queries.SavedQuery, error) {
	return s.queries.Update(ctx, s.snapshot())
}

// RenameQuery renames a saved query.
func (s *Session) RenameQuery(ctx context.Context, id, name string) (queries.SavedQuery, error) {
	return s.queries.Rename(ctx, id, name)
}

// DeleteQuery removes a saved query. Deleting the active query resets the
// filters when the view's policy asks for it.
func (s *Session) DeleteQuery(ctx context.Context, id string) (Result, error) {
	wasActive, err := s.queries.Delete(ctx, id)
	if err != nil {
		return Result{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if wasActive && s.policy.ResetOnDelete {
		s.st.Filters = filter.Default()
		s.page = 1
	}
	s.recomputeLocked()
	return s.result, nil
}

func (s *Session) snapshot() queries.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.Clone()
}

// touch recomputes the result so it reflects the active query.
func (s *Session) touch() {
	s.mu.Lock()
	s.recomputeLocked()
	s.mu.Unlock()
}

func (s *Session) showingLocked() Tab {
	if t, err := ParseTab(s.st.Tab); err == nil {
		return t
	}
	if s.kind == KindTasks {
		return TabTasks
	}
	return TabNotes
}

// recomputeLocked derives the result from data already in memory. It never
// performs I/O.
func (s *Session) recomputeLocked() {
	cfg := s.svc.config()
	m := filter.Matcher{Now: s.svc.now(), CustomFilters: cfg.customFilters}
	col := results.Collator(s.svc.lang)
	noGroup := locale.T(s.svc.lang, locale.GroupNone)

	res := Result{
		View:     s.kind,
		Snapshot: s.st.Clone(),
		Showing:  s.showingLocked(),
	}
	res.ActiveQuery, _ = s.queries.Active()

	switch res.Showing {
	case TabTasks:
		recs := m.Tasks(s.st.Filters, s.tasks)
		results.Sort(recs, s.st.Sort, s.st.Order, col)
		res.Page = results.Paginate(len(recs), cfg.pageSize, s.page)
		res.Tasks = results.GroupBy(results.Slice(recs, res.Page), s.st.Group, noGroup, col)
	case TabNotes:
		docs := m.Documents(s.st.Filters, s.docs)
		results.Sort(docs, s.st.Sort, s.st.Order, col)
		res.Page = results.Paginate(len(docs), cfg.pageSize, s.page)
		res.Notes = results.GroupBy(results.Slice(docs, res.Page), s.st.Group, noGroup, col)
	}
	s.page = res.Page.Current
	s.result = res
}

// findTask returns the in-memory record at path and line.
func (s *Session) findTask(path string, line int) (models.TaskRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.tasks, func(t models.TaskRecord) bool {
		return t.Path() == path && t.Line == line
	})
	if i < 0 {
		return models.TaskRecord{}, false
	}
	return s.tasks[i], true
}

// setTaskStatus updates the in-memory status of a record and re-filters.
func (s *Session) setTaskStatus(path string, line int, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].Path() == path && s.tasks[i].Line == line {
			s.tasks[i].Status = status
		}
	}
	s.recomputeLocked()
}
