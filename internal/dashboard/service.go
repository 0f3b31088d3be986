package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cast"

	"github.com/starford/iotodash/internal/apperr"
	"github.com/starford/iotodash/internal/filter"
	"github.com/starford/iotodash/internal/models"
	"github.com/starford/iotodash/internal/queries"
	"github.com/starford/iotodash/internal/refresh"
	"github.com/starford/iotodash/internal/results"
	"github.com/starford/iotodash/internal/settings"
	"github.com/starford/iotodash/internal/tasks"
	"github.com/starford/iotodash/internal/vault"
)

// Vault is the document store the service reads from and writes back to.
type Vault interface {
	List(folder string) []*models.Document
	Document(p string) (*models.Document, bool)
	Subscribe(fn vault.Listener) func()
	tasks.Reader
	tasks.Store
}

// Headings resolves the section heading labels.
type Headings interface {
	Heading(c models.Category) string
	Sections() []tasks.Section
}

// SettingsStore persists the settings blob.
type SettingsStore interface {
	Settings() settings.Settings
	queries.Persister
	SaveCustomFilters(ctx context.Context, fs []filter.CustomFilter) error
	SavePageSize(ctx context.Context, n int) (int, error)
}

// Notifier is told when documents or view results change.
type Notifier interface {
	PublishViewEvent(view string)
	PublishDocumentEvent(kind, path string)
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock used by date filters.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithDebounce sets the coalescing window for change notifications.
func WithDebounce(d time.Duration) Option {
	return func(s *Service) { s.delay = d }
}

// WithNotifier sets the receiver of change events.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithLanguage sets the language used for collation and labels.
func WithLanguage(lang string) Option {
	return func(s *Service) { s.lang = lang }
}

type serviceConfig struct {
	folders       settings.Folders
	pageSize      int
	customFilters []filter.CustomFilter
}

// Service owns the view sessions and keeps them in step with the vault.
type Service struct {
	vault    Vault
	store    SettingsStore
	headings Headings
	logger   *slog.Logger
	notifier Notifier
	now      func() time.Time
	lang     string
	delay    time.Duration

	queries  *queries.Store
	sessions map[Kind]*Session
	debounce *refresh.Debouncer

	mu          sync.RWMutex
	cfg         serviceConfig
	facets      map[string][]string
	facetGen    uint64
	baseCtx     context.Context
	unsubscribe func()
}

// NewService creates a Service. Sessions start empty until Start.
func NewService(v Vault, store SettingsStore, h Headings, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		vault:    v,
		store:    store,
		headings: h,
		logger:   logger,
		now:      time.Now,
		lang:     "en",
		delay:    refresh.DefaultDelay,
		baseCtx:  context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}

	blob := store.Settings()
	s.cfg = serviceConfig{
		folders:       blob.Folders,
		pageSize:      results.ClampPageSize(blob.PageSize),
		customFilters: blob.CustomFilters,
	}
	s.queries = queries.NewStore(blob.SavedQueries, store)
	s.debounce = refresh.NewDebouncer(s.delay)
	s.sessions = make(map[Kind]*Session, len(Kinds))
	for _, k := range Kinds {
		s.sessions[k] = newSession(s, k)
	}
	return s
}

// Start loads every session and subscribes to vault notifications.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	s.baseCtx = ctx
	s.mu.Unlock()

	for _, k := range Kinds {
		if err := s.sessions[k].Refresh(ctx); err != nil {
			return err
		}
	}

	unsub := s.vault.Subscribe(s.HandleEvent)
	s.mu.Lock()
	s.unsubscribe = unsub
	s.mu.Unlock()
	return nil
}

// Close stops listening and cancels pending refreshes.
func (s *Service) Close() {
	s.mu.Lock()
	unsub := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()
	if unsub != nil {
		unsub()
	}
	s.debounce.Stop()
}

// Session returns the session of view k.
func (s *Service) Session(k Kind) (*Session, error) {
	sess, ok := s.sessions[k]
	if !ok {
		return nil, fmt.Errorf("dashboard: view %s: %w", k, apperr.ErrNotFound)
	}
	return sess, nil
}

// Language returns the language used for collation and labels.
func (s *Service) Language() string {
	return s.lang
}

func (s *Service) config() serviceConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

func (s *Service) context() context.Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.baseCtx
}

// HandleEvent reacts to a vault notification. Deletions are purged from
// every session immediately; all events then schedule a debounced
// per-file recompute.
func (s *Service) HandleEvent(ev vault.Event) {
	s.mu.Lock()
	s.facets = nil
	s.facetGen++
	s.mu.Unlock()

	if s.notifier != nil {
		s.notifier.PublishDocumentEvent(string(ev.Kind), ev.Path)
	}
	for _, k := range Kinds {
		sess := s.sessions[k]
		if ev.Kind == vault.EventDeleted {
			sess.purge(ev.Path)
		}
		s.debounce.Trigger(k.String()+":"+ev.Path, func() {
			sess.applyChange(s.context(), ev.Path)
			s.publishView(k)
		})
	}
}

func (s *Service) publishView(k Kind) {
	if s.notifier != nil {
		s.notifier.PublishViewEvent(k.String())
	}
}

func (s *Service) recomputeAll() {
	for _, k := range Kinds {
		s.sessions[k].touch()
		s.publishView(k)
	}
}

// Folders returns the configured folder layout.
func (s *Service) Folders() settings.Folders {
	return s.config().folders
}

// Sections returns the task sections with their current heading labels.
func (s *Service) Sections() []tasks.Section {
	return s.headings.Sections()
}

// PageSize returns the configured page size.
func (s *Service) PageSize() int {
	return s.config().pageSize
}

// SetPageSize persists a new page size, clamped into range, and re-paginates
// every view.
func (s *Service) SetPageSize(ctx context.Context, n int) (int, error) {
	n, err := s.store.SavePageSize(ctx, n)
	if err != nil {
		return 0, fmt.Errorf("dashboard: save page size: %w", err)
	}
	s.mu.Lock()
	s.cfg.pageSize = n
	s.mu.Unlock()
	s.recomputeAll()
	return n, nil
}

// CustomFilters returns the custom filter schema.
func (s *Service) CustomFilters() []filter.CustomFilter {
	return slices.Clone(s.config().customFilters)
}

// SetCustomFilters validates and persists a new custom filter schema.
func (s *Service) SetCustomFilters(ctx context.Context, fs []filter.CustomFilter) error {
	seen := make(map[string]bool, len(fs))
	for i := range fs {
		fs[i].Name = strings.TrimSpace(fs[i].Name)
		if fs[i].Target == "" {
			fs[i].Target = filter.TargetAll
		}
		if err := fs[i].Validate(); err != nil {
			return fmt.Errorf("dashboard: custom filter %d: %w: %w", i, apperr.ErrInvalidInput, err)
		}
		if seen[fs[i].Name] {
			return fmt.Errorf("dashboard: custom filter %q: %w", fs[i].Name, apperr.ErrDuplicateName)
		}
		seen[fs[i].Name] = true
	}
	fs = slices.Clone(fs)
	if err := s.store.SaveCustomFilters(ctx, fs); err != nil {
		return fmt.Errorf("dashboard: save custom filters: %w", err)
	}
	s.mu.Lock()
	s.cfg.customFilters = fs
	s.mu.Unlock()
	s.recomputeAll()
	return nil
}

// SavedQueries returns every saved query of every view.
func (s *Service) SavedQueries() []queries.SavedQuery {
	return s.queries.All()
}

// Projects returns the distinct frontmatter Project values in the vault.
func (s *Service) Projects() []string {
	return s.facet(filter.ProjectField)
}

// Statuses returns the distinct frontmatter Status values in the vault.
func (s *Service) Statuses() []string {
	return s.facet(filter.StatusField)
}

func (s *Service) facet(field string) []string {
	s.mu.RLock()
	vals, ok := s.facets[field]
	gen := s.facetGen
	s.mu.RUnlock()
	if ok {
		return slices.Clone(vals)
	}

	seen := make(map[string]bool)
	for _, doc := range s.vault.List("") {
		v, present := doc.Field(field)
		if !present {
			continue
		}
		for _, str := range facetValues(v) {
			seen[str] = true
		}
	}
	vals = make([]string, 0, len(seen))
	for v := range seen {
		vals = append(vals, v)
	}
	col := results.Collator(s.lang)
	slices.SortFunc(vals, func(a, b string) int { return col.CompareString(a, b) })

	s.storeFacet(field, vals, gen)
	return slices.Clone(vals)
}

// storeFacet caches vals unless the vault changed since gen was read.
func (s *Service) storeFacet(field string, vals []string, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.facetGen {
		return false
	}
	if s.facets == nil {
		s.facets = make(map[string][]string)
	}
	s.facets[field] = vals
	return true
}

func facetValues(v any) []string {
	var raw []string
	switch t := v.(type) {
	case []any:
		for _, e := range t {
			raw = append(raw, cast.ToString(e))
		}
	default:
		raw = []string{cast.ToString(v)}
	}
	out := raw[:0]
	for _, r := range raw {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

// ToggleTask flips the checkbox of the task at path and line shown by view
// k. The in-memory record is updated at once; changed is false when the
// line no longer holds a task.
func (s *Service) ToggleTask(ctx context.Context, k Kind, path string, line int) (models.TaskRecord, bool, error) {
	sess, err := s.Session(k)
	if err != nil {
		return models.TaskRecord{}, false, err
	}
	rec, ok := sess.findTask(path, line)
	if !ok {
		return models.TaskRecord{}, false, fmt.Errorf("dashboard: task %s:%d: %w", path, line, apperr.ErrNotFound)
	}
	return s.toggle(ctx, rec)
}

// ToggleTaskAt flips the checkbox of a task located directly in the vault,
// without consulting any session.
func (s *Service) ToggleTaskAt(ctx context.Context, path string, line int) (models.TaskRecord, bool, error) {
	doc, ok := s.vault.Document(path)
	if !ok {
		return models.TaskRecord{}, false, fmt.Errorf("dashboard: task %s: %w", path, apperr.ErrNotFound)
	}
	content, err := s.vault.Read(ctx, path)
	if err != nil {
		return models.TaskRecord{}, false, fmt.Errorf("dashboard: read %s: %w", path, err)
	}
	recs := tasks.ExtractSections(doc, tasks.SplitLines(content), s.headings.Sections())
	i := slices.IndexFunc(recs, func(t models.TaskRecord) bool { return t.Line == line })
	if i < 0 {
		return models.TaskRecord{}, false, fmt.Errorf("dashboard: task %s:%d: %w", path, line, apperr.ErrNotFound)
	}
	return s.toggle(ctx, recs[i])
}

func (s *Service) toggle(ctx context.Context, rec models.TaskRecord) (models.TaskRecord, bool, error) {
	status, changed, err := tasks.Toggle(ctx, s.vault, rec)
	if err != nil {
		return models.TaskRecord{}, false, fmt.Errorf("dashboard: toggle: %w", err)
	}
	if !changed {
		return rec, false, nil
	}
	rec.Status = status
	for _, k := range Kinds {
		s.sessions[k].setTaskStatus(rec.Path(), rec.Line, status)
		s.publishView(k)
	}
	return rec, true, nil
}

// DeleteTask removes the task line at path and line shown by view k and
// re-extracts the view's tasks.
func (s *Service) DeleteTask(ctx context.Context, k Kind, path string, line int) (bool, error) {
	sess, err := s.Session(k)
	if err != nil {
		return false, err
	}
	rec, ok := sess.findTask(path, line)
	if !ok {
		return false, fmt.Errorf("dashboard: task %s:%d: %w", path, line, apperr.ErrNotFound)
	}
	changed, err := tasks.Delete(ctx, s.vault, rec)
	if err != nil {
		return false, fmt.Errorf("dashboard: delete task: %w", err)
	}
	if !changed {
		return false, nil
	}
	if err := sess.Refresh(ctx); err != nil {
		return true, err
	}
	s.publishView(k)
	return true, nil
}

// Search is a one-off query evaluated against a fresh copy of the notes or
// tasks collection without touching any session. Limit <= 0 returns
// everything.
type Search struct {
	Filters filter.State
	Sort    results.SortKey
	Order   results.SortOrder
	Limit   int
}

func (q Search) normalize() Search {
	q.Filters = q.Filters.WithDefaults()
	if q.Sort == "" {
		q.Sort = results.SortModified
	}
	if q.Order == "" {
		q.Order = results.Descending
	}
	return q
}

// SearchNotes returns the notes of the three section folders matching q.
func (s *Service) SearchNotes(q Search) []*models.Document {
	q = q.normalize()
	f := s.config().folders
	var docs []*models.Document
	for _, c := range models.Sections {
		folder := folderFor(f, c)
		if folder == "" {
			continue
		}
		for _, doc := range s.vault.List(folder) {
			docs = append(docs, doc.WithCategory(c))
		}
	}
	m := filter.Matcher{Now: s.now(), CustomFilters: s.config().customFilters}
	docs = m.Documents(q.Filters, docs)
	results.Sort(docs, q.Sort, q.Order, results.Collator(s.lang))
	return limit(docs, q.Limit)
}

// SearchTasks returns the tasks of the task folder matching q.
func (s *Service) SearchTasks(ctx context.Context, q Search) ([]models.TaskRecord, error) {
	q = q.normalize()
	folder := s.config().folders.Task
	if folder == "" {
		return nil, nil
	}
	recs, err := tasks.Collect(ctx, s.vault, s.vault.List(folder), s.headings.Sections(), s.logger)
	if err != nil {
		return nil, fmt.Errorf("dashboard: search tasks: %w", err)
	}
	m := filter.Matcher{Now: s.now(), CustomFilters: s.config().customFilters}
	recs = m.Tasks(q.Filters, recs)
	results.Sort(recs, q.Sort, q.Order, results.Collator(s.lang))
	return limit(recs, q.Limit), nil
}

func limit[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}

func folderFor(f settings.Folders, c models.Category) string {
	switch c {
	case models.CategoryInput:
		return f.Input
	case models.CategoryOutput:
		return f.Output
	case models.CategoryOutcome:
		return f.Outcome
	case models.CategoryNone, models.CategoryNotes, models.CategoryTasks:
		return ""
	default:
		return ""
	}
}

// IsUserError reports whether err stems from bad input rather than a fault.
func IsUserError(err error) bool {
	return errors.Is(err, apperr.ErrInvalidInput) ||
		errors.Is(err, apperr.ErrDuplicateName) ||
		errors.Is(err, apperr.ErrNoActiveQuery) ||
		errors.Is(err, apperr.ErrNotFound)
}
