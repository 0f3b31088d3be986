package settings

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/starford/iotodash/internal/filter"
	"github.com/starford/iotodash/internal/models"
	"github.com/starford/iotodash/internal/queries"
	"github.com/starford/iotodash/internal/results"
)

func defaults() Settings {
	return Settings{
		Folders:  Folders{Input: "1-input", Output: "2-output", Outcome: "4-outcome", Task: "3-tasks"},
		PageSize: results.DefaultPageSize,
	}
}

func testStore(t *testing.T, dsn string) *Store {
	t.Helper()
	s, err := Open(context.Background(), dsn, defaults())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSchemaCreation(t *testing.T) {
	s := testStore(t, filepath.Join(t.TempDir(), "settings.db"))
	var count int
	if err := s.conn.QueryRow(`SELECT count(*) FROM settings`).Scan(&count); err != nil {
		t.Fatalf("settings table missing: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0 before first write", count)
	}
}

func TestOpen_Defaults(t *testing.T) {
	s := testStore(t, filepath.Join(t.TempDir(), "settings.db"))
	got := s.Settings()
	if got.Folders.Input != "1-input" || got.PageSize != results.DefaultPageSize {
		t.Errorf("settings = %+v", got)
	}
	if len(got.SavedQueries) != 0 {
		t.Errorf("saved queries = %+v, want none", got.SavedQueries)
	}
}

func TestRoundTripAcrossReopen(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "settings.db")
	ctx := context.Background()

	s, err := Open(ctx, dsn, defaults())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	f := filter.Default()
	f.Name = "weekly"
	f.TaskTypes = filter.NewCategorySet(models.CategoryInput)
	f.Custom = map[string]string{"Priority": "high"}
	q := queries.SavedQuery{
		ID:   "1700000000000",
		Name: "Weekly",
		View: "tasks",
		Snapshot: queries.Snapshot{
			Category: models.CategoryTasks,
			Sort:     results.SortModified,
			Order:    results.Descending,
			Group:    results.GroupProject,
			Filters:  f,
		},
	}
	if err := s.SaveQueries(ctx, []queries.SavedQuery{q}); err != nil {
		t.Fatalf("SaveQueries: %v", err)
	}
	cf := filter.CustomFilter{Name: "Priority", Type: filter.FieldText, Target: filter.TargetAll}
	if err := s.SaveCustomFilters(ctx, []filter.CustomFilter{cf}); err != nil {
		t.Fatalf("SaveCustomFilters: %v", err)
	}
	if n, err := s.SavePageSize(ctx, 1000); err != nil || n != results.MaxPageSize {
		t.Fatalf("SavePageSize = %d, %v; want %d", n, err, results.MaxPageSize)
	}
	s.Close()

	s2 := testStore(t, dsn)
	got := s2.Settings()
	if got.PageSize != results.MaxPageSize {
		t.Errorf("page size = %d, want %d", got.PageSize, results.MaxPageSize)
	}
	if len(got.SavedQueries) != 1 {
		t.Fatalf("saved queries = %+v", got.SavedQueries)
	}
	gq := got.SavedQueries[0]
	if gq.ID != q.ID || gq.Name != "Weekly" || gq.View != "tasks" {
		t.Errorf("query = %+v", gq)
	}
	if gq.Category != models.CategoryTasks || gq.Group != results.GroupProject || gq.Order != results.Descending {
		t.Errorf("snapshot = %+v", gq.Snapshot)
	}
	if !gq.Filters.Equal(f) {
		t.Errorf("filters = %+v, want %+v", gq.Filters, f)
	}
	if len(got.CustomFilters) != 1 || got.CustomFilters[0].Name != cf.Name || got.CustomFilters[0].Type != cf.Type {
		t.Errorf("custom filters = %+v", got.CustomFilters)
	}
}

func TestSettings_ReturnsCopy(t *testing.T) {
	s := testStore(t, filepath.Join(t.TempDir(), "settings.db"))
	ctx := context.Background()
	_ = s.SaveQueries(ctx, []queries.SavedQuery{{ID: "1", Name: "a", View: "notes"}})

	got := s.Settings()
	got.SavedQueries[0].Name = "mutated"
	if again := s.Settings(); again.SavedQueries[0].Name != "a" {
		t.Errorf("name = %q, want %q", again.SavedQueries[0].Name, "a")
	}
}

func TestFailedWriteKeepsState(t *testing.T) {
	s := testStore(t, filepath.Join(t.TempDir(), "settings.db"))
	ctx := context.Background()
	_ = s.SaveQueries(ctx, []queries.SavedQuery{{ID: "1", Name: "a", View: "notes"}})

	s.conn.Close()
	if err := s.SaveQueries(ctx, nil); err == nil {
		t.Fatal("expected error on closed db")
	}
	if got := s.Settings(); len(got.SavedQueries) != 1 {
		t.Errorf("saved queries = %+v, want unchanged", got.SavedQueries)
	}
}

func TestQueryStorePersistsThroughSettings(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "settings.db")
	s := testStore(t, dsn)
	ctx := context.Background()

	store := queries.NewStore(s.Settings().SavedQueries, s)
	v := store.View("notes", queries.ViewOptions{UniqueNames: true})
	if _, err := v.Save(ctx, "Mine", queries.Snapshot{Filters: filter.Default()}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got := s.Settings().SavedQueries; len(got) != 1 || got[0].Name != "Mine" {
		t.Errorf("persisted = %+v", got)
	}
}
