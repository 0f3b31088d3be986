package queries

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/starford/iotodash/internal/apperr"
	"github.com/starford/iotodash/internal/filter"
	"github.com/starford/iotodash/internal/models"
	"github.com/starford/iotodash/internal/results"
)

type recordingPersister struct {
	saved [][]SavedQuery
	fail  error
}

func (p *recordingPersister) SaveQueries(_ context.Context, qs []SavedQuery) error {
	if p.fail != nil {
		return p.fail
	}
	p.saved = append(p.saved, qs)
	return nil
}

func fixedClock() func() time.Time {
	t := time.UnixMilli(1_700_000_000_000)
	return func() time.Time { return t }
}

func snapshot(name string) Snapshot {
	f := filter.Default()
	f.Name = name
	f.Custom["owner"] = "alice"
	return Snapshot{
		Category: models.CategoryInput,
		Tab:      "Notes",
		Sort:     results.SortModified,
		Order:    results.Descending,
		Group:    results.GroupProject,
		Filters:  f,
	}
}

func TestView_SaveLoadRoundTrip(t *testing.T) {
	p := &recordingPersister{}
	store := NewStore(nil, p, WithClock(fixedClock()))
	v := store.View("dashboard", ViewOptions{})

	snap := snapshot("weekly")
	q, err := v.Save(context.Background(), "Weekly", snap)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if q.ID != "1700000000000" {
		t.Errorf("id = %q", q.ID)
	}
	if id, ok := v.Active(); !ok || id != q.ID {
		t.Errorf("active = %q, %v", id, ok)
	}

	// Mutating the caller's state after saving must not reach the store.
	snap.Filters.Custom["owner"] = "mallory"

	got, err := v.Load(q.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !got.Filters.Equal(snapshot("weekly").Filters) || got.Sort != results.SortModified || got.Group != results.GroupProject {
		t.Errorf("loaded = %+v", got)
	}

	// Mutating the loaded copy must not reach the store either.
	got.Filters.Custom["owner"] = "eve"
	again, _ := v.Load(q.ID)
	if again.Filters.Custom["owner"] != "alice" {
		t.Errorf("stored custom = %q, want alice", again.Filters.Custom["owner"])
	}
	if len(p.saved) != 1 {
		t.Errorf("persisted %d times, want 1", len(p.saved))
	}
}

func TestView_UniqueIDsWithinSameMillisecond(t *testing.T) {
	store := NewStore(nil, &recordingPersister{}, WithClock(fixedClock()))
	v := store.View("dashboard", ViewOptions{})
	a, _ := v.Save(context.Background(), "a", snapshot("a"))
	b, _ := v.Save(context.Background(), "b", snapshot("b"))
	if a.ID == b.ID {
		t.Fatalf("duplicate ids %q", a.ID)
	}
}

func TestView_DuplicateNameRejected(t *testing.T) {
	p := &recordingPersister{}
	store := NewStore(nil, p, WithClock(fixedClock()))
	notes := store.View("notes", ViewOptions{UniqueNames: true})
	dash := store.View("dashboard", ViewOptions{})

	if _, err := notes.Save(context.Background(), "Weekly", snapshot("x")); err != nil {
		t.Fatal(err)
	}
	_, err := notes.Save(context.Background(), "Weekly", snapshot("y"))
	if !errors.Is(err, apperr.ErrDuplicateName) {
		t.Fatalf("err = %v, want ErrDuplicateName", err)
	}
	if len(notes.List()) != 1 {
		t.Errorf("queries = %d, want 1", len(notes.List()))
	}

	// Views without the policy allow duplicates.
	for i := 0; i < 2; i++ {
		if _, err := dash.Save(context.Background(), "Weekly", snapshot("z")); err != nil {
			t.Fatalf("dashboard save %d: %v", i, err)
		}
	}
	if len(dash.List()) != 2 {
		t.Errorf("dashboard queries = %d, want 2", len(dash.List()))
	}
}

func TestView_PersistenceFailureLeavesStateUnchanged(t *testing.T) {
	p := &recordingPersister{}
	store := NewStore(nil, p, WithClock(fixedClock()))
	v := store.View("tasks", ViewOptions{})
	q, _ := v.Save(context.Background(), "Keep", snapshot("keep"))

	p.fail = errors.New("disk full")
	if _, err := v.Save(context.Background(), "Lost", snapshot("lost")); err == nil {
		t.Fatal("expected save error")
	}
	if _, err := v.Rename(context.Background(), q.ID, "Renamed"); err == nil {
		t.Fatal("expected rename error")
	}
	if _, err := v.Delete(context.Background(), q.ID); err == nil {
		t.Fatal("expected delete error")
	}

	all := store.All()
	if len(all) != 1 || all[0].Name != "Keep" {
		t.Errorf("collection = %+v", all)
	}
	if id, _ := v.Active(); id != q.ID {
		t.Errorf("active = %q, want %q", id, q.ID)
	}
}

func TestView_UpdateRequiresActive(t *testing.T) {
	store := NewStore(nil, &recordingPersister{}, WithClock(fixedClock()))
	v := store.View("dashboard", ViewOptions{RestampOnUpdate: true})

	if _, err := v.Update(context.Background(), snapshot("x")); !errors.Is(err, apperr.ErrNoActiveQuery) {
		t.Fatalf("err = %v, want ErrNoActiveQuery", err)
	}

	q, _ := v.Save(context.Background(), "Q", snapshot("before"))
	next := snapshot("after")
	next.Category = models.CategoryOutcome
	next.Tab = "Tasks"
	next.Group = results.GroupCreated

	updated, err := v.Update(context.Background(), next)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.ID != q.ID || updated.Filters.Name != "after" || updated.Group != results.GroupCreated {
		t.Errorf("updated = %+v", updated)
	}
	if updated.Category != models.CategoryOutcome || updated.Tab != "Tasks" {
		t.Errorf("restamp: category=%v tab=%q", updated.Category, updated.Tab)
	}
}

func TestView_UpdateKeepsScopeWithoutRestamp(t *testing.T) {
	store := NewStore(nil, &recordingPersister{}, WithClock(fixedClock()))
	v := store.View("notes", ViewOptions{})
	_, _ = v.Save(context.Background(), "Q", snapshot("before"))

	next := snapshot("after")
	next.Category = models.CategoryOutcome
	updated, err := v.Update(context.Background(), next)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Category != models.CategoryInput {
		t.Errorf("category = %v, want Input", updated.Category)
	}
}

func TestView_RenameAndDelete(t *testing.T) {
	store := NewStore(nil, &recordingPersister{}, WithClock(fixedClock()))
	v := store.View("notes", ViewOptions{UniqueNames: true})
	a, _ := v.Save(context.Background(), "A", snapshot("a"))
	b, _ := v.Save(context.Background(), "B", snapshot("b"))

	if _, err := v.Rename(context.Background(), a.ID, "B"); !errors.Is(err, apperr.ErrDuplicateName) {
		t.Errorf("rename to taken name: err = %v", err)
	}
	renamed, err := v.Rename(context.Background(), a.ID, "  Alpha ")
	if err != nil || renamed.Name != "Alpha" || !renamed.Filters.Equal(a.Filters) {
		t.Errorf("rename = %+v, err = %v", renamed, err)
	}

	// b is active after its save; deleting a leaves it active.
	wasActive, err := v.Delete(context.Background(), a.ID)
	if err != nil || wasActive {
		t.Errorf("delete inactive: wasActive=%v err=%v", wasActive, err)
	}
	wasActive, err = v.Delete(context.Background(), b.ID)
	if err != nil || !wasActive {
		t.Errorf("delete active: wasActive=%v err=%v", wasActive, err)
	}
	if _, ok := v.Active(); ok {
		t.Error("view should have no active query")
	}
	if _, err := v.Delete(context.Background(), b.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete: err = %v", err)
	}
}

func TestView_IsolatedByView(t *testing.T) {
	store := NewStore(nil, &recordingPersister{}, WithClock(fixedClock()))
	notes := store.View("notes", ViewOptions{})
	tasks := store.View("tasks", ViewOptions{})
	q, _ := notes.Save(context.Background(), "N", snapshot("n"))

	if _, err := tasks.Load(q.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("cross-view load: err = %v", err)
	}
	if len(tasks.List()) != 0 {
		t.Error("tasks view should not list notes queries")
	}
}

func TestView_LoadFillsMissingFields(t *testing.T) {
	legacy := SavedQuery{ID: "5", Name: "old", View: "tasks", Snapshot: Snapshot{Filters: filter.State{Name: "x"}}}
	store := NewStore([]SavedQuery{legacy}, &recordingPersister{}, WithClock(fixedClock()))
	v := store.View("tasks", ViewOptions{})

	snap, err := v.Load("5")
	if err != nil {
		t.Fatal(err)
	}
	if snap.Filters.DateRange != filter.DateAll || snap.Filters.TaskStatus != filter.StatusAll || snap.Filters.Custom == nil {
		t.Errorf("filters = %+v", snap.Filters)
	}
	if snap.Filters.Name != "x" {
		t.Errorf("name = %q, want x", snap.Filters.Name)
	}
}
