package vault

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/iotodash/internal/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func testStore(t *testing.T) (string, *Store) {
	t.Helper()
	dir := t.TempDir()
	fs, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return fs.Root(), New(fs, discardLogger())
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) listen(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) has(kind EventKind, path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ev := range r.events {
		if ev.Kind == kind && ev.Path == path {
			return true
		}
	}
	return false
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestSync_IndexesAndParses(t *testing.T) {
	root, s := testStore(t)
	writeFile(t, root, "1-Input/a.md", "---\nProject: Alpha\n---\n## Tasks\n- [ ] one\n")
	writeFile(t, root, "2-Output/b.md", "# B\n")
	writeFile(t, root, ".obsidian/c.md", "hidden")

	if err := s.Sync(context.Background()); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	doc, ok := s.Document("1-Input/a.md")
	if !ok {
		t.Fatal("a.md not indexed")
	}
	if doc.Basename != "a" || doc.Frontmatter["Project"] != "Alpha" {
		t.Errorf("doc = %+v", doc)
	}
	if len(doc.Structure.Headings) != 1 || doc.Structure.Headings[0].Line != 3 {
		t.Errorf("headings = %+v", doc.Structure.Headings)
	}
	if got := s.List("1-Input"); len(got) != 1 {
		t.Errorf("List(1-Input) = %d docs, want 1", len(got))
	}
	if got := s.List(""); len(got) != 2 {
		t.Errorf("List(all) = %d docs, want 2", len(got))
	}
}

func TestSync_RemovesStaleAndNotifies(t *testing.T) {
	root, s := testStore(t)
	writeFile(t, root, "a.md", "a")
	writeFile(t, root, "b.md", "b")
	_ = s.Sync(context.Background())

	rec := &recorder{}
	unsubscribe := s.Subscribe(rec.listen)
	defer unsubscribe()

	_ = os.Remove(filepath.Join(root, "b.md"))
	if err := s.Sync(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Document("b.md"); ok {
		t.Error("b.md should be removed")
	}
	if !rec.has(EventDeleted, "b.md") {
		t.Errorf("events = %+v, want deleted b.md", rec.events)
	}
	if rec.has(EventChanged, "a.md") {
		t.Error("unchanged a.md should not be re-announced")
	}
}

func TestIndex_UnchangedContentIsQuiet(t *testing.T) {
	root, s := testStore(t)
	writeFile(t, root, "a.md", "same")
	_ = s.Sync(context.Background())

	rec := &recorder{}
	s.Subscribe(rec.listen)

	changed, err := s.Index("a.md")
	if err != nil || changed {
		t.Errorf("changed = %v err = %v, want false", changed, err)
	}
	if rec.count() != 0 {
		t.Errorf("events = %+v, want none", rec.events)
	}
}

func TestCachedRead_InvalidatesOnModification(t *testing.T) {
	root, s := testStore(t)
	writeFile(t, root, "a.md", "v1")
	_ = s.Sync(context.Background())

	got, err := s.CachedRead(context.Background(), "a.md")
	if err != nil || got != "v1" {
		t.Fatalf("CachedRead = %q, %v", got, err)
	}

	writeFile(t, root, "a.md", "v2")
	future := time.Now().Add(time.Minute)
	_ = os.Chtimes(filepath.Join(root, "a.md"), future, future)

	got, err = s.CachedRead(context.Background(), "a.md")
	if err != nil || got != "v2" {
		t.Errorf("CachedRead after change = %q, %v", got, err)
	}
}

func TestWrite_ReindexesAndNotifies(t *testing.T) {
	root, s := testStore(t)
	writeFile(t, root, "t.md", "## Tasks\n- [ ] a\n")
	_ = s.Sync(context.Background())

	rec := &recorder{}
	s.Subscribe(rec.listen)

	if err := s.Write(context.Background(), "t.md", "## Tasks\n- [x] a\n"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	doc, _ := s.Document("t.md")
	if doc.Structure.ListItems[0].Task != "x" {
		t.Errorf("task = %q, want x", doc.Structure.ListItems[0].Task)
	}
	if !rec.has(EventChanged, "t.md") {
		t.Error("write should emit a change notification")
	}
	got, _ := s.Read(context.Background(), "t.md")
	if got != "## Tasks\n- [x] a\n" {
		t.Errorf("Read = %q", got)
	}
}

func TestInFolder(t *testing.T) {
	cases := []struct {
		path, folder string
		want         bool
	}{
		{"1-Input/a.md", "1-Input", true},
		{"1-Input/sub/a.md", "1-Input/", true},
		{"1-Inputs/a.md", "1-Input", false},
		{"a.md", "", true},
		{"a.md", "/", true},
	}
	for _, c := range cases {
		if got := InFolder(c.path, c.folder); got != c.want {
			t.Errorf("InFolder(%q, %q) = %v, want %v", c.path, c.folder, got, c.want)
		}
	}
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestWatch_NewModifiedDeleted(t *testing.T) {
	root, s := testStore(t)
	rec := &recorder{}
	s.Subscribe(rec.listen)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Watch(ctx, s, root, discardLogger())
	time.Sleep(100 * time.Millisecond)

	writeFile(t, root, "new.md", "# New")
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.has(EventChanged, "new.md")
	}, "expected change event for new.md")

	_ = os.Remove(filepath.Join(root, "new.md"))
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.has(EventDeleted, "new.md")
	}, "expected delete event for new.md")
}

func TestWatch_NewDirectory(t *testing.T) {
	root, s := testStore(t)
	rec := &recorder{}
	s.Subscribe(rec.listen)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Watch(ctx, s, root, discardLogger())
	time.Sleep(100 * time.Millisecond)

	_ = os.MkdirAll(filepath.Join(root, "4-Outcome"), 0o755)
	time.Sleep(100 * time.Millisecond)
	writeFile(t, root, "4-Outcome/r.md", "# R")

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		_, ok := s.Document("4-Outcome/r.md")
		return ok
	}, "file in new directory should be indexed")
}

func TestWatch_RenameReconciles(t *testing.T) {
	root, s := testStore(t)
	writeFile(t, root, "old.md", "# Old")
	_ = s.Sync(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Watch(ctx, s, root, discardLogger())
	time.Sleep(100 * time.Millisecond)

	_ = os.Rename(filepath.Join(root, "old.md"), filepath.Join(root, "renamed.md"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		_, oldOK := s.Document("old.md")
		_, newOK := s.Document("renamed.md")
		return !oldOK && newOK
	}, "rename should drop old path and index new one")
}
