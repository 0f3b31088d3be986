// Package vault keeps the in-memory metadata index of a Markdown vault:
// parsed documents, a content cache and change notifications.
package vault

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/starford/iotodash/internal/apperr"
	"github.com/starford/iotodash/internal/checksum"
	"github.com/starford/iotodash/internal/models"
	"github.com/starford/iotodash/internal/parser"
	"github.com/starford/iotodash/internal/storage"
)

// EventKind is the kind of a change notification.
type EventKind string

const (
	EventChanged EventKind = "changed"
	EventDeleted EventKind = "deleted"
)

// Event notifies listeners that a document changed or disappeared.
type Event struct {
	Kind EventKind
	Path string
}

// Listener receives change notifications. It must not block.
type Listener func(Event)

type cachedContent struct {
	modTime  time.Time
	checksum string
	text     string
}

// Store is the metadata index over a storage provider.
type Store struct {
	fs     storage.Provider
	logger *slog.Logger

	mu      sync.RWMutex
	docs    map[string]*models.Document
	content map[string]cachedContent

	subsMu  sync.Mutex
	subs    map[int]Listener
	nextSub int
}

// New creates an empty Store. Call Sync to populate it.
func New(fs storage.Provider, logger *slog.Logger) *Store {
	return &Store{
		fs:      fs,
		logger:  logger,
		docs:    make(map[string]*models.Document),
		content: make(map[string]cachedContent),
		subs:    make(map[int]Listener),
	}
}

// Subscribe registers fn for change notifications and returns a function
// that removes it.
func (s *Store) Subscribe(fn Listener) func() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

func (s *Store) emit(ev Event) {
	s.subsMu.Lock()
	listeners := make([]Listener, 0, len(s.subs))
	for _, fn := range s.subs {
		listeners = append(listeners, fn)
	}
	s.subsMu.Unlock()
	for _, fn := range listeners {
		fn(ev)
	}
}

// Sync walks the vault and brings the index up to date:
//   - new/changed files are parsed and indexed
//   - files removed from disk are dropped
//
// Notifications are emitted for every difference found.
func (s *Store) Sync(ctx context.Context) error {
	infos, err := s.fs.List("")
	if err != nil {
		return fmt.Errorf("vault: sync: %w", err)
	}

	disk := make(map[string]struct{}, len(infos))
	for _, info := range infos {
		if err := ctx.Err(); err != nil {
			return err
		}
		disk[info.Path] = struct{}{}
		if s.fresh(info) {
			continue
		}
		if _, err := s.Index(info.Path); err != nil {
			s.logger.Warn("vault: index failed", slog.String("path", info.Path), slog.String("error", err.Error()))
		}
	}

	for _, p := range s.paths() {
		if _, ok := disk[p]; !ok {
			s.Remove(p)
		}
	}
	return nil
}

// fresh reports whether the indexed document already reflects info.
func (s *Store) fresh(info storage.FileInfo) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[info.Path]
	return ok && doc.Modified.Equal(info.Modified) && doc.Size == info.Size
}

func (s *Store) paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.docs))
	for p := range s.docs {
		out = append(out, p)
	}
	return out
}

// Index reads and parses the file at p and replaces its document. It
// reports whether the content differed from the indexed version; a change
// notification is emitted in that case.
func (s *Store) Index(p string) (bool, error) {
	info, err := s.fs.Stat(p)
	if err != nil {
		return false, err
	}
	data, err := s.fs.Read(p)
	if err != nil {
		return false, err
	}
	sum := checksum.Sum(data)
	res := parser.Parse(data)

	doc := &models.Document{
		Path:        p,
		Basename:    strings.TrimSuffix(path.Base(p), ".md"),
		Created:     info.Created,
		Modified:    info.Modified,
		Size:        info.Size,
		Checksum:    sum,
		Frontmatter: res.Frontmatter,
		Structure:   res.Structure,
	}

	s.mu.Lock()
	prev, existed := s.docs[p]
	changed := !existed || prev.Checksum != sum
	s.docs[p] = doc
	s.content[p] = cachedContent{modTime: info.Modified, checksum: sum, text: string(data)}
	s.mu.Unlock()

	if changed {
		s.logger.Debug("vault: indexed", slog.String("path", p))
		s.emit(Event{Kind: EventChanged, Path: p})
	}
	return changed, nil
}

// Remove drops the document at p and emits a deletion notification when it
// was indexed.
func (s *Store) Remove(p string) bool {
	s.mu.Lock()
	_, ok := s.docs[p]
	delete(s.docs, p)
	delete(s.content, p)
	s.mu.Unlock()

	if ok {
		s.logger.Debug("vault: removed", slog.String("path", p))
		s.emit(Event{Kind: EventDeleted, Path: p})
	}
	return ok
}

// Document returns the indexed document at p.
func (s *Store) Document(p string) (*models.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[p]
	return doc, ok
}

// List returns the documents under folder (recursively) ordered by path.
// An empty folder or "/" lists the whole vault.
func (s *Store) List(folder string) []*models.Document {
	s.mu.RLock()
	out := make([]*models.Document, 0, len(s.docs))
	for p, doc := range s.docs {
		if InFolder(p, folder) {
			out = append(out, doc)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// InFolder reports whether vault path p lies under folder.
func InFolder(p, folder string) bool {
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return true
	}
	return p == folder || strings.HasPrefix(p, folder+"/")
}

// CachedRead returns the content of p, served from the cache while the
// file's modification time is unchanged.
func (s *Store) CachedRead(ctx context.Context, p string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	info, err := s.fs.Stat(p)
	if err != nil {
		return "", err
	}
	s.mu.RLock()
	c, ok := s.content[p]
	s.mu.RUnlock()
	if ok && c.modTime.Equal(info.Modified) {
		return c.text, nil
	}
	return s.Read(ctx, p)
}

// Read returns the current content of p from disk and refreshes the cache.
func (s *Store) Read(ctx context.Context, p string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	info, err := s.fs.Stat(p)
	if err != nil {
		return "", err
	}
	data, err := s.fs.Read(p)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	if _, indexed := s.docs[p]; indexed {
		s.content[p] = cachedContent{modTime: info.Modified, checksum: checksum.Sum(data), text: string(data)}
	}
	s.mu.Unlock()
	return string(data), nil
}

// Write stores content at p and re-indexes it.
func (s *Store) Write(ctx context.Context, p, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.fs.Write(p, []byte(content)); err != nil {
		return fmt.Errorf("vault: write: %w", err)
	}
	if _, err := s.Index(p); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			s.Remove(p)
		}
		return fmt.Errorf("vault: reindex: %w", err)
	}
	return nil
}
