package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/starford/iotodash/internal/models"
	"github.com/starford/iotodash/internal/tasks"
	"github.com/starford/iotodash/internal/vault"
)

type noteFolder struct {
	folder   string
	category models.Category
}

// source describes where a session's data comes from.
type source struct {
	notes      []noteFolder
	taskFolder string
	sections   []tasks.Section
}

func (src source) coversTask(p string) bool {
	return len(src.sections) > 0 && vault.InFolder(p, src.taskFolder)
}

func (s *Session) sourceLocked() source {
	cfg := s.svc.config()
	f := cfg.folders
	var src source
	switch s.kind {
	case KindDashboard:
		c := s.st.Category
		src.notes = []noteFolder{{folder: folderFor(f, c), category: c}}
		src.taskFolder = f.Task
		src.sections = []tasks.Section{{Category: c, Heading: s.svc.headings.Heading(c)}}
	case KindNotes:
		for _, c := range models.Sections {
			src.notes = append(src.notes, noteFolder{folder: folderFor(f, c), category: c})
		}
	case KindTasks:
		src.taskFolder = f.Task
		src.sections = s.svc.headings.Sections()
	}
	if src.taskFolder == "" {
		src.sections = nil
	}
	return src
}

// listNotes builds the note collection from the in-memory index.
func (s *Session) listNotes(src source) []*models.Document {
	var out []*models.Document
	for _, nf := range src.notes {
		if nf.folder == "" {
			continue
		}
		for _, doc := range s.svc.vault.List(nf.folder) {
			out = append(out, doc.WithCategory(nf.category))
		}
	}
	return out
}

// Refresh reloads the session's documents and re-extracts every task. A
// refresh overtaken by a newer one is discarded.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	src := s.sourceLocked()
	s.mu.Unlock()

	docs := s.listNotes(src)
	var recs []models.TaskRecord
	if len(src.sections) > 0 {
		var err error
		recs, err = tasks.Collect(ctx, s.svc.vault, s.svc.vault.List(src.taskFolder), src.sections, s.svc.logger)
		if err != nil {
			return fmt.Errorf("dashboard: refresh %s: %w", s.kind, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		s.svc.logger.Debug("dashboard: refresh superseded", slog.String("view", s.kind.String()))
		return nil
	}
	s.docs = docs
	s.tasks = recs
	s.recomputeLocked()
	return nil
}

// applyChange re-extracts the tasks of one file and re-lists documents.
// The result is dropped when a full refresh or a newer change to the same
// file started in the meantime.
func (s *Session) applyChange(ctx context.Context, p string) {
	s.mu.Lock()
	gen := s.gen
	s.fileGen[p]++
	fg := s.fileGen[p]
	src := s.sourceLocked()
	s.mu.Unlock()

	var recs []models.TaskRecord
	if doc, ok := s.svc.vault.Document(p); ok && src.coversTask(p) && tasks.HasTasks(doc) {
		content, err := s.svc.vault.CachedRead(ctx, p)
		if err != nil {
			s.svc.logger.Warn("dashboard: read failed",
				slog.String("path", p),
				slog.String("error", err.Error()))
		} else {
			recs = tasks.ExtractSections(doc, tasks.SplitLines(content), src.sections)
		}
	}
	docs := s.listNotes(src)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || fg != s.fileGen[p] {
		return
	}
	s.docs = docs
	s.tasks = replaceTasks(s.tasks, p, recs)
	s.recomputeLocked()
}

// purge drops every document and task record of p at once.
func (s *Session) purge(p string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fileGen[p]++
	s.docs = slices.DeleteFunc(slices.Clone(s.docs), func(d *models.Document) bool { return d.Path == p })
	s.tasks = slices.DeleteFunc(slices.Clone(s.tasks), func(t models.TaskRecord) bool { return t.Path() == p })
	s.recomputeLocked()
}

// replaceTasks swaps the records of p for recs, keeping records grouped by
// path in path order.
func replaceTasks(all []models.TaskRecord, p string, recs []models.TaskRecord) []models.TaskRecord {
	out := make([]models.TaskRecord, 0, len(all)+len(recs))
	inserted := false
	for _, t := range all {
		if t.Path() == p {
			continue
		}
		if !inserted && t.Path() > p {
			out = append(out, recs...)
			inserted = true
		}
		out = append(out, t)
	}
	if !inserted {
		out = append(out, recs...)
	}
	return out
}
