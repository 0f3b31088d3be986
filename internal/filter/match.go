package filter

import (
	"strings"
	"time"

	"github.com/starford/iotodash/internal/models"
)

// Frontmatter keys read by the built-in filters.
const (
	ProjectField = "Project"
	StatusField  = "Status"
)

// Matcher evaluates a State against records. It is pure given Now and the
// custom filter schema; Now's location defines day boundaries.
type Matcher struct {
	Now           time.Time
	CustomFilters []CustomFilter
}

// MatchDocument reports whether doc passes s as a note record.
func (m Matcher) MatchDocument(s State, doc *models.Document) bool {
	if doc == nil {
		return false
	}
	if s.FileStatus != "" {
		v, ok := doc.Field(StatusField)
		if !ok || v == nil || !containsFold(stringify(v), s.FileStatus) {
			return false
		}
	}
	return m.match(s, KindNotes, doc.Basename, doc, doc.Category)
}

// MatchTask reports whether task passes s as a task record.
func (m Matcher) MatchTask(s State, task models.TaskRecord) bool {
	if task.Document == nil {
		return false
	}
	switch s.TaskStatus {
	case StatusCompleted:
		if !task.Done() {
			return false
		}
	case StatusIncomplete:
		if task.Done() {
			return false
		}
	case StatusAll, "":
	}
	return m.match(s, KindTasks, task.Content, task.Document, task.Category)
}

// Documents returns the documents passing s, preserving order.
func (m Matcher) Documents(s State, docs []*models.Document) []*models.Document {
	out := make([]*models.Document, 0, len(docs))
	for _, d := range docs {
		if m.MatchDocument(s, d) {
			out = append(out, d)
		}
	}
	return out
}

// Tasks returns the task records passing s, preserving order.
func (m Matcher) Tasks(s State, recs []models.TaskRecord) []models.TaskRecord {
	out := make([]models.TaskRecord, 0, len(recs))
	for _, r := range recs {
		if m.MatchTask(s, r) {
			out = append(out, r)
		}
	}
	return out
}

func (m Matcher) match(s State, kind Kind, subject string, doc *models.Document, tag models.Category) bool {
	if s.Name != "" && !containsFold(subject, s.Name) {
		return false
	}

	if s.Project != "" {
		v, ok := doc.Field(ProjectField)
		if !ok || v == nil || !containsFold(stringify(v), s.Project) {
			return false
		}
	}

	if !m.matchDate(s, doc) {
		return false
	}

	if !s.TypesFor(kind).Allows(tag) {
		return false
	}

	for _, cf := range m.CustomFilters {
		if !cf.Target.Applies(kind) {
			continue
		}
		want := s.Custom[cf.Name]
		if inactive(want) {
			continue
		}
		v, ok := doc.Field(cf.Name)
		if !matchCustom(cf.Type, v, ok, want) {
			return false
		}
	}
	return true
}

func (m Matcher) matchDate(s State, doc *models.Document) bool {
	ts := doc.Created
	if s.DateType == DateModified {
		ts = doc.Modified
	}

	if days, ok := s.DateRange.Days(); ok {
		return !ts.Before(m.midnight().AddDate(0, 0, -days))
	}

	if s.DateRange != DateCustom {
		return true
	}
	loc := m.Now.Location()
	if start, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(s.DateStart), loc); err == nil {
		if ts.Before(start) {
			return false
		}
	}
	if end, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(s.DateEnd), loc); err == nil {
		if ts.After(end.AddDate(0, 0, 1).Add(-time.Millisecond)) {
			return false
		}
	}
	return true
}

func (m Matcher) midnight() time.Time {
	y, mo, d := m.Now.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, m.Now.Location())
}
