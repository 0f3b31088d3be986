// Package tasks extracts checklist items from document sections and writes
// checkbox changes back to the owning documents.
package tasks

import (
	"math"
	"regexp"
	"strings"

	"github.com/starford/iotodash/internal/models"
)

var prefixRe = regexp.MustCompile(`^\s*(?:[-*+]|\d+[.)])\s*\[.\]\s*`)

// Section names a heading whose task items are extracted and the category
// the resulting records are tagged with.
type Section struct {
	Category models.Category
	Heading  string
}

// SplitLines splits content into lines, dropping carriage returns.
func SplitLines(content string) []string {
	lines := strings.Split(content, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// Extract returns the task items under the first heading whose text equals
// heading. Records carry CategoryNone.
func Extract(doc *models.Document, lines []string, heading string) []models.TaskRecord {
	return ExtractSections(doc, lines, []Section{{Category: models.CategoryNone, Heading: heading}})
}

// ExtractSections returns the task items under each section heading in a
// single pass over lines, tagging each record with its section's category.
// Records are emitted in section order, then list order. A document with no
// structure, no headings, or no matching heading yields no records.
func ExtractSections(doc *models.Document, lines []string, sections []Section) []models.TaskRecord {
	if doc == nil || doc.Structure == nil || len(doc.Structure.Headings) == 0 {
		return nil
	}
	st := doc.Structure

	var out []models.TaskRecord
	for _, sec := range sections {
		start, end, ok := sectionRange(st.Headings, sec.Heading)
		if !ok {
			continue
		}
		for _, item := range st.ListItems {
			if !item.IsTask() || item.Line <= start || item.Line >= end {
				continue
			}
			if item.Line >= len(lines) {
				continue
			}
			content := prefixRe.ReplaceAllString(lines[item.Line], "")
			if strings.TrimSpace(content) == "" {
				continue
			}
			out = append(out, models.TaskRecord{
				Document: doc,
				Content:  content,
				Status:   item.Task,
				Line:     item.Line,
				Category: sec.Category,
			})
		}
	}
	return out
}

// sectionRange returns the exclusive line bounds of the section opened by
// the first heading named text. The section ends at the next heading of the
// same or higher rank.
func sectionRange(headings []models.Heading, text string) (start, end int, ok bool) {
	idx := -1
	for i, h := range headings {
		if h.Text == text {
			idx = i
			break
		}
	}
	if idx < 0 {
		return 0, 0, false
	}

	matched := headings[idx]
	end = math.MaxInt
	for _, h := range headings[idx+1:] {
		if h.Level <= matched.Level {
			end = h.Line
			break
		}
	}
	return matched.Line, end, true
}

// HasTasks reports whether doc's structure contains any task list item.
func HasTasks(doc *models.Document) bool {
	if doc == nil || doc.Structure == nil || len(doc.Structure.Headings) == 0 {
		return false
	}
	for _, li := range doc.Structure.ListItems {
		if li.IsTask() {
			return true
		}
	}
	return false
}
