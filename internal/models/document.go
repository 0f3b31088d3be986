// Package models defines the domain types shared by the dashboard engines.
package models

import "time"

// Document is a Markdown file in the vault as seen through the metadata
// index. Documents are replaced, never mutated, when the file changes.
type Document struct {
	Path        string         `json:"path"`
	Basename    string         `json:"basename"`
	Category    Category       `json:"category,omitempty"`
	Created     time.Time      `json:"created"`
	Modified    time.Time      `json:"modified"`
	Size        int64          `json:"size"`
	Checksum    string         `json:"checksum"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
	Structure   *Structure     `json:"-"`
}

// Structure is the structural cache of a document: its headings and list
// items with 0-indexed line numbers counted from the start of the file.
type Structure struct {
	Headings  []Heading
	ListItems []ListItem
}

// Heading is a Markdown heading.
type Heading struct {
	Text  string
	Level int
	Line  int
}

// ListItem is a Markdown list item. Task holds the single checkbox state
// character for task items and is empty for plain items.
type ListItem struct {
	Line int
	Task string
}

// IsTask reports whether the item carries a checkbox.
func (li ListItem) IsTask() bool {
	return li.Task != ""
}

// Field returns the frontmatter value stored under key.
func (d *Document) Field(key string) (any, bool) {
	if d == nil || d.Frontmatter == nil {
		return nil, false
	}
	v, ok := d.Frontmatter[key]
	return v, ok
}

// WithCategory returns a shallow copy of d tagged with c.
func (d *Document) WithCategory(c Category) *Document {
	cp := *d
	cp.Category = c
	return &cp
}

// Doc returns d itself, so documents and tasks share accessors.
func (d *Document) Doc() *Document { return d }

// Tag returns the category d was listed under.
func (d *Document) Tag() Category { return d.Category }
