package models

// TaskRecord is a checklist line extracted from a document section.
type TaskRecord struct {
	Document *Document
	Content  string
	Status   string
	Line     int
	Category Category
}

// Done reports whether the checkbox is ticked (any non-space state).
func (t TaskRecord) Done() bool {
	return t.Status != " "
}

// Doc returns the owning document.
func (t TaskRecord) Doc() *Document { return t.Document }

// Tag returns the section the record was extracted from.
func (t TaskRecord) Tag() Category { return t.Category }

// Path returns the owning document path.
func (t TaskRecord) Path() string {
	if t.Document == nil {
		return ""
	}
	return t.Document.Path
}
