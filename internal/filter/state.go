// Package filter evaluates the dashboard filter state against documents and
// task records.
package filter

import "maps"

// DatePreset selects a relative or custom date window.
type DatePreset string

const (
	DateAll        DatePreset = "all"
	DateLast1Day   DatePreset = "last1day"
	DateLast3Days  DatePreset = "last3days"
	DateLast7Days  DatePreset = "last7days"
	DateLast14Days DatePreset = "last14days"
	DateLast30Days DatePreset = "last30days"
	DateCustom     DatePreset = "custom"
)

// Days returns the window length of a relative preset.
func (p DatePreset) Days() (int, bool) {
	switch p {
	case DateLast1Day:
		return 1, true
	case DateLast3Days:
		return 3, true
	case DateLast7Days:
		return 7, true
	case DateLast14Days:
		return 14, true
	case DateLast30Days:
		return 30, true
	case DateAll, DateCustom:
		return 0, false
	default:
		return 0, false
	}
}

// DateType selects which document timestamp date filters compare.
type DateType string

const (
	DateCreated  DateType = "created"
	DateModified DateType = "modified"
)

// TaskStatus filters task records by completion.
type TaskStatus string

const (
	StatusAll        TaskStatus = "all"
	StatusCompleted  TaskStatus = "completed"
	StatusIncomplete TaskStatus = "incomplete"
)

// Known reports whether st is one of the defined statuses.
func (st TaskStatus) Known() bool {
	switch st {
	case StatusAll, StatusCompleted, StatusIncomplete:
		return true
	default:
		return false
	}
}

// State is the complete filter state of a view. It is a value type: copies
// share only the Custom map, which Clone duplicates.
type State struct {
	Name       string            `json:"name" yaml:"name"`
	Project    string            `json:"project" yaml:"project"`
	DateRange  DatePreset        `json:"datePreset" yaml:"date_preset"`
	DateType   DateType          `json:"dateType" yaml:"date_type"`
	DateStart  string            `json:"dateStart" yaml:"date_start"`
	DateEnd    string            `json:"dateEnd" yaml:"date_end"`
	TaskStatus TaskStatus        `json:"status" yaml:"status"`
	FileStatus string            `json:"fileStatus" yaml:"file_status"`
	TaskTypes  CategorySet       `json:"taskType" yaml:"task_type"`
	NoteTypes  CategorySet       `json:"noteType" yaml:"note_type"`
	Custom     map[string]string `json:"custom" yaml:"custom"`
}

// Default returns a State with every field defined and nothing filtered.
func Default() State {
	return State{
		DateRange:  DateAll,
		DateType:   DateCreated,
		TaskStatus: StatusAll,
		Custom:     map[string]string{},
	}
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	cp := s
	cp.Custom = maps.Clone(s.Custom)
	if cp.Custom == nil {
		cp.Custom = map[string]string{}
	}
	return cp
}

// WithDefaults returns a copy of s in which fields absent from an older
// snapshot take their default values. An unknown status means all.
func (s State) WithDefaults() State {
	d := Default()
	out := s.Clone()
	if out.DateRange == "" {
		out.DateRange = d.DateRange
	}
	if out.DateType == "" {
		out.DateType = d.DateType
	}
	if !out.TaskStatus.Known() {
		out.TaskStatus = d.TaskStatus
	}
	return out
}

// Equal reports whether two states filter identically.
func (s State) Equal(o State) bool {
	return s.Name == o.Name &&
		s.Project == o.Project &&
		s.DateRange == o.DateRange &&
		s.DateType == o.DateType &&
		s.DateStart == o.DateStart &&
		s.DateEnd == o.DateEnd &&
		s.TaskStatus == o.TaskStatus &&
		s.FileStatus == o.FileStatus &&
		s.TaskTypes == o.TaskTypes &&
		s.NoteTypes == o.NoteTypes &&
		maps.Equal(s.Custom, o.Custom)
}

// TypesFor returns the category set that applies to records of kind.
func (s State) TypesFor(kind Kind) CategorySet {
	switch kind {
	case KindNotes:
		return s.NoteTypes
	case KindTasks:
		return s.TaskTypes
	default:
		return 0
	}
}

// Kind distinguishes the two record collections.
type Kind uint8

const (
	KindNotes Kind = iota + 1
	KindTasks
)

// Applies reports whether a custom filter target covers kind.
func (t Target) Applies(kind Kind) bool {
	switch t {
	case TargetAll, "":
		return true
	case TargetNote:
		return kind == KindNotes
	case TargetTask:
		return kind == KindTasks
	default:
		return false
	}
}
