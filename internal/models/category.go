package models

import (
	"fmt"
	"strings"
)

// Category is the closed set of navigation categories. Documents and task
// records only ever carry Input, Output, Outcome or None; Notes and Tasks
// name the aggregate views and are stamped onto saved queries.
type Category uint8

const (
	CategoryNone Category = iota
	CategoryInput
	CategoryOutput
	CategoryOutcome
	CategoryNotes
	CategoryTasks
)

// Sections lists the categories that map to a vault section, in display order.
var Sections = []Category{CategoryInput, CategoryOutput, CategoryOutcome}

// String returns the canonical name of c.
func (c Category) String() string {
	switch c {
	case CategoryNone:
		return ""
	case CategoryInput:
		return "Input"
	case CategoryOutput:
		return "Output"
	case CategoryOutcome:
		return "Outcome"
	case CategoryNotes:
		return "Notes"
	case CategoryTasks:
		return "Tasks"
	default:
		return fmt.Sprintf("Category(%d)", uint8(c))
	}
}

// IsSection reports whether c is one of Input, Output or Outcome.
func (c Category) IsSection() bool {
	switch c {
	case CategoryInput, CategoryOutput, CategoryOutcome:
		return true
	case CategoryNone, CategoryNotes, CategoryTasks:
		return false
	default:
		return false
	}
}

// ParseCategory parses a category name case-insensitively. The empty string
// parses to CategoryNone.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return CategoryNone, nil
	case "input":
		return CategoryInput, nil
	case "output":
		return CategoryOutput, nil
	case "outcome":
		return CategoryOutcome, nil
	case "notes":
		return CategoryNotes, nil
	case "tasks":
		return CategoryTasks, nil
	}
	return CategoryNone, fmt.Errorf("models: unknown category %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(b []byte) error {
	parsed, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
