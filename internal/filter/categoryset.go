package filter

import (
	"encoding/json"

	"gopkg.in/yaml.v3"

	"github.com/starford/iotodash/internal/models"
)

// CategorySet is a set of section categories. The zero value means every
// category is selected.
type CategorySet uint8

const fullSet = CategorySet(1<<0 | 1<<1 | 1<<2)

func bit(c models.Category) CategorySet {
	switch c {
	case models.CategoryInput:
		return 1 << 0
	case models.CategoryOutput:
		return 1 << 1
	case models.CategoryOutcome:
		return 1 << 2
	case models.CategoryNone, models.CategoryNotes, models.CategoryTasks:
		return 0
	default:
		return 0
	}
}

// NewCategorySet builds a set from section categories. Other categories
// are ignored.
func NewCategorySet(cs ...models.Category) CategorySet {
	var s CategorySet
	for _, c := range cs {
		s |= bit(c)
	}
	return s.normalize()
}

func (s CategorySet) normalize() CategorySet {
	if s&fullSet == fullSet {
		return 0
	}
	return s & fullSet
}

// All reports whether every category is selected.
func (s CategorySet) All() bool {
	return s.normalize() == 0
}

// Has reports whether c is selected.
func (s CategorySet) Has(c models.Category) bool {
	b := bit(c)
	return b != 0 && (s.All() || s&b != 0)
}

// Allows reports whether a record tagged c passes the set. Untagged records
// always pass.
func (s CategorySet) Allows(c models.Category) bool {
	if c == models.CategoryNone || s.All() {
		return true
	}
	return s.Has(c)
}

// Members returns the selected categories in display order.
func (s CategorySet) Members() []models.Category {
	out := make([]models.Category, 0, len(models.Sections))
	for _, c := range models.Sections {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// Toggle adds or removes c. Removing the last selected category is refused
// and reported as unchanged.
func (s CategorySet) Toggle(c models.Category) (CategorySet, bool) {
	b := bit(c)
	if b == 0 {
		return s, false
	}
	cur := s.normalize()
	if cur == 0 {
		cur = fullSet
	}
	if cur&b == 0 {
		return (cur | b).normalize(), true
	}
	if cur == b {
		return s, false
	}
	return (cur &^ b).normalize(), true
}

// MarshalJSON encodes the set as the list of selected category names.
func (s CategorySet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Members())
}

// UnmarshalJSON decodes a list of category names.
func (s *CategorySet) UnmarshalJSON(b []byte) error {
	var cs []models.Category
	if err := json.Unmarshal(b, &cs); err != nil {
		return err
	}
	*s = NewCategorySet(cs...)
	return nil
}

// MarshalYAML encodes the set as the list of selected category names.
func (s CategorySet) MarshalYAML() (any, error) {
	names := make([]string, 0, 3)
	for _, c := range s.Members() {
		names = append(names, c.String())
	}
	return names, nil
}

// UnmarshalYAML decodes a list of category names.
func (s *CategorySet) UnmarshalYAML(value *yaml.Node) error {
	var cs []models.Category
	if err := value.Decode(&cs); err != nil {
		return err
	}
	*s = NewCategorySet(cs...)
	return nil
}
