package filter

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/cast"
)

// FieldType is the declared type of a custom frontmatter filter.
type FieldType string

const (
	FieldText    FieldType = "text"
	FieldNumber  FieldType = "number"
	FieldBoolean FieldType = "boolean"
	FieldDate    FieldType = "date"
	FieldList    FieldType = "list"
)

// Target limits a custom filter to one record collection.
type Target string

const (
	TargetAll  Target = "all"
	TargetNote Target = "note"
	TargetTask Target = "task"
)

// CustomFilter declares a frontmatter field that can be filtered on.
// Name is both the field key and the key in State.Custom.
type CustomFilter struct {
	Name    string    `json:"name" yaml:"name"`
	Type    FieldType `json:"type" yaml:"type"`
	Target  Target    `json:"target" yaml:"target"`
	Options []string  `json:"options,omitempty" yaml:"options,omitempty"`
}

// Validate validates the filter declaration.
func (f CustomFilter) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Name, validation.Required),
		validation.Field(&f.Type, validation.Required,
			validation.In(FieldText, FieldNumber, FieldBoolean, FieldDate, FieldList)),
		validation.Field(&f.Target, validation.In(TargetAll, TargetNote, TargetTask)),
	)
}

// inactive reports whether a filter value imposes no constraint.
func inactive(v string) bool {
	return v == "" || v == "all"
}

// matchCustom compares a frontmatter value against a filter value according
// to the declared field type.
func matchCustom(typ FieldType, fieldValue any, present bool, want string) bool {
	switch typ {
	case FieldNumber:
		if !present || fieldValue == nil {
			return false
		}
		got, err := cast.ToFloat64E(fieldValue)
		if err != nil {
			return false
		}
		w, err := cast.ToFloat64E(strings.TrimSpace(want))
		if err != nil {
			return false
		}
		return got == w
	case FieldBoolean:
		return (present && truthy(fieldValue)) == (want == "true")
	case FieldDate:
		if !present || fieldValue == nil {
			return false
		}
		return stringify(fieldValue) == want
	case FieldText, FieldList:
		if !present || fieldValue == nil {
			return false
		}
		return containsFold(stringify(fieldValue), want)
	default:
		if !present || fieldValue == nil {
			return false
		}
		return containsFold(stringify(fieldValue), want)
	}
}

// truthy accepts only the boolean true and the strings "true" and "True".
func truthy(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		return x == "true" || x == "True"
	default:
		return false
	}
}

// stringify renders a frontmatter value as text. Lists are joined with ", ".
func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []any:
		parts := make([]string, 0, len(x))
		for _, item := range x {
			parts = append(parts, stringify(item))
		}
		return strings.Join(parts, ", ")
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format(time.DateOnly)
		}
		return x.Format(time.RFC3339)
	default:
		return cast.ToString(x)
	}
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
