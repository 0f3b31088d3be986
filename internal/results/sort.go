// Package results orders, buckets and pages filtered records.
package results

import (
	"cmp"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/starford/iotodash/internal/models"
)

// Item is a record whose sort and group keys come from its owning document.
type Item interface {
	Doc() *models.Document
	Tag() models.Category
}

// SortKey selects the comparison key.
type SortKey string

const (
	SortName     SortKey = "name"
	SortCreated  SortKey = "created"
	SortModified SortKey = "modified"
	SortSize     SortKey = "size"
)

// SortOrder selects the direction.
type SortOrder string

const (
	Ascending  SortOrder = "asc"
	Descending SortOrder = "desc"
)

// Collator returns a locale-aware string comparator for lang. Unknown tags
// fall back to the root collation.
func Collator(lang string) *collate.Collator {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.Und
	}
	return collate.New(tag)
}

// Sort orders items in place by key and order. The sort is stable: items
// with equal keys keep their input order in both directions.
func Sort[T Item](items []T, key SortKey, order SortOrder, col *collate.Collator) {
	sign := 1
	if order == Descending {
		sign = -1
	}
	slices.SortStableFunc(items, func(a, b T) int {
		return sign * compare(a.Doc(), b.Doc(), key, col)
	})
}

func compare(a, b *models.Document, key SortKey, col *collate.Collator) int {
	switch key {
	case SortCreated:
		return a.Created.Compare(b.Created)
	case SortModified:
		return a.Modified.Compare(b.Modified)
	case SortSize:
		return cmp.Compare(a.Size, b.Size)
	case SortName:
		return compareNames(a.Basename, b.Basename, col)
	default:
		return compareNames(a.Basename, b.Basename, col)
	}
}

func compareNames(a, b string, col *collate.Collator) int {
	if col == nil {
		return cmp.Compare(a, b)
	}
	return col.CompareString(a, b)
}
