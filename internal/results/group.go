package results

import (
	"slices"
	"strings"
	"time"

	"github.com/spf13/cast"
	"golang.org/x/text/collate"

	"github.com/starford/iotodash/internal/models"
)

// GroupOption selects how records are bucketed.
type GroupOption string

const (
	GroupNone     GroupOption = "none"
	GroupProject  GroupOption = "project"
	GroupCreated  GroupOption = "created"
	GroupModified GroupOption = "modified"
	GroupType     GroupOption = "type"
)

// Group is one labelled bucket of records.
type Group[T any] struct {
	Label string
	Items []T
}

// GroupBy buckets items by opt. Items keep their relative order inside a
// bucket. Date buckets are ordered newest first, project buckets
// alphabetically, type buckets in section order. noGroup labels records
// without a project or section.
func GroupBy[T Item](items []T, opt GroupOption, noGroup string, col *collate.Collator) []Group[T] {
	if len(items) == 0 {
		return nil
	}
	switch opt {
	case GroupProject:
		groups := bucket(items, func(it T) string { return projectOf(it.Doc(), noGroup) })
		slices.SortStableFunc(groups, func(a, b Group[T]) int {
			return compareNames(a.Label, b.Label, col)
		})
		return groups
	case GroupCreated, GroupModified:
		groups := bucket(items, func(it T) string {
			ts := it.Doc().Created
			if opt == GroupModified {
				ts = it.Doc().Modified
			}
			return ts.Format(time.DateOnly)
		})
		slices.SortStableFunc(groups, func(a, b Group[T]) int {
			return strings.Compare(b.Label, a.Label)
		})
		return groups
	case GroupType:
		groups := bucket(items, func(it T) string {
			if it.Tag().IsSection() {
				return it.Tag().String()
			}
			return noGroup
		})
		slices.SortStableFunc(groups, func(a, b Group[T]) int {
			return typeRank(a.Label) - typeRank(b.Label)
		})
		return groups
	case GroupNone, "":
		return []Group[T]{{Label: "", Items: items}}
	default:
		return []Group[T]{{Label: "", Items: items}}
	}
}

func bucket[T any](items []T, keyOf func(T) string) []Group[T] {
	index := make(map[string]int)
	var groups []Group[T]
	for _, it := range items {
		k := keyOf(it)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group[T]{Label: k})
		}
		groups[i].Items = append(groups[i].Items, it)
	}
	return groups
}

func projectOf(doc *models.Document, noGroup string) string {
	v, ok := doc.Field("Project")
	if !ok || v == nil {
		return noGroup
	}
	s := strings.TrimSpace(cast.ToString(v))
	if s == "" {
		return noGroup
	}
	return s
}

func typeRank(label string) int {
	for i, c := range models.Sections {
		if c.String() == label {
			return i
		}
	}
	return len(models.Sections)
}
