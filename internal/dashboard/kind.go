// Package dashboard owns the per-view presentation state: it loads documents
// and task records from the vault, runs them through the filter, sort, group
// and pagination engines, and keeps the result current as files change.
package dashboard

import (
	"fmt"
	"strings"

	"github.com/starford/iotodash/internal/apperr"
	"github.com/starford/iotodash/internal/filter"
	"github.com/starford/iotodash/internal/models"
	"github.com/starford/iotodash/internal/queries"
	"github.com/starford/iotodash/internal/results"
)

// Kind identifies a query-consuming view.
type Kind uint8

const (
	KindDashboard Kind = iota + 1
	KindNotes
	KindTasks
)

// Kinds lists every view.
var Kinds = []Kind{KindDashboard, KindNotes, KindTasks}

func (k Kind) String() string {
	switch k {
	case KindDashboard:
		return "dashboard"
	case KindNotes:
		return "notes"
	case KindTasks:
		return "tasks"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// ParseKind parses a view name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if strings.EqualFold(s, k.String()) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("dashboard: unknown view %q: %w", s, apperr.ErrInvalidInput)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Tab selects which collection a view shows.
type Tab string

const (
	TabNotes Tab = "notes"
	TabTasks Tab = "tasks"
)

// ParseTab parses a tab name.
func ParseTab(s string) (Tab, error) {
	switch Tab(strings.ToLower(s)) {
	case TabNotes:
		return TabNotes, nil
	case TabTasks:
		return TabTasks, nil
	default:
		return "", fmt.Errorf("dashboard: unknown tab %q: %w", s, apperr.ErrInvalidInput)
	}
}

func (t Tab) filterKind() filter.Kind {
	if t == TabTasks {
		return filter.KindTasks
	}
	return filter.KindNotes
}

// Policy holds the behavior that differs between views.
type Policy struct {
	Queries queries.ViewOptions
	// ResetOnDelete restores default filters when the active query is deleted.
	ResetOnDelete bool
	// ClearOnReset drops the active query when filters are reset.
	ClearOnReset bool
	// Switchable views may change category and tab.
	Switchable bool
	Initial    queries.Snapshot
}

// PolicyFor returns the policy of k.
func PolicyFor(k Kind) Policy {
	base := queries.Snapshot{
		Sort:    results.SortModified,
		Order:   results.Descending,
		Group:   results.GroupNone,
		Filters: filter.Default(),
	}
	switch k {
	case KindDashboard:
		base.Category = models.CategoryInput
		base.Tab = string(TabNotes)
		return Policy{
			Queries:      queries.ViewOptions{RestampOnUpdate: true},
			ClearOnReset: true,
			Switchable:   true,
			Initial:      base,
		}
	case KindNotes:
		base.Category = models.CategoryNotes
		base.Tab = string(TabNotes)
		base.Group = results.GroupType
		return Policy{
			Queries:       queries.ViewOptions{UniqueNames: true},
			ResetOnDelete: true,
			Initial:       base,
		}
	case KindTasks:
		base.Category = models.CategoryTasks
		base.Tab = string(TabTasks)
		return Policy{
			Queries: queries.ViewOptions{UniqueNames: true},
			Initial: base,
		}
	default:
		return Policy{Initial: base}
	}
}
