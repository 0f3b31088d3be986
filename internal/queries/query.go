// Package queries persists named snapshots of view state and tracks which
// snapshot each view has loaded.
package queries

import (
	"github.com/starford/iotodash/internal/filter"
	"github.com/starford/iotodash/internal/models"
	"github.com/starford/iotodash/internal/results"
)

// Snapshot is the restorable part of a view's state.
type Snapshot struct {
	Category models.Category     `json:"category" yaml:"category"`
	Tab      string              `json:"tab" yaml:"tab"`
	Sort     results.SortKey     `json:"sortOption" yaml:"sort_option"`
	Order    results.SortOrder   `json:"sortOrder" yaml:"sort_order"`
	Group    results.GroupOption `json:"groupOption" yaml:"group_option"`
	Filters  filter.State        `json:"filters" yaml:"filters"`
}

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	cp := s
	cp.Filters = s.Filters.Clone()
	return cp
}

// SavedQuery is a persisted, named snapshot owned by one view.
type SavedQuery struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	View     string `json:"type" yaml:"view"`
	Snapshot `yaml:",inline"`
}

// Clone returns a deep copy of q.
func (q SavedQuery) Clone() SavedQuery {
	cp := q
	cp.Snapshot = q.Snapshot.Clone()
	return cp
}
