package api

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/cast"

	"github.com/starford/iotodash/internal/dashboard"
	"github.com/starford/iotodash/internal/filter"
	"github.com/starford/iotodash/internal/models"
	"github.com/starford/iotodash/internal/queries"
	"github.com/starford/iotodash/internal/results"
)

// NoteItem is a document in a view response.
type NoteItem struct {
	Path        string          `json:"path" example:"1-input/reading.md" validate:"required"`
	Name        string          `json:"name" example:"reading" validate:"required"`
	Category    models.Category `json:"category,omitempty" example:"Input"`
	Project     string          `json:"project,omitempty" example:"Alpha"`
	Status      string          `json:"status,omitempty" example:"draft"`
	Created     time.Time       `json:"created"`
	Modified    time.Time       `json:"modified"`
	Size        int64           `json:"size" example:"512"`
	Frontmatter map[string]any  `json:"frontmatter,omitempty"`
}

// TaskItem is a task record in a view response.
type TaskItem struct {
	Path     string          `json:"path" example:"3-tasks/week.md" validate:"required"`
	Name     string          `json:"name" example:"week"`
	Line     int             `json:"line" example:"7"`
	Content  string          `json:"content" example:"read book" validate:"required"`
	Status   string          `json:"status" example:" "`
	Done     bool            `json:"done"`
	Category models.Category `json:"category,omitempty" example:"Input"`
	Project  string          `json:"project,omitempty" example:"Alpha"`
}

// GroupItem is one labeled bucket of the current page.
type GroupItem struct {
	Label string     `json:"label"`
	Notes []NoteItem `json:"notes,omitempty"`
	Tasks []TaskItem `json:"tasks,omitempty"`
}

// ViewResponse is the derived state of a view.
type ViewResponse struct {
	View        string           `json:"view" example:"dashboard"`
	Showing     string           `json:"showing" example:"notes"`
	ActiveQuery string           `json:"activeQuery,omitempty"`
	State       queries.Snapshot `json:"state"`
	Pagination  results.Page     `json:"pagination"`
	Groups      []GroupItem      `json:"groups"`
}

// QueryListResponse wraps the saved queries of a view.
type QueryListResponse struct {
	Queries []queries.SavedQuery `json:"queries"`
}

// SortRequest sets the sort key and direction.
type SortRequest struct {
	Sort  results.SortKey   `json:"sortOption" example:"modified"`
	Order results.SortOrder `json:"sortOrder" example:"desc"`
}

// Validate validates the request.
func (r SortRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Sort, validation.Required,
			validation.In(results.SortName, results.SortCreated, results.SortModified, results.SortSize)),
		validation.Field(&r.Order, validation.Required,
			validation.In(results.Ascending, results.Descending)),
	)
}

// GroupRequest sets the group option.
type GroupRequest struct {
	Group results.GroupOption `json:"groupOption" example:"project"`
}

// Validate validates the request.
func (r GroupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Group, validation.Required,
			validation.In(results.GroupNone, results.GroupProject, results.GroupCreated, results.GroupModified, results.GroupType)),
	)
}

// CategoryRequest selects the active category.
type CategoryRequest struct {
	Category models.Category `json:"category" example:"Output"`
}

// Validate validates the request.
func (r CategoryRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Category, validation.Required,
			validation.In(models.CategoryInput, models.CategoryOutput, models.CategoryOutcome)),
	)
}

// TabRequest selects the shown collection.
type TabRequest struct {
	Tab string `json:"tab" example:"tasks"`
}

// Validate validates the request.
func (r TabRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Tab, validation.Required,
			validation.In(string(dashboard.TabNotes), string(dashboard.TabTasks))),
	)
}

// PageRequest moves to a page; out-of-range pages are clamped.
type PageRequest struct {
	Page int `json:"page" example:"2"`
}

// FiltersRequest replaces the filter state.
type FiltersRequest filter.State

// Validate validates the request.
func (r FiltersRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.DateRange, validation.In(
			filter.DateAll, filter.DateLast1Day, filter.DateLast3Days, filter.DateLast7Days,
			filter.DateLast14Days, filter.DateLast30Days, filter.DateCustom)),
		validation.Field(&r.DateType, validation.In(filter.DateCreated, filter.DateModified)),
		validation.Field(&r.DateStart, validation.Date(time.DateOnly)),
		validation.Field(&r.DateEnd, validation.Date(time.DateOnly)),
		validation.Field(&r.TaskStatus, validation.In(filter.StatusAll, filter.StatusCompleted, filter.StatusIncomplete)),
	)
}

// SaveQueryRequest names a new saved query.
type SaveQueryRequest struct {
	Name string `json:"name" example:"This week"`
}

// Validate validates the request.
func (r SaveQueryRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
	)
}

// TaskRequest addresses a task line.
type TaskRequest struct {
	Path string `json:"path" example:"3-tasks/week.md"`
	Line *int   `json:"line" example:"7"`
}

// Validate validates the request.
func (r TaskRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Path, validation.Required),
		validation.Field(&r.Line, validation.NotNil, validation.Min(0)),
	)
}

// TaskToggleResponse reports the outcome of a toggle.
type TaskToggleResponse struct {
	Changed bool      `json:"changed"`
	Task    *TaskItem `json:"task,omitempty"`
}

// CustomFiltersBody carries the custom filter schema.
type CustomFiltersBody struct {
	CustomFilters []filter.CustomFilter `json:"customFilters"`
}

// PageSizeBody carries the page size.
type PageSizeBody struct {
	PageSize *int `json:"pageSize" example:"50"`
}

// Validate validates the request.
func (r PageSizeBody) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.PageSize, validation.NotNil),
	)
}

func toNoteItem(d *models.Document) NoteItem {
	return NoteItem{
		Path:        d.Path,
		Name:        d.Basename,
		Category:    d.Category,
		Project:     fieldString(d, filter.ProjectField),
		Status:      fieldString(d, filter.StatusField),
		Created:     d.Created,
		Modified:    d.Modified,
		Size:        d.Size,
		Frontmatter: d.Frontmatter,
	}
}

func toTaskItem(t models.TaskRecord) TaskItem {
	item := TaskItem{
		Path:     t.Path(),
		Line:     t.Line,
		Content:  t.Content,
		Status:   t.Status,
		Done:     t.Done(),
		Category: t.Category,
	}
	if t.Document != nil {
		item.Name = t.Document.Basename
		item.Project = fieldString(t.Document, filter.ProjectField)
	}
	return item
}

func fieldString(d *models.Document, key string) string {
	v, ok := d.Field(key)
	if !ok {
		return ""
	}
	return cast.ToString(v)
}

func toViewResponse(res dashboard.Result) ViewResponse {
	out := ViewResponse{
		View:        res.View.String(),
		Showing:     string(res.Showing),
		ActiveQuery: res.ActiveQuery,
		State:       res.Snapshot,
		Pagination:  res.Page,
		Groups:      []GroupItem{},
	}
	for _, g := range res.Notes {
		gi := GroupItem{Label: g.Label, Notes: make([]NoteItem, 0, len(g.Items))}
		for _, d := range g.Items {
			gi.Notes = append(gi.Notes, toNoteItem(d))
		}
		out.Groups = append(out.Groups, gi)
	}
	for _, g := range res.Tasks {
		gi := GroupItem{Label: g.Label, Tasks: make([]TaskItem, 0, len(g.Items))}
		for _, t := range g.Items {
			gi.Tasks = append(gi.Tasks, toTaskItem(t))
		}
		out.Groups = append(out.Groups, gi)
	}
	return out
}
