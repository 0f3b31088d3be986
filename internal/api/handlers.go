package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/iotodash/internal/apperr"
	"github.com/starford/iotodash/internal/dashboard"
	"github.com/starford/iotodash/internal/filter"
	"github.com/starford/iotodash/internal/models"
)

// Handler holds API route handlers.
type Handler struct {
	svc *dashboard.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *dashboard.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	writeError(w, h.svc.Language(), op, err)
}

// session resolves the {view} URL parameter. It writes the error response
// itself when the view is unknown.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*dashboard.Session, bool) {
	k, err := dashboard.ParseKind(chi.URLParam(r, "view"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("unknown view"))
		return nil, false
	}
	s, err := h.svc.Session(k)
	if err != nil {
		h.fail(w, "session", err)
		return nil, false
	}
	return s, true
}

func writeView(w http.ResponseWriter, res dashboard.Result) {
	writeJSON(w, http.StatusOK, toViewResponse(res))
}

// GetView handles GET /api/views/{view}.
//
//	@Summary		Current result of a view
//	@Tags			views
//	@Produce		json
//	@Param			view	path		string	true	"View"	Enums(dashboard, notes, tasks)
//	@Success		200		{object}	ViewResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/views/{view} [get]
func (h *Handler) GetView(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeView(w, s.View())
}

// SetFilters handles PUT /api/views/{view}/filters.
//
//	@Summary		Replace the filter state
//	@Tags			views
//	@Accept			json
//	@Produce		json
//	@Param			view	path		string			true	"View"
//	@Param			body	body		FiltersRequest	true	"Filter state"
//	@Success		200		{object}	ViewResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/views/{view}/filters [put]
func (h *Handler) SetFilters(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req FiltersRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	writeView(w, s.SetFilters(filter.State(req)))
}

// ResetFilters handles POST /api/views/{view}/filters/reset.
//
//	@Summary		Reset the filter state
//	@Tags			views
//	@Produce		json
//	@Param			view	path		string	true	"View"
//	@Success		200		{object}	ViewResponse
//	@Security		BearerAuth
//	@Router			/views/{view}/filters/reset [post]
func (h *Handler) ResetFilters(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeView(w, s.ResetFilters())
}

// ToggleType handles POST /api/views/{view}/types/{category}/toggle.
//
//	@Summary		Toggle a category in the shown collection's type set
//	@Tags			views
//	@Produce		json
//	@Param			view		path		string	true	"View"
//	@Param			category	path		string	true	"Category"	Enums(input, output, outcome)
//	@Success		200			{object}	ViewResponse
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/views/{view}/types/{category}/toggle [post]
func (h *Handler) ToggleType(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	c, err := models.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("unknown category"))
		return
	}
	res, err := s.ToggleType(c)
	if err != nil {
		h.fail(w, "toggle type", err)
		return
	}
	writeView(w, res)
}

// SetSort handles PUT /api/views/{view}/sort.
//
//	@Summary		Set the sort key and direction
//	@Tags			views
//	@Accept			json
//	@Produce		json
//	@Param			view	path		string		true	"View"
//	@Param			body	body		SortRequest	true	"Sort"
//	@Success		200		{object}	ViewResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/views/{view}/sort [put]
func (h *Handler) SetSort(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req SortRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.SetSort(req.Sort, req.Order)
	if err != nil {
		h.fail(w, "set sort", err)
		return
	}
	writeView(w, res)
}

// SetGroup handles PUT /api/views/{view}/group.
//
//	@Summary		Set the group option
//	@Tags			views
//	@Accept			json
//	@Produce		json
//	@Param			view	path		string			true	"View"
//	@Param			body	body		GroupRequest	true	"Group"
//	@Success		200		{object}	ViewResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/views/{view}/group [put]
func (h *Handler) SetGroup(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req GroupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.SetGroup(req.Group)
	if err != nil {
		h.fail(w, "set group", err)
		return
	}
	writeView(w, res)
}

// SetCategory handles PUT /api/views/{view}/category.
//
//	@Summary		Switch the dashboard's active category
//	@Tags			views
//	@Accept			json
//	@Produce		json
//	@Param			view	path		string			true	"View"
//	@Param			body	body		CategoryRequest	true	"Category"
//	@Success		200		{object}	ViewResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/views/{view}/category [put]
func (h *Handler) SetCategory(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req CategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.SetCategory(r.Context(), req.Category)
	if err != nil {
		h.fail(w, "set category", err)
		return
	}
	writeView(w, res)
}

// SetTab handles PUT /api/views/{view}/tab.
//
//	@Summary		Switch the dashboard between notes and tasks
//	@Tags			views
//	@Accept			json
//	@Produce		json
//	@Param			view	path		string		true	"View"
//	@Param			body	body		TabRequest	true	"Tab"
//	@Success		200		{object}	ViewResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/views/{view}/tab [put]
func (h *Handler) SetTab(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req TabRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	t, err := dashboard.ParseTab(req.Tab)
	if err != nil {
		h.fail(w, "set tab", err)
		return
	}
	res, err := s.SetTab(t)
	if err != nil {
		h.fail(w, "set tab", err)
		return
	}
	writeView(w, res)
}

// SetPage handles PUT /api/views/{view}/page.
//
//	@Summary		Move to a page (clamped into range)
//	@Tags			views
//	@Accept			json
//	@Produce		json
//	@Param			view	path		string		true	"View"
//	@Param			body	body		PageRequest	true	"Page"
//	@Success		200		{object}	ViewResponse
//	@Security		BearerAuth
//	@Router			/views/{view}/page [put]
func (h *Handler) SetPage(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req PageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	writeView(w, s.SetPage(req.Page))
}

// ListQueries handles GET /api/views/{view}/queries.
//
//	@Summary		List the view's saved queries
//	@Tags			queries
//	@Produce		json
//	@Param			view	path		string	true	"View"
//	@Success		200		{object}	QueryListResponse
//	@Security		BearerAuth
//	@Router			/views/{view}/queries [get]
func (h *Handler) ListQueries(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, QueryListResponse{Queries: s.Queries()})
}

// SaveQuery handles POST /api/views/{view}/queries.
//
//	@Summary		Save the current state as a new query
//	@Tags			queries
//	@Accept			json
//	@Produce		json
//	@Param			view	path		string				true	"View"
//	@Param			body	body		SaveQueryRequest	true	"Name"
//	@Success		201		{object}	queries.SavedQuery
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/views/{view}/queries [post]
func (h *Handler) SaveQuery(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req SaveQueryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	q, err := s.SaveQuery(r.Context(), req.Name)
	if err != nil {
		h.fail(w, "save query", err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

// LoadQuery handles POST /api/views/{view}/queries/{id}/load.
//
//	@Summary		Load a saved query into the view
//	@Tags			queries
//	@Produce		json
//	@Param			view	path		string	true	"View"
//	@Param			id		path		string	true	"Query ID"
//	@Success		200		{object}	ViewResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/views/{view}/queries/{id}/load [post]
func (h *Handler) LoadQuery(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	res, err := s.LoadQuery(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "load query", err)
		return
	}
	writeView(w, res)
}

// UpdateActiveQuery handles PUT /api/views/{view}/queries/active.
//
//	@Summary		Overwrite the active query with the current state
//	@Tags			queries
//	@Produce		json
//	@Param			view	path		string	true	"View"
//	@Success		200		{object}	queries.SavedQuery
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/views/{view}/queries/active [put]
func (h *Handler) UpdateActiveQuery(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	q, err := s.UpdateQuery(r.Context())
	if err != nil {
		h.fail(w, "update query", err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// RenameQuery handles PATCH /api/views/{view}/queries/{id}.
//
//	@Summary		Rename a saved query
//	@Tags			queries
//	@Accept			json
//	@Produce		json
//	@Param			view	path		string				true	"View"
//	@Param			id		path		string				true	"Query ID"
//	@Param			body	body		SaveQueryRequest	true	"New name"
//	@Success		200		{object}	queries.SavedQuery
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/views/{view}/queries/{id} [patch]
func (h *Handler) RenameQuery(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req SaveQueryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	q, err := s.RenameQuery(r.Context(), chi.URLParam(r, "id"), req.Name)
	if err != nil {
		h.fail(w, "rename query", err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// DeleteQuery handles DELETE /api/views/{view}/queries/{id}.
//
//	@Summary		Delete a saved query
//	@Tags			queries
//	@Produce		json
//	@Param			view	path		string	true	"View"
//	@Param			id		path		string	true	"Query ID"
//	@Success		200		{object}	ViewResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/views/{view}/queries/{id} [delete]
func (h *Handler) DeleteQuery(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	res, err := s.DeleteQuery(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "delete query", err)
		return
	}
	writeView(w, res)
}

// ToggleTask handles POST /api/views/{view}/tasks/toggle.
//
//	@Summary		Toggle a task checkbox in its file
//	@Tags			tasks
//	@Accept			json
//	@Produce		json
//	@Param			view	path		string		true	"View"
//	@Param			body	body		TaskRequest	true	"Task"
//	@Success		200		{object}	TaskToggleResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/views/{view}/tasks/toggle [post]
func (h *Handler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req TaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rec, changed, err := h.svc.ToggleTask(r.Context(), s.Kind(), req.Path, *req.Line)
	if err != nil {
		h.fail(w, "toggle task", err)
		return
	}
	resp := TaskToggleResponse{Changed: changed}
	if changed {
		item := toTaskItem(rec)
		resp.Task = &item
	}
	writeJSON(w, http.StatusOK, resp)
}

// DeleteTask handles POST /api/views/{view}/tasks/delete.
//
//	@Summary		Delete a task line from its file
//	@Tags			tasks
//	@Accept			json
//	@Produce		json
//	@Param			view	path		string		true	"View"
//	@Param			body	body		TaskRequest	true	"Task"
//	@Success		200		{object}	ViewResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/views/{view}/tasks/delete [post]
func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req TaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if _, err := h.svc.DeleteTask(r.Context(), s.Kind(), req.Path, *req.Line); err != nil {
		h.fail(w, "delete task", err)
		return
	}
	writeView(w, s.View())
}

// Projects handles GET /api/projects.
//
//	@Summary		Distinct project values across the vault
//	@Tags			facets
//	@Produce		json
//	@Success		200	{object}	map[string][]string
//	@Security		BearerAuth
//	@Router			/projects [get]
func (h *Handler) Projects(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"projects": nonNil(h.svc.Projects())})
}

// Statuses handles GET /api/statuses.
//
//	@Summary		Distinct status values across the vault
//	@Tags			facets
//	@Produce		json
//	@Success		200	{object}	map[string][]string
//	@Security		BearerAuth
//	@Router			/statuses [get]
func (h *Handler) Statuses(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"statuses": nonNil(h.svc.Statuses())})
}

// GetCustomFilters handles GET /api/custom-filters.
//
//	@Summary		Custom filter schema
//	@Tags			settings
//	@Produce		json
//	@Success		200	{object}	CustomFiltersBody
//	@Security		BearerAuth
//	@Router			/custom-filters [get]
func (h *Handler) GetCustomFilters(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, CustomFiltersBody{CustomFilters: nonNil(h.svc.CustomFilters())})
}

// PutCustomFilters handles PUT /api/custom-filters.
//
//	@Summary		Replace the custom filter schema
//	@Tags			settings
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CustomFiltersBody	true	"Schema"
//	@Success		200		{object}	CustomFiltersBody
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/custom-filters [put]
func (h *Handler) PutCustomFilters(w http.ResponseWriter, r *http.Request) {
	var req CustomFiltersBody
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.SetCustomFilters(r.Context(), req.CustomFilters); err != nil {
		if errors.Is(err, apperr.ErrDuplicateName) {
			writeJSON(w, http.StatusConflict, errorBody(err.Error()))
			return
		}
		h.fail(w, "set custom filters", err)
		return
	}
	writeJSON(w, http.StatusOK, CustomFiltersBody{CustomFilters: nonNil(h.svc.CustomFilters())})
}

// GetPageSize handles GET /api/settings/page-size.
//
//	@Summary		Page size
//	@Tags			settings
//	@Produce		json
//	@Success		200	{object}	PageSizeBody
//	@Security		BearerAuth
//	@Router			/settings/page-size [get]
func (h *Handler) GetPageSize(w http.ResponseWriter, _ *http.Request) {
	n := h.svc.PageSize()
	writeJSON(w, http.StatusOK, PageSizeBody{PageSize: &n})
}

// PutPageSize handles PUT /api/settings/page-size.
//
//	@Summary		Set the page size (clamped)
//	@Tags			settings
//	@Accept			json
//	@Produce		json
//	@Param			body	body		PageSizeBody	true	"Page size"
//	@Success		200		{object}	PageSizeBody
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/settings/page-size [put]
func (h *Handler) PutPageSize(w http.ResponseWriter, r *http.Request) {
	var req PageSizeBody
	if !decodeJSON(w, r, &req) {
		return
	}
	n, err := h.svc.SetPageSize(r.Context(), *req.PageSize)
	if err != nil {
		h.fail(w, "set page size", err)
		return
	}
	writeJSON(w, http.StatusOK, PageSizeBody{PageSize: &n})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
