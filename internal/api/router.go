package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/iotodash/internal/dashboard"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *dashboard.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Route("/views/{view}", func(r chi.Router) {
		r.Get("/", h.GetView)

		// Filter state.
		r.Put("/filters", h.SetFilters)
		r.Post("/filters/reset", h.ResetFilters)
		r.Post("/types/{category}/toggle", h.ToggleType)
		r.Put("/sort", h.SetSort)
		r.Put("/group", h.SetGroup)
		r.Put("/category", h.SetCategory)
		r.Put("/tab", h.SetTab)
		r.Put("/page", h.SetPage)

		// Saved queries.
		r.Get("/queries", h.ListQueries)
		r.Post("/queries", h.SaveQuery)
		r.Put("/queries/active", h.UpdateActiveQuery)
		r.Post("/queries/{id}/load", h.LoadQuery)
		r.Patch("/queries/{id}", h.RenameQuery)
		r.Delete("/queries/{id}", h.DeleteQuery)

		// Task write-back.
		r.Post("/tasks/toggle", h.ToggleTask)
		r.Post("/tasks/delete", h.DeleteTask)
	})

	r.Get("/projects", h.Projects)
	r.Get("/statuses", h.Statuses)

	r.Get("/custom-filters", h.GetCustomFilters)
	r.Put("/custom-filters", h.PutCustomFilters)
	r.Get("/settings/page-size", h.GetPageSize)
	r.Put("/settings/page-size", h.PutPageSize)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
