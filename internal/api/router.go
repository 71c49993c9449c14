package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// events, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(st Store, authEnabled bool, token string, events http.Handler) chi.Router {
	h := NewHandler(st)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/notes", h.ListNotes)
	r.Get("/notes/{id}", h.GetNote)
	r.Get("/search", h.Search)
	r.Get("/tags", h.Tags)
	r.Get("/folders", h.Folder)
	r.Get("/stats", h.Stats)
	r.Get("/export", h.Export)

	if events != nil {
		r.Get("/events", events.ServeHTTP)
	}

	return r
}
