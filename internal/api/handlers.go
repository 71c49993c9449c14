package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/notesh/internal/apperr"
	"github.com/starford/notesh/internal/models"
)

// Store is the read side of the note store the API serves.
type Store interface {
	ListNotes(ctx context.Context, includeDeleted bool) ([]models.Note, error)
	NotesByTag(ctx context.Context, tag string) ([]models.Note, error)
	GetNote(ctx context.Context, id int64) (*models.Note, error)
	SearchNotes(ctx context.Context, query string) ([]models.Note, error)
	TagCounts(ctx context.Context) ([]models.TagCount, error)
	FolderContents(ctx context.Context, parentID *int64) ([]models.Note, []models.Folder, error)
	Stats(ctx context.Context) (*models.Stats, error)
	Export(ctx context.Context) ([]byte, error)
}

// Handler holds API route handlers.
type Handler struct {
	store Store
}

// NewHandler creates a new Handler.
func NewHandler(st Store) *Handler {
	return &Handler{store: st}
}

func internalError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List notes, pinned first then most recently updated
//	@Tags			notes
//	@Produce		json
//	@Param			tag				query		string	false	"Filter by tag"
//	@Param			include_deleted	query		bool	false	"Include notes in the trash"
//	@Success		200				{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		notes []models.Note
		err   error
	)
	if tag := strings.TrimPrefix(strings.TrimSpace(q.Get("tag")), "#"); tag != "" {
		notes, err = h.store.NotesByTag(r.Context(), strings.ToLower(tag))
	} else {
		includeDeleted, _ := strconv.ParseBool(q.Get("include_deleted"))
		notes, err = h.store.ListNotes(r.Context(), includeDeleted)
	}
	if err != nil {
		internalError(w, "list notes failed", err)
		return
	}
	if notes == nil {
		notes = []models.Note{}
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: notes, Total: len(notes)})
}

// GetNote handles GET /api/notes/{id}. The response carries an ETag and
// honours If-None-Match.
//
//	@Summary		Get a single note by id
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		int	true	"Note id"
//	@Success		200	{object}	models.Note
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("id must be a positive integer"))
		return
	}
	note, err := h.store.GetNote(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			internalError(w, "get note failed", err)
		}
		return
	}
	writeTaggedJSON(w, r, note)
}

// Search handles GET /api/search?q=.
//
//	@Summary		Case-insensitive search over titles, bodies and tags
//	@Tags			search
//	@Produce		json
//	@Param			q	query		string	true	"Search query"
//	@Success		200	{object}	SearchResponse
//	@Failure		400	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("q is required"))
		return
	}
	notes, err := h.store.SearchNotes(r.Context(), query)
	if err != nil {
		internalError(w, "search failed", err)
		return
	}
	if notes == nil {
		notes = []models.Note{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Query: query, Results: notes})
}

// Tags handles GET /api/tags.
func (h *Handler) Tags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.store.TagCounts(r.Context())
	if err != nil {
		internalError(w, "tag counts failed", err)
		return
	}
	if tags == nil {
		tags = []models.TagCount{}
	}
	writeJSON(w, http.StatusOK, TagsResponse{Tags: tags})
}

// Folder handles GET /api/folders?parent=. An absent parent lists the root.
func (h *Handler) Folder(w http.ResponseWriter, r *http.Request) {
	var parent *int64
	if raw := r.URL.Query().Get("parent"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeJSON(w, http.StatusBadRequest, errorBody("parent must be a positive integer"))
			return
		}
		parent = &id
	}
	notes, folders, err := h.store.FolderContents(r.Context(), parent)
	if err != nil {
		internalError(w, "folder contents failed", err)
		return
	}
	if notes == nil {
		notes = []models.Note{}
	}
	writeJSON(w, http.StatusOK, FolderResponse{Folder: parent, Folders: folders, Notes: notes})
}

// Stats handles GET /api/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		internalError(w, "stats failed", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Export handles GET /api/export and serves the snapshot as a download.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	data, err := h.store.Export(r.Context())
	if err != nil {
		internalError(w, "export failed", err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="notesh-export.json"`)
	writeTagged(w, r, "application/json; charset=utf-8", data)
}
