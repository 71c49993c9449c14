package api

import (
	"github.com/starford/notesh/internal/models"
)

// NoteListResponse wraps note listings.
type NoteListResponse struct {
	Notes []models.Note `json:"notes" validate:"required"`
	Total int           `json:"total" example:"42" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Query   string        `json:"query" example:"standup" validate:"required"`
	Results []models.Note `json:"results" validate:"required"`
}

// TagsResponse wraps the tag summary.
type TagsResponse struct {
	Tags []models.TagCount `json:"tags" validate:"required"`
}

// FolderResponse lists the direct contents of one folder.
type FolderResponse struct {
	Folder  *int64          `json:"folder" example:"3"`
	Folders []models.Folder `json:"folders" validate:"required"`
	Notes   []models.Note   `json:"notes" validate:"required"`
}
