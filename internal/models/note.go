// Package models defines the domain types for notesh.
package models

import "time"

// Note is a user-authored text record. A nil FolderID places it at the root.
type Note struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	Tags      []string   `json:"tags"`
	Pinned    bool       `json:"pinned,omitempty"`
	Deleted   bool       `json:"deleted,omitempty"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	FolderID  *int64     `json:"folder_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// HasTag reports whether the note carries tag (tags are stored lowercased).
func (n *Note) HasTag(tag string) bool {
	for _, t := range n.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// NotePatch carries the fields an update should change. Nil fields are left alone.
type NotePatch struct {
	Title  *string
	Body   *string
	Tags   *[]string
	Pinned *bool
}

// Folder is a named container. A nil ParentID denotes a top-level folder.
type Folder struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	ParentID  *int64    `json:"parent_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TagCount is one row of the tag summary.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// NoteTitle is the lightweight projection used for completion and title lookups.
type NoteTitle struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// Stats summarises the store contents.
type Stats struct {
	Notes   int `json:"notes"`
	Pinned  int `json:"pinned"`
	Deleted int `json:"deleted"`
	Folders int `json:"folders"`
	Tags    int `json:"tags"`
	Words   int `json:"words"`
}

// ImportSummary reports the outcome of an import.
type ImportSummary struct {
	Imported   int `json:"imported"`
	Skipped    int `json:"skipped"`
	Duplicates int `json:"duplicates"`
}

// Snapshot is the serialized export format.
type Snapshot struct {
	Version    int               `json:"version"`
	ExportedAt time.Time         `json:"exported_at"`
	Folders    []Folder          `json:"folders"`
	Notes      []Note            `json:"notes"`
	Settings   map[string]string `json:"settings,omitempty"`
}
