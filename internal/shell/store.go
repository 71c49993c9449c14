package shell

import (
	"context"

	"github.com/starford/notesh/internal/models"
)

// Store is the record store the dispatcher runs against. Lookups of
// missing records return errors wrapping apperr.ErrNotFound; invalid input
// wraps apperr.ErrInvalid; lifecycle conflicts (deleting a trashed note,
// restoring or purging a live one) wrap apperr.ErrConflict.
type Store interface {
	CreateNote(ctx context.Context, title, body string, tags []string, folderID *int64) (*models.Note, error)
	GetNote(ctx context.Context, id int64) (*models.Note, error)
	ListNotes(ctx context.Context, includeDeleted bool) ([]models.Note, error)
	UpdateNote(ctx context.Context, id int64, patch models.NotePatch) (*models.Note, error)
	SoftDeleteNote(ctx context.Context, id int64) (*models.Note, error)
	RestoreNote(ctx context.Context, id int64) (*models.Note, error)
	PurgeNote(ctx context.Context, id int64) error
	PurgeDeleted(ctx context.Context) (int, error)
	ListDeleted(ctx context.Context) ([]models.Note, error)
	SearchNotes(ctx context.Context, query string) ([]models.Note, error)
	TagCounts(ctx context.Context) ([]models.TagCount, error)
	NotesByTag(ctx context.Context, tag string) ([]models.Note, error)
	NoteTitles(ctx context.Context) ([]models.NoteTitle, error)
	Stats(ctx context.Context) (*models.Stats, error)

	CreateFolder(ctx context.Context, name string, parentID *int64) (*models.Folder, error)
	GetFolder(ctx context.Context, id int64) (*models.Folder, error)
	FolderContents(ctx context.Context, parentID *int64) ([]models.Note, []models.Folder, error)

	ConfigValue(ctx context.Context, key string) (string, error)
	SetConfigValue(ctx context.Context, key, value string) error
	AllConfig(ctx context.Context) (map[string]string, error)
}
