package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/starford/notesh/internal/apperr"
	"github.com/starford/notesh/internal/models"
)

const noteColumns = `id, title, body, tags, pinned, deleted, deleted_at, folder_id, created_at, updated_at`

const noteOrder = `ORDER BY pinned DESC, updated_at DESC, id DESC`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(s rowScanner) (*models.Note, error) {
	var (
		n         models.Note
		tagsJSON  string
		deletedAt sql.NullTime
		folderID  sql.NullInt64
	)
	if err := s.Scan(&n.ID, &n.Title, &n.Body, &tagsJSON, &n.Pinned, &n.Deleted,
		&deletedAt, &folderID, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tagsJSON), &n.Tags); err != nil || n.Tags == nil {
		n.Tags = []string{}
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		n.DeletedAt = &t
	}
	n.FolderID = idPtr(folderID)
	return &n, nil
}

func (db *DB) queryNotes(ctx context.Context, query string, args ...any) ([]models.Note, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

// CreateNote validates and inserts a new note under folderID (nil = root).
func (db *DB) CreateNote(ctx context.Context, title, body string, tags []string, folderID *int64) (*models.Note, error) {
	title, err := sanitizeTitle(title)
	if err != nil {
		return nil, err
	}
	tags, err = sanitizeTags(tags)
	if err != nil {
		return nil, err
	}
	if folderID != nil {
		if _, err := db.GetFolder(ctx, *folderID); err != nil {
			return nil, err
		}
	}
	tagsJSON, _ := json.Marshal(tags)
	now := db.now()

	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO notes (title, body, tags, folder_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, title, body, string(tagsJSON), nullableID(folderID), now, now)
	if err != nil {
		return nil, fmt.Errorf("store: create note: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("store: create note: %w", err)
	}
	return db.GetNote(ctx, id)
}

// GetNote returns the note with id, including soft-deleted ones.
func (db *DB) GetNote(ctx context.Context, id int64) (*models.Note, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = ?`, id)
	n, err := scanNote(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("note %d: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("store: get note: %w", err)
	}
	return n, nil
}

// ListNotes returns every note, pinned first then most recently updated.
func (db *DB) ListNotes(ctx context.Context, includeDeleted bool) ([]models.Note, error) {
	q := `SELECT ` + noteColumns + ` FROM notes`
	if !includeDeleted {
		q += ` WHERE deleted = 0`
	}
	notes, err := db.queryNotes(ctx, q+` `+noteOrder)
	if err != nil {
		return nil, fmt.Errorf("store: list notes: %w", err)
	}
	return notes, nil
}

// UpdateNote applies patch to the note and bumps updated_at.
func (db *DB) UpdateNote(ctx context.Context, id int64, patch models.NotePatch) (*models.Note, error) {
	n, err := db.GetNote(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Title != nil {
		if n.Title, err = sanitizeTitle(*patch.Title); err != nil {
			return nil, err
		}
	}
	if patch.Body != nil {
		n.Body = *patch.Body
	}
	if patch.Tags != nil {
		if n.Tags, err = sanitizeTags(*patch.Tags); err != nil {
			return nil, err
		}
	}
	if patch.Pinned != nil {
		n.Pinned = *patch.Pinned
	}
	tagsJSON, _ := json.Marshal(n.Tags)

	_, err = db.conn.ExecContext(ctx, `
		UPDATE notes SET title = ?, body = ?, tags = ?, pinned = ?, updated_at = ?
		WHERE id = ?
	`, n.Title, n.Body, string(tagsJSON), n.Pinned, db.now(), id)
	if err != nil {
		return nil, fmt.Errorf("store: update note: %w", err)
	}
	return db.GetNote(ctx, id)
}

// SoftDeleteNote moves a note to the trash and returns its snapshot.
// Deleting a note that is already in the trash yields ErrConflict.
func (db *DB) SoftDeleteNote(ctx context.Context, id int64) (*models.Note, error) {
	n, err := db.GetNote(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.Deleted {
		return n, fmt.Errorf("note %d already in trash: %w", id, apperr.ErrConflict)
	}
	now := db.now()
	if _, err := db.conn.ExecContext(ctx,
		`UPDATE notes SET deleted = 1, deleted_at = ? WHERE id = ?`, now, id); err != nil {
		return nil, fmt.Errorf("store: delete note: %w", err)
	}
	n.Deleted = true
	n.DeletedAt = &now
	return n, nil
}

// RestoreNote takes a note out of the trash. A note whose folder has since
// disappeared is restored to the root.
func (db *DB) RestoreNote(ctx context.Context, id int64) (*models.Note, error) {
	n, err := db.GetNote(ctx, id)
	if err != nil {
		return nil, err
	}
	if !n.Deleted {
		return n, fmt.Errorf("note %d not in trash: %w", id, apperr.ErrConflict)
	}
	folderID := n.FolderID
	if folderID != nil {
		if _, err := db.GetFolder(ctx, *folderID); errors.Is(err, apperr.ErrNotFound) {
			folderID = nil
		}
	}
	if _, err := db.conn.ExecContext(ctx,
		`UPDATE notes SET deleted = 0, deleted_at = NULL, folder_id = ? WHERE id = ?`,
		nullableID(folderID), id); err != nil {
		return nil, fmt.Errorf("store: restore note: %w", err)
	}
	return db.GetNote(ctx, id)
}

// PurgeNote permanently removes a note that is already in the trash.
func (db *DB) PurgeNote(ctx context.Context, id int64) error {
	n, err := db.GetNote(ctx, id)
	if err != nil {
		return err
	}
	if !n.Deleted {
		return fmt.Errorf("note %d not in trash: %w", id, apperr.ErrConflict)
	}
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("store: purge note: %w", err)
	}
	return nil
}

// PurgeDeleted empties the trash and returns how many notes were removed.
func (db *DB) PurgeDeleted(ctx context.Context) (int, error) {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM notes WHERE deleted = 1`)
	if err != nil {
		return 0, fmt.Errorf("store: purge trash: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// ListDeleted returns trashed notes, most recently deleted first.
func (db *DB) ListDeleted(ctx context.Context) ([]models.Note, error) {
	notes, err := db.queryNotes(ctx, `SELECT `+noteColumns+` FROM notes
		WHERE deleted = 1 ORDER BY deleted_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("store: list deleted: %w", err)
	}
	return notes, nil
}

// SearchNotes matches query case-insensitively against title, body and
// each tag of every live note. Folding happens in Go because SQLite's
// lower() only folds ASCII.
func (db *DB) SearchNotes(ctx context.Context, query string) ([]models.Note, error) {
	notes, err := db.ListNotes(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("store: search: %w", err)
	}
	needle := strings.ToLower(query)
	out := []models.Note{}
	for _, n := range notes {
		if noteMatches(&n, needle) {
			out = append(out, n)
		}
	}
	return out, nil
}

func noteMatches(n *models.Note, needle string) bool {
	if strings.Contains(strings.ToLower(n.Title), needle) ||
		strings.Contains(strings.ToLower(n.Body), needle) {
		return true
	}
	for _, t := range n.Tags {
		if strings.Contains(strings.ToLower(t), needle) {
			return true
		}
	}
	return false
}

// TagCounts returns every tag on a live note with its usage count,
// most used first.
func (db *DB) TagCounts(ctx context.Context) ([]models.TagCount, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT j.value, count(*) AS n
		FROM notes, json_each(notes.tags) AS j
		WHERE notes.deleted = 0
		GROUP BY j.value
		ORDER BY n DESC, j.value ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("store: tag counts: %w", err)
	}
	defer rows.Close()

	out := []models.TagCount{}
	for rows.Next() {
		var tc models.TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}

// NotesByTag returns live notes carrying tag.
func (db *DB) NotesByTag(ctx context.Context, tag string) ([]models.Note, error) {
	tag = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
	notes, err := db.queryNotes(ctx, `SELECT `+noteColumns+` FROM notes
		WHERE deleted = 0 AND EXISTS (
			SELECT 1 FROM json_each(notes.tags) AS j WHERE j.value = ?
		) `+noteOrder, tag)
	if err != nil {
		return nil, fmt.Errorf("store: notes by tag: %w", err)
	}
	return notes, nil
}

// NoteTitles returns id/title pairs for every live note.
func (db *DB) NoteTitles(ctx context.Context) ([]models.NoteTitle, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id, title FROM notes WHERE deleted = 0 `+noteOrder)
	if err != nil {
		return nil, fmt.Errorf("store: note titles: %w", err)
	}
	defer rows.Close()

	out := []models.NoteTitle{}
	for rows.Next() {
		var t models.NoteTitle
		if err := rows.Scan(&t.ID, &t.Title); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Stats counts notes, folders and tags.
func (db *DB) Stats(ctx context.Context) (*models.Stats, error) {
	var s models.Stats
	err := db.conn.QueryRowContext(ctx, `
		SELECT
			coalesce(sum(CASE WHEN deleted = 0 THEN 1 ELSE 0 END), 0),
			coalesce(sum(CASE WHEN deleted = 0 AND pinned = 1 THEN 1 ELSE 0 END), 0),
			coalesce(sum(CASE WHEN deleted = 1 THEN 1 ELSE 0 END), 0)
		FROM notes
	`).Scan(&s.Notes, &s.Pinned, &s.Deleted)
	if err != nil {
		return nil, fmt.Errorf("store: stats: %w", err)
	}
	if err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM folders`).Scan(&s.Folders); err != nil {
		return nil, fmt.Errorf("store: stats: %w", err)
	}
	tags, err := db.TagCounts(ctx)
	if err != nil {
		return nil, err
	}
	s.Tags = len(tags)

	rows, err := db.conn.QueryContext(ctx, `SELECT body FROM notes WHERE deleted = 0`)
	if err != nil {
		return nil, fmt.Errorf("store: stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		s.Words += len(strings.Fields(body))
	}
	return &s, rows.Err()
}
