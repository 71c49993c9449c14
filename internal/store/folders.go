package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/starford/notesh/internal/apperr"
	"github.com/starford/notesh/internal/models"
)

func scanFolder(s rowScanner) (*models.Folder, error) {
	var (
		f        models.Folder
		parentID sql.NullInt64
	)
	if err := s.Scan(&f.ID, &f.Name, &parentID, &f.CreatedAt); err != nil {
		return nil, err
	}
	f.ParentID = idPtr(parentID)
	return &f, nil
}

// parentClause returns the WHERE fragment and args selecting rows whose
// column equals parentID, where nil means root (NULL).
func parentClause(column string, parentID *int64) (string, []any) {
	if parentID == nil {
		return column + ` IS NULL`, nil
	}
	return column + ` = ?`, []any{*parentID}
}

// CreateFolder creates a folder under parentID (nil = root). Sibling names
// are unique regardless of case.
func (db *DB) CreateFolder(ctx context.Context, name string, parentID *int64) (*models.Folder, error) {
	name, err := sanitizeFolderName(name)
	if err != nil {
		return nil, err
	}
	if parentID != nil {
		if _, err := db.GetFolder(ctx, *parentID); err != nil {
			return nil, err
		}
	}

	_, siblings, err := db.FolderContents(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("store: create folder: %w", err)
	}
	for _, f := range siblings {
		if strings.EqualFold(f.Name, name) {
			return nil, fmt.Errorf("folder %q: %w", name, apperr.ErrAlreadyExists)
		}
	}

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO folders (name, parent_id, created_at) VALUES (?, ?, ?)`,
		name, nullableID(parentID), db.now())
	if err != nil {
		return nil, fmt.Errorf("store: create folder: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("store: create folder: %w", err)
	}
	return db.GetFolder(ctx, id)
}

// GetFolder returns the folder with id.
func (db *DB) GetFolder(ctx context.Context, id int64) (*models.Folder, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, name, parent_id, created_at FROM folders WHERE id = ?`, id)
	f, err := scanFolder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("folder %d: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("store: get folder: %w", err)
	}
	return f, nil
}

// ListFolders returns every folder ordered by id.
func (db *DB) ListFolders(ctx context.Context) ([]models.Folder, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, parent_id, created_at FROM folders ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("store: list folders: %w", err)
	}
	defer rows.Close()

	out := []models.Folder{}
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

// FolderContents returns the live notes and sub-folders directly under
// parentID (nil = root). Folders are sorted by name, notes pinned first then
// most recently updated.
func (db *DB) FolderContents(ctx context.Context, parentID *int64) ([]models.Note, []models.Folder, error) {
	where, args := parentClause("folder_id", parentID)
	notes, err := db.queryNotes(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE deleted = 0 AND `+where+` `+noteOrder, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("store: folder contents: %w", err)
	}

	where, args = parentClause("parent_id", parentID)
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, parent_id, created_at FROM folders WHERE `+where+` ORDER BY lower(name), id`, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("store: folder contents: %w", err)
	}
	defer rows.Close()

	folders := []models.Folder{}
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, nil, err
		}
		folders = append(folders, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return notes, folders, nil
}
