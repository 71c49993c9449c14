package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tailscale/hujson"

	"github.com/starford/notesh/internal/apperr"
	"github.com/starford/notesh/internal/models"
)

const (
	// SnapshotVersion is the export format version written and accepted.
	SnapshotVersion = 1
	// MaxImportSize caps the size of an import payload.
	MaxImportSize = 10 << 20
)

// Export serializes every folder, note (including trashed ones) and setting.
func (db *DB) Export(ctx context.Context) ([]byte, error) {
	folders, err := db.ListFolders(ctx)
	if err != nil {
		return nil, err
	}
	notes, err := db.ListNotes(ctx, true)
	if err != nil {
		return nil, err
	}
	settings, err := db.AllConfig(ctx)
	if err != nil {
		return nil, err
	}
	snap := models.Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: db.now(),
		Folders:    folders,
		Notes:      notes,
		Settings:   settings,
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("store: export: %w", err)
	}
	return data, nil
}

// Import loads a snapshot produced by Export. The payload may be HuJSON
// (comments, trailing commas). Notes with unusable titles are skipped; notes
// whose title collides with an existing one are renamed and counted as
// duplicates. Existing settings are never overwritten. Nothing is written
// unless the whole snapshot imports.
func (db *DB) Import(ctx context.Context, data []byte) (*models.ImportSummary, error) {
	if len(data) > MaxImportSize {
		return nil, fmt.Errorf("%w: import is %d bytes, limit is %d", apperr.ErrInvalid, len(data), MaxImportSize)
	}
	std, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("%w: import: %v", apperr.ErrInvalid, err)
	}
	var snap models.Snapshot
	if err := json.Unmarshal(std, &snap); err != nil {
		return nil, fmt.Errorf("%w: import: %v", apperr.ErrInvalid, err)
	}
	if snap.Version != SnapshotVersion {
		return nil, fmt.Errorf("%w: unsupported snapshot version %d", apperr.ErrInvalid, snap.Version)
	}

	sum := &models.ImportSummary{}
	err = db.withTx(ctx, func(tx *DB) error {
		return tx.importSnapshot(ctx, &snap, sum)
	})
	if err != nil {
		return nil, err
	}
	return sum, nil
}

// importSnapshot writes snap into db, counting into sum. Import runs it in
// a transaction so a failure leaves nothing behind.
func (db *DB) importSnapshot(ctx context.Context, snap *models.Snapshot, sum *models.ImportSummary) error {
	folderIDs, err := db.importFolders(ctx, snap.Folders)
	if err != nil {
		return err
	}

	titles, err := db.NoteTitles(ctx)
	if err != nil {
		return err
	}
	taken := make(map[string]struct{}, len(titles))
	for _, t := range titles {
		taken[strings.ToLower(t.Title)] = struct{}{}
	}

	for _, n := range snap.Notes {
		title, err := sanitizeTitle(n.Title)
		if err != nil {
			sum.Skipped++
			continue
		}
		tags, err := sanitizeTags(n.Tags)
		if err != nil {
			sum.Skipped++
			continue
		}
		if _, dup := taken[strings.ToLower(title)]; dup && !n.Deleted {
			title = uniqueTitle(title, taken)
			sum.Duplicates++
		}

		var folderID *int64
		if n.FolderID != nil {
			if id, ok := folderIDs[*n.FolderID]; ok {
				folderID = &id
			}
		}
		created, updated := n.CreatedAt, n.UpdatedAt
		if created.IsZero() {
			created = db.now()
		}
		if updated.IsZero() {
			updated = created
		}
		tagsJSON, _ := json.Marshal(tags)
		_, err = db.conn.ExecContext(ctx, `
			INSERT INTO notes (title, body, tags, pinned, deleted, deleted_at, folder_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, title, n.Body, string(tagsJSON), n.Pinned, n.Deleted, n.DeletedAt, nullableID(folderID), created, updated)
		if err != nil {
			return fmt.Errorf("store: import note %q: %w", title, err)
		}
		if !n.Deleted {
			taken[strings.ToLower(title)] = struct{}{}
		}
		sum.Imported++
	}

	for k, v := range snap.Settings {
		if _, err := db.ConfigValue(ctx, k); err == nil {
			continue
		}
		if err := db.SetConfigValue(ctx, k, v); err != nil {
			return err
		}
	}
	return nil
}

// importFolders recreates the snapshot's folder tree and returns a map from
// snapshot ids to local ids. A folder whose name already exists under the
// same parent is reused; orphans land at the root.
func (db *DB) importFolders(ctx context.Context, folders []models.Folder) (map[int64]int64, error) {
	ids := make(map[int64]int64, len(folders))
	pending := folders
	for len(pending) > 0 {
		var next []models.Folder
		for _, f := range pending {
			var parent *int64
			if f.ParentID != nil {
				local, ok := ids[*f.ParentID]
				if !ok && hasFolder(pending, *f.ParentID) {
					next = append(next, f)
					continue
				}
				if ok {
					parent = &local
				}
			}
			id, err := db.ensureFolder(ctx, f.Name, parent)
			if err != nil {
				return nil, err
			}
			if id != 0 {
				ids[f.ID] = id
			}
		}
		if len(next) == len(pending) {
			// Cycle in the snapshot; attach the rest to the root.
			for i := range next {
				next[i].ParentID = nil
			}
		}
		pending = next
	}
	return ids, nil
}

func (db *DB) ensureFolder(ctx context.Context, name string, parent *int64) (int64, error) {
	if _, err := sanitizeFolderName(name); err != nil {
		return 0, nil
	}
	_, folders, err := db.FolderContents(ctx, parent)
	if err != nil {
		return 0, err
	}
	for _, f := range folders {
		if strings.EqualFold(f.Name, strings.TrimSpace(name)) {
			return f.ID, nil
		}
	}
	f, err := db.CreateFolder(ctx, name, parent)
	if err != nil {
		return 0, err
	}
	return f.ID, nil
}

func hasFolder(folders []models.Folder, id int64) bool {
	for _, f := range folders {
		if f.ID == id {
			return true
		}
	}
	return false
}

// uniqueTitle appends " (imported)" or " (imported N)" to title, cutting
// the base short enough that the result stays within MaxTitleLength.
func uniqueTitle(title string, taken map[string]struct{}) string {
	for i := 1; ; i++ {
		suffix := " (imported)"
		if i > 1 {
			suffix = fmt.Sprintf(" (imported %d)", i)
		}
		candidate := truncateRunes(title, MaxTitleLength-utf8.RuneCountInString(suffix)) + suffix
		if _, dup := taken[strings.ToLower(candidate)]; !dup {
			return candidate
		}
	}
}

// truncateRunes cuts s to at most n runes, dropping trailing spaces left by the cut.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return strings.TrimRight(string([]rune(s)[:n]), " ")
}
