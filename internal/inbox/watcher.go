// Package inbox imports files dropped into a watched directory: JSON
// snapshots are merged into the store and Markdown files become notes.
package inbox

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/notesh/internal/markdown"
	"github.com/starford/notesh/internal/metrics"
	"github.com/starford/notesh/internal/models"
	"github.com/starford/notesh/internal/store"
)

// Suffixes given to processed files.
const (
	ImportedSuffix = ".imported"
	FailedSuffix   = ".failed"
)

// settle is how long a file must stay quiet before it is imported, so that
// a snapshot written in several chunks is read whole.
const settle = 200 * time.Millisecond

// Importer loads snapshots and single notes into the store.
type Importer interface {
	Import(ctx context.Context, data []byte) (*models.ImportSummary, error)
	CreateNote(ctx context.Context, title, body string, tags []string, folderID *int64) (*models.Note, error)
	UpdateNote(ctx context.Context, id int64, patch models.NotePatch) (*models.Note, error)
}

// EventCallback is called after each processed file. err is nil on success.
type EventCallback func(path string, sum *models.ImportSummary, err error)

// Watch imports every *.json and *.md file already in dir, then watches dir and
// imports files created or written there until ctx is cancelled. Each file
// is renamed with ImportedSuffix or FailedSuffix once processed.
func Watch(ctx context.Context, dir string, imp Importer, logger *slog.Logger, cb EventCallback) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("inbox: create dir: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return fmt.Errorf("inbox: watch %s: %w", dir, err)
	}

	logger.Info("inbox: started", slog.String("dir", dir))

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if path := filepath.Join(dir, e.Name()); !e.IsDir() && accepted(path) {
			process(ctx, path, imp, logger, cb)
		}
	}

	pending := make(map[string]struct{})
	var settleTimer *time.Timer
	var settleCh <-chan time.Time

	schedule := func() {
		if settleTimer == nil {
			settleTimer = time.NewTimer(settle)
			settleCh = settleTimer.C
		} else {
			settleTimer.Reset(settle)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if settleTimer != nil {
				settleTimer.Stop()
			}
			logger.Info("inbox: stopped")
			return nil

		case <-settleCh:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			clear(pending)
			for _, p := range paths {
				process(ctx, p, imp, logger, cb)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !accepted(ev.Name) {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				pending[ev.Name] = struct{}{}
				schedule()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("inbox: watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

func accepted(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".md":
		return true
	}
	return false
}

// process imports one file and renames it by outcome. A file that vanished
// before it settled is ignored.
func process(ctx context.Context, path string, imp Importer, logger *slog.Logger, cb EventCallback) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}

	sum, err := importFile(ctx, path, info.Size(), imp)
	metrics.RecordImport("inbox", err == nil)

	suffix := ImportedSuffix
	if err != nil {
		suffix = FailedSuffix
		logger.Warn("inbox: import failed", slog.String("path", path), slog.String("error", err.Error()))
	} else {
		logger.Info("inbox: imported",
			slog.String("path", path),
			slog.Int("imported", sum.Imported),
			slog.Int("skipped", sum.Skipped),
			slog.Int("duplicates", sum.Duplicates))
	}
	if renameErr := os.Rename(path, path+suffix); renameErr != nil {
		logger.Warn("inbox: rename failed", slog.String("path", path), slog.String("error", renameErr.Error()))
	}
	if cb != nil {
		cb(path, sum, err)
	}
}

func importFile(ctx context.Context, path string, size int64, imp Importer) (*models.ImportSummary, error) {
	if size > store.MaxImportSize {
		return nil, fmt.Errorf("file too large: %d bytes (limit %d)", size, store.MaxImportSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(path), ".md") {
		return importNote(ctx, data, path, imp)
	}
	return imp.Import(ctx, data)
}

// importNote creates one root-level note from a Markdown file.
func importNote(ctx context.Context, data []byte, path string, imp Importer) (*models.ImportSummary, error) {
	d := markdown.Parse(data, path)
	n, err := imp.CreateNote(ctx, d.Title, d.Body, d.Tags, nil)
	if err != nil {
		return nil, err
	}
	if d.Pinned {
		pinned := true
		if _, err := imp.UpdateNote(ctx, n.ID, models.NotePatch{Pinned: &pinned}); err != nil {
			return nil, err
		}
	}
	return &models.ImportSummary{Imported: 1}, nil
}
