package store

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/starford/notesh/internal/apperr"
	"github.com/starford/notesh/internal/models"
	"github.com/starford/notesh/internal/shell"
)

var _ shell.Store = (*DB)(nil)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "notesh-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	// A ticking clock keeps updated_at strictly increasing between calls.
	var tick time.Duration
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	db, err := Open(f.Name(), WithClock(func() time.Time {
		tick += time.Second
		return base.Add(tick)
	}))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func mustNote(t *testing.T, db *DB, title string, tags ...string) *models.Note {
	t.Helper()
	n, err := db.CreateNote(context.Background(), title, "", tags, nil)
	if err != nil {
		t.Fatalf("CreateNote(%q): %v", title, err)
	}
	return n
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	for _, table := range []string{"notes", "folders", "settings"} {
		var count int
		if err := db.pool.QueryRow(`SELECT count(*) FROM ` + table).Scan(&count); err != nil {
			t.Fatalf("%s table missing: %v", table, err)
		}
	}
}

func TestCreateAndGetNote(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	n, err := db.CreateNote(ctx, "  Hello  ", "body", []string{"#Go", "go", " test "}, nil)
	if err != nil {
		t.Fatalf("CreateNote: %v", err)
	}
	got, err := db.GetNote(ctx, n.ID)
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if got.Title != "Hello" {
		t.Errorf("title = %q", got.Title)
	}
	if strings.Join(got.Tags, ",") != "go,test" {
		t.Errorf("tags = %v", got.Tags)
	}
	if got.FolderID != nil || got.Deleted || got.Pinned {
		t.Errorf("unexpected state: %+v", got)
	}
	if !got.CreatedAt.Equal(got.UpdatedAt) {
		t.Errorf("created %v != updated %v", got.CreatedAt, got.UpdatedAt)
	}

	if _, err := db.GetNote(ctx, 999); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("GetNote(999) err = %v, want ErrNotFound", err)
	}
}

func TestCreateNoteValidation(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	tooManyTags := make([]string, MaxTags+1)
	for i := range tooManyTags {
		tooManyTags[i] = strings.Repeat("t", i+1)
	}
	missing := int64(42)

	tests := []struct {
		name   string
		title  string
		tags   []string
		folder *int64
		want   error
	}{
		{"blank title", "   ", nil, nil, apperr.ErrInvalid},
		{"long title", strings.Repeat("x", MaxTitleLength+1), nil, nil, apperr.ErrInvalid},
		{"too many tags", "ok", tooManyTags, nil, apperr.ErrInvalid},
		{"long tag", "ok", []string{strings.Repeat("t", MaxTagLength+1)}, nil, apperr.ErrInvalid},
		{"missing folder", "ok", nil, &missing, apperr.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := db.CreateNote(ctx, tt.title, "", tt.tags, tt.folder); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
	if _, err := db.CreateNote(ctx, strings.Repeat("é", MaxTitleLength), "", nil, nil); err != nil {
		t.Fatalf("title at the limit in characters rejected: %v", err)
	}
}

func TestListOrdering(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	a := mustNote(t, db, "a")
	mustNote(t, db, "b")
	c := mustNote(t, db, "c")
	pinned := true
	if _, err := db.UpdateNote(ctx, a.ID, models.NotePatch{Pinned: &pinned}); err != nil {
		t.Fatal(err)
	}
	if _, err := db.SoftDeleteNote(ctx, c.ID); err != nil {
		t.Fatal(err)
	}

	notes, err := db.ListNotes(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	var titles []string
	for _, n := range notes {
		titles = append(titles, n.Title)
	}
	if got := strings.Join(titles, ","); got != "a,b" {
		t.Errorf("order = %s, want a,b", got)
	}

	all, _ := db.ListNotes(ctx, true)
	if len(all) != 3 {
		t.Errorf("with deleted: %d notes", len(all))
	}
}

func TestTrashLifecycle(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	n := mustNote(t, db, "doomed", "x")

	if _, err := db.RestoreNote(ctx, n.ID); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("restore live note err = %v", err)
	}
	if err := db.PurgeNote(ctx, n.ID); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("purge live note err = %v", err)
	}

	del, err := db.SoftDeleteNote(ctx, n.ID)
	if err != nil {
		t.Fatalf("SoftDeleteNote: %v", err)
	}
	if !del.Deleted || del.DeletedAt == nil {
		t.Fatalf("not marked deleted: %+v", del)
	}
	if _, err := db.SoftDeleteNote(ctx, n.ID); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("second delete err = %v", err)
	}
	trash, _ := db.ListDeleted(ctx)
	if len(trash) != 1 || trash[0].ID != n.ID {
		t.Fatalf("trash = %+v", trash)
	}

	back, err := db.RestoreNote(ctx, n.ID)
	if err != nil {
		t.Fatalf("RestoreNote: %v", err)
	}
	if back.Deleted || back.DeletedAt != nil || back.Title != "doomed" || back.Tags[0] != "x" {
		t.Errorf("restored = %+v", back)
	}

	db.SoftDeleteNote(ctx, n.ID)
	if err := db.PurgeNote(ctx, n.ID); err != nil {
		t.Fatalf("PurgeNote: %v", err)
	}
	if _, err := db.GetNote(ctx, n.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("purged note still present: %v", err)
	}
}

func TestPurgeDeleted(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	for _, title := range []string{"a", "b", "c"} {
		n := mustNote(t, db, title)
		if title != "c" {
			db.SoftDeleteNote(ctx, n.ID)
		}
	}
	count, err := db.PurgeDeleted(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("purged %d, want 2", count)
	}
	left, _ := db.ListNotes(ctx, true)
	if len(left) != 1 || left[0].Title != "c" {
		t.Errorf("left = %+v", left)
	}
}

func TestFolders(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	projects, err := db.CreateFolder(ctx, "projects", nil)
	if err != nil {
		t.Fatalf("CreateFolder: %v", err)
	}
	if _, err := db.CreateFolder(ctx, "PROJECTS", nil); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("duplicate err = %v", err)
	}
	if _, err := db.CreateFolder(ctx, "a/b", nil); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("slash err = %v", err)
	}
	// same name is fine under a different parent
	inner, err := db.CreateFolder(ctx, "projects", &projects.ID)
	if err != nil {
		t.Fatalf("nested CreateFolder: %v", err)
	}
	if inner.ParentID == nil || *inner.ParentID != projects.ID {
		t.Errorf("parent = %v", inner.ParentID)
	}
	db.CreateFolder(ctx, "Archive", nil)

	if _, err := db.CreateNote(ctx, "inside", "", nil, &projects.ID); err != nil {
		t.Fatal(err)
	}
	mustNote(t, db, "at root")

	notes, folders, err := db.FolderContents(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(notes) != 1 || notes[0].Title != "at root" {
		t.Errorf("root notes = %+v", notes)
	}
	if len(folders) != 2 || folders[0].Name != "Archive" || folders[1].Name != "projects" {
		t.Errorf("root folders = %+v", folders)
	}

	notes, folders, _ = db.FolderContents(ctx, &projects.ID)
	if len(notes) != 1 || notes[0].Title != "inside" || len(folders) != 1 {
		t.Errorf("projects contents = %+v / %+v", notes, folders)
	}
}

func TestSearchAndTags(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	mustNote(t, db, "Roadmap Q3", "work", "planning")
	mustNote(t, db, "100% done", "work")
	n := mustNote(t, db, "Groceries", "home")
	body := "eggs and ROADS"
	db.UpdateNote(ctx, n.ID, models.NotePatch{Body: &body})

	hits, err := db.SearchNotes(ctx, "road")
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Errorf("search road = %d hits", len(hits))
	}
	if hits, _ := db.SearchNotes(ctx, "%"); len(hits) != 1 {
		t.Errorf("literal %% should match one note, got %d", len(hits))
	}
	if hits, _ := db.SearchNotes(ctx, "planning"); len(hits) != 1 {
		t.Errorf("tag search = %d hits", len(hits))
	}

	counts, err := db.TagCounts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []models.TagCount{{Tag: "work", Count: 2}, {Tag: "home", Count: 1}, {Tag: "planning", Count: 1}}
	if len(counts) != len(want) {
		t.Fatalf("counts = %+v", counts)
	}
	for i := range want {
		if counts[i] != want[i] {
			t.Errorf("counts[%d] = %+v, want %+v", i, counts[i], want[i])
		}
	}

	tagged, _ := db.NotesByTag(ctx, "#WORK")
	if len(tagged) != 2 {
		t.Errorf("NotesByTag = %d", len(tagged))
	}

	st, err := db.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.Notes != 3 || st.Tags != 3 || st.Words != 3 {
		t.Errorf("stats = %+v", st)
	}
}

func TestSearchMatching(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	plan := mustNote(t, db, "Über Plan")
	body := "Ärger im Büro"
	db.UpdateNote(ctx, plan.ID, models.NotePatch{Body: &body})
	mustNote(t, db, "Alpha")
	mustNote(t, db, "Beta", "a", "b")
	mustNote(t, db, "100% done")
	mustNote(t, db, "snake_case")
	mustNote(t, db, "Lab", "r&d")

	tests := []struct {
		query string
		want  []string
	}{
		{"über", []string{"Über Plan"}},
		{"Über", []string{"Über Plan"}},
		{"ÜBER", []string{"Über Plan"}},
		{"ärger", []string{"Über Plan"}},
		{"BÜRO", []string{"Über Plan"}},
		{"[", nil},
		{"]", nil},
		{",", nil},
		{`"`, nil},
		{"%", []string{"100% done"}},
		{"_", []string{"snake_case"}},
		{"r&d", []string{"Lab"}},
		{"&", []string{"Lab"}},
	}
	for _, tc := range tests {
		hits, err := db.SearchNotes(ctx, tc.query)
		if err != nil {
			t.Fatalf("SearchNotes(%q): %v", tc.query, err)
		}
		var got []string
		for _, n := range hits {
			got = append(got, n.Title)
		}
		if strings.Join(got, "|") != strings.Join(tc.want, "|") {
			t.Errorf("SearchNotes(%q) = %q, want %q", tc.query, got, tc.want)
		}
	}
}

func TestSearchSkipsTrash(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	n := mustNote(t, db, "Ölwechsel")
	db.SoftDeleteNote(ctx, n.ID)
	if hits, _ := db.SearchNotes(ctx, "öl"); len(hits) != 0 {
		t.Errorf("trashed note found: %+v", hits)
	}
}

func TestCreateFolderUnicodeCase(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	if _, err := db.CreateFolder(ctx, "Übersicht", nil); err != nil {
		t.Fatal(err)
	}
	if _, err := db.CreateFolder(ctx, "übersicht", nil); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("err = %v, want ErrAlreadyExists", err)
	}
}

func TestSettings(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	if _, err := db.ConfigValue(ctx, "theme"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unset err = %v", err)
	}
	if err := db.SetConfigValue(ctx, "theme", "nord"); err != nil {
		t.Fatal(err)
	}
	if err := db.SetConfigValue(ctx, "theme", "amber"); err != nil {
		t.Fatal(err)
	}
	v, _ := db.ConfigValue(ctx, "theme")
	if v != "amber" {
		t.Errorf("theme = %q", v)
	}
	all, _ := db.AllConfig(ctx)
	if len(all) != 1 {
		t.Errorf("all = %v", all)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	src := testDB(t)
	ctx := context.Background()
	work, _ := src.CreateFolder(ctx, "work", nil)
	sub, _ := src.CreateFolder(ctx, "meetings", &work.ID)
	src.CreateNote(ctx, "Standup", "notes", []string{"daily"}, &sub.ID)
	gone := mustNote(t, src, "Old")
	src.SoftDeleteNote(ctx, gone.ID)
	src.SetConfigValue(ctx, "theme", "nord")

	data, err := src.Export(ctx)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	dst := testDB(t)
	dst.SetConfigValue(ctx, "theme", "amber")
	sum, err := dst.Import(ctx, data)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if sum.Imported != 2 || sum.Skipped != 0 || sum.Duplicates != 0 {
		t.Errorf("summary = %+v", sum)
	}
	if v, _ := dst.ConfigValue(ctx, "theme"); v != "amber" {
		t.Errorf("existing setting overwritten: %q", v)
	}

	_, roots, _ := dst.FolderContents(ctx, nil)
	if len(roots) != 1 || roots[0].Name != "work" {
		t.Fatalf("roots = %+v", roots)
	}
	_, subs, _ := dst.FolderContents(ctx, &roots[0].ID)
	if len(subs) != 1 || subs[0].Name != "meetings" {
		t.Fatalf("subs = %+v", subs)
	}
	notes, _, _ := dst.FolderContents(ctx, &subs[0].ID)
	if len(notes) != 1 || notes[0].Title != "Standup" || notes[0].Body != "notes" {
		t.Fatalf("notes = %+v", notes)
	}
	if trash, _ := dst.ListDeleted(ctx); len(trash) != 1 {
		t.Errorf("trash = %+v", trash)
	}

	// a second import renames colliding titles and reuses folders
	sum, err = dst.Import(ctx, data)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Duplicates != 1 {
		t.Errorf("second import summary = %+v", sum)
	}
	titles, _ := dst.NoteTitles(ctx)
	found := false
	for _, nt := range titles {
		if nt.Title == "Standup (imported)" {
			found = true
		}
	}
	if !found {
		t.Errorf("renamed note missing: %+v", titles)
	}
	folders, _ := dst.ListFolders(ctx)
	if len(folders) != 2 {
		t.Errorf("folders duplicated: %+v", folders)
	}
}

func TestImportRejectsBadInput(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	for name, data := range map[string]string{
		"not json":    "hello",
		"bad version": `{"version": 9}`,
		"too large":   strings.Repeat(" ", MaxImportSize+1),
	} {
		if _, err := db.Import(ctx, []byte(data)); !errors.Is(err, apperr.ErrInvalid) {
			t.Errorf("%s: err = %v, want ErrInvalid", name, err)
		}
	}
}

func TestImportHuJSONAndSkips(t *testing.T) {
	db := testDB(t)
	data := `{
		// hand-edited export
		"version": 1,
		"notes": [
			{"title": "Kept", "tags": ["A"]},
			{"title": "   "},
			{"title": "Orphan", "folder_id": 77},
		],
	}`
	sum, err := db.Import(context.Background(), []byte(data))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if sum.Imported != 2 || sum.Skipped != 1 {
		t.Errorf("summary = %+v", sum)
	}
	notes, _, _ := db.FolderContents(context.Background(), nil)
	if len(notes) != 2 {
		t.Errorf("root notes = %+v", notes)
	}
}

func TestImportIsAllOrNothing(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	_, err := db.pool.Exec(`CREATE TRIGGER reject_boom BEFORE INSERT ON notes
		WHEN NEW.title = 'Boom' BEGIN SELECT RAISE(ABORT, 'boom'); END`)
	if err != nil {
		t.Fatal(err)
	}

	data := `{
		"version": 1,
		"folders": [{"id": 1, "name": "work"}],
		"notes": [
			{"title": "First", "folder_id": 1},
			{"title": "Boom"},
			{"title": "Never"}
		],
		"settings": {"theme": "nord"}
	}`
	if _, err := db.Import(ctx, []byte(data)); err == nil {
		t.Fatal("Import succeeded, want error")
	}

	if notes, _ := db.ListNotes(ctx, true); len(notes) != 0 {
		t.Errorf("notes left behind: %+v", notes)
	}
	if folders, _ := db.ListFolders(ctx); len(folders) != 0 {
		t.Errorf("folders left behind: %+v", folders)
	}
	if _, err := db.ConfigValue(ctx, "theme"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("theme setting written: %v", err)
	}

	// the store stays usable after the rollback
	if _, err := db.CreateNote(ctx, "After", "", nil, nil); err != nil {
		t.Errorf("CreateNote after failed import: %v", err)
	}
}

func TestImportRenameKeepsTitleLimit(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	long := strings.Repeat("ü", MaxTitleLength)
	mustNote(t, db, long)
	data, err := db.Export(ctx)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		sum, err := db.Import(ctx, data)
		if err != nil {
			t.Fatalf("Import %d: %v", i+1, err)
		}
		if sum.Duplicates != 1 {
			t.Errorf("Import %d summary = %+v", i+1, sum)
		}
	}

	titles, _ := db.NoteTitles(ctx)
	if len(titles) != 3 {
		t.Fatalf("titles = %d, want 3", len(titles))
	}
	seen := map[string]bool{}
	for _, nt := range titles {
		if n := utf8.RuneCountInString(nt.Title); n > MaxTitleLength {
			t.Errorf("title has %d runes, limit %d", n, MaxTitleLength)
		}
		if seen[nt.Title] {
			t.Errorf("duplicate title %q", nt.Title)
		}
		seen[nt.Title] = true
	}
	want := strings.Repeat("ü", MaxTitleLength-len(" (imported 2)")) + " (imported 2)"
	if !seen[want] {
		t.Errorf("missing %q", want)
	}
}

func TestUniqueTitle(t *testing.T) {
	taken := map[string]struct{}{"plan": {}, "plan (imported)": {}}
	if got := uniqueTitle("Plan", taken); got != "Plan (imported 2)" {
		t.Errorf("uniqueTitle = %q", got)
	}
	// the cut lands inside a run of spaces, which must not survive
	base := strings.Repeat("a", 185) + "     " + strings.Repeat("b", 10)
	want := strings.Repeat("a", 185) + " (imported)"
	if got := uniqueTitle(base, map[string]struct{}{}); got != want {
		t.Errorf("uniqueTitle = %q, want %q", got, want)
	}
}
