package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/starford/notesh/internal/models"
	"github.com/starford/notesh/internal/store"
	"github.com/starford/notesh/internal/testutil"
)

var _ Store = (*store.DB)(nil)

// testEnv opens a temp store and returns it with an API router.
// An empty token means auth is disabled.
func testEnv(t *testing.T, token string) (*store.DB, http.Handler) {
	t.Helper()
	db := testutil.TestStore(t)
	r := chi.NewRouter()
	r.Use(Metrics)
	r.Mount("/api", NewRouter(db, token != "", token, nil))
	return db, r
}

func do(t *testing.T, h http.Handler, target string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func seed(t *testing.T, db *store.DB) (*models.Note, *models.Folder) {
	t.Helper()
	ctx := context.Background()
	folder, err := db.CreateFolder(ctx, "work", nil)
	if err != nil {
		t.Fatal(err)
	}
	standup, err := db.CreateNote(ctx, "Standup", "yesterday: shipped", []string{"work"}, &folder.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.CreateNote(ctx, "Groceries", "milk, eggs", []string{"home"}, nil); err != nil {
		t.Fatal(err)
	}
	return standup, folder
}

func TestListNotes(t *testing.T) {
	db, router := testEnv(t, "")
	seed(t, db)

	w := do(t, router, "/api/notes")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp NoteListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 2 || len(resp.Notes) != 2 {
		t.Fatalf("got %d notes, total %d", len(resp.Notes), resp.Total)
	}

	w = do(t, router, "/api/notes?tag=%23WORK")
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 1 || resp.Notes[0].Title != "Standup" {
		t.Errorf("tag filter = %+v", resp.Notes)
	}
}

func TestListIncludesDeletedOnRequest(t *testing.T) {
	db, router := testEnv(t, "")
	standup, _ := seed(t, db)
	if _, err := db.SoftDeleteNote(context.Background(), standup.ID); err != nil {
		t.Fatal(err)
	}

	var resp NoteListResponse
	_ = json.Unmarshal(do(t, router, "/api/notes").Body.Bytes(), &resp)
	if resp.Total != 1 {
		t.Errorf("live notes = %d, want 1", resp.Total)
	}
	_ = json.Unmarshal(do(t, router, "/api/notes?include_deleted=true").Body.Bytes(), &resp)
	if resp.Total != 2 {
		t.Errorf("all notes = %d, want 2", resp.Total)
	}
}

func TestGetNote(t *testing.T) {
	db, router := testEnv(t, "")
	standup, _ := seed(t, db)

	w := do(t, router, "/api/notes/"+itoa(standup.ID))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var note models.Note
	_ = json.Unmarshal(w.Body.Bytes(), &note)
	if note.Title != "Standup" || note.Body != "yesterday: shipped" {
		t.Errorf("note = %+v", note)
	}

	if w := do(t, router, "/api/notes/999"); w.Code != http.StatusNotFound {
		t.Errorf("missing note = %d, want 404", w.Code)
	}
	if w := do(t, router, "/api/notes/abc"); w.Code != http.StatusBadRequest {
		t.Errorf("bad id = %d, want 400", w.Code)
	}
}

func TestSearch(t *testing.T) {
	db, router := testEnv(t, "")
	seed(t, db)

	if w := do(t, router, "/api/search"); w.Code != http.StatusBadRequest {
		t.Errorf("empty query = %d, want 400", w.Code)
	}

	var resp SearchResponse
	w := do(t, router, "/api/search?q=MILK")
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Results) != 1 || resp.Results[0].Title != "Groceries" {
		t.Errorf("results = %+v", resp.Results)
	}
}

func TestTagsAndFolders(t *testing.T) {
	db, router := testEnv(t, "")
	_, folder := seed(t, db)

	var tags TagsResponse
	_ = json.Unmarshal(do(t, router, "/api/tags").Body.Bytes(), &tags)
	if len(tags.Tags) != 2 {
		t.Errorf("tags = %+v", tags.Tags)
	}

	var root FolderResponse
	_ = json.Unmarshal(do(t, router, "/api/folders").Body.Bytes(), &root)
	if len(root.Folders) != 1 || len(root.Notes) != 1 || root.Notes[0].Title != "Groceries" {
		t.Errorf("root = %+v", root)
	}

	var work FolderResponse
	_ = json.Unmarshal(do(t, router, "/api/folders?parent="+itoa(folder.ID)).Body.Bytes(), &work)
	if len(work.Notes) != 1 || work.Notes[0].Title != "Standup" {
		t.Errorf("work = %+v", work)
	}

	if w := do(t, router, "/api/folders?parent=-1"); w.Code != http.StatusBadRequest {
		t.Errorf("bad parent = %d, want 400", w.Code)
	}
}

func TestExport(t *testing.T) {
	db, router := testEnv(t, "")
	seed(t, db)

	w := do(t, router, "/api/export")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), "notesh-export.json") {
		t.Errorf("disposition = %q", w.Header().Get("Content-Disposition"))
	}
	var snap models.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatal(err)
	}
	if snap.Version != 1 || len(snap.Notes) != 2 || len(snap.Folders) != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestAuthMiddleware(t *testing.T) {
	_, router := testEnv(t, "s3cret")

	if w := do(t, router, "/api/notes"); w.Code != http.StatusUnauthorized {
		t.Errorf("no token = %d, want 401", w.Code)
	}
	if w := do(t, router, "/api/notes", "Authorization", "Bearer nope"); w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
	if w := do(t, router, "/api/notes", "Authorization", "Bearer s3cret"); w.Code != http.StatusOK {
		t.Errorf("valid token = %d, want 200", w.Code)
	}
}

func TestAuthDisabledPassesThrough(t *testing.T) {
	_, router := testEnv(t, "")
	if w := do(t, router, "/api/tags"); w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func TestGetNoteETag(t *testing.T) {
	db, router := testEnv(t, "")
	standup, _ := seed(t, db)
	target := "/api/notes/" + itoa(standup.ID)

	w := do(t, router, target)
	tag := w.Header().Get("ETag")
	if tag == "" {
		t.Fatal("missing ETag")
	}
	if w := do(t, router, target, "If-None-Match", tag); w.Code != http.StatusNotModified {
		t.Errorf("matching If-None-Match = %d, want 304", w.Code)
	}

	body := "changed"
	if _, err := db.UpdateNote(context.Background(), standup.ID, models.NotePatch{Body: &body}); err != nil {
		t.Fatal(err)
	}
	w = do(t, router, target, "If-None-Match", tag)
	if w.Code != http.StatusOK || w.Header().Get("ETag") == tag {
		t.Errorf("after update = %d, etag %q", w.Code, w.Header().Get("ETag"))
	}
}
