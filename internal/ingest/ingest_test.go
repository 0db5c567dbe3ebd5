package ingest

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"docshare/internal/convert"
	"docshare/internal/database"
	"docshare/internal/models"
	"docshare/internal/preview"
	"docshare/internal/storage"
	"docshare/internal/store"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		size     int64
		want     error
	}{
		{
			name:     "empty filename",
			filename: "",
			size:     100,
			want:     ErrEmptyFile,
		},
		{
			name:     "zero size",
			filename: "report.pdf",
			size:     0,
			want:     ErrEmptyFile,
		},
		{
			name:     "empty beats oversized",
			filename: "",
			size:     MaxSizeBytes + 1,
			want:     ErrEmptyFile,
		},
		{
			name:     "exactly at the limit",
			filename: "big.pdf",
			size:     MaxSizeBytes,
			want:     nil,
		},
		{
			name:     "one byte over the limit",
			filename: "big.pdf",
			size:     MaxSizeBytes + 1,
			want:     ErrTooLarge,
		},
		{
			name:     "executable rejected",
			filename: "setup.exe",
			size:     1024,
			want:     ErrUnsupportedFormat,
		},
		{
			name:     "no extension rejected",
			filename: "README",
			size:     1024,
			want:     ErrUnsupportedFormat,
		},
		{
			name:     "uppercase extension accepted",
			filename: "SLIDES.PPTX",
			size:     1024,
			want:     nil,
		},
		{
			name:     "plain text accepted",
			filename: "notes.txt",
			size:     1024,
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Validate(tt.filename, tt.size); got != tt.want {
				t.Errorf("Validate(%q, %d) = %v, want %v", tt.filename, tt.size, got, tt.want)
			}
		})
	}
}

// testDB connects to the test database, skipping when unavailable.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "docshare")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "docshare")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testPipeline wires a pipeline against temp storage and a converter
// whose binary does not exist, so conversion fails and originals are
// kept. That keeps the tests independent of a LibreOffice install.
func testPipeline(t *testing.T, db *sql.DB) (*Pipeline, *storage.Store) {
	t.Helper()

	root := t.TempDir()
	blobs, err := storage.New(filepath.Join(root, "uploads"), filepath.Join(root, "thumbs"))
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}

	placeholder := filepath.Join(root, "placeholder.jpg")
	if err := os.WriteFile(placeholder, []byte("jpeg"), 0o644); err != nil {
		t.Fatalf("write placeholder: %v", err)
	}

	converter := convert.New(filepath.Join(root, "soffice-not-installed"))
	previews := preview.NewGenerator(blobs, placeholder)
	p := NewPipeline(blobs, converter, previews, store.NewDocumentStore(db), store.NewCategoryStore(db))
	return p, blobs
}

func testUploader(t *testing.T, db *sql.DB, role models.Role) *models.User {
	t.Helper()

	name := "t_" + uuid.NewString()[:8]
	u, err := store.NewUserStore(db).Create(name, name+"@test.local", "secret123", nil, role)
	if err != nil {
		t.Fatalf("create test user: %v", err)
	}
	t.Cleanup(func() { db.Exec("DELETE FROM users WHERE id = $1", u.ID) })
	return u
}

func cleanupDoc(t *testing.T, db *sql.DB, id uuid.UUID) {
	t.Helper()
	t.Cleanup(func() { db.Exec("DELETE FROM documents WHERE id = $1", id) })
}

func TestPipeline_AcceptGuest(t *testing.T) {
	db := testDB(t)
	p, blobs := testPipeline(t, db)

	guestName := "Ana"
	doc, err := p.Accept(t.Context(), Upload{
		File:      strings.NewReader("lecture notes"),
		FileName:  "bài giảng.txt",
		Size:      13,
		Title:     "Lecture Notes",
		GuestName: &guestName,
	})
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	cleanupDoc(t, db, doc.ID)

	if doc.Status != models.StatusPending {
		t.Errorf("guest upload status = %q, want pending", doc.Status)
	}
	if !doc.GuestUpload || doc.UploaderID != nil {
		t.Error("guest upload not marked as guest")
	}
	if !strings.HasPrefix(doc.FilePath, storage.GuestFolder+"/") {
		t.Errorf("guest upload stored at %q, want under %q/", doc.FilePath, storage.GuestFolder)
	}
	if !blobs.Exists(doc.FilePath) {
		t.Error("stored artifact missing on disk")
	}
	// Conversion could not run, so the sanitized original survives.
	if doc.FileName != "b_i_gi_ng.txt" {
		t.Errorf("stored name = %q, want sanitized original", doc.FileName)
	}
	if doc.Author() != "Ana" {
		t.Errorf("author = %q, want guest name", doc.Author())
	}
}

func TestPipeline_AcceptAdmin(t *testing.T) {
	db := testDB(t)
	p, _ := testPipeline(t, db)

	admin := testUploader(t, db, models.RoleAdmin)
	doc, err := p.Accept(t.Context(), Upload{
		File:       strings.NewReader("%PDF-1.4 fake"),
		FileName:   "guide.pdf",
		Size:       13,
		Title:      "Admin Guide",
		UploaderID: &admin.ID,
		AsAdmin:    true,
		Price:      40,
	})
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	cleanupDoc(t, db, doc.ID)

	if doc.Status != models.StatusApproved {
		t.Errorf("admin upload status = %q, want approved", doc.Status)
	}
	if doc.Price != 40 {
		t.Errorf("price = %d, want 40", doc.Price)
	}
	if !strings.HasPrefix(doc.FilePath, storage.AdminFolder+"/"+admin.ID.String()+"/") {
		t.Errorf("admin upload stored at %q, want under admin area", doc.FilePath)
	}
	if !doc.IsPaid() {
		t.Error("admin upload with price should be paid")
	}
}

func TestPipeline_MemberPriceIgnored(t *testing.T) {
	db := testDB(t)
	p, _ := testPipeline(t, db)

	member := testUploader(t, db, models.RoleUser)
	doc, err := p.Accept(t.Context(), Upload{
		File:       strings.NewReader("content"),
		FileName:   "essay.docx",
		Size:       7,
		UploaderID: &member.ID,
		Price:      999,
	})
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	cleanupDoc(t, db, doc.ID)

	if doc.Price != 0 {
		t.Errorf("member upload price = %d, want 0", doc.Price)
	}
	if doc.Status != models.StatusPending {
		t.Errorf("member upload status = %q, want pending", doc.Status)
	}
	// Title falls back to the sanitized name without extension.
	if doc.Title != "essay" {
		t.Errorf("title = %q, want derived from file name", doc.Title)
	}
}

func TestPipeline_InvalidCategoryWritesNothing(t *testing.T) {
	db := testDB(t)
	p, blobs := testPipeline(t, db)

	bogus := uuid.New()
	_, err := p.Accept(t.Context(), Upload{
		File:       strings.NewReader("content"),
		FileName:   "doc.pdf",
		Size:       7,
		CategoryID: &bogus,
	})
	if err != ErrInvalidCategory {
		t.Fatalf("Accept: got %v, want ErrInvalidCategory", err)
	}

	// The rejection must happen before anything touches the disk.
	uploadsRoot := filepath.Dir(mustAbs(t, blobs, storage.GuestFolder))
	err = filepath.WalkDir(uploadsRoot, func(path string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			t.Errorf("rejected upload left file behind: %s", path)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk uploads: %v", err)
	}
}

func TestPipeline_Replace(t *testing.T) {
	db := testDB(t)
	p, blobs := testPipeline(t, db)

	admin := testUploader(t, db, models.RoleAdmin)
	doc, err := p.Accept(t.Context(), Upload{
		File:       strings.NewReader("first version"),
		FileName:   "manual.txt",
		Size:       13,
		UploaderID: &admin.ID,
		AsAdmin:    true,
	})
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	cleanupDoc(t, db, doc.ID)
	oldPath := doc.FilePath

	err = p.Replace(t.Context(), doc, admin.ID, Upload{
		File:     strings.NewReader("second version, longer"),
		FileName: "manual-v2.txt",
		Size:     22,
	})
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}

	if doc.FilePath == oldPath {
		t.Fatal("file path unchanged after Replace")
	}
	if blobs.Exists(oldPath) {
		t.Error("old artifact still on disk after Replace")
	}
	if !blobs.Exists(doc.FilePath) {
		t.Error("new artifact missing after Replace")
	}

	stored, err := store.NewDocumentStore(db).FindByID(doc.ID)
	if err != nil || stored == nil {
		t.Fatalf("FindByID after replace: %v", err)
	}
	if stored.FilePath != doc.FilePath || stored.SizeBytes != 22 {
		t.Errorf("stored row = %q/%d, want %q/22", stored.FilePath, stored.SizeBytes, doc.FilePath)
	}
}

// TestPipeline_ReplaceRollback forces the metadata write to fail and
// checks the document is left exactly as it was: same name, path and
// size, old artifact on disk, replacement discarded.
func TestPipeline_ReplaceRollback(t *testing.T) {
	db := testDB(t)
	p, blobs := testPipeline(t, db)

	admin := testUploader(t, db, models.RoleAdmin)
	doc, err := p.Accept(t.Context(), Upload{
		File:       strings.NewReader("first version"),
		FileName:   "manual.txt",
		Size:       13,
		UploaderID: &admin.ID,
		AsAdmin:    true,
	})
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	oldName, oldPath, oldSize := doc.FileName, doc.FilePath, doc.SizeBytes

	// Pull the row out from under the pipeline.
	if _, err := db.Exec("DELETE FROM documents WHERE id = $1", doc.ID); err != nil {
		t.Fatalf("delete row: %v", err)
	}

	err = p.Replace(t.Context(), doc, admin.ID, Upload{
		File:     strings.NewReader("second version, longer"),
		FileName: "manual-v2.txt",
		Size:     22,
	})
	if err == nil {
		t.Fatal("Replace succeeded against a missing row")
	}

	if doc.FileName != oldName || doc.FilePath != oldPath || doc.SizeBytes != oldSize {
		t.Errorf("document mutated by failed Replace: %q/%q/%d, want %q/%q/%d",
			doc.FileName, doc.FilePath, doc.SizeBytes, oldName, oldPath, oldSize)
	}
	if !blobs.Exists(oldPath) {
		t.Error("original artifact removed by failed Replace")
	}

	// The discarded replacement must not linger next to the original.
	dir := filepath.Dir(mustAbs(t, blobs, oldPath))
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read folder: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("folder holds %d files after failed Replace, want only the original", len(entries))
	}
}

func mustAbs(t *testing.T, blobs *storage.Store, rel string) string {
	t.Helper()
	abs, err := blobs.Abs(rel)
	if err != nil {
		t.Fatalf("Abs(%q): %v", rel, err)
	}
	return abs
}
