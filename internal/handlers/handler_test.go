// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler integration
// tests. Tests are skipped when PostgreSQL or Valkey are unavailable.
package handlers

import (
	"context"
	"database/sql"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"docshare/internal/cache"
	"docshare/internal/convert"
	"docshare/internal/database"
	"docshare/internal/ingest"
	"docshare/internal/middleware"
	"docshare/internal/models"
	"docshare/internal/preview"
	"docshare/internal/session"
	"docshare/internal/storage"
	"docshare/internal/store"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
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
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testValkeyClient returns a Redis client for handler tests on DB 15.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		// Clean up test session and gate keys.
		for _, pattern := range []string{"session:*", "dlgate:*"} {
			keys, _ := client.Keys(ctx, pattern).Result()
			if len(keys) > 0 {
				client.Del(ctx, keys...)
			}
		}
		client.Close()
	})

	return client
}

// testEnv holds all dependencies for handler integration tests.
type testEnv struct {
	DB            *sql.DB
	Valkey        *redis.Client
	Sessions      *session.Store
	UserStore     *store.UserStore
	DocStore      *store.DocumentStore
	CategoryStore *store.CategoryStore
	WalletStore   *store.WalletStore
	CommentStore  *store.CommentStore
	LikeStore     *store.LikeStore
	ReportStore   *store.ReportStore
	NewsStore     *store.NewsStore
	Blobs         *storage.Store
	Pipeline      *ingest.Pipeline
	Auth          *Auth
	Documents     *Documents
	Uploads       *Uploads
	Social        *Social
	Wallet        *Wallet
	News          *News
	Admin         *Admin
}

// newTestEnv creates a complete test environment with all handler
// dependencies. Storage lives in a temp dir and the PDF converter
// points at a missing binary, so originals are kept as-is.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testDB(t)
	vk := testValkeyClient(t)

	root := t.TempDir()
	blobs, err := storage.New(filepath.Join(root, "uploads"), filepath.Join(root, "thumbs"))
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	placeholder := filepath.Join(root, "placeholder.jpg")
	if err := os.WriteFile(placeholder, []byte("jpeg"), 0o644); err != nil {
		t.Fatalf("write placeholder: %v", err)
	}

	sessions := session.NewStore(vk)
	gate := cache.NewDownloadGate(vk)
	userStore := store.NewUserStore(db)
	docStore := store.NewDocumentStore(db)
	categoryStore := store.NewCategoryStore(db)
	walletStore := store.NewWalletStore(db)
	commentStore := store.NewCommentStore(db)
	likeStore := store.NewLikeStore(db)
	reportStore := store.NewReportStore(db)
	newsStore := store.NewNewsStore(db)

	converter := convert.New(filepath.Join(root, "soffice-not-installed"))
	previews := preview.NewGenerator(blobs, placeholder)
	pipeline := ingest.NewPipeline(blobs, converter, previews, docStore, categoryStore)

	return &testEnv{
		DB:            db,
		Valkey:        vk,
		Sessions:      sessions,
		UserStore:     userStore,
		DocStore:      docStore,
		CategoryStore: categoryStore,
		WalletStore:   walletStore,
		CommentStore:  commentStore,
		LikeStore:     likeStore,
		ReportStore:   reportStore,
		NewsStore:     newsStore,
		Blobs:         blobs,
		Pipeline:      pipeline,
		Auth:          NewAuth(sessions, userStore),
		Documents:     NewDocuments(docStore, categoryStore, commentStore, likeStore, walletStore, previews, blobs, gate),
		Uploads:       NewUploads(pipeline),
		Social:        NewSocial(docStore, commentStore, likeStore, reportStore),
		Wallet:        NewWallet(walletStore, docStore),
		News:          NewNews(newsStore),
		Admin:         NewAdmin(docStore, categoryStore, userStore, commentStore, reportStore, newsStore, walletStore, pipeline, previews, blobs),
	}
}

// testUser creates a throwaway user and registers cleanup.
func (e *testEnv) testUser(t *testing.T, role models.Role) *models.User {
	t.Helper()

	name := "t_" + uuid.NewString()[:8]
	u, err := e.UserStore.Create(name, name+"@test.local", "secret123", nil, role)
	if err != nil {
		t.Fatalf("create test user: %v", err)
	}
	t.Cleanup(func() { e.DB.Exec("DELETE FROM users WHERE id = $1", u.ID) })
	return u
}

// testDocument inserts a document row with a real backing blob.
func (e *testEnv) testDocument(t *testing.T, uploader *models.User, status models.DocumentStatus, price int64) *models.Document {
	t.Helper()

	rel, _, err := e.Blobs.WriteNew(storage.GuestFolder, storage.UniqueName("sample.pdf"), testPDFReader())
	if err != nil {
		t.Fatalf("write test blob: %v", err)
	}

	d := &models.Document{
		Title:    "t_" + uuid.NewString()[:8],
		FileName: "sample.pdf",
		FilePath: rel,
		Status:   status,
		Price:    price,
	}
	if uploader != nil {
		d.UploaderID = &uploader.ID
	} else {
		d.GuestUpload = true
	}

	created, err := e.DocStore.Create(d)
	if err != nil {
		t.Fatalf("create test document: %v", err)
	}
	t.Cleanup(func() { e.DB.Exec("DELETE FROM documents WHERE id = $1", created.ID) })
	return created
}

// sessionFor logs the user into the session store and returns the
// matching context session data.
func sessionFor(u *models.User) *session.Data {
	return &session.Data{
		UserID:    u.ID,
		Username:  u.Username,
		Role:      string(u.Role),
		TwoFADone: true,
	}
}

// testPDFReader returns a minimal file body for download tests.
func testPDFReader() io.Reader {
	return strings.NewReader("%PDF-1.4 test body")
}

// withChiURLParam adds a chi URL parameter to a request.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// withChiURLParamAndSession adds both chi URL param and session to a request.
func withChiURLParamAndSession(r *http.Request, key, value string, sess *session.Data) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	ctx = context.WithValue(ctx, middleware.SessionKey, sess)
	return r.WithContext(ctx)
}
