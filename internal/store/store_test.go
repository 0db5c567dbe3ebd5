// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"database/sql"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"docshare/internal/database"
	"docshare/internal/models"
)

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "docshare")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "docshare")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped. A cleanup
// function is registered to close the connection when the test finishes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := testDSN()
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	// Run migrations to ensure the schema is current.
	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	// Downgrade goose global state.
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testUser creates a throwaway user and registers cleanup. Deleting the
// user cascades to purchases, transactions, comments, likes and reports.
func testUser(t *testing.T, db *sql.DB, role models.Role) *models.User {
	t.Helper()

	users := NewUserStore(db)
	name := "t_" + uuid.NewString()[:8]
	u, err := users.Create(name, name+"@test.local", "secret123", nil, role)
	if err != nil {
		t.Fatalf("create test user: %v", err)
	}
	t.Cleanup(func() { db.Exec("DELETE FROM users WHERE id = $1", u.ID) })
	return u
}

// testDocument creates a throwaway document owned by uploader (nil for
// a guest upload) and registers cleanup.
func testDocument(t *testing.T, db *sql.DB, uploader *models.User, status models.DocumentStatus, price int64) *models.Document {
	t.Helper()

	docs := NewDocumentStore(db)
	d := &models.Document{
		Title:    "t_" + uuid.NewString()[:8],
		FileName: "test.pdf",
		FilePath: "pending/test_" + uuid.NewString()[:8] + ".pdf",
		Status:   status,
		Price:    price,
	}
	if uploader != nil {
		d.UploaderID = &uploader.ID
	} else {
		d.GuestUpload = true
	}
	created, err := docs.Create(d)
	if err != nil {
		t.Fatalf("create test document: %v", err)
	}
	t.Cleanup(func() { db.Exec("DELETE FROM documents WHERE id = $1", created.ID) })
	return created
}
