// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"docshare/internal/models"
)

// docColumns selects a document with its uploader and category joined
// in. The uploader's current role is included because paid status is
// derived from it at read time, never stored.
const docColumns = `
	d.id, d.title, d.description, d.category_id, d.file_name, d.file_path,
	d.size_bytes, d.status, d.uploader_id, d.guest_upload, d.guest_name,
	d.guest_email, d.price, d.downloads, d.likes, d.uploaded_at,
	u.username, u.role, c.name`

const docFrom = `
	FROM documents d
	LEFT JOIN users u ON u.id = d.uploader_id
	LEFT JOIN categories c ON c.id = d.category_id`

// DocumentStore handles all document-related database operations.
type DocumentStore struct {
	db *sql.DB
}

// NewDocumentStore creates a new DocumentStore with the given database connection.
func NewDocumentStore(db *sql.DB) *DocumentStore {
	return &DocumentStore{db: db}
}

func scanDocument(scanner interface{ Scan(...any) error }) (*models.Document, error) {
	d := &models.Document{}
	var role *string
	err := scanner.Scan(
		&d.ID, &d.Title, &d.Description, &d.CategoryID, &d.FileName, &d.FilePath,
		&d.SizeBytes, &d.Status, &d.UploaderID, &d.GuestUpload, &d.GuestName,
		&d.GuestEmail, &d.Price, &d.Downloads, &d.Likes, &d.UploadedAt,
		&d.UploaderName, &role, &d.CategoryName,
	)
	if err != nil {
		return nil, err
	}
	if role != nil {
		r := models.Role(*role)
		d.UploaderRole = &r
	}
	return d, nil
}

func (s *DocumentStore) queryDocuments(query string, args ...any) ([]models.Document, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, *d)
	}
	return docs, rows.Err()
}

// FindByID retrieves a document of any status. Returns nil if not found.
func (s *DocumentStore) FindByID(id uuid.UUID) (*models.Document, error) {
	d, err := scanDocument(s.db.QueryRow(`SELECT `+docColumns+docFrom+` WHERE d.id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find document by id: %w", err)
	}
	return d, nil
}

// Create inserts a new document row and returns it with joins populated.
func (s *DocumentStore) Create(d *models.Document) (*models.Document, error) {
	var id uuid.UUID
	err := s.db.QueryRow(`
		INSERT INTO documents (title, description, category_id, file_name, file_path,
		                       size_bytes, status, uploader_id, guest_upload,
		                       guest_name, guest_email, price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`, d.Title, d.Description, d.CategoryID, d.FileName, d.FilePath,
		d.SizeBytes, d.Status, d.UploaderID, d.GuestUpload,
		d.GuestName, d.GuestEmail, d.Price,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	return s.FindByID(id)
}

// ListApproved returns approved documents, newest first, optionally
// filtered by a case-insensitive title/description search and a category.
func (s *DocumentStore) ListApproved(search string, categoryID *uuid.UUID) ([]models.Document, error) {
	query := `SELECT ` + docColumns + docFrom + ` WHERE d.status = 'approved'`
	var args []any
	if search != "" {
		args = append(args, "%"+search+"%")
		query += fmt.Sprintf(" AND (d.title ILIKE $%d OR d.description ILIKE $%d)", len(args), len(args))
	}
	if categoryID != nil {
		args = append(args, *categoryID)
		query += fmt.Sprintf(" AND d.category_id = $%d", len(args))
	}
	query += ` ORDER BY d.uploaded_at DESC`

	docs, err := s.queryDocuments(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list approved documents: %w", err)
	}
	return docs, nil
}

// Latest returns the most recently approved documents, for the landing page.
func (s *DocumentStore) Latest(limit int) ([]models.Document, error) {
	docs, err := s.queryDocuments(`
		SELECT `+docColumns+docFrom+`
		WHERE d.status = 'approved'
		ORDER BY d.uploaded_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("latest documents: %w", err)
	}
	return docs, nil
}

// ListByUploader returns all of a user's own documents, any status.
func (s *DocumentStore) ListByUploader(userID uuid.UUID) ([]models.Document, error) {
	docs, err := s.queryDocuments(`
		SELECT `+docColumns+docFrom+`
		WHERE d.uploader_id = $1
		ORDER BY d.uploaded_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list documents by uploader: %w", err)
	}
	return docs, nil
}

// ListPending returns documents awaiting moderation, oldest first.
func (s *DocumentStore) ListPending() ([]models.Document, error) {
	docs, err := s.queryDocuments(`
		SELECT ` + docColumns + docFrom + `
		WHERE d.status = 'pending'
		ORDER BY d.uploaded_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list pending documents: %w", err)
	}
	return docs, nil
}

// ListAll returns every document regardless of status, newest first.
func (s *DocumentStore) ListAll() ([]models.Document, error) {
	docs, err := s.queryDocuments(`
		SELECT ` + docColumns + docFrom + `
		ORDER BY d.uploaded_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list all documents: %w", err)
	}
	return docs, nil
}

// SetStatus transitions a document's moderation status.
func (s *DocumentStore) SetStatus(id uuid.UUID, status models.DocumentStatus) error {
	res, err := s.db.Exec(`UPDATE documents SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("set document status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateMeta changes a document's descriptive fields and price.
func (s *DocumentStore) UpdateMeta(id uuid.UUID, title string, description *string, categoryID *uuid.UUID, price int64) error {
	_, err := s.db.Exec(`
		UPDATE documents
		SET title = $1, description = $2, category_id = $3, price = $4
		WHERE id = $5
	`, title, description, categoryID, price, id)
	if err != nil {
		return fmt.Errorf("update document meta: %w", err)
	}
	return nil
}

// UpdateFile repoints a document at a replacement stored artifact.
func (s *DocumentStore) UpdateFile(id uuid.UUID, fileName, filePath string, sizeBytes int64) error {
	res, err := s.db.Exec(`
		UPDATE documents SET file_name = $1, file_path = $2, size_bytes = $3 WHERE id = $4
	`, fileName, filePath, sizeBytes, id)
	if err != nil {
		return fmt.Errorf("update document file: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a document and returns the deleted row, so the caller
// can clean up the stored artifact and cached preview.
func (s *DocumentStore) Delete(id uuid.UUID) (*models.Document, error) {
	d, err := s.FindByID(id)
	if err != nil || d == nil {
		return nil, err
	}
	if _, err := s.db.Exec(`DELETE FROM documents WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("delete document: %w", err)
	}
	return d, nil
}

// IncrementDownloads bumps a document's download counter by one.
func (s *DocumentStore) IncrementDownloads(id uuid.UUID) error {
	_, err := s.db.Exec(`UPDATE documents SET downloads = downloads + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment downloads: %w", err)
	}
	return nil
}

// Stats aggregates document counts for the admin dashboard.
type Stats struct {
	Total          int `json:"total"`
	Pending        int `json:"pending"`
	Approved       int `json:"approved"`
	Rejected       int `json:"rejected"`
	TotalDownloads int `json:"total_downloads"`
}

// Stats returns aggregate document figures in a single query.
func (s *DocumentStore) Stats() (*Stats, error) {
	st := &Stats{}
	err := s.db.QueryRow(`
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'pending'),
		       COUNT(*) FILTER (WHERE status = 'approved'),
		       COUNT(*) FILTER (WHERE status = 'rejected'),
		       COALESCE(SUM(downloads), 0)
		FROM documents
	`).Scan(&st.Total, &st.Pending, &st.Approved, &st.Rejected, &st.TotalDownloads)
	if err != nil {
		return nil, fmt.Errorf("document stats: %w", err)
	}
	return st, nil
}

// RecentUploadCount returns how many documents arrived in the last
// given number of days.
func (s *DocumentStore) RecentUploadCount(days int) (int, error) {
	var n int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM documents
		WHERE uploaded_at >= now() - make_interval(days => $1)
	`, days).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("recent upload count: %w", err)
	}
	return n, nil
}

// CategoryCount pairs a category name with its approved document count.
type CategoryCount struct {
	Name      string `json:"name"`
	Documents int    `json:"documents"`
}

// TopCategories returns the categories with the most approved
// documents, busiest first.
func (s *DocumentStore) TopCategories(limit int) ([]CategoryCount, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := s.db.Query(`
		SELECT c.name, COUNT(d.id)
		FROM categories c
		JOIN documents d ON d.category_id = c.id AND d.status = 'approved'
		GROUP BY c.name
		ORDER BY COUNT(d.id) DESC, c.name
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("top categories: %w", err)
	}
	defer rows.Close()

	var top []CategoryCount
	for rows.Next() {
		var cc CategoryCount
		if err := rows.Scan(&cc.Name, &cc.Documents); err != nil {
			return nil, fmt.Errorf("scan category count: %w", err)
		}
		top = append(top, cc)
	}
	return top, rows.Err()
}
