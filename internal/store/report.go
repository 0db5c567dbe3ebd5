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

// ReportStore handles abuse reports against documents.
type ReportStore struct {
	db *sql.DB
}

// NewReportStore creates a new ReportStore with the given database connection.
func NewReportStore(db *sql.DB) *ReportStore {
	return &ReportStore{db: db}
}

// Create files a report against a document.
func (s *ReportStore) Create(documentID, reporterID uuid.UUID, reason string) (*models.Report, error) {
	r := &models.Report{}
	err := s.db.QueryRow(`
		INSERT INTO reports (document_id, reporter_id, reason)
		VALUES ($1, $2, $3)
		RETURNING id, document_id, reporter_id, reason, status, created_at
	`, documentID, reporterID, reason).Scan(
		&r.ID, &r.DocumentID, &r.ReporterID, &r.Reason, &r.Status, &r.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}
	return r, nil
}

// List returns reports for admin triage, optionally filtered by status,
// with reporter names and document titles joined in.
func (s *ReportStore) List(status *models.ReportStatus) ([]models.Report, error) {
	query := `
		SELECT r.id, r.document_id, r.reporter_id, r.reason, r.status, r.created_at,
		       u.username, d.title
		FROM reports r
		JOIN users u ON u.id = r.reporter_id
		JOIN documents d ON d.id = r.document_id`
	var args []any
	if status != nil {
		query += ` WHERE r.status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY r.created_at DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var reports []models.Report
	for rows.Next() {
		var r models.Report
		if err := rows.Scan(
			&r.ID, &r.DocumentID, &r.ReporterID, &r.Reason, &r.Status, &r.CreatedAt,
			&r.ReporterName, &r.DocumentTitle,
		); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// Resolve marks a report as handled.
func (s *ReportStore) Resolve(id uuid.UUID) error {
	res, err := s.db.Exec(`
		UPDATE reports SET status = $1 WHERE id = $2
	`, models.ReportResolved, id)
	if err != nil {
		return fmt.Errorf("resolve report: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountPending returns the number of unhandled reports, for the dashboard.
func (s *ReportStore) CountPending() (int, error) {
	var n int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM reports WHERE status = $1
	`, models.ReportPending).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count pending reports: %w", err)
	}
	return n, nil
}
