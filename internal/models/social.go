// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// ReportStatus is the triage state of an abuse report.
type ReportStatus string

const (
	ReportPending  ReportStatus = "pending"
	ReportResolved ReportStatus = "resolved"
)

// Comment is a user comment on a document. Comments are removed when
// the parent document is deleted.
type Comment struct {
	ID         uuid.UUID `json:"id"`
	DocumentID uuid.UUID `json:"document_id"`
	UserID     uuid.UUID `json:"user_id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`

	// Virtual fields populated by store joins.
	Username      *string `json:"username,omitempty"`
	DocumentTitle *string `json:"document_title,omitempty"`
}

// Like marks that a user liked a document. Unique per (user, document);
// the document carries a denormalized like counter that mirrors the
// number of rows here.
type Like struct {
	ID         uuid.UUID `json:"id"`
	DocumentID uuid.UUID `json:"document_id"`
	UserID     uuid.UUID `json:"user_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Report is an abuse report filed by a user against a document.
type Report struct {
	ID         uuid.UUID    `json:"id"`
	DocumentID uuid.UUID    `json:"document_id"`
	ReporterID uuid.UUID    `json:"reporter_id"`
	Reason     string       `json:"reason"`
	Status     ReportStatus `json:"status"`
	CreatedAt  time.Time    `json:"created_at"`

	// Virtual fields populated by store joins.
	ReporterName  *string `json:"reporter_name,omitempty"`
	DocumentTitle *string `json:"document_title,omitempty"`
}
