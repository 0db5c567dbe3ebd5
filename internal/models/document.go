// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DocumentStatus is the moderation lifecycle state of a document.
type DocumentStatus string

const (
	StatusPending  DocumentStatus = "pending"
	StatusApproved DocumentStatus = "approved"
	StatusRejected DocumentStatus = "rejected"
)

// Document represents an uploaded file with its metadata. The file itself
// lives under the uploads root at FilePath; FileName is the sanitized
// display name shown to downloaders.
type Document struct {
	ID          uuid.UUID      `json:"id"`
	Title       string         `json:"title"`
	Description *string        `json:"description,omitempty"`
	CategoryID  *uuid.UUID     `json:"category_id,omitempty"`
	FileName    string         `json:"file_name"`
	FilePath    string         `json:"file_path"`
	SizeBytes   int64          `json:"size_bytes"`
	Status      DocumentStatus `json:"status"`
	UploaderID  *uuid.UUID     `json:"uploader_id,omitempty"`
	GuestUpload bool           `json:"guest_upload"`
	GuestName   *string        `json:"guest_name,omitempty"`
	GuestEmail  *string        `json:"guest_email,omitempty"`
	Price       int64          `json:"price"`
	Downloads   int            `json:"downloads"`
	Likes       int            `json:"likes"`
	UploadedAt  time.Time      `json:"uploaded_at"`

	// Virtual fields populated by store joins.
	UploaderName *string `json:"uploader_name,omitempty"`
	UploaderRole *Role   `json:"-"`
	CategoryName *string `json:"category_name,omitempty"`
}

// IsPaid reports whether downloading this document costs coins. Only
// admin-authored documents can be paid; the uploader's role is the one
// loaded with the document, i.e. the role at query time, not at upload
// time.
func (d *Document) IsPaid() bool {
	return d.Price > 0 && d.UploaderRole != nil && *d.UploaderRole == RoleAdmin
}

// Author returns the display name of whoever uploaded the document:
// the member's username, the guest's supplied name, or "Guest".
func (d *Document) Author() string {
	if d.UploaderName != nil && *d.UploaderName != "" {
		return *d.UploaderName
	}
	if d.GuestName != nil && *d.GuestName != "" {
		return *d.GuestName
	}
	return "Guest"
}

// HumanSize returns a human-readable file size string.
func (d *Document) HumanSize() string {
	const (
		kb = 1024
		mb = 1024 * kb
	)
	switch {
	case d.SizeBytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(d.SizeBytes)/float64(mb))
	case d.SizeBytes >= kb:
		return fmt.Sprintf("%.0f KB", float64(d.SizeBytes)/float64(kb))
	default:
		return fmt.Sprintf("%d B", d.SizeBytes)
	}
}
