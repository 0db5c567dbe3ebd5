// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package ingest implements the upload pipeline: validate the untrusted
// file, store it under a per-owner folder, normalize it to PDF
// (best-effort), and persist the document metadata. Metadata is written
// only after the artifact is durably on disk, and a failed metadata
// write removes the orphaned blob — a Document row never points at a
// missing file.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"docshare/internal/convert"
	"docshare/internal/models"
	"docshare/internal/preview"
	"docshare/internal/storage"
	"docshare/internal/store"
)

// MaxSizeBytes is the upload size ceiling (200 MiB).
const MaxSizeBytes int64 = 200 << 20

// Upload validation errors, surfaced to the uploader with the specific
// reason. None of them leaves partial state behind.
var (
	ErrEmptyFile         = errors.New("ingest: no file supplied or file is empty")
	ErrTooLarge          = errors.New("ingest: file exceeds the 200 MiB limit")
	ErrUnsupportedFormat = errors.New("ingest: file format is not allowed")
	ErrInvalidCategory   = errors.New("ingest: category does not exist")
)

// allowedExts is the set of accepted upload extensions.
var allowedExts = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".ppt":  true,
	".pptx": true,
	".txt":  true,
}

// Validate checks an upload's declared name and size, in contract
// order: empty, then size, then extension.
func Validate(filename string, size int64) error {
	if filename == "" || size == 0 {
		return ErrEmptyFile
	}
	if size > MaxSizeBytes {
		return ErrTooLarge
	}
	if !allowedExts[strings.ToLower(filepath.Ext(filename))] {
		return ErrUnsupportedFormat
	}
	return nil
}

// Upload carries an untrusted file stream and its metadata through the
// pipeline.
type Upload struct {
	File     io.Reader
	FileName string // declared name, sanitized before storage
	Size     int64  // declared size in bytes

	Title       string
	Description *string
	CategoryID  *uuid.UUID

	// Exactly one authorship: UploaderID for members/admins, or guest
	// details when UploaderID is nil.
	UploaderID *uuid.UUID
	GuestName  *string
	GuestEmail *string

	// AsAdmin marks an admin-authored upload: stored under the admin
	// area, created Approved, and allowed to carry a price.
	AsAdmin bool
	Price   int64
}

// Pipeline orchestrates validate → store → normalize → persist.
type Pipeline struct {
	blobs      *storage.Store
	converter  *convert.Normalizer
	previews   *preview.Generator
	docs       *store.DocumentStore
	categories *store.CategoryStore
}

// NewPipeline wires the ingestion pipeline.
func NewPipeline(blobs *storage.Store, converter *convert.Normalizer, previews *preview.Generator, docs *store.DocumentStore, categories *store.CategoryStore) *Pipeline {
	return &Pipeline{
		blobs:      blobs,
		converter:  converter,
		previews:   previews,
		docs:       docs,
		categories: categories,
	}
}

// Accept runs the full pipeline for a new upload and returns the
// persisted document. Guest and member documents are created Pending;
// admin documents are created Approved.
func (p *Pipeline) Accept(ctx context.Context, up Upload) (*models.Document, error) {
	if err := Validate(up.FileName, up.Size); err != nil {
		return nil, err
	}
	if err := p.checkCategory(up.CategoryID); err != nil {
		return nil, err
	}

	folder := storage.OwnerFolder(up.UploaderID, up.AsAdmin)
	name, rel, size, err := p.storeAndNormalize(ctx, folder, up.FileName, up.File)
	if err != nil {
		return nil, err
	}

	status := models.StatusPending
	price := int64(0)
	if up.AsAdmin {
		status = models.StatusApproved
		price = max(up.Price, 0)
	}

	title := strings.TrimSpace(up.Title)
	if title == "" {
		title = strings.TrimSuffix(name, filepath.Ext(name))
	}

	doc := &models.Document{
		Title:       title,
		Description: up.Description,
		CategoryID:  up.CategoryID,
		FileName:    name,
		FilePath:    rel,
		SizeBytes:   size,
		Status:      status,
		UploaderID:  up.UploaderID,
		GuestUpload: up.UploaderID == nil,
		GuestName:   up.GuestName,
		GuestEmail:  up.GuestEmail,
		Price:       price,
	}

	created, err := p.docs.Create(doc)
	if err != nil {
		// The artifact is orphaned without its metadata row; remove it.
		if derr := p.blobs.Delete(rel); derr != nil {
			slog.Warn("orphaned upload cleanup failed", "path", rel, "error", derr)
		}
		return nil, fmt.Errorf("ingest: persist document: %w", err)
	}
	return created, nil
}

// Replace swaps a document's stored artifact (admin edit). The new file
// goes through the same validate → store → normalize sequence into the
// document's existing folder when it has one. The old artifact and the
// cached preview are removed only after both the new artifact and the
// updated metadata are durably written, so the document never points at
// a deleted file.
func (p *Pipeline) Replace(ctx context.Context, doc *models.Document, adminID uuid.UUID, up Upload) error {
	if err := Validate(up.FileName, up.Size); err != nil {
		return err
	}

	folder := filepath.Dir(filepath.FromSlash(doc.FilePath))
	if folder == "." || folder == "" {
		folder = storage.OwnerFolder(&adminID, true)
	}

	name, rel, size, err := p.storeAndNormalize(ctx, folder, up.FileName, up.File)
	if err != nil {
		return err
	}

	oldName, oldPath, oldSize := doc.FileName, doc.FilePath, doc.SizeBytes
	doc.FileName = name
	doc.FilePath = rel
	doc.SizeBytes = size

	if err := p.docs.UpdateFile(doc.ID, name, rel, size); err != nil {
		// Metadata still points at the old artifact; discard the new one
		// and put the in-memory document back the way it was.
		doc.FileName = oldName
		doc.FilePath = oldPath
		doc.SizeBytes = oldSize
		if derr := p.blobs.Delete(rel); derr != nil {
			slog.Warn("replacement upload cleanup failed", "path", rel, "error", derr)
		}
		return fmt.Errorf("ingest: update document file: %w", err)
	}

	if oldPath != "" && oldPath != rel {
		if err := p.blobs.Delete(oldPath); err != nil {
			slog.Warn("old artifact delete failed", "path", oldPath, "error", err)
		}
	}
	p.previews.Invalidate(doc.ID)
	return nil
}

// storeAndNormalize writes the upload to disk under folder and attempts
// PDF normalization. It returns the final display name, relative path,
// and on-disk size. Conversion failure is never fatal: the original
// artifact is kept.
func (p *Pipeline) storeAndNormalize(ctx context.Context, folder, fileName string, src io.Reader) (name, rel string, size int64, err error) {
	safe, err := storage.SafeName(fileName)
	if err != nil {
		return "", "", 0, err
	}

	rel, size, err = p.blobs.WriteNew(folder, storage.UniqueName(safe), src)
	if err != nil {
		return "", "", 0, err
	}

	// Honor caller cancellation between the write and the conversion.
	if ctx.Err() != nil {
		if derr := p.blobs.Delete(rel); derr != nil {
			slog.Warn("cancelled upload cleanup failed", "path", rel, "error", derr)
		}
		return "", "", 0, ctx.Err()
	}

	name = safe
	abs, err := p.blobs.Abs(rel)
	if err != nil {
		return "", "", 0, err
	}

	pdfAbs, convErr := p.converter.ToPDF(ctx, abs)
	switch {
	case convErr != nil:
		// Keep the original, non-portable artifact.
		slog.Warn("pdf conversion failed, keeping original", "file", safe, "error", convErr)
	case pdfAbs != abs:
		// The PDF rendition becomes the canonical artifact.
		if err := p.blobs.Delete(rel); err != nil {
			slog.Warn("pre-conversion artifact delete failed", "path", rel, "error", err)
		}
		rel = filepath.ToSlash(filepath.Join(folder, filepath.Base(pdfAbs)))
		name = strings.TrimSuffix(safe, filepath.Ext(safe)) + ".pdf"
		if info, err := os.Stat(pdfAbs); err == nil {
			size = info.Size()
		}
	}

	return name, rel, size, nil
}

// checkCategory verifies a declared category exists. A nil category is
// allowed — documents may be uncategorized.
func (p *Pipeline) checkCategory(id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	cat, err := p.categories.FindByID(*id)
	if err != nil {
		return fmt.Errorf("ingest: category lookup: %w", err)
	}
	if cat == nil {
		return ErrInvalidCategory
	}
	return nil
}
