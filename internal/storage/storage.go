// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package storage provides the local blob store for uploaded documents
// and cached previews. Documents live under an uploads root in per-owner
// subfolders; previews live under a thumbs root, one file per document,
// named by document identity.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Owner subfolders inside the uploads root.
const (
	GuestFolder = "pending"
	UserFolder  = "users"
	AdminFolder = "admin"
)

// Store is a filesystem-backed blob store rooted at an uploads directory
// and a thumbs directory.
type Store struct {
	uploadsRoot string
	thumbsRoot  string
}

// New creates a Store and ensures both roots exist.
func New(uploadsRoot, thumbsRoot string) (*Store, error) {
	for _, dir := range []string{uploadsRoot, thumbsRoot} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("storage mkdir %s: %w", dir, err)
		}
	}
	return &Store{uploadsRoot: uploadsRoot, thumbsRoot: thumbsRoot}, nil
}

// OwnerFolder returns the uploads subfolder for an upload's owner:
// a shared pending area for guests, or a per-user/per-admin area.
func OwnerFolder(userID *uuid.UUID, admin bool) string {
	switch {
	case userID == nil:
		return GuestFolder
	case admin:
		return filepath.Join(AdminFolder, userID.String())
	default:
		return filepath.Join(UserFolder, userID.String())
	}
}

// WriteNew streams src into a brand-new file under the given uploads
// subfolder, using the unique name produced by the naming service.
// The O_EXCL create guarantees no overwrite even under concurrent
// uploads of the same name. It returns the path relative to the uploads
// root and the number of bytes written.
func (s *Store) WriteNew(subFolder, uniqueName string, src io.Reader) (string, int64, error) {
	dir := filepath.Join(s.uploadsRoot, subFolder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("storage mkdir %s: %w", dir, err)
	}

	abs := filepath.Join(dir, uniqueName)
	f, err := os.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", 0, fmt.Errorf("storage create %s: %w", abs, err)
	}

	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		// Never leave a half-written blob behind.
		os.Remove(abs)
		return "", 0, fmt.Errorf("storage write %s: %w", abs, err)
	}

	rel, err := filepath.Rel(s.uploadsRoot, abs)
	if err != nil {
		os.Remove(abs)
		return "", 0, fmt.Errorf("storage rel path: %w", err)
	}
	return filepath.ToSlash(rel), n, nil
}

// Abs resolves a stored relative path to an absolute one under the
// uploads root. Paths that would escape the root are rejected.
func (s *Store) Abs(relPath string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(relPath))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
		return "", fmt.Errorf("storage: path %q escapes uploads root", relPath)
	}
	return filepath.Join(s.uploadsRoot, clean), nil
}

// Open opens a stored document file for reading.
func (s *Store) Open(relPath string) (*os.File, error) {
	abs, err := s.Abs(relPath)
	if err != nil {
		return nil, err
	}
	return os.Open(abs)
}

// Exists reports whether a stored document file is present on disk.
func (s *Store) Exists(relPath string) bool {
	abs, err := s.Abs(relPath)
	if err != nil {
		return false
	}
	_, err = os.Stat(abs)
	return err == nil
}

// Delete removes a stored document file. Missing files are not an error.
func (s *Store) Delete(relPath string) error {
	abs, err := s.Abs(relPath)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage delete %s: %w", abs, err)
	}
	return nil
}

// ThumbPath returns the preview cache path for a document.
func (s *Store) ThumbPath(docID uuid.UUID) string {
	return filepath.Join(s.thumbsRoot, docID.String()+".jpg")
}

// DeleteThumb removes a document's cached preview. Missing files are
// not an error; failures are the caller's to log, never fatal.
func (s *Store) DeleteThumb(docID uuid.UUID) error {
	if err := os.Remove(s.ThumbPath(docID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage delete thumb %s: %w", docID, err)
	}
	return nil
}
