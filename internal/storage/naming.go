// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package storage

import (
	"errors"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidName is returned when a supplied file name is empty after
// sanitization.
var ErrInvalidName = errors.New("storage: file name is empty after sanitization")

// invalidChars matches every character not allowed in a stored file name.
var invalidChars = regexp.MustCompile(`[^a-zA-Z0-9-_.]`)

// SafeName sanitizes a user-supplied file name for display and storage:
// every character outside [A-Za-z0-9-_.] is replaced with an underscore.
// Any path components are stripped first, so "../../etc/passwd" cannot
// escape the uploads root.
func SafeName(name string) (string, error) {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "." || base == string(filepath.Separator) {
		return "", ErrInvalidName
	}

	safe := invalidChars.ReplaceAllString(base, "_")

	// A name of only underscores and dots carries no usable identity.
	if strings.Trim(safe, "_.") == "" {
		return "", ErrInvalidName
	}
	return safe, nil
}

// UniqueName derives a storage-unique file name from a sanitized one by
// inserting a random token between the base name and its extension.
// Two uploads with identical original names never collide on disk.
func UniqueName(safe string) string {
	ext := filepath.Ext(safe)
	base := strings.TrimSuffix(safe, ext)
	token := strings.ReplaceAll(uuid.New().String(), "-", "")
	return base + "_" + token + ext
}
