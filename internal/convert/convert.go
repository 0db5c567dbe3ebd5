// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package convert normalizes uploaded documents to PDF by delegating to
// a headless LibreOffice subprocess. Conversion is best-effort: on any
// failure or timeout the caller keeps the original artifact, so a broken
// or missing converter never blocks ingestion.
package convert

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// DefaultTimeout bounds a single conversion. The subprocess is killed
// when the deadline passes.
const DefaultTimeout = 90 * time.Second

// Normalizer converts documents to PDF via an external binary.
type Normalizer struct {
	binary  string
	timeout time.Duration
}

// New creates a Normalizer using the given LibreOffice binary path
// ("soffice" when it is on PATH).
func New(binary string) *Normalizer {
	return &Normalizer{binary: binary, timeout: DefaultTimeout}
}

// WithTimeout overrides the conversion deadline. Used by tests.
func (n *Normalizer) WithTimeout(d time.Duration) *Normalizer {
	n.timeout = d
	return n
}

// ToPDF attempts to produce a PDF rendition of the file at absPath in
// the same folder. It returns the absolute path of the PDF on success.
// A file that is already a PDF is returned unchanged. On converter
// failure or timeout it returns ("", error); the caller proceeds with
// the original artifact.
func (n *Normalizer) ToPDF(ctx context.Context, absPath string) (string, error) {
	if strings.EqualFold(filepath.Ext(absPath), ".pdf") {
		return absPath, nil
	}

	outDir := filepath.Dir(absPath)

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, n.binary,
		"--headless", "--norestore",
		"--convert-to", "pdf",
		"--outdir", outDir,
		absPath,
	)

	out, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("convert: %s timed out after %s", n.binary, n.timeout)
		}
		return "", fmt.Errorf("convert: %s: %w (%s)", n.binary, err, strings.TrimSpace(string(out)))
	}

	// The converter writes a same-named .pdf next to the source.
	base := strings.TrimSuffix(filepath.Base(absPath), filepath.Ext(absPath))
	pdf := filepath.Join(outDir, base+".pdf")
	if _, err := os.Stat(pdf); err != nil {
		return "", fmt.Errorf("convert: no output produced for %s", filepath.Base(absPath))
	}

	slog.Debug("document converted to pdf", "source", filepath.Base(absPath))
	return pdf, nil
}
