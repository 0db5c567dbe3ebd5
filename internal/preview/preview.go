// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package preview renders and caches first-page raster previews of
// stored documents using libvips. One cached JPEG exists per document,
// keyed by document identity; the requested width is a render-time hint
// only and is not part of the cache key. Every failure falls back to a
// static placeholder image, never to an error.
package preview

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/google/uuid"

	"docshare/internal/models"
	"docshare/internal/storage"
)

const (
	// DefaultWidth is the preview width used when the caller gives none.
	DefaultWidth = 360

	// renderDensity is the DPI at which the PDF first page is rasterized.
	renderDensity = 144

	// jpegQuality is the encode quality of cached previews.
	jpegQuality = 82
)

// Startup initialises the libvips library. Call once at application start.
// concurrency controls the number of libvips worker threads (0 = auto).
func Startup(concurrency int) {
	cfg := &vips.Config{
		ConcurrencyLevel: concurrency,
		MaxCacheSize:     100,
		MaxCacheMem:      50 * 1024 * 1024, // 50 MB
	}
	vips.LoggingSettings(nil, vips.LogLevelWarning)
	vips.Startup(cfg)
	slog.Info("libvips started", "version", vips.Version)
}

// Shutdown releases libvips resources. Call at application shutdown.
func Shutdown() {
	vips.Shutdown()
}

// Generator produces preview images for documents.
type Generator struct {
	store       *storage.Store
	placeholder string
}

// NewGenerator creates a Generator backed by the given blob store and
// a static placeholder image path.
func NewGenerator(store *storage.Store, placeholder string) *Generator {
	return &Generator{store: store, placeholder: placeholder}
}

// Render returns the path of the JPEG to serve as the document's
// preview. A cached file is returned unchanged regardless of width.
// Otherwise, PDF artifacts are rendered and cached; anything else —
// non-PDF artifacts, missing files, render failures — yields the
// placeholder path, uncached.
func (g *Generator) Render(doc *models.Document, width int) string {
	if width <= 0 {
		width = DefaultWidth
	}

	thumb := g.store.ThumbPath(doc.ID)
	if _, err := os.Stat(thumb); err == nil {
		return thumb
	}

	abs, err := g.store.Abs(doc.FilePath)
	if err != nil {
		return g.placeholder
	}
	if !strings.EqualFold(filepath.Ext(abs), ".pdf") {
		return g.placeholder
	}
	if _, err := os.Stat(abs); err != nil {
		return g.placeholder
	}

	if err := renderFirstPage(abs, thumb, width); err != nil {
		slog.Warn("preview render failed", "document", doc.ID, "error", err)
		return g.placeholder
	}
	return thumb
}

// Invalidate deletes the cached preview for a document. Must be called
// whenever the underlying artifact changes or the document is deleted,
// so a stale preview is never served.
func (g *Generator) Invalidate(docID uuid.UUID) {
	if err := g.store.DeleteThumb(docID); err != nil {
		slog.Warn("preview invalidate failed", "document", docID, "error", err)
	}
}

// renderFirstPage rasterizes the first page of the PDF at src onto a
// white background, scales it to the target width preserving aspect
// ratio, and writes a JPEG to dst.
func renderFirstPage(src, dst string, width int) error {
	params := vips.NewImportParams()
	params.Density.Set(renderDensity)
	params.Page.Set(0)
	params.NumPages.Set(1)

	img, err := vips.LoadImageFromFile(src, params)
	if err != nil {
		return fmt.Errorf("preview: load pdf: %w", err)
	}
	defer img.Close()

	// Flatten transparency onto white before JPEG encode.
	if err := img.Flatten(&vips.Color{R: 255, G: 255, B: 255}); err != nil {
		return fmt.Errorf("preview: flatten: %w", err)
	}

	if img.Width() > 0 && img.Width() != width {
		scale := float64(width) / float64(img.Width())
		if err := img.Resize(scale, vips.KernelLanczos3); err != nil {
			return fmt.Errorf("preview: resize: %w", err)
		}
	}

	export := vips.NewJpegExportParams()
	export.Quality = jpegQuality
	export.StripMetadata = true

	buf, _, err := img.ExportJpeg(export)
	if err != nil {
		return fmt.Errorf("preview: export: %w", err)
	}

	if err := os.WriteFile(dst, buf, 0o644); err != nil {
		// Concurrent renders may race on this file; the output is
		// identical either way, so the write is not guarded.
		return fmt.Errorf("preview: write cache: %w", err)
	}
	return nil
}
