// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"docshare/internal/cache"
	"docshare/internal/markdown"
	"docshare/internal/middleware"
	"docshare/internal/models"
	"docshare/internal/preview"
	"docshare/internal/session"
	"docshare/internal/storage"
	"docshare/internal/store"
)

// Documents groups the public document browsing and download handlers.
type Documents struct {
	docStore      *store.DocumentStore
	categoryStore *store.CategoryStore
	commentStore  *store.CommentStore
	likeStore     *store.LikeStore
	walletStore   *store.WalletStore
	previews      *preview.Generator
	blobs         *storage.Store
	gate          *cache.DownloadGate
}

// NewDocuments creates a new Documents handler group.
func NewDocuments(
	docStore *store.DocumentStore,
	categoryStore *store.CategoryStore,
	commentStore *store.CommentStore,
	likeStore *store.LikeStore,
	walletStore *store.WalletStore,
	previews *preview.Generator,
	blobs *storage.Store,
	gate *cache.DownloadGate,
) *Documents {
	return &Documents{
		docStore:      docStore,
		categoryStore: categoryStore,
		commentStore:  commentStore,
		likeStore:     likeStore,
		walletStore:   walletStore,
		previews:      previews,
		blobs:         blobs,
		gate:          gate,
	}
}

// List returns approved documents, with optional ?q= search and
// ?category= filter.
func (h *Documents) List(w http.ResponseWriter, r *http.Request) {
	var categoryID *uuid.UUID
	if raw := r.URL.Query().Get("category"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid category")
			return
		}
		categoryID = &id
	}

	docs, err := h.docStore.ListApproved(r.URL.Query().Get("q"), categoryID)
	if err != nil {
		serverError(w, "document list failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

// Latest returns the newest approved documents for the landing page.
func (h *Documents) Latest(w http.ResponseWriter, r *http.Request) {
	docs, err := h.docStore.Latest(8)
	if err != nil {
		serverError(w, "latest documents failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

// Categories returns all categories with their approved document counts.
func (h *Documents) Categories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.categoryStore.List()
	if err != nil {
		serverError(w, "category list failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": cats})
}

// Get returns a document's full detail: metadata, rendered description,
// comments, and the viewer's relationship to it (liked, owned).
func (h *Documents) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	doc, err := h.docStore.FindByID(id)
	if err != nil {
		serverError(w, "document lookup failed", err)
		return
	}
	sess := middleware.SessionFromCtx(r.Context())
	if doc == nil || !h.canSee(doc, sess) {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}

	comments, err := h.commentStore.ListByDocument(doc.ID)
	if err != nil {
		serverError(w, "comment list failed", err)
		return
	}

	resp := map[string]any{
		"document": doc,
		"paid":     doc.IsPaid(),
		"comments": comments,
	}

	if doc.Description != nil {
		html, err := markdown.ToHTML(*doc.Description)
		if err == nil {
			resp["description_html"] = html
		}
	}

	if sess != nil {
		liked, err := h.likeStore.HasLiked(doc.ID, sess.UserID)
		if err == nil {
			resp["liked"] = liked
		}
		if doc.IsPaid() {
			owned, err := h.walletStore.HasPurchased(sess.UserID, doc.ID)
			if err == nil {
				resp["owned"] = owned || h.isUploader(doc, sess) || sess.Role == "admin"
			}
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// Mine returns the signed-in user's own uploads, all statuses.
func (h *Documents) Mine(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	docs, err := h.docStore.ListByUploader(sess.UserID)
	if err != nil {
		serverError(w, "own document list failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

// Preview serves the document's first-page preview image, or the
// placeholder when no preview can be produced. ?w= adjusts the render
// width for a not-yet-cached preview.
func (h *Documents) Preview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	doc, err := h.docStore.FindByID(id)
	if err != nil {
		serverError(w, "document lookup failed", err)
		return
	}
	sess := middleware.SessionFromCtx(r.Context())
	if doc == nil || !h.canSee(doc, sess) {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}

	width, _ := strconv.Atoi(r.URL.Query().Get("w"))
	path := h.previews.Render(doc, width)

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=300")
	http.ServeFile(w, r, path)
}

// Download streams the stored artifact. The first download of a paid
// document by a signed-in user buys it: debit, ledger entry and
// purchase row commit atomically before the bytes are served. Repeat
// downloads by the same visitor within the counting window do not move
// the download counter, but are always served.
func (h *Documents) Download(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	doc, err := h.docStore.FindByID(id)
	if err != nil {
		serverError(w, "document lookup failed", err)
		return
	}
	sess := middleware.SessionFromCtx(r.Context())
	if doc == nil || !h.canSee(doc, sess) {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}

	if doc.IsPaid() && !h.entitled(doc, sess) {
		if sess == nil {
			writeError(w, http.StatusUnauthorized, "sign in to purchase this document")
			return
		}
		// Buying happens on the download itself. An existing purchase
		// racing in concurrently is fine: it already grants access.
		if _, err := h.walletStore.Purchase(sess.UserID, doc); err != nil && err != store.ErrAlreadyPurchased {
			walletError(w, err)
			return
		}
	}

	abs, err := h.blobs.Abs(doc.FilePath)
	if err != nil {
		serverError(w, "artifact path resolution failed", err)
		return
	}
	if !h.blobs.Exists(doc.FilePath) {
		writeError(w, http.StatusNotFound, "stored file is missing")
		return
	}

	visitor := session.VisitorID(w, r)
	if h.gate.ShouldCount(r.Context(), doc.ID, visitor) {
		if err := h.docStore.IncrementDownloads(doc.ID); err != nil {
			slog.Warn("download count failed", "document", doc.ID, "error", err)
		}
	}

	w.Header().Set("Content-Disposition", `attachment; filename="`+doc.FileName+`"`)
	http.ServeFile(w, r, abs)
}

// canSee reports whether the viewer may access the document at all.
// Non-approved documents are visible only to their uploader and admins.
func (h *Documents) canSee(doc *models.Document, sess *session.Data) bool {
	if doc.Status == models.StatusApproved {
		return true
	}
	if sess == nil {
		return false
	}
	return sess.Role == "admin" || h.isUploader(doc, sess)
}

// entitled reports whether the viewer may download a paid document
// without paying again.
func (h *Documents) entitled(doc *models.Document, sess *session.Data) bool {
	if sess == nil {
		return false
	}
	if sess.Role == "admin" || h.isUploader(doc, sess) {
		return true
	}
	owned, err := h.walletStore.HasPurchased(sess.UserID, doc.ID)
	if err != nil {
		slog.Warn("entitlement check failed", "document", doc.ID, "error", err)
		return false
	}
	return owned
}

func (h *Documents) isUploader(doc *models.Document, sess *session.Data) bool {
	return doc.UploaderID != nil && *doc.UploaderID == sess.UserID
}
