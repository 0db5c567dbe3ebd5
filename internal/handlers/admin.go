// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"docshare/internal/ingest"
	"docshare/internal/middleware"
	"docshare/internal/models"
	"docshare/internal/preview"
	"docshare/internal/storage"
	"docshare/internal/store"
)

// Admin groups every handler behind the admin gate: moderation,
// document management, categories, users, reports and announcements.
type Admin struct {
	docStore      *store.DocumentStore
	categoryStore *store.CategoryStore
	userStore     *store.UserStore
	commentStore  *store.CommentStore
	reportStore   *store.ReportStore
	newsStore     *store.NewsStore
	walletStore   *store.WalletStore
	pipeline      *ingest.Pipeline
	previews      *preview.Generator
	blobs         *storage.Store
}

// NewAdmin creates a new Admin handler group.
func NewAdmin(
	docStore *store.DocumentStore,
	categoryStore *store.CategoryStore,
	userStore *store.UserStore,
	commentStore *store.CommentStore,
	reportStore *store.ReportStore,
	newsStore *store.NewsStore,
	walletStore *store.WalletStore,
	pipeline *ingest.Pipeline,
	previews *preview.Generator,
	blobs *storage.Store,
) *Admin {
	return &Admin{
		docStore:      docStore,
		categoryStore: categoryStore,
		userStore:     userStore,
		commentStore:  commentStore,
		reportStore:   reportStore,
		newsStore:     newsStore,
		walletStore:   walletStore,
		pipeline:      pipeline,
		previews:      previews,
		blobs:         blobs,
	}
}

// Dashboard returns the aggregate figures shown on the admin home.
func (h *Admin) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.docStore.Stats()
	if err != nil {
		serverError(w, "document stats failed", err)
		return
	}
	users, err := h.userStore.Count()
	if err != nil {
		serverError(w, "user count failed", err)
		return
	}
	openReports, err := h.reportStore.CountPending()
	if err != nil {
		serverError(w, "report count failed", err)
		return
	}
	pending, err := h.docStore.ListPending()
	if err != nil {
		serverError(w, "pending list failed", err)
		return
	}
	monthly, err := h.walletStore.MonthlyPurchaseStats()
	if err != nil {
		serverError(w, "monthly purchase stats failed", err)
		return
	}
	recent, err := h.docStore.RecentUploadCount(7)
	if err != nil {
		serverError(w, "recent upload count failed", err)
		return
	}
	top, err := h.docStore.TopCategories(5)
	if err != nil {
		serverError(w, "top categories failed", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"documents":      stats,
		"users":          users,
		"open_reports":   openReports,
		"pending_queue":  pending,
		"this_month":     monthly,
		"recent_uploads": recent,
		"top_categories": top,
	})
}

// PendingDocuments returns the moderation queue, oldest first.
func (h *Admin) PendingDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.docStore.ListPending()
	if err != nil {
		serverError(w, "pending list failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

// AllDocuments returns every document regardless of status.
func (h *Admin) AllDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.docStore.ListAll()
	if err != nil {
		serverError(w, "document list failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

// Approve publishes a pending document.
func (h *Admin) Approve(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, models.StatusApproved)
}

// Reject declines a pending document. The artifact stays on disk so the
// decision is reversible.
func (h *Admin) Reject(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, models.StatusRejected)
}

func (h *Admin) setStatus(w http.ResponseWriter, r *http.Request, status models.DocumentStatus) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.docStore.SetStatus(id, status); err != nil {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	sess := middleware.SessionFromCtx(r.Context())
	slog.Info("document moderated", "document", id, "status", status, "admin", sess.Username)
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "status": status})
}

// UpdateDocument changes a document's metadata and price.
func (h *Admin) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	doc, err := h.docStore.FindByID(id)
	if err != nil {
		serverError(w, "document lookup failed", err)
		return
	}
	if doc == nil {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}

	var req struct {
		Title       string     `json:"title"`
		Description *string    `json:"description"`
		CategoryID  *uuid.UUID `json:"category_id"`
		Price       int64      `json:"price"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	desc := ""
	if req.Description != nil {
		desc = *req.Description
	}
	if msg := validateDocumentMeta(req.Title, desc); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if req.Price < 0 {
		writeError(w, http.StatusBadRequest, "price must be a non-negative integer")
		return
	}
	if req.CategoryID != nil {
		cat, err := h.categoryStore.FindByID(*req.CategoryID)
		if err != nil {
			serverError(w, "category lookup failed", err)
			return
		}
		if cat == nil {
			writeError(w, http.StatusUnprocessableEntity, "category does not exist")
			return
		}
	}

	if err := h.docStore.UpdateMeta(id, strings.TrimSpace(req.Title), req.Description, req.CategoryID, req.Price); err != nil {
		serverError(w, "document update failed", err)
		return
	}

	updated, err := h.docStore.FindByID(id)
	if err != nil {
		serverError(w, "document lookup failed", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// ReplaceFile swaps a document's stored artifact with a freshly
// uploaded one. The replacement runs through the same validation and
// PDF normalization as a new upload.
func (h *Admin) ReplaceFile(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	doc, err := h.docStore.FindByID(id)
	if err != nil {
		serverError(w, "document lookup failed", err)
		return
	}
	if doc == nil {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, ingest.MaxSizeBytes+memoryThreshold)
	if err := r.ParseMultipartForm(memoryThreshold); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "upload too large or malformed")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file supplied or file is empty")
		return
	}
	defer file.Close()

	sess := middleware.SessionFromCtx(r.Context())
	up := ingest.Upload{
		File:     file,
		FileName: header.Filename,
		Size:     header.Size,
	}
	if err := h.pipeline.Replace(r.Context(), doc, sess.UserID, up); err != nil {
		uploadError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// DeleteDocument removes a document, its stored artifact, and its
// cached preview.
func (h *Admin) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	doc, err := h.docStore.Delete(id)
	if err != nil {
		serverError(w, "document delete failed", err)
		return
	}
	if doc == nil {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}

	if err := h.blobs.Delete(doc.FilePath); err != nil {
		slog.Warn("artifact delete failed", "document", id, "error", err)
	}
	h.previews.Invalidate(id)

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ClearPreview drops a document's cached preview so the next request
// re-renders it.
func (h *Admin) ClearPreview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	h.previews.Invalidate(id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "preview cleared"})
}

// CreateCategory adds a category.
func (h *Admin) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string  `json:"name"`
		Description *string `json:"description"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || len(req.Name) > maxNameLen {
		writeError(w, http.StatusBadRequest, "category name is required (max 120 characters)")
		return
	}

	cat, err := h.categoryStore.Create(req.Name, req.Description)
	if err == store.ErrCategoryExists {
		writeError(w, http.StatusConflict, "category name already taken")
		return
	}
	if err != nil {
		serverError(w, "category create failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, cat)
}

// UpdateCategory renames a category or changes its description.
func (h *Admin) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Name        string  `json:"name"`
		Description *string `json:"description"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || len(req.Name) > maxNameLen {
		writeError(w, http.StatusBadRequest, "category name is required (max 120 characters)")
		return
	}

	err := h.categoryStore.Update(id, req.Name, req.Description)
	switch {
	case err == store.ErrCategoryExists:
		writeError(w, http.StatusConflict, "category name already taken")
	case err != nil:
		writeError(w, http.StatusNotFound, "category not found")
	default:
		writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
	}
}

// DeleteCategory removes an empty category. Categories that still have
// documents are refused.
func (h *Admin) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	err := h.categoryStore.Delete(id)
	if err == store.ErrCategoryInUse {
		writeError(w, http.StatusConflict, "category still has documents")
		return
	}
	if err != nil {
		serverError(w, "category delete failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Users lists all accounts.
func (h *Admin) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.userStore.List()
	if err != nil {
		serverError(w, "user list failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

// DeleteUser removes an account. Their documents survive as guest
// uploads; admins cannot delete themselves.
func (h *Admin) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	sess := middleware.SessionFromCtx(r.Context())
	if id == sess.UserID {
		writeError(w, http.StatusConflict, "cannot delete your own account")
		return
	}

	if err := h.userStore.Delete(id); err != nil {
		serverError(w, "user delete failed", err)
		return
	}
	slog.Info("user deleted", "user", id, "admin", sess.Username)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ResetUserTOTP clears another admin's TOTP enrollment.
func (h *Admin) ResetUserTOTP(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.userStore.ResetTOTP(id); err != nil {
		serverError(w, "totp reset failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "totp reset"})
}

// Reports lists abuse reports, ?status=pending|resolved to filter.
func (h *Admin) Reports(w http.ResponseWriter, r *http.Request) {
	var status *models.ReportStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := models.ReportStatus(raw)
		if s != models.ReportPending && s != models.ReportResolved {
			writeError(w, http.StatusBadRequest, "unknown report status")
			return
		}
		status = &s
	}

	reports, err := h.reportStore.List(status)
	if err != nil {
		serverError(w, "report list failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": reports})
}

// ResolveReport marks a report handled.
func (h *Admin) ResolveReport(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.reportStore.Resolve(id); err != nil {
		writeError(w, http.StatusNotFound, "report not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "resolved"})
}

// DeleteComment removes a comment.
func (h *Admin) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	comment, err := h.commentStore.FindByID(id)
	if err != nil {
		serverError(w, "comment lookup failed", err)
		return
	}
	if comment == nil {
		writeError(w, http.StatusNotFound, "comment not found")
		return
	}
	if err := h.commentStore.Delete(id); err != nil {
		serverError(w, "comment delete failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// CreateNews publishes a site announcement.
func (h *Admin) CreateNews(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	var req struct {
		Title   string  `json:"title"`
		Content string  `json:"content"`
		Summary *string `json:"summary"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "title and content are required")
		return
	}

	item, err := h.newsStore.Create(strings.TrimSpace(req.Title), req.Content, req.Summary, sess.UserID)
	if err != nil {
		serverError(w, "news create failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// UpdateNews rewrites an announcement.
func (h *Admin) UpdateNews(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req struct {
		Title   string  `json:"title"`
		Content string  `json:"content"`
		Summary *string `json:"summary"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "title and content are required")
		return
	}

	if err := h.newsStore.Update(id, strings.TrimSpace(req.Title), req.Content, req.Summary); err != nil {
		writeError(w, http.StatusNotFound, "announcement not found")
		return
	}
	item, err := h.newsStore.FindByID(id)
	if err != nil {
		serverError(w, "news lookup failed", err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// DeleteNews removes an announcement.
func (h *Admin) DeleteNews(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.newsStore.Delete(id); err != nil {
		serverError(w, "news delete failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
