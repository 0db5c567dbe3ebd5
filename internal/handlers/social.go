package handlers

import (
	"net/http"

	"docshare/internal/middleware"
	"docshare/internal/models"
	"docshare/internal/store"
)

// Social groups the like, comment and report handlers. All of them
// require a signed-in user and an approved target document.
type Social struct {
	docStore     *store.DocumentStore
	commentStore *store.CommentStore
	likeStore    *store.LikeStore
	reportStore  *store.ReportStore
}

// NewSocial creates a new Social handler group.
func NewSocial(docStore *store.DocumentStore, commentStore *store.CommentStore, likeStore *store.LikeStore, reportStore *store.ReportStore) *Social {
	return &Social{
		docStore:     docStore,
		commentStore: commentStore,
		likeStore:    likeStore,
		reportStore:  reportStore,
	}
}

// target loads the document and enforces that it is approved.
func (h *Social) target(w http.ResponseWriter, r *http.Request) *models.Document {
	id, ok := pathID(w, r)
	if !ok {
		return nil
	}
	doc, err := h.docStore.FindByID(id)
	if err != nil {
		serverError(w, "document lookup failed", err)
		return nil
	}
	if doc == nil || doc.Status != models.StatusApproved {
		writeError(w, http.StatusNotFound, "document not found")
		return nil
	}
	return doc
}

// Like toggles the signed-in user's like on a document and returns the
// new state and counter.
func (h *Social) Like(w http.ResponseWriter, r *http.Request) {
	doc := h.target(w, r)
	if doc == nil {
		return
	}
	sess := middleware.SessionFromCtx(r.Context())

	liked, likes, err := h.likeStore.Toggle(doc.ID, sess.UserID)
	if err != nil {
		serverError(w, "like toggle failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"liked": liked, "likes": likes})
}

// Comment adds a comment to a document.
func (h *Social) Comment(w http.ResponseWriter, r *http.Request) {
	doc := h.target(w, r)
	if doc == nil {
		return
	}
	sess := middleware.SessionFromCtx(r.Context())

	var req struct {
		Content string `json:"content"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := validateComment(req.Content); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	comment, err := h.commentStore.Create(doc.ID, sess.UserID, req.Content)
	if err != nil {
		serverError(w, "comment create failed", err)
		return
	}
	comment.Username = &sess.Username
	writeJSON(w, http.StatusCreated, comment)
}

// Report files an abuse report against a document.
func (h *Social) Report(w http.ResponseWriter, r *http.Request) {
	doc := h.target(w, r)
	if doc == nil {
		return
	}
	sess := middleware.SessionFromCtx(r.Context())

	var req struct {
		Reason string `json:"reason"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := validateReason(req.Reason); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	report, err := h.reportStore.Create(doc.ID, sess.UserID, req.Reason)
	if err != nil {
		serverError(w, "report create failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}
