package handlers

import (
	"net/http"

	"docshare/internal/markdown"
	"docshare/internal/store"
)

// News serves the public announcement feed.
type News struct {
	newsStore *store.NewsStore
}

// NewNews creates a new News handler group.
func NewNews(newsStore *store.NewsStore) *News {
	return &News{newsStore: newsStore}
}

// List returns recent announcements.
func (h *News) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.newsStore.List(20)
	if err != nil {
		serverError(w, "news list failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"news": items})
}

// Get returns one announcement with its content rendered from Markdown.
func (h *News) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	item, err := h.newsStore.FindByID(id)
	if err != nil {
		serverError(w, "news lookup failed", err)
		return
	}
	if item == nil {
		writeError(w, http.StatusNotFound, "announcement not found")
		return
	}

	resp := map[string]any{"news": item}
	if html, err := markdown.ToHTML(item.Content); err == nil {
		resp["content_html"] = html
	}
	writeJSON(w, http.StatusOK, resp)
}
