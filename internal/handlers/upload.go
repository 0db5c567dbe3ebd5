// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"mime/multipart"
	"net/http"
	"net/mail"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"docshare/internal/ingest"
	"docshare/internal/middleware"
	"docshare/internal/session"
)

// memoryThreshold is how much of a multipart body is buffered in memory
// before spilling to temp files.
const memoryThreshold = 32 << 20

// Uploads handles document submission for guests and members.
type Uploads struct {
	pipeline *ingest.Pipeline
}

// NewUploads creates a new Uploads handler group.
func NewUploads(pipeline *ingest.Pipeline) *Uploads {
	return &Uploads{pipeline: pipeline}
}

// uploadForm pulls the shared multipart fields out of a request. The
// request body is capped slightly above the document size limit so an
// oversized upload fails fast instead of filling the disk.
func (h *Uploads) uploadForm(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, ingest.Upload, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, ingest.MaxSizeBytes+memoryThreshold)
	if err := r.ParseMultipartForm(memoryThreshold); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "upload too large or malformed")
		return nil, nil, ingest.Upload{}, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file supplied or file is empty")
		return nil, nil, ingest.Upload{}, false
	}

	up := ingest.Upload{
		File:     file,
		FileName: header.Filename,
		Size:     header.Size,
		Title:    strings.TrimSpace(r.FormValue("title")),
	}

	if desc := strings.TrimSpace(r.FormValue("description")); desc != "" {
		up.Description = &desc
	}
	if raw := r.FormValue("category_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			file.Close()
			writeError(w, http.StatusUnprocessableEntity, "category does not exist")
			return nil, nil, ingest.Upload{}, false
		}
		up.CategoryID = &id
	}

	if msg := validateDocumentMeta(orFileName(up.Title, header.Filename), r.FormValue("description")); msg != "" {
		file.Close()
		writeError(w, http.StatusBadRequest, msg)
		return nil, nil, ingest.Upload{}, false
	}

	return file, header, up, true
}

// Guest accepts an anonymous upload. The document lands in the pending
// moderation queue attributed to the supplied guest details.
func (h *Uploads) Guest(w http.ResponseWriter, r *http.Request) {
	file, _, up, ok := h.uploadForm(w, r)
	if !ok {
		return
	}
	defer file.Close()

	name := strings.TrimSpace(r.FormValue("guest_name"))
	email := strings.TrimSpace(r.FormValue("guest_email"))
	if name != "" {
		up.GuestName = &name
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			writeError(w, http.StatusBadRequest, "guest email is not valid")
			return
		}
		up.GuestEmail = &email
	}

	doc, err := h.pipeline.Accept(r.Context(), up)
	if err != nil {
		uploadError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// Member accepts an upload from a signed-in user. The document is
// attributed to the account and still goes through moderation.
func (h *Uploads) Member(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	file, _, up, ok := h.uploadForm(w, r)
	if !ok {
		return
	}
	defer file.Close()

	up.UploaderID = &sess.UserID
	up.AsAdmin = isAdmin(sess)

	// Only admin uploads may carry a price; it is ignored otherwise.
	if up.AsAdmin {
		if raw := r.FormValue("price"); raw != "" {
			price, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || price < 0 {
				writeError(w, http.StatusBadRequest, "price must be a non-negative integer")
				return
			}
			up.Price = price
		}
	}

	doc, err := h.pipeline.Accept(r.Context(), up)
	if err != nil {
		uploadError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func orFileName(title, filename string) string {
	if title != "" {
		return title
	}
	return filename
}

func isAdmin(sess *session.Data) bool {
	return sess != nil && sess.Role == "admin"
}
