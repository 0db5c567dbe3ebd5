// Package handlers implements the HTTP API of the docshare server.
// Handlers are grouped per area (auth, documents, wallet, admin) and
// exchange JSON except for file and image responses.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"docshare/internal/ingest"
	"docshare/internal/storage"
	"docshare/internal/store"
)

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

// writeError sends a JSON error body with the given status.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// serverError logs the underlying failure and sends an opaque 500.
func serverError(w http.ResponseWriter, what string, err error) {
	slog.Error(what, "error", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// decodeJSON reads the request body into v. Payloads are capped at 1 MiB;
// file uploads use multipart forms, not JSON.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// pathID parses the {id} URL parameter as a UUID.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return uuid.Nil, false
	}
	return id, true
}

// uploadError maps ingestion failures onto HTTP statuses. Unrecognized
// errors are treated as internal.
func uploadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ingest.ErrEmptyFile):
		writeError(w, http.StatusBadRequest, "no file supplied or file is empty")
	case errors.Is(err, ingest.ErrTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "file exceeds the 200 MiB limit")
	case errors.Is(err, ingest.ErrUnsupportedFormat):
		writeError(w, http.StatusUnsupportedMediaType, "file format is not allowed")
	case errors.Is(err, ingest.ErrInvalidCategory):
		writeError(w, http.StatusUnprocessableEntity, "category does not exist")
	case errors.Is(err, storage.ErrInvalidName):
		writeError(w, http.StatusBadRequest, "file name is not usable")
	default:
		serverError(w, "upload failed", err)
	}
}

// walletError maps wallet failures onto HTTP statuses.
func walletError(w http.ResponseWriter, err error) {
	var insufficient *store.InsufficientFundsError
	switch {
	case errors.Is(err, store.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, "amount must be positive")
	case errors.Is(err, store.ErrAlreadyPurchased):
		writeError(w, http.StatusConflict, "document already purchased")
	case errors.As(err, &insufficient):
		writeJSON(w, http.StatusPaymentRequired, map[string]any{
			"error":     "insufficient balance",
			"required":  insufficient.Required,
			"available": insufficient.Available,
		})
	default:
		serverError(w, "wallet operation failed", err)
	}
}
