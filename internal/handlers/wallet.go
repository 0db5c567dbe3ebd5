package handlers

import (
	"net/http"

	"docshare/internal/middleware"
	"docshare/internal/models"
	"docshare/internal/store"
)

// Wallet groups the coin balance, recharge and purchase handlers.
type Wallet struct {
	walletStore *store.WalletStore
	docStore    *store.DocumentStore
}

// NewWallet creates a new Wallet handler group.
func NewWallet(walletStore *store.WalletStore, docStore *store.DocumentStore) *Wallet {
	return &Wallet{
		walletStore: walletStore,
		docStore:    docStore,
	}
}

// Show returns the signed-in user's balance, recent ledger entries and
// purchases.
func (h *Wallet) Show(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	balance, err := h.walletStore.Balance(sess.UserID)
	if err != nil {
		serverError(w, "balance lookup failed", err)
		return
	}
	entries, err := h.walletStore.Transactions(sess.UserID, 100)
	if err != nil {
		serverError(w, "ledger lookup failed", err)
		return
	}
	purchases, err := h.walletStore.Purchases(sess.UserID)
	if err != nil {
		serverError(w, "purchase lookup failed", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"balance":      balance,
		"transactions": entries,
		"purchases":    purchases,
	})
}

// Recharge credits the signed-in user's balance.
func (h *Wallet) Recharge(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	var req struct {
		Amount int64 `json:"amount"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	balance, err := h.walletStore.Recharge(sess.UserID, req.Amount, "Wallet recharge")
	if err != nil {
		walletError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"balance": balance})
}

// Purchase buys a paid document for the signed-in user. The debit, the
// ledger entry and the purchase record commit atomically.
func (h *Wallet) Purchase(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	id, ok := pathID(w, r)
	if !ok {
		return
	}
	doc, err := h.docStore.FindByID(id)
	if err != nil {
		serverError(w, "document lookup failed", err)
		return
	}
	if doc == nil || doc.Status != models.StatusApproved {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	if !doc.IsPaid() {
		writeError(w, http.StatusConflict, "document is free, no purchase needed")
		return
	}

	purchase, err := h.walletStore.Purchase(sess.UserID, doc)
	if err != nil {
		walletError(w, err)
		return
	}

	balance, err := h.walletStore.Balance(sess.UserID)
	if err != nil {
		serverError(w, "balance lookup failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"purchase": purchase,
		"balance":  balance,
	})
}
