// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"docshare/internal/models"
)

// WalletStore handles coin balances, the transaction ledger and
// purchase records. Every balance mutation happens inside a database
// transaction together with its ledger entry, so the ledger always sums
// to the balance delta.
type WalletStore struct {
	db *sql.DB
}

// NewWalletStore creates a new WalletStore with the given database connection.
func NewWalletStore(db *sql.DB) *WalletStore {
	return &WalletStore{db: db}
}

// Balance returns a user's current coin balance.
func (s *WalletStore) Balance(userID uuid.UUID) (int64, error) {
	var balance int64
	err := s.db.QueryRow(`SELECT balance FROM users WHERE id = $1`, userID).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("wallet balance: %w", err)
	}
	return balance, nil
}

// Recharge credits a user's balance and records the matching ledger
// entry. Zero and negative amounts are rejected with ErrInvalidAmount
// before any state changes.
func (s *WalletStore) Recharge(userID uuid.UUID, amount int64, description string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("recharge: begin: %w", err)
	}
	defer tx.Rollback()

	var balance int64
	err = tx.QueryRow(`
		UPDATE users SET balance = balance + $1 WHERE id = $2 RETURNING balance
	`, amount, userID).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("recharge: credit: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO transactions (user_id, amount, type, description)
		VALUES ($1, $2, $3, $4)
	`, userID, amount, models.TransactionRecharge, description)
	if err != nil {
		return 0, fmt.Errorf("recharge: ledger: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("recharge: commit: %w", err)
	}
	return balance, nil
}

// Purchase buys a paid document for a user. The debit, the ledger entry
// and the purchase record commit atomically, or none of them do.
//
// The balance row is locked for the duration of the transaction, so
// concurrent purchases by the same user serialize and cannot overspend.
// A concurrent duplicate purchase of the same document loses to the
// unique (user, document) constraint and reports ErrAlreadyPurchased.
func (s *WalletStore) Purchase(userID uuid.UUID, doc *models.Document) (*models.Purchase, error) {
	owned, err := s.HasPurchased(userID, doc.ID)
	if err != nil {
		return nil, err
	}
	if owned {
		return nil, ErrAlreadyPurchased
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("purchase: begin: %w", err)
	}
	defer tx.Rollback()

	var balance int64
	err = tx.QueryRow(`SELECT balance FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&balance)
	if err != nil {
		return nil, fmt.Errorf("purchase: lock balance: %w", err)
	}
	if balance < doc.Price {
		return nil, &InsufficientFundsError{Required: doc.Price, Available: balance}
	}

	_, err = tx.Exec(`UPDATE users SET balance = balance - $1 WHERE id = $2`, doc.Price, userID)
	if err != nil {
		return nil, fmt.Errorf("purchase: debit: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO transactions (user_id, document_id, amount, type, description)
		VALUES ($1, $2, $3, $4, $5)
	`, userID, doc.ID, -doc.Price, models.TransactionPurchase, "Purchased: "+doc.Title)
	if err != nil {
		return nil, fmt.Errorf("purchase: ledger: %w", err)
	}

	p := &models.Purchase{}
	err = tx.QueryRow(`
		INSERT INTO purchases (user_id, document_id, price)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, document_id, price, purchased_at
	`, userID, doc.ID, doc.Price).Scan(&p.ID, &p.UserID, &p.DocumentID, &p.Price, &p.PurchasedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyPurchased
		}
		return nil, fmt.Errorf("purchase: record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("purchase: commit: %w", err)
	}
	return p, nil
}

// HasPurchased reports whether a user owns a purchase of the document.
func (s *WalletStore) HasPurchased(userID, documentID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRow(`
		SELECT EXISTS (SELECT 1 FROM purchases WHERE user_id = $1 AND document_id = $2)
	`, userID, documentID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("has purchased: %w", err)
	}
	return exists, nil
}

// Purchases returns a user's purchases, newest first, with document titles.
func (s *WalletStore) Purchases(userID uuid.UUID) ([]models.Purchase, error) {
	rows, err := s.db.Query(`
		SELECT p.id, p.user_id, p.document_id, p.price, p.purchased_at, d.title
		FROM purchases p
		JOIN documents d ON d.id = p.document_id
		WHERE p.user_id = $1
		ORDER BY p.purchased_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()

	var purchases []models.Purchase
	for rows.Next() {
		var p models.Purchase
		if err := rows.Scan(&p.ID, &p.UserID, &p.DocumentID, &p.Price, &p.PurchasedAt, &p.DocumentTitle); err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		purchases = append(purchases, p)
	}
	return purchases, rows.Err()
}

// MonthlyStats summarizes purchase activity since the start of the
// current month.
type MonthlyStats struct {
	Purchases  int   `json:"purchases"`
	CoinsSpent int64 `json:"coins_spent"`
}

// MonthlyPurchaseStats returns the number of purchases and the coins
// spent on them this calendar month, across all users.
func (s *WalletStore) MonthlyPurchaseStats() (*MonthlyStats, error) {
	m := &MonthlyStats{}
	err := s.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(price), 0)
		FROM purchases
		WHERE purchased_at >= date_trunc('month', now())
	`).Scan(&m.Purchases, &m.CoinsSpent)
	if err != nil {
		return nil, fmt.Errorf("monthly purchase stats: %w", err)
	}
	return m, nil
}

// Transactions returns a user's most recent ledger entries, newest first.
func (s *WalletStore) Transactions(userID uuid.UUID, limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(`
		SELECT id, user_id, document_id, amount, type, description, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var entries []models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.DocumentID, &t.Amount, &t.Type, &t.Description, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		entries = append(entries, t)
	}
	return entries, rows.Err()
}
