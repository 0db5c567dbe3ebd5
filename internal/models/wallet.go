// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType tags a ledger entry with the kind of event that
// produced it.
type TransactionType string

const (
	TransactionPurchase TransactionType = "purchase"
	TransactionRecharge TransactionType = "recharge"
)

// Purchase records that a user bought a paid document. At most one
// purchase exists per (user, document) pair.
type Purchase struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	DocumentID  uuid.UUID `json:"document_id"`
	Price       int64     `json:"price"`
	PurchasedAt time.Time `json:"purchased_at"`

	// Virtual field populated by store joins.
	DocumentTitle *string `json:"document_title,omitempty"`
}

// Transaction is an append-only ledger entry for a balance-affecting
// event. Amount is signed: negative for spends, positive for credits.
// Every balance mutation is paired with exactly one ledger entry of
// matching signed amount.
type Transaction struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user_id"`
	DocumentID  *uuid.UUID      `json:"document_id,omitempty"`
	Amount      int64           `json:"amount"`
	Type        TransactionType `json:"type"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}
