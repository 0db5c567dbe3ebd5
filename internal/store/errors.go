// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel errors returned by store methods for conditions the caller
// is expected to handle, as opposed to infrastructure failures.
var (
	ErrUserExists       = errors.New("store: username or email already taken")
	ErrCategoryExists   = errors.New("store: category name already taken")
	ErrCategoryInUse    = errors.New("store: category still has documents")
	ErrAlreadyPurchased = errors.New("store: document already purchased")
	ErrInvalidAmount    = errors.New("store: amount must be positive")
)

// InsufficientFundsError reports a failed debit together with the
// amounts involved, so callers can show the shortfall.
type InsufficientFundsError struct {
	Required  int64
	Available int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("store: insufficient funds: need %d, have %d", e.Required, e.Available)
}

// PostgreSQL error codes, per the SQLSTATE standard.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation
}
