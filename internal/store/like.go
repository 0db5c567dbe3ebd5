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

// LikeStore handles document likes and keeps the document's
// denormalized like counter in step with the like rows.
type LikeStore struct {
	db *sql.DB
}

// NewLikeStore creates a new LikeStore with the given database connection.
func NewLikeStore(db *sql.DB) *LikeStore {
	return &LikeStore{db: db}
}

// Toggle flips a user's like on a document and returns the new liked
// state and counter. The row change and the counter update commit
// together; the counter never goes below zero.
func (s *LikeStore) Toggle(documentID, userID uuid.UUID) (liked bool, likes int, err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, 0, fmt.Errorf("toggle like: begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		DELETE FROM likes WHERE document_id = $1 AND user_id = $2
	`, documentID, userID)
	if err != nil {
		return false, 0, fmt.Errorf("toggle like: delete: %w", err)
	}

	removed, _ := res.RowsAffected()
	if removed > 0 {
		err = tx.QueryRow(`
			UPDATE documents SET likes = GREATEST(likes - 1, 0) WHERE id = $1 RETURNING likes
		`, documentID).Scan(&likes)
		if err != nil {
			return false, 0, fmt.Errorf("toggle like: decrement: %w", err)
		}
	} else {
		_, err = tx.Exec(`
			INSERT INTO likes (document_id, user_id) VALUES ($1, $2)
		`, documentID, userID)
		if err != nil {
			return false, 0, fmt.Errorf("toggle like: insert: %w", err)
		}
		err = tx.QueryRow(`
			UPDATE documents SET likes = likes + 1 WHERE id = $1 RETURNING likes
		`, documentID).Scan(&likes)
		if err != nil {
			return false, 0, fmt.Errorf("toggle like: increment: %w", err)
		}
		liked = true
	}

	if err := tx.Commit(); err != nil {
		return false, 0, fmt.Errorf("toggle like: commit: %w", err)
	}
	return liked, likes, nil
}

// HasLiked reports whether the user currently likes the document.
func (s *LikeStore) HasLiked(documentID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRow(`
		SELECT EXISTS (SELECT 1 FROM likes WHERE document_id = $1 AND user_id = $2)
	`, documentID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("has liked: %w", err)
	}
	return exists, nil
}

// ListByUser returns the likes a user has placed, newest first.
func (s *LikeStore) ListByUser(userID uuid.UUID) ([]models.Like, error) {
	rows, err := s.db.Query(`
		SELECT id, document_id, user_id, created_at
		FROM likes WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list likes: %w", err)
	}
	defer rows.Close()

	var likes []models.Like
	for rows.Next() {
		var l models.Like
		if err := rows.Scan(&l.ID, &l.DocumentID, &l.UserID, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan like: %w", err)
		}
		likes = append(likes, l)
	}
	return likes, rows.Err()
}

// ReconcileCounts rewrites every document's like counter from the
// actual like rows. Maintenance escape hatch, not part of normal flow.
func (s *LikeStore) ReconcileCounts() error {
	_, err := s.db.Exec(`
		UPDATE documents d SET likes = (
			SELECT COUNT(*) FROM likes l WHERE l.document_id = d.id
		)
	`)
	if err != nil {
		return fmt.Errorf("reconcile like counts: %w", err)
	}
	return nil
}
