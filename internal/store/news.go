package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"docshare/internal/models"
)

// NewsStore handles site announcement posts.
type NewsStore struct {
	db *sql.DB
}

// NewNewsStore creates a new NewsStore with the given database connection.
func NewNewsStore(db *sql.DB) *NewsStore {
	return &NewsStore{db: db}
}

// List returns announcements newest first, with author names joined in.
func (s *NewsStore) List(limit int) ([]models.News, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT n.id, n.title, n.content, n.summary, n.author_id, n.published_at, u.username
		FROM news n
		LEFT JOIN users u ON u.id = n.author_id
		ORDER BY n.published_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list news: %w", err)
	}
	defer rows.Close()

	var items []models.News
	for rows.Next() {
		var n models.News
		if err := rows.Scan(&n.ID, &n.Title, &n.Content, &n.Summary, &n.AuthorID, &n.PublishedAt, &n.AuthorName); err != nil {
			return nil, fmt.Errorf("scan news: %w", err)
		}
		items = append(items, n)
	}
	return items, rows.Err()
}

// FindByID retrieves a single announcement. Returns nil if not found.
func (s *NewsStore) FindByID(id uuid.UUID) (*models.News, error) {
	n := &models.News{}
	err := s.db.QueryRow(`
		SELECT n.id, n.title, n.content, n.summary, n.author_id, n.published_at, u.username
		FROM news n
		LEFT JOIN users u ON u.id = n.author_id
		WHERE n.id = $1
	`, id).Scan(&n.ID, &n.Title, &n.Content, &n.Summary, &n.AuthorID, &n.PublishedAt, &n.AuthorName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find news by id: %w", err)
	}
	return n, nil
}

// Create publishes an announcement.
func (s *NewsStore) Create(title, content string, summary *string, authorID uuid.UUID) (*models.News, error) {
	n := &models.News{}
	err := s.db.QueryRow(`
		INSERT INTO news (title, content, summary, author_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, title, content, summary, author_id, published_at
	`, title, content, summary, authorID).Scan(
		&n.ID, &n.Title, &n.Content, &n.Summary, &n.AuthorID, &n.PublishedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create news: %w", err)
	}
	return n, nil
}

// Update rewrites an announcement's title, content and summary.
// Returns sql.ErrNoRows when the announcement does not exist.
func (s *NewsStore) Update(id uuid.UUID, title, content string, summary *string) error {
	res, err := s.db.Exec(`
		UPDATE news SET title = $1, content = $2, summary = $3 WHERE id = $4
	`, title, content, summary, id)
	if err != nil {
		return fmt.Errorf("update news: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes an announcement.
func (s *NewsStore) Delete(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM news WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete news: %w", err)
	}
	return nil
}
