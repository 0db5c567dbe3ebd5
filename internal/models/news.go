package models

import (
	"time"

	"github.com/google/uuid"
)

// News is a site announcement written by an admin.
type News struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	Summary     *string    `json:"summary,omitempty"`
	AuthorID    *uuid.UUID `json:"author_id,omitempty"`
	PublishedAt time.Time  `json:"published_at"`

	// Virtual field populated by store joins.
	AuthorName *string `json:"author_name,omitempty"`
}
