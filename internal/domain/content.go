package domain

import (
	"time"

	"github.com/google/uuid"
)

// ContentSection is an editable block of marketing-page content, keyed by a
// stable slug the frontend looks up (e.g. "home-hero", "featured-projects").
type ContentSection struct {
	ID        uuid.UUID              `json:"id"`
	Key       string                 `json:"key"`
	Title     string                 `json:"title"`
	Body      map[string]interface{} `json:"body,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// NewContentSection creates a content section for a slug.
func NewContentSection(key, title string) *ContentSection {
	now := time.Now().UTC()
	return &ContentSection{
		ID:        uuid.New(),
		Key:       key,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
