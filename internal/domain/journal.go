package domain

import "time"

// JournalEntry is a travel or ministry journal post.
type JournalEntry struct {
	// ─────────────────────────────
	// Identity
	// ─────────────────────────────

	ID string `json:"id"`

	// Slug is derived from Title and unique across entries.
	// Example: "an-encounter-in-phoenix"
	Slug string `json:"slug"`

	// ─────────────────────────────
	// Content
	// ─────────────────────────────

	Title    string `json:"title"`
	Content  string `json:"content"`
	Excerpt  string `json:"excerpt"` // derived from Content
	Location string `json:"location,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`

	// Date orders the journal; it defaults to CreatedAt.
	Date time.Time `json:"date"`

	// ─────────────────────────────
	// Visibility
	// ─────────────────────────────

	IsPublished bool `json:"isPublished"`
	IsFeatured  bool `json:"isFeatured"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// JournalInput carries create and update fields. Nil fields are left
// untouched on update.
type JournalInput struct {
	Title       *string    `json:"title"`
	Content     *string    `json:"content"`
	Location    *string    `json:"location"`
	ImageURL    *string    `json:"imageUrl"`
	Date        *time.Time `json:"date"`
	IsPublished *bool      `json:"isPublished"`
	IsFeatured  *bool      `json:"isFeatured"`
}
