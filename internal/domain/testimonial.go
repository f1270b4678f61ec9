package domain

import "time"

// Testimonial is a visitor story. Public submissions start unapproved.
type Testimonial struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Content    string    `json:"content"`
	Location   string    `json:"location,omitempty"`
	IsApproved bool      `json:"isApproved"`
	IsFeatured bool      `json:"isFeatured"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type TestimonialInput struct {
	Name       *string `json:"name"`
	Content    *string `json:"content"`
	Location   *string `json:"location"`
	IsApproved *bool   `json:"isApproved"`
	IsFeatured *bool   `json:"isFeatured"`
}
