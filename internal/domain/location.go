package domain

import "time"

// Location is a place the ministry visited or is currently at.
// At most one location holds IsCurrent.
type Location struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	City        string    `json:"city,omitempty"`
	State       string    `json:"state,omitempty"`
	Description string    `json:"description,omitempty"`
	Latitude    float64   `json:"latitude,omitempty"`
	Longitude   float64   `json:"longitude,omitempty"`
	VisitedDate time.Time `json:"visitedDate"`
	IsCurrent   bool      `json:"isCurrent"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type LocationInput struct {
	Name        *string    `json:"name"`
	City        *string    `json:"city"`
	State       *string    `json:"state"`
	Description *string    `json:"description"`
	Latitude    *float64   `json:"latitude"`
	Longitude   *float64   `json:"longitude"`
	VisitedDate *time.Time `json:"visitedDate"`
	IsCurrent   *bool      `json:"isCurrent"`
}
