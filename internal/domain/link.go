package domain

import "time"

// Link is an entry of the public link page, shown by ascending Order.
type Link struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Icon      string    `json:"icon,omitempty"`
	Order     int       `json:"order"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type LinkInput struct {
	Title    *string `json:"title"`
	URL      *string `json:"url"`
	Icon     *string `json:"icon"`
	Order    *int    `json:"order"`
	IsActive *bool   `json:"isActive"`
}
