package domain

import "time"

// Prayer is a prayer-wall request.
type Prayer struct {
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"` // empty = anonymous
	Email   string `json:"email,omitempty"`
	Request string `json:"request"`

	// IsPublic requests display on the wall; it still needs IsApproved.
	IsPublic   bool `json:"isPublic"`
	IsApproved bool `json:"isApproved"`

	// IsPrayed is set by the admin once the request was prayed over.
	// PrayedAt drives retention.
	IsPrayed bool       `json:"isPrayed"`
	PrayedAt *time.Time `json:"prayedAt,omitempty"`

	// PrayerCount counts visitors who pressed "I prayed".
	PrayerCount int `json:"prayerCount"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type PrayerInput struct {
	Name       *string `json:"name"`
	Email      *string `json:"email"`
	Request    *string `json:"request"`
	IsPublic   *bool   `json:"isPublic"`
	IsApproved *bool   `json:"isApproved"`
}

// OnWall reports whether the prayer is visible publicly.
func (p *Prayer) OnWall() bool { return p.IsPublic && p.IsApproved }
