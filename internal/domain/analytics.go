package domain

import "time"

// PageView is one public page hit.
type PageView struct {
	ID       string    `json:"id"`
	Path     string    `json:"path"`
	Referrer string    `json:"referrer,omitempty"`
	At       time.Time `json:"at"`
}

// AnalyticsSummary aggregates page views over a period.
type AnalyticsSummary struct {
	Since  time.Time      `json:"since"`
	Total  int            `json:"total"`
	ByPath map[string]int `json:"byPath"`
	ByDay  map[string]int `json:"byDay"` // YYYY-MM-DD in UTC
}
