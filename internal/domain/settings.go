package domain

// ThemeSettings holds the site colour theme.
type ThemeSettings struct {
	Primary    string `json:"primary"`
	Secondary  string `json:"secondary"`
	Accent     string `json:"accent"`
	Background string `json:"background"`
}

// EmailConfig holds outbound mail settings.
type EmailConfig struct {
	Enabled   bool   `json:"enabled"`
	FromName  string `json:"fromName,omitempty"`
	FromEmail string `json:"fromEmail,omitempty"`
	NotifyTo  string `json:"notifyTo,omitempty"`
}

// WebhookConfig holds the Discord webhook used for submission alerts.
type WebhookConfig struct {
	Enabled bool   `json:"enabled"`
	URL     string `json:"url,omitempty"`
}

// DefaultTheme is served when no theme has been saved.
func DefaultTheme() ThemeSettings {
	return ThemeSettings{
		Primary:    "#1e3a5f",
		Secondary:  "#c9a227",
		Accent:     "#8b5e3c",
		Background: "#faf7f2",
	}
}
