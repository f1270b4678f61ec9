package repository

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/MrSnakeDoc/ministry/internal/domain"
	"github.com/MrSnakeDoc/ministry/internal/jsonx"
	"github.com/MrSnakeDoc/ministry/internal/store"
)

// Settings singleton names.
const (
	SettingTheme   = "theme"
	SettingEmail   = "email"
	SettingWebhook = "webhook"
)

// SettingsRepository reads and writes the singleton configuration records.
type SettingsRepository struct {
	st store.Store
}

func (r *SettingsRepository) Theme(ctx context.Context) (domain.ThemeSettings, error) {
	return getSetting(ctx, r.st, SettingTheme, domain.DefaultTheme())
}

func (r *SettingsRepository) SetTheme(ctx context.Context, v domain.ThemeSettings) error {
	return putSetting(ctx, r.st, SettingTheme, v)
}

func (r *SettingsRepository) Email(ctx context.Context) (domain.EmailConfig, error) {
	return getSetting(ctx, r.st, SettingEmail, domain.EmailConfig{})
}

func (r *SettingsRepository) SetEmail(ctx context.Context, v domain.EmailConfig) error {
	return putSetting(ctx, r.st, SettingEmail, v)
}

func (r *SettingsRepository) Webhook(ctx context.Context) (domain.WebhookConfig, error) {
	return getSetting(ctx, r.st, SettingWebhook, domain.WebhookConfig{})
}

func (r *SettingsRepository) SetWebhook(ctx context.Context, v domain.WebhookConfig) error {
	if v.Enabled {
		if err := validWebhookURL(v.URL); err != nil {
			return err
		}
	}
	return putSetting(ctx, r.st, SettingWebhook, v)
}

// validWebhookURL accepts absolute https URLs only; the notifier POSTs to it.
func validWebhookURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return domain.Invalid("url", "must be an https URL")
	}
	return nil
}

// getSetting returns def when the singleton was never written.
func getSetting[T any](ctx context.Context, st store.Store, name string, def T) (T, error) {
	data, err := st.Get(ctx, store.K("settings", name))
	if errors.Is(err, store.ErrNotFound) {
		return def, nil
	}
	if err != nil {
		return def, err
	}
	var v T
	if err := jsonx.Unmarshal(data, &v); err != nil {
		return def, fmt.Errorf("failed to decode %s settings: %w", name, err)
	}
	return v, nil
}

func putSetting[T any](ctx context.Context, st store.Store, name string, v T) error {
	data, err := jsonx.Marshal(v)
	if err != nil {
		return err
	}
	return st.Set(ctx, store.K("settings", name), data)
}
