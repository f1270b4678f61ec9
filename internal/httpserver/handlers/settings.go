package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/ministry/internal/domain"
	"github.com/MrSnakeDoc/ministry/internal/httpserver/deps"
	"github.com/MrSnakeDoc/ministry/internal/jsonx"
	"github.com/MrSnakeDoc/ministry/internal/logger"
	"github.com/MrSnakeDoc/ministry/internal/repository"
)

// setting binds one singleton to its getter and setter.
type setting struct {
	get func(ctx context.Context, s *repository.SettingsRepository) (any, error)
	put func(r *http.Request, d deps.Deps) (any, error)
}

func bindSetting[T any](
	get func(*repository.SettingsRepository, context.Context) (T, error),
	set func(*repository.SettingsRepository, context.Context, T) error,
) setting {
	return setting{
		get: func(ctx context.Context, s *repository.SettingsRepository) (any, error) {
			return get(s, ctx)
		},
		put: func(r *http.Request, d deps.Deps) (any, error) {
			var v T
			if err := decodeBody(r, d, &v); err != nil {
				return nil, err
			}
			if err := set(d.Repos.Settings, r.Context(), v); err != nil {
				return nil, err
			}
			return v, nil
		},
	}
}

var settings = map[string]setting{
	repository.SettingTheme:   bindSetting((*repository.SettingsRepository).Theme, (*repository.SettingsRepository).SetTheme),
	repository.SettingEmail:   bindSetting((*repository.SettingsRepository).Email, (*repository.SettingsRepository).SetEmail),
	repository.SettingWebhook: bindSetting((*repository.SettingsRepository).Webhook, (*repository.SettingsRepository).SetWebhook),
}

// Theme serves the site theme to visitors.
func Theme(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		theme, err := d.Repos.Settings.Theme(r.Context())
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		jsonx.WriteJSON(w, http.StatusOK, theme)
	}
}

// GetSetting serves the singleton named by {name}.
func GetSetting(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := settings[chi.URLParam(r, "name")]
		if !ok {
			writeError(w, r, d, domain.ErrNotFound)
			return
		}
		v, err := s.get(r.Context(), d.Repos.Settings)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		jsonx.WriteJSON(w, http.StatusOK, v)
	}
}

// PutSetting replaces the singleton named by {name}.
func PutSetting(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		s, ok := settings[name]
		if !ok {
			writeError(w, r, d, domain.ErrNotFound)
			return
		}
		v, err := s.put(r, d)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		user, _ := adminUser(r)
		d.Logger.Info("setting updated", logger.String("setting", name), logger.String("user", user))
		jsonx.WriteJSON(w, http.StatusOK, v)
	}
}
