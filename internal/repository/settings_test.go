package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/ministry/internal/domain"
)

func TestSettingsDefaultsAndOverwrite(t *testing.T) {
	ctx := context.Background()
	repos, st := newTestRepos(t)

	theme, err := repos.Settings.Theme(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultTheme(), theme)

	custom := domain.ThemeSettings{Primary: "#000", Secondary: "#111", Accent: "#222", Background: "#fff"}
	require.NoError(t, repos.Settings.SetTheme(ctx, custom))
	require.NoError(t, repos.Settings.SetTheme(ctx, custom))
	theme, err = repos.Settings.Theme(ctx)
	require.NoError(t, err)
	assert.Equal(t, custom, theme)
	assert.Equal(t, 1, st.Len(), "singleton must occupy a single key")

	for _, bad := range []string{"not a url", "mailto:admin@example.org", "http://discord.com/api/webhooks/1/x", "https://"} {
		err = repos.Settings.SetWebhook(ctx, domain.WebhookConfig{Enabled: true, URL: bad})
		assert.ErrorIs(t, err, domain.ErrValidation, bad)
	}
	require.NoError(t, repos.Settings.SetWebhook(ctx, domain.WebhookConfig{Enabled: false, URL: "mailto:admin@example.org"}),
		"a disabled webhook is not validated")

	require.NoError(t, repos.Settings.SetWebhook(ctx, domain.WebhookConfig{Enabled: true, URL: "https://discord.com/api/webhooks/1/x"}))
	wh, err := repos.Settings.Webhook(ctx)
	require.NoError(t, err)
	assert.True(t, wh.Enabled)

	email, err := repos.Settings.Email(ctx)
	require.NoError(t, err)
	assert.False(t, email.Enabled)
}
