package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/ministry/internal/domain"
	"github.com/MrSnakeDoc/ministry/internal/store"
)

func TestLinksOrderAndActive(t *testing.T) {
	ctx := context.Background()
	repos, st := newTestRepos(t)

	give, err := repos.Links.Create(ctx, domain.LinkInput{Title: ptr("Give"), URL: ptr("https://example.org/give"), Order: ptr(2)})
	require.NoError(t, err)
	watch, err := repos.Links.Create(ctx, domain.LinkInput{Title: ptr("Watch"), URL: ptr("https://youtube.com/@x"), Order: ptr(1)})
	require.NoError(t, err)
	old, err := repos.Links.Create(ctx, domain.LinkInput{Title: ptr("Old"), URL: ptr("https://old.example"), Order: ptr(0), IsActive: ptr(false)})
	require.NoError(t, err)

	active, err := Collect(repos.Links.Active(ctx))
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, watch.ID, active[0].ID)
	assert.Equal(t, give.ID, active[1].ID)

	all, err := Collect(repos.Links.All(ctx))
	require.NoError(t, err)
	assert.Equal(t, old.ID, all[0].ID)

	_, err = repos.Links.Update(ctx, give.ID, domain.LinkInput{Order: ptr(-1)})
	require.NoError(t, err)
	active, err = Collect(repos.Links.Active(ctx))
	require.NoError(t, err)
	assert.Equal(t, give.ID, active[0].ID)
	requireIndexed(t, st, linksActive, store.K(linkEntity, give.ID))
	requireIndexed(t, st, linksByOrder, store.K(linkEntity, give.ID))
	requireNotIndexed(t, st, linksActive, old.ID)
}

func TestLinkURLValidation(t *testing.T) {
	repos, _ := newTestRepos(t)
	_, err := repos.Links.Create(context.Background(), domain.LinkInput{Title: ptr("bad"), URL: ptr("javascript:alert(1)")})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
