package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dan9191/travel-blog/internal/models"
)

func newCache(t *testing.T) (*PostCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewPostCache(client, time.Minute), mr
}

func TestPostCacheRoundTrip(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()

	gen, err := c.Generation(ctx)
	require.NoError(t, err)
	assert.Zero(t, gen)

	miss, err := c.GetPage(ctx, gen, 1)
	require.NoError(t, err)
	assert.Nil(t, miss)

	page := &models.PostPage{Count: 1, Page: 1, PageSize: 10, Posts: []models.Post{
		{ID: 3, Title: "Trip", Author: models.User{ID: 1, Username: "alice"}, Comments: []models.Comment{}},
	}}
	require.NoError(t, c.SetPage(ctx, gen, 1, page))

	got, err := c.GetPage(ctx, gen, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.Count)
	require.Len(t, got.Posts, 1)
	assert.Equal(t, "Trip", got.Posts[0].Title)
	assert.Equal(t, "alice", got.Posts[0].Author.Username)
}

func TestPostCacheTTL(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetPage(ctx, 0, 0, &models.PostPage{}))
	mr.FastForward(2 * time.Minute)

	got, err := c.GetPage(ctx, 0, 0)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPostCacheInvalidate(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetPage(ctx, 0, 1, &models.PostPage{Page: 1}))
	require.NoError(t, c.SetPage(ctx, 0, 2, &models.PostPage{Page: 2}))
	require.NoError(t, mr.Set("unrelated", "keep"))

	require.NoError(t, c.Invalidate(ctx))

	gen, err := c.Generation(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), gen)
	for _, page := range []int{1, 2} {
		got, err := c.GetPage(ctx, gen, page)
		require.NoError(t, err)
		assert.Nil(t, got)
	}
	assert.True(t, mr.Exists("unrelated"))
}

func TestPostCacheLateWriteStaysRetired(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()

	// A reader takes its generation, a write lands, then the reader stores its snapshot.
	gen, err := c.Generation(ctx)
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx))
	require.NoError(t, c.SetPage(ctx, gen, 1, &models.PostPage{Count: 1}))

	current, err := c.Generation(ctx)
	require.NoError(t, err)
	got, err := c.GetPage(ctx, current, 1)
	require.NoError(t, err)
	assert.Nil(t, got)
}
