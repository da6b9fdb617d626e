package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Dan9191/travel-blog/internal/auth"
	"github.com/Dan9191/travel-blog/internal/cache"
	"github.com/Dan9191/travel-blog/internal/models"
	"github.com/Dan9191/travel-blog/internal/service"
	"github.com/Dan9191/travel-blog/internal/service/servicetest"
)

// gatedStore pauses ListPosts after reading until release is closed
type gatedStore struct {
	*servicetest.MemStore
	listed  chan struct{}
	release chan struct{}
}

func (g *gatedStore) ListPosts(ctx context.Context, limit, offset int) ([]models.Post, error) {
	posts, err := g.MemStore.ListPosts(ctx, limit, offset)
	if g.listed != nil {
		g.listed <- struct{}{}
		<-g.release
	}
	return posts, err
}

func newCachedFixture(t *testing.T, store service.Store, mem *servicetest.MemStore) (*fixture, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	logger, _ := test.NewNullLogger()
	tokens := auth.NewManager("test-secret", time.Minute, time.Hour)
	svc := service.NewService(store, tokens, logger, service.Options{
		Cache:      cache.NewPostCache(client, time.Minute),
		BcryptCost: bcrypt.MinCost,
	})
	return &fixture{svc: svc, store: mem}, mr
}

func listAll(t *testing.T, f *fixture) []models.Post {
	t.Helper()
	page, err := f.svc.ListPosts(context.Background(), 0)
	require.NoError(t, err)
	return page.Posts
}

func TestListPostsServesCachedPage(t *testing.T) {
	mem := servicetest.NewMemStore()
	f, _ := newCachedFixture(t, mem, mem)
	alice := f.register(t, "alice")
	post, err := f.svc.CreatePost(as(alice), service.PostInput{Title: str("Trip"), Content: str("Nice")})
	require.NoError(t, err)

	require.Len(t, listAll(t, f), 1)

	// Bypassing the service leaves the cached page in place
	require.NoError(t, mem.DeletePost(context.Background(), post.ID))
	assert.Len(t, listAll(t, f), 1)
}

func TestWritesInvalidateListingCache(t *testing.T) {
	tests := []struct {
		name  string
		write func(t *testing.T, f *fixture, alice *models.User, post *models.Post)
		check func(t *testing.T, posts []models.Post)
	}{
		{
			name: "create",
			write: func(t *testing.T, f *fixture, alice *models.User, _ *models.Post) {
				_, err := f.svc.CreatePost(as(alice), service.PostInput{Title: str("Second"), Content: str("c")})
				require.NoError(t, err)
			},
			check: func(t *testing.T, posts []models.Post) {
				require.Len(t, posts, 2)
				assert.Equal(t, "Second", posts[0].Title)
			},
		},
		{
			name: "update",
			write: func(t *testing.T, f *fixture, alice *models.User, post *models.Post) {
				_, err := f.svc.UpdatePost(as(alice), post.ID, service.PostInput{Title: str("Trip 2")}, true)
				require.NoError(t, err)
			},
			check: func(t *testing.T, posts []models.Post) {
				require.Len(t, posts, 1)
				assert.Equal(t, "Trip 2", posts[0].Title)
			},
		},
		{
			name: "delete",
			write: func(t *testing.T, f *fixture, alice *models.User, post *models.Post) {
				require.NoError(t, f.svc.DeletePost(as(alice), post.ID))
			},
			check: func(t *testing.T, posts []models.Post) {
				assert.Empty(t, posts)
			},
		},
		{
			name: "comment",
			write: func(t *testing.T, f *fixture, alice *models.User, post *models.Post) {
				_, err := f.svc.CreateComment(as(alice), post.ID, str("Nice!"))
				require.NoError(t, err)
			},
			check: func(t *testing.T, posts []models.Post) {
				require.Len(t, posts, 1)
				assert.Equal(t, 1, posts[0].CommentsCount())
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := servicetest.NewMemStore()
			f, _ := newCachedFixture(t, mem, mem)
			alice := f.register(t, "alice")
			post, err := f.svc.CreatePost(as(alice), service.PostInput{Title: str("Trip"), Content: str("Nice")})
			require.NoError(t, err)

			before := listAll(t, f)
			require.Len(t, before, 1)
			assert.Zero(t, before[0].CommentsCount())

			tt.write(t, f, alice, post)
			tt.check(t, listAll(t, f))
		})
	}
}

func TestListPostsSnapshotRacingDelete(t *testing.T) {
	mem := servicetest.NewMemStore()
	gated := &gatedStore{MemStore: mem}
	f, _ := newCachedFixture(t, gated, mem)
	alice := f.register(t, "alice")
	post, err := f.svc.CreatePost(as(alice), service.PostInput{Title: str("Trip"), Content: str("Nice")})
	require.NoError(t, err)

	gated.listed = make(chan struct{})
	gated.release = make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := f.svc.ListPosts(context.Background(), 1)
		done <- err
	}()

	<-gated.listed
	gated.listed = nil
	require.NoError(t, f.svc.DeletePost(as(alice), post.ID))
	close(gated.release)
	require.NoError(t, <-done)

	assert.Empty(t, listAll(t, f), "a snapshot read before the delete must not be served")
}

func TestListPostsFallsThroughWhenCacheDown(t *testing.T) {
	mem := servicetest.NewMemStore()
	f, mr := newCachedFixture(t, mem, mem)
	alice := f.register(t, "alice")
	mr.Close()

	_, err := f.svc.CreatePost(as(alice), service.PostInput{Title: str("Trip"), Content: str("Nice")})
	require.NoError(t, err, "a failed invalidation does not fail the write")

	posts := listAll(t, f)
	require.Len(t, posts, 1)
	assert.Equal(t, "Trip", posts[0].Title)
}
