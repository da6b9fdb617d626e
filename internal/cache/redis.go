package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Dan9191/travel-blog/internal/models"
)

const keyPrefix = "travelblog:posts:"

// PostCache stores rendered post listing pages in Redis
type PostCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient connects to Redis and pings it
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// NewPostCache creates a listing cache with the given TTL
func NewPostCache(client *redis.Client, ttl time.Duration) *PostCache {
	return &PostCache{client: client, ttl: ttl}
}

// genKey counts listing writes. Pages are stored under the generation
// current when their snapshot was read, so a write always retires them.
const genKey = keyPrefix + "gen"

func pageKey(gen int64, page int) string {
	return fmt.Sprintf("%sgen:%d:page:%d", keyPrefix, gen, page)
}

// Generation returns the current listing generation
func (c *PostCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, genKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// GetPage returns a page cached under gen, or nil on a miss
func (c *PostCache) GetPage(ctx context.Context, gen int64, page int) (*models.PostPage, error) {
	key := pageKey(gen, page)
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var p models.PostPage
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("corrupt cache entry %s: %w", key, err)
	}
	return &p, nil
}

// SetPage caches a page read under gen until the TTL expires
func (c *PostCache) SetPage(ctx context.Context, gen int64, page int, p *models.PostPage) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, pageKey(gen, page), raw, c.ttl).Err()
}

// Invalidate starts a new generation; older pages are never read again and expire with their TTL
func (c *PostCache) Invalidate(ctx context.Context) error {
	return c.client.Incr(ctx, genKey).Err()
}
