package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/zenithx/internal/models"
	"github.com/desertthunder/zenithx/internal/shared"
	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "zenithx:search:"

// SearchCache stores provider results by key.
type SearchCache interface {
	Get(ctx context.Context, key string) ([]models.Track, bool, error)
	Set(ctx context.Context, key string, tracks []models.Track) error
}

// RedisCache implements [SearchCache] with JSON values and a fixed TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache wraps an existing client.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// NewRedisCacheFromURL parses a redis:// URL and verifies the server answers.
func NewRedisCacheFromURL(ctx context.Context, rawURL string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid redis url: %v", shared.ErrInvalidConfig, err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: redis ping: %v", shared.ErrServiceUnavailable, err)
	}
	return NewRedisCache(client, ttl), nil
}

// Get returns the cached tracks for key and whether they were present.
func (c *RedisCache) Get(ctx context.Context, key string) ([]models.Track, bool, error) {
	data, err := c.client.Get(ctx, cacheKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var tracks []models.Track
	if err := json.Unmarshal(data, &tracks); err != nil {
		return nil, false, fmt.Errorf("corrupt cache entry %s: %w", key, err)
	}
	return tracks, true, nil
}

// Set stores tracks under key.
func (c *RedisCache) Set(ctx context.Context, key string, tracks []models.Track) error {
	if tracks == nil {
		tracks = []models.Track{}
	}
	data, err := json.Marshal(tracks)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKeyPrefix+key, data, c.ttl).Err()
}

// Purge deletes every cached search result and returns how many keys were removed.
func (c *RedisCache) Purge(ctx context.Context) (int, error) {
	var removed int
	iter := c.client.Scan(ctx, 0, cacheKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		n, err := c.client.Del(ctx, iter.Val()).Result()
		if err != nil {
			return removed, err
		}
		removed += int(n)
	}
	return removed, iter.Err()
}

// Close closes the client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// CachedProvider is a read-through cache in front of a [Provider].
//
// Cache failures are logged and bypassed; only provider errors reach the caller. Errors are never cached.
type CachedProvider struct {
	next   Provider
	cache  SearchCache
	logger *log.Logger
}

var _ Provider = (*CachedProvider)(nil)

// NewCachedProvider wraps next with cache.
func NewCachedProvider(next Provider, cache SearchCache, logger *log.Logger) *CachedProvider {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &CachedProvider{next: next, cache: cache, logger: logger}
}

// Name returns the wrapped provider's name.
func (c *CachedProvider) Name() string {
	return c.next.Name()
}

// Configured forwards to the wrapped provider when it can report its configuration.
func (c *CachedProvider) Configured() bool {
	return IsConfigured(c.next)
}

// Search serves repeated queries from the cache.
func (c *CachedProvider) Search(ctx context.Context, query string, limit int) ([]models.Track, error) {
	key := "q:" + strconv.Itoa(limit) + ":" + strings.ToLower(strings.Join(strings.Fields(query), " "))

	if tracks, ok := c.lookup(ctx, key); ok {
		return tracks, nil
	}

	tracks, err := c.next.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, tracks)
	return tracks, nil
}

// Related serves repeated lookups from the cache. A miss upstream is cached as an empty list.
func (c *CachedProvider) Related(ctx context.Context, videoID string) (*models.Track, error) {
	key := "related:" + videoID

	if tracks, ok := c.lookup(ctx, key); ok {
		if len(tracks) == 0 {
			return nil, nil
		}
		return &tracks[0], nil
	}

	track, err := c.next.Related(ctx, videoID)
	if err != nil {
		return nil, err
	}

	tracks := []models.Track{}
	if track != nil {
		tracks = append(tracks, *track)
	}
	c.store(ctx, key, tracks)
	return track, nil
}

func (c *CachedProvider) lookup(ctx context.Context, key string) ([]models.Track, bool) {
	tracks, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn("search cache read failed", "key", key, "error", err)
		return nil, false
	}
	if ok {
		c.logger.Debug("search cache hit", "key", key)
	}
	return tracks, ok
}

func (c *CachedProvider) store(ctx context.Context, key string, tracks []models.Track) {
	if err := c.cache.Set(ctx, key, tracks); err != nil {
		c.logger.Warn("search cache write failed", "key", key, "error", err)
	}
}
