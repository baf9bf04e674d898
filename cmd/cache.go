package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/zenithx/internal/services"
	"github.com/desertthunder/zenithx/internal/shared"
	"github.com/urfave/cli/v3"
)

// CachePurge removes every cached search result from Redis.
func (r *Runner) CachePurge(ctx context.Context, cmd *cli.Command) error {
	redisURL := r.config.Cache.RedisURL
	if u := cmd.String("redis-url"); u != "" {
		redisURL = u
	}
	if redisURL == "" {
		return fmt.Errorf("%w: cache.redis_url is not set", shared.ErrMissingConfig)
	}

	cache, err := services.NewRedisCacheFromURL(ctx, redisURL, r.config.Cache.TTL())
	if err != nil {
		return err
	}
	defer cache.Close()

	n, err := cache.Purge(ctx)
	if err != nil {
		return fmt.Errorf("%w: purge failed after %d keys: %v", shared.ErrServiceUnavailable, n, err)
	}

	r.logger.Info("search cache purged", "keys", n)
	return r.writePlain("✓ Removed %d cached search results\n", n)
}
