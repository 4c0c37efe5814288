// Package view signals the presentation layer that cached rendered views
// have gone stale.
//
// The renderer caches whole pages (the article index, the dashboard table)
// under well-known keys. After a successful mutation, the lifecycle facade
// marks the affected views stale; the renderer recomputes them on next
// access. This is a fire-and-forget signal: no acknowledgement, no ordering
// guarantee beyond "the marks land before the mutation reports success".
package view

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// View keys the lifecycle facade invalidates. They mirror the rendered
// pages: the public article index and the author dashboard's article table.
const (
	KeyArticles          = "articles"
	KeyDashboardArticles = "dashboard/articles"
)

// Invalidator marks a named view stale.
//
// Implementations must swallow their own failures: a missed invalidation
// means a stale page until the cache TTL expires, which is never worth
// failing a successful write for.
type Invalidator interface {
	MarkStale(ctx context.Context, viewKey string)
}

// RedisInvalidator deletes cached rendered views from Redis. The renderer
// stores pages under "view:<key>"; deleting the key forces recomputation on
// the next request.
type RedisInvalidator struct {
	client *redis.Client
	logger *slog.Logger
}

var _ Invalidator = (*RedisInvalidator)(nil)

// NewRedisClient creates and pings a Redis client with optional password auth.
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return rdb, nil
}

func NewRedisInvalidator(client *redis.Client, logger *slog.Logger) *RedisInvalidator {
	return &RedisInvalidator{
		client: client,
		logger: logger,
	}
}

// MarkStale deletes the cached view. Errors are logged and dropped — see
// the Invalidator contract.
func (i *RedisInvalidator) MarkStale(ctx context.Context, viewKey string) {
	if err := i.client.Del(ctx, "view:"+viewKey).Err(); err != nil {
		i.logger.Warn("failed to invalidate view cache",
			slog.String("view", viewKey),
			slog.String("error", err.Error()),
		)
	}
}

// NopInvalidator is used when no cache is configured (and in tests that
// don't care about invalidation). Every view is then rendered fresh, so
// there is nothing to mark.
type NopInvalidator struct{}

var _ Invalidator = (*NopInvalidator)(nil)

func (NopInvalidator) MarkStale(context.Context, string) {}
