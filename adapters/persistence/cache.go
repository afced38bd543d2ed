package persistence

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/khoahotran/wedding-memories/internal/application/service"
	"github.com/khoahotran/wedding-memories/internal/domain/export"
)

const (
	progressTTL = 24 * time.Hour
	probeHit    = "1"
	probeMiss   = "0"
)

// RedisCache stores export progress and asset reachability results.
type RedisCache struct {
	rdb *redis.Client
}

func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

var (
	_ export.ProgressStore = (*RedisCache)(nil)
	_ service.ProbeCache   = (*RedisCache)(nil)
)

func progressKey(id uuid.UUID) string {
	return "export:progress:" + id.String()
}

func probeKey(url string) string {
	return "probe:" + url
}

func (c *RedisCache) SetProgress(ctx context.Context, id uuid.UUID, percent int) error {
	return c.rdb.Set(ctx, progressKey(id), percent, progressTTL).Err()
}

// GetProgress returns 0 when nothing was reported yet.
func (c *RedisCache) GetProgress(ctx context.Context, id uuid.UUID) (int, error) {
	val, err := c.rdb.Get(ctx, progressKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	p, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid progress value %q: %w", val, err)
	}
	return p, nil
}

func (c *RedisCache) GetProbe(ctx context.Context, url string) (bool, bool, error) {
	val, err := c.rdb.Get(ctx, probeKey(url)).Result()
	if errors.Is(err, redis.Nil) {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}
	return val == probeHit, true, nil
}

func (c *RedisCache) SetProbe(ctx context.Context, url string, reachable bool, ttl time.Duration) error {
	val := probeMiss
	if reachable {
		val = probeHit
	}
	return c.rdb.Set(ctx, probeKey(url), val, ttl).Err()
}
