package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/V4T54L/api-performance/internal/domain"
)

const scanBatch = 100

// CacheRepository implements domain.CacheRepository on plain Redis string keys.
type CacheRepository struct {
	client *redis.Client
	logger *slog.Logger
}

// NewCacheRepository creates a new Redis-backed cache.
func NewCacheRepository(client *redis.Client, logger *slog.Logger) *CacheRepository {
	return &CacheRepository{client: client, logger: logger.With("component", "cache_repository")}
}

// Get returns domain.ErrCacheMiss when the key does not exist or has expired.
func (r *CacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to GET %q from redis: %w", key, err)
	}
	return val, nil
}

func (r *CacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.SetEx(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to SETEX %q in redis: %w", key, err)
	}
	return nil
}

func (r *CacheRepository) Delete(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	n, err := r.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to DEL keys from redis: %w", err)
	}
	return n, nil
}

// DeletePattern walks the keyspace with SCAN rather than KEYS so large
// keyspaces do not block the server.
func (r *CacheRepository) DeletePattern(ctx context.Context, pattern string) (int64, error) {
	var (
		cursor  uint64
		deleted int64
	)
	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return deleted, fmt.Errorf("failed to SCAN redis for %q: %w", pattern, err)
		}
		if len(keys) > 0 {
			n, err := r.client.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, fmt.Errorf("failed to DEL keys from redis: %w", err)
			}
			deleted += n
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	r.logger.Debug("cleared cache keys", "pattern", pattern, "deleted", deleted)
	return deleted, nil
}
