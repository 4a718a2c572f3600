package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/goccy/go-json"

	"github.com/V4T54L/api-performance/internal/adapter/metrics"
	"github.com/V4T54L/api-performance/internal/domain"
)

const (
	// PostsCacheKey holds the cached post listing.
	PostsCacheKey = "all_posts"
	// CombinedCacheKey holds the post listing cached by the combined demo.
	CombinedCacheKey = "demo_all_posts"

	cachedPostsLimit = 20
)

// CachingUseCase serves the post listing cache-aside.
type CachingUseCase struct {
	posts   domain.PostRepository
	cache   domain.CacheRepository
	ttl     time.Duration
	logger  *slog.Logger
	metrics *metrics.APIMetrics
}

// NewCachingUseCase creates a new CachingUseCase. m may be nil.
func NewCachingUseCase(posts domain.PostRepository, cache domain.CacheRepository, ttl time.Duration, logger *slog.Logger, m *metrics.APIMetrics) *CachingUseCase {
	return &CachingUseCase{
		posts:   posts,
		cache:   cache,
		ttl:     ttl,
		logger:  logger,
		metrics: m,
	}
}

// GetPosts returns the post listing and whether it came from the cache.
// Cache failures never fail the request; the database is read instead.
func (uc *CachingUseCase) GetPosts(ctx context.Context, key string, useCache bool) ([]domain.Post, bool, error) {
	uc.logger.Info("Caching endpoint called", "cache_enabled", useCache, "cache_key", key)

	if useCache {
		posts, err := uc.fromCache(ctx, key)
		if err == nil {
			if uc.metrics != nil {
				uc.metrics.CacheHits.Inc()
			}
			uc.logger.Debug("Cache hit", "cache_key", key)
			return posts, true, nil
		}
		if !errors.Is(err, domain.ErrCacheMiss) {
			uc.logger.Warn("cache read failed, falling back to database", "cache_key", key, "error", err)
		}
		if uc.metrics != nil {
			uc.metrics.CacheMisses.Inc()
		}
	}

	posts, err := uc.posts.ListPosts(ctx, cachedPostsLimit)
	if err != nil {
		return nil, false, err
	}

	if useCache {
		if payload, err := json.Marshal(posts); err != nil {
			uc.logger.Warn("failed to encode posts for cache", "cache_key", key, "error", err)
		} else if err := uc.cache.Set(ctx, key, payload, uc.ttl); err != nil {
			uc.logger.Warn("cache write failed", "cache_key", key, "error", err)
		}
	}
	return posts, false, nil
}

func (uc *CachingUseCase) fromCache(ctx context.Context, key string) ([]domain.Post, error) {
	payload, err := uc.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	var posts []domain.Post
	if err := json.Unmarshal(payload, &posts); err != nil {
		// A corrupt value is treated like a miss and overwritten.
		uc.logger.Warn("discarding undecodable cache value", "cache_key", key, "error", err)
		return nil, domain.ErrCacheMiss
	}
	return posts, nil
}

// Invalidate drops every cached post listing.
func (uc *CachingUseCase) Invalidate(ctx context.Context) (int64, error) {
	n, err := uc.cache.Delete(ctx, PostsCacheKey, CombinedCacheKey)
	if err != nil {
		return 0, err
	}
	uc.logger.Info("cache invalidated", "deleted", n)
	return n, nil
}
