package domain

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by CacheRepository.Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// PostRepository reads posts and comments from the primary store.
type PostRepository interface {
	// ListPosts returns up to limit posts in id order.
	ListPosts(ctx context.Context, limit int) ([]Post, error)

	// ListPublishedPosts returns up to limit published posts in id order.
	ListPublishedPosts(ctx context.Context, limit int) ([]Post, error)

	// CommentsForPost returns the comments of one post.
	CommentsForPost(ctx context.Context, postID int64) ([]Comment, error)

	// CommentsForPosts returns the comments of all given posts in a single query.
	CommentsForPosts(ctx context.Context, postIDs []int64) ([]Comment, error)

	// PublishedPostsWithComments loads published posts and their comments with one JOIN.
	// rowLimit caps the joined rows, not the posts.
	PublishedPostsWithComments(ctx context.Context, rowLimit int) ([]Post, error)

	// CountPublished returns the number of published posts.
	CountPublished(ctx context.Context) (int64, error)

	// PublishedPage returns published posts, newest first, using LIMIT/OFFSET.
	PublishedPage(ctx context.Context, limit, offset int) ([]Post, error)

	// PublishedBefore returns published posts with id below cursor, highest id first.
	// A zero cursor starts from the newest post.
	PublishedBefore(ctx context.Context, cursor int64, limit int) ([]Post, error)
}

// CacheRepository stores opaque values with a time-to-live.
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) (int64, error)
	// DeletePattern removes every key matching a glob pattern and returns how many were removed.
	DeletePattern(ctx context.Context, pattern string) (int64, error)
}

// ProbeRepository runs a trivial round trip against the database.
type ProbeRepository interface {
	SelectOne(ctx context.Context) (int, error)
}

// ProbeFactory opens a dedicated, unpooled connection. The returned close
// function releases it.
type ProbeFactory func(ctx context.Context) (ProbeRepository, func() error, error)

// SeedRepository bulk-loads demo data.
type SeedRepository interface {
	EnsureSchema(ctx context.Context) error
	Seed(ctx context.Context, authors []Author, posts []Post, comments []Comment, tags []Tag) error
}
