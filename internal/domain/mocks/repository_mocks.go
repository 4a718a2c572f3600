package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/V4T54L/api-performance/internal/domain"
)

// MockPostRepository is an in-memory domain.PostRepository that counts queries.
type MockPostRepository struct {
	mu       sync.Mutex
	Posts    []domain.Post
	Comments []domain.Comment
	Queries  int
	Err      error
}

func (m *MockPostRepository) query() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Queries++
	return m.Err
}

// QueryCount returns the number of repository calls made so far.
func (m *MockPostRepository) QueryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Queries
}

func (m *MockPostRepository) ListPosts(ctx context.Context, limit int) ([]domain.Post, error) {
	if err := m.query(); err != nil {
		return nil, err
	}
	return head(m.Posts, limit), nil
}

func (m *MockPostRepository) ListPublishedPosts(ctx context.Context, limit int) ([]domain.Post, error) {
	if err := m.query(); err != nil {
		return nil, err
	}
	return head(m.published(), limit), nil
}

func (m *MockPostRepository) CommentsForPost(ctx context.Context, postID int64) ([]domain.Comment, error) {
	if err := m.query(); err != nil {
		return nil, err
	}
	var out []domain.Comment
	for _, c := range m.Comments {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *MockPostRepository) CommentsForPosts(ctx context.Context, postIDs []int64) ([]domain.Comment, error) {
	if err := m.query(); err != nil {
		return nil, err
	}
	ids := make(map[int64]struct{}, len(postIDs))
	for _, id := range postIDs {
		ids[id] = struct{}{}
	}
	var out []domain.Comment
	for _, c := range m.Comments {
		if _, ok := ids[c.PostID]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *MockPostRepository) PublishedPostsWithComments(ctx context.Context, rowLimit int) ([]domain.Post, error) {
	if err := m.query(); err != nil {
		return nil, err
	}
	var out []domain.Post
	rows := 0
	for _, p := range m.published() {
		if rows >= rowLimit {
			break
		}
		p.Comments = []domain.Comment{}
		for _, c := range m.Comments {
			if c.PostID == p.ID && rows < rowLimit {
				p.Comments = append(p.Comments, c)
				rows++
			}
		}
		if len(p.Comments) == 0 {
			rows++
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *MockPostRepository) CountPublished(ctx context.Context) (int64, error) {
	if err := m.query(); err != nil {
		return 0, err
	}
	return int64(len(m.published())), nil
}

func (m *MockPostRepository) PublishedPage(ctx context.Context, limit, offset int) ([]domain.Post, error) {
	if err := m.query(); err != nil {
		return nil, err
	}
	posts := m.published()
	sort.SliceStable(posts, func(i, j int) bool { return posts[i].CreatedAt.After(posts[j].CreatedAt) })
	if offset >= len(posts) {
		return nil, nil
	}
	return head(posts[offset:], limit), nil
}

func (m *MockPostRepository) PublishedBefore(ctx context.Context, cursor int64, limit int) ([]domain.Post, error) {
	if err := m.query(); err != nil {
		return nil, err
	}
	posts := m.published()
	sort.Slice(posts, func(i, j int) bool { return posts[i].ID > posts[j].ID })
	var out []domain.Post
	for _, p := range posts {
		if cursor == 0 || p.ID < cursor {
			out = append(out, p)
		}
	}
	return head(out, limit), nil
}

func (m *MockPostRepository) published() []domain.Post {
	var out []domain.Post
	for _, p := range m.Posts {
		if p.Published {
			out = append(out, p)
		}
	}
	return out
}

func head(posts []domain.Post, limit int) []domain.Post {
	if limit >= 0 && len(posts) > limit {
		posts = posts[:limit]
	}
	return append([]domain.Post(nil), posts...)
}

// MockCacheRepository is an in-memory domain.CacheRepository.
type MockCacheRepository struct {
	mu      sync.Mutex
	Values  map[string][]byte
	TTLs    map[string]time.Duration
	GetErr  error
	SetErr  error
	Deleted []string
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	v, ok := m.Values[key]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return v, nil
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetErr != nil {
		return m.SetErr
	}
	if m.Values == nil {
		m.Values = make(map[string][]byte)
		m.TTLs = make(map[string]time.Duration)
	}
	m.Values[key] = value
	m.TTLs[key] = ttl
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, keys ...string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := m.Values[k]; ok {
			delete(m.Values, k)
			n++
		}
		m.Deleted = append(m.Deleted, k)
	}
	return n, nil
}

func (m *MockCacheRepository) DeletePattern(ctx context.Context, pattern string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.Values))
	m.Values = nil
	m.Deleted = append(m.Deleted, pattern)
	return n, nil
}

// MockProbeRepository answers SelectOne with a fixed result.
type MockProbeRepository struct {
	Result int
	Err    error
}

func (m *MockProbeRepository) SelectOne(ctx context.Context) (int, error) {
	return m.Result, m.Err
}
