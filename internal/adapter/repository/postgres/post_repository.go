package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/V4T54L/api-performance/internal/domain"
)

const postColumns = `id, title, content, author_id, published, views, created_at`

// PostRepository implements domain.PostRepository for PostgreSQL.
type PostRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostRepository creates a new PostgreSQL post repository.
func NewPostRepository(db *sql.DB, logger *slog.Logger) *PostRepository {
	return &PostRepository{db: db, logger: logger.With("component", "post_repository")}
}

func (r *PostRepository) ListPosts(ctx context.Context, limit int) ([]domain.Post, error) {
	return r.queryPosts(ctx, `SELECT `+postColumns+` FROM posts ORDER BY id LIMIT $1`, limit)
}

func (r *PostRepository) ListPublishedPosts(ctx context.Context, limit int) ([]domain.Post, error) {
	return r.queryPosts(ctx, `SELECT `+postColumns+` FROM posts WHERE published = TRUE ORDER BY id LIMIT $1`, limit)
}

func (r *PostRepository) CommentsForPost(ctx context.Context, postID int64) ([]domain.Comment, error) {
	return r.queryComments(ctx, `SELECT id, post_id, author_name, content, created_at FROM comments WHERE post_id = $1 ORDER BY id`, postID)
}

// CommentsForPosts loads the comments of every post in one round trip using ANY($1).
func (r *PostRepository) CommentsForPosts(ctx context.Context, postIDs []int64) ([]domain.Comment, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}
	return r.queryComments(ctx, `SELECT id, post_id, author_name, content, created_at FROM comments WHERE post_id = ANY($1) ORDER BY post_id, id`, pq.Array(postIDs))
}

// PublishedPostsWithComments nests comments under their posts from a single LEFT JOIN.
func (r *PostRepository) PublishedPostsWithComments(ctx context.Context, rowLimit int) ([]domain.Post, error) {
	query := `
		SELECT
			p.id, p.title, p.content, p.author_id, p.published, p.views, p.created_at,
			c.id, c.author_name, c.content, c.created_at
		FROM posts p
		LEFT JOIN comments c ON p.id = c.post_id
		WHERE p.published = TRUE
		ORDER BY p.id, c.id
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, rowLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts with comments: %w", err)
	}
	defer rows.Close()

	var posts []domain.Post
	index := make(map[int64]int)
	for rows.Next() {
		var (
			p          domain.Post
			commentID  sql.NullInt64
			authorName sql.NullString
			content    sql.NullString
			createdAt  sql.NullTime
		)
		if err := rows.Scan(&p.ID, &p.Title, &p.Content, &p.AuthorID, &p.Published, &p.Views, &p.CreatedAt,
			&commentID, &authorName, &content, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan joined row: %w", err)
		}

		i, ok := index[p.ID]
		if !ok {
			p.Comments = []domain.Comment{}
			posts = append(posts, p)
			i = len(posts) - 1
			index[p.ID] = i
		}
		if commentID.Valid {
			posts[i].Comments = append(posts[i].Comments, domain.Comment{
				ID:         commentID.Int64,
				PostID:     p.ID,
				AuthorName: authorName.String,
				Content:    content.String,
				CreatedAt:  createdAt.Time,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate joined rows: %w", err)
	}

	r.logger.Debug("join query loaded posts", "posts", len(posts))
	return posts, nil
}

func (r *PostRepository) CountPublished(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts WHERE published = TRUE`).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count published posts: %w", err)
	}
	return total, nil
}

func (r *PostRepository) PublishedPage(ctx context.Context, limit, offset int) ([]domain.Post, error) {
	return r.queryPosts(ctx,
		`SELECT `+postColumns+` FROM posts WHERE published = TRUE ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`,
		limit, offset)
}

func (r *PostRepository) PublishedBefore(ctx context.Context, cursor int64, limit int) ([]domain.Post, error) {
	if cursor <= 0 {
		return r.queryPosts(ctx, `SELECT `+postColumns+` FROM posts WHERE published = TRUE ORDER BY id DESC LIMIT $1`, limit)
	}
	return r.queryPosts(ctx,
		`SELECT `+postColumns+` FROM posts WHERE published = TRUE AND id < $1 ORDER BY id DESC LIMIT $2`,
		cursor, limit)
}

func (r *PostRepository) queryPosts(ctx context.Context, query string, args ...any) ([]domain.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	posts := []domain.Post{}
	for rows.Next() {
		var p domain.Post
		if err := rows.Scan(&p.ID, &p.Title, &p.Content, &p.AuthorID, &p.Published, &p.Views, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate posts: %w", err)
	}
	return posts, nil
}

func (r *PostRepository) queryComments(ctx context.Context, query string, args ...any) ([]domain.Comment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	comments := []domain.Comment{}
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorName, &c.Content, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comments: %w", err)
	}
	return comments, nil
}
