package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/V4T54L/api-performance/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS authors (
	id         SERIAL PRIMARY KEY,
	name       VARCHAR(100) NOT NULL,
	email      VARCHAR(100) NOT NULL UNIQUE,
	bio        TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS posts (
	id         SERIAL PRIMARY KEY,
	author_id  INTEGER REFERENCES authors(id),
	title      VARCHAR(200) NOT NULL,
	content    TEXT NOT NULL,
	published  BOOLEAN NOT NULL DEFAULT FALSE,
	views      INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS comments (
	id          SERIAL PRIMARY KEY,
	post_id     INTEGER REFERENCES posts(id),
	author_name VARCHAR(100) NOT NULL,
	content     TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS tags (
	id   SERIAL PRIMARY KEY,
	name VARCHAR(50) NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS post_tags (
	post_id INTEGER REFERENCES posts(id),
	tag_id  INTEGER REFERENCES tags(id),
	PRIMARY KEY (post_id, tag_id)
);
CREATE INDEX IF NOT EXISTS idx_posts_published_created_at ON posts (published, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_comments_post_id ON comments (post_id);
`

// SeedRepository implements domain.SeedRepository for PostgreSQL.
type SeedRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSeedRepository creates a new PostgreSQL seed repository.
func NewSeedRepository(db *sql.DB, logger *slog.Logger) *SeedRepository {
	return &SeedRepository{db: db, logger: logger.With("component", "seed_repository")}
}

// EnsureSchema creates the blog tables and indexes when they do not exist.
func (r *SeedRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Seed replaces all blog data inside one transaction, loading every table with
// the COPY protocol.
func (r *SeedRepository) Seed(ctx context.Context, authors []domain.Author, posts []domain.Post, comments []domain.Comment, tags []domain.Tag) error {
	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer txn.Rollback() // Rollback is a no-op if Commit() is called

	if _, err := txn.ExecContext(ctx, `TRUNCATE post_tags, comments, tags, posts, authors RESTART IDENTITY CASCADE`); err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}

	err = copyRows(ctx, txn, "authors", []string{"id", "name", "email", "bio", "created_at"}, len(authors), func(i int) []any {
		a := authors[i]
		return []any{a.ID, a.Name, a.Email, a.Bio, a.CreatedAt}
	})
	if err != nil {
		return err
	}

	err = copyRows(ctx, txn, "posts", []string{"id", "author_id", "title", "content", "published", "views", "created_at"}, len(posts), func(i int) []any {
		p := posts[i]
		return []any{p.ID, p.AuthorID, p.Title, p.Content, p.Published, p.Views, p.CreatedAt}
	})
	if err != nil {
		return err
	}

	err = copyRows(ctx, txn, "comments", []string{"id", "post_id", "author_name", "content", "created_at"}, len(comments), func(i int) []any {
		c := comments[i]
		return []any{c.ID, c.PostID, c.AuthorName, c.Content, c.CreatedAt}
	})
	if err != nil {
		return err
	}

	err = copyRows(ctx, txn, "tags", []string{"id", "name"}, len(tags), func(i int) []any {
		return []any{tags[i].ID, tags[i].Name}
	})
	if err != nil {
		return err
	}

	links := postTagLinks(posts)
	err = copyRows(ctx, txn, "post_tags", []string{"post_id", "tag_id"}, len(links), func(i int) []any {
		return []any{links[i][0], links[i][1]}
	})
	if err != nil {
		return err
	}

	// COPY with explicit ids leaves the serial sequences behind.
	for _, table := range []string{"authors", "posts", "comments", "tags"} {
		q := fmt.Sprintf(`SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), COALESCE((SELECT MAX(id) FROM %[1]s), 0) + 1, false)`, table)
		if _, err := txn.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to reset %s sequence: %w", table, err)
		}
	}

	if err := txn.Commit(); err != nil {
		return err
	}
	r.logger.Info("seeded database",
		"authors", len(authors),
		"posts", len(posts),
		"comments", len(comments),
		"tags", len(tags),
		"post_tags", len(links),
	)
	return nil
}

func copyRows(ctx context.Context, txn *sql.Tx, table string, columns []string, n int, row func(i int) []any) error {
	if n == 0 {
		return nil
	}
	stmt, err := txn.PrepareContext(ctx, pq.CopyIn(table, columns...))
	if err != nil {
		return fmt.Errorf("failed to prepare copy into %s: %w", table, err)
	}
	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, row(i)...); err != nil {
			_ = stmt.Close()
			return fmt.Errorf("failed to copy row into %s: %w", table, err)
		}
	}
	// The final Exec flushes the buffered COPY data.
	if _, err := stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		return fmt.Errorf("failed to flush copy into %s: %w", table, err)
	}
	return stmt.Close()
}

// postTagLinks flattens the tags attached to posts into unique (post_id, tag_id) pairs.
func postTagLinks(posts []domain.Post) [][2]int64 {
	seen := make(map[[2]int64]struct{})
	var links [][2]int64
	for _, p := range posts {
		for _, t := range p.Tags {
			link := [2]int64{p.ID, t.ID}
			if _, ok := seen[link]; ok {
				continue
			}
			seen[link] = struct{}{}
			links = append(links, link)
		}
	}
	return links
}
