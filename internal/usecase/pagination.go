package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/V4T54L/api-performance/internal/domain"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100

	paginationPath = "/techniques/pagination"
)

var (
	ErrInvalidPage   = errors.New("page must be at least 1")
	ErrInvalidSize   = fmt.Errorf("size must be between 1 and %d", MaxPageSize)
	ErrInvalidCursor = errors.New("cursor must be a positive post id")
)

// PaginationUseCase pages through published posts.
type PaginationUseCase struct {
	posts  domain.PostRepository
	logger *slog.Logger
}

// NewPaginationUseCase creates a new PaginationUseCase.
func NewPaginationUseCase(posts domain.PostRepository, logger *slog.Logger) *PaginationUseCase {
	return &PaginationUseCase{posts: posts, logger: logger}
}

// Page returns one offset page, newest first, with navigation links.
func (uc *PaginationUseCase) Page(ctx context.Context, page, size int, includeComments bool) (domain.Page, error) {
	if page < 1 {
		return domain.Page{}, ErrInvalidPage
	}
	if size < 1 || size > MaxPageSize {
		return domain.Page{}, ErrInvalidSize
	}

	total, err := uc.posts.CountPublished(ctx)
	if err != nil {
		return domain.Page{}, err
	}
	pages := int((total + int64(size) - 1) / int64(size))

	// Pages past the end are empty; skipping the query also keeps the offset
	// from overflowing for huge page numbers.
	posts := []domain.Post{}
	if page <= pages {
		posts, err = uc.posts.PublishedPage(ctx, size, (page-1)*size)
		if err != nil {
			return domain.Page{}, err
		}
		if posts == nil {
			posts = []domain.Post{}
		}
	}

	if includeComments && len(posts) > 0 {
		comments, err := uc.posts.CommentsForPosts(ctx, postIDs(posts))
		if err != nil {
			return domain.Page{}, err
		}
		attachComments(posts, comments)
	}

	result := domain.Page{
		Items: posts,
		Total: total,
		Page:  page,
		Size:  size,
		Pages: pages,
	}
	if page < pages {
		result.NextPage = pageLink(page+1, size)
	}
	if page > 1 {
		result.PrevPage = pageLink(page-1, size)
	}

	uc.logger.Info("served page",
		"page", page,
		"pages", pages,
		"items", len(posts),
		"total", total,
	)
	return result, nil
}

func pageLink(page, size int) *string {
	link := fmt.Sprintf("%s?page=%d&size=%d", paginationPath, page, size)
	return &link
}

// Cursor returns up to size published posts with ids below cursor, highest id
// first. An empty cursor starts from the newest post. NextCursor is set only
// when the page is full.
func (uc *PaginationUseCase) Cursor(ctx context.Context, cursor string, size int) (domain.CursorPage, error) {
	if size < 1 || size > MaxPageSize {
		return domain.CursorPage{}, ErrInvalidSize
	}

	var after int64
	if cursor != "" {
		id, err := strconv.ParseInt(cursor, 10, 64)
		if err != nil || id < 1 {
			return domain.CursorPage{}, ErrInvalidCursor
		}
		after = id
	}

	posts, err := uc.posts.PublishedBefore(ctx, after, size)
	if err != nil {
		return domain.CursorPage{}, err
	}
	if posts == nil {
		posts = []domain.Post{}
	}

	result := domain.CursorPage{Items: posts}
	if len(posts) == size {
		next := strconv.FormatInt(posts[len(posts)-1].ID, 10)
		result.NextCursor = &next
	}
	return result, nil
}
