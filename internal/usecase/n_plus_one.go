package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/V4T54L/api-performance/internal/domain"
)

// Strategy selects how posts and their comments are loaded.
type Strategy string

const (
	// StrategyNaive issues one query for the posts and one per post for comments.
	StrategyNaive Strategy = "naive"
	// StrategyBatch issues one query for the posts and one for all their comments.
	StrategyBatch Strategy = "batch"
	// StrategyJoin loads everything with a single LEFT JOIN.
	StrategyJoin Strategy = "join"
)

const (
	nPlusOnePostLimit = 5
	joinRowLimit      = 100
)

// ErrUnknownStrategy is returned for an unrecognised strategy name.
var ErrUnknownStrategy = errors.New("unknown loading strategy")

// ParseStrategy maps the optimized flag and an optional strategy name to a
// Strategy. Optimized loading defaults to the join.
func ParseStrategy(optimized bool, name string) (Strategy, error) {
	if !optimized {
		return StrategyNaive, nil
	}
	switch Strategy(name) {
	case "", StrategyJoin:
		return StrategyJoin, nil
	case StrategyBatch:
		return StrategyBatch, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// NPlusOneResult carries the loaded posts with the number of queries issued.
type NPlusOneResult struct {
	Posts    []domain.Post
	Strategy Strategy
	Queries  int
	Elapsed  time.Duration
}

// NPlusOneUseCase demonstrates the N+1 query problem and its fixes.
type NPlusOneUseCase struct {
	posts  domain.PostRepository
	logger *slog.Logger
}

// NewNPlusOneUseCase creates a new NPlusOneUseCase.
func NewNPlusOneUseCase(posts domain.PostRepository, logger *slog.Logger) *NPlusOneUseCase {
	return &NPlusOneUseCase{posts: posts, logger: logger}
}

// PostsWithComments loads published posts with their comments using strategy.
func (uc *NPlusOneUseCase) PostsWithComments(ctx context.Context, strategy Strategy) (NPlusOneResult, error) {
	start := time.Now()

	var (
		posts   []domain.Post
		queries int
		err     error
	)
	switch strategy {
	case StrategyNaive:
		posts, queries, err = uc.naive(ctx)
	case StrategyBatch:
		posts, queries, err = uc.batch(ctx)
	case StrategyJoin:
		posts, err = uc.posts.PublishedPostsWithComments(ctx, joinRowLimit)
		queries = 1
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
	if err != nil {
		return NPlusOneResult{}, err
	}

	res := NPlusOneResult{
		Posts:    posts,
		Strategy: strategy,
		Queries:  queries,
		Elapsed:  time.Since(start),
	}
	uc.logger.Info("loaded posts with comments",
		"strategy", string(strategy),
		"posts", len(posts),
		"queries", queries,
	)
	return res, nil
}

func (uc *NPlusOneUseCase) naive(ctx context.Context) ([]domain.Post, int, error) {
	posts, err := uc.posts.ListPublishedPosts(ctx, nPlusOnePostLimit)
	if err != nil {
		return nil, 1, err
	}
	queries := 1
	for i := range posts {
		comments, err := uc.posts.CommentsForPost(ctx, posts[i].ID)
		queries++
		if err != nil {
			return nil, queries, err
		}
		posts[i].Comments = nonNil(comments)
	}
	return posts, queries, nil
}

func (uc *NPlusOneUseCase) batch(ctx context.Context) ([]domain.Post, int, error) {
	posts, err := uc.posts.ListPublishedPosts(ctx, nPlusOnePostLimit)
	if err != nil {
		return nil, 1, err
	}
	if len(posts) == 0 {
		return posts, 1, nil
	}
	comments, err := uc.posts.CommentsForPosts(ctx, postIDs(posts))
	if err != nil {
		return nil, 2, err
	}
	attachComments(posts, comments)
	return posts, 2, nil
}

func postIDs(posts []domain.Post) []int64 {
	ids := make([]int64, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	return ids
}

// attachComments groups comments by post id and assigns them in place.
// Posts without comments get an empty, non-nil slice.
func attachComments(posts []domain.Post, comments []domain.Comment) {
	byPost := make(map[int64][]domain.Comment, len(posts))
	for _, c := range comments {
		byPost[c.PostID] = append(byPost[c.PostID], c)
	}
	for i := range posts {
		posts[i].Comments = nonNil(byPost[posts[i].ID])
	}
}

func nonNil(c []domain.Comment) []domain.Comment {
	if c == nil {
		return []domain.Comment{}
	}
	return c
}
