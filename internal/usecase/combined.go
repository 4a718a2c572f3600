package usecase

import (
	"context"
	"log/slog"
	"time"
)

// CombinedOptions toggles each technique in the combined demo.
type CombinedOptions struct {
	Caching        bool `json:"caching"`
	ConnectionPool bool `json:"connection_pool"`
	AvoidNPlusOne  bool `json:"avoid_n_plus_1"`
	Pagination     bool `json:"pagination"`
	OptimizedJSON  bool `json:"optimized_json"`
	Compression    bool `json:"compression"`
	AsyncLogging   bool `json:"async_logging"`
}

// AllEnabled turns every technique on.
func AllEnabled() CombinedOptions {
	return CombinedOptions{true, true, true, true, true, true, true}
}

// PageSummary is the pagination metadata reported by the combined demo.
type PageSummary struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Pages int   `json:"pages"`
}

// CombinedResults holds what each enabled technique produced.
type CombinedResults struct {
	CachedPosts       *int         `json:"cached_posts,omitempty"`
	ConnectionProbeMS *float64     `json:"connection_probe_ms,omitempty"`
	PostsWithComments int          `json:"posts_with_comments"`
	QueryCount        int          `json:"query_count"`
	PaginatedData     *PageSummary `json:"paginated_data,omitempty"`
	LoggedMessages    int          `json:"logged_messages"`
}

// CombinedResult is the response body of the combined demo.
type CombinedResult struct {
	Message           string          `json:"message"`
	ExecutionTimeMS   float64         `json:"execution_time_ms"`
	OptimizationsUsed CombinedOptions `json:"optimizations_used"`
	Results           CombinedResults `json:"results"`
}

const combinedLogMessages = 5

// CombinedUseCase runs the techniques together. Compression and JSON
// encoding are applied to the response by the transport layer.
type CombinedUseCase struct {
	caching  *CachingUseCase
	pool     *ConnectionPoolUseCase
	nPlusOne *NPlusOneUseCase
	pages    *PaginationUseCase
	logs     LogSubmitter
	logger   *slog.Logger
}

// NewCombinedUseCase creates a new CombinedUseCase.
func NewCombinedUseCase(caching *CachingUseCase, pool *ConnectionPoolUseCase, nPlusOne *NPlusOneUseCase, pages *PaginationUseCase, logs LogSubmitter, logger *slog.Logger) *CombinedUseCase {
	return &CombinedUseCase{
		caching:  caching,
		pool:     pool,
		nPlusOne: nPlusOne,
		pages:    pages,
		logs:     logs,
		logger:   logger,
	}
}

// Run executes every technique selected in opts and times the whole pass.
func (uc *CombinedUseCase) Run(ctx context.Context, opts CombinedOptions) (CombinedResult, error) {
	start := time.Now()
	var res CombinedResults

	if opts.Caching {
		posts, _, err := uc.caching.GetPosts(ctx, CombinedCacheKey, true)
		if err != nil {
			return CombinedResult{}, err
		}
		n := len(posts)
		res.CachedPosts = &n
	}

	probe, err := uc.pool.Probe(ctx, opts.ConnectionPool)
	if err != nil {
		return CombinedResult{}, err
	}
	res.ConnectionProbeMS = &probe.ExecutionTimeMS

	strategy := StrategyNaive
	if opts.AvoidNPlusOne {
		strategy = StrategyJoin
	}
	loaded, err := uc.nPlusOne.PostsWithComments(ctx, strategy)
	if err != nil {
		return CombinedResult{}, err
	}
	res.PostsWithComments = len(loaded.Posts)
	res.QueryCount = loaded.Queries

	if opts.Pagination {
		page, err := uc.pages.Page(ctx, 1, DefaultPageSize, false)
		if err != nil {
			return CombinedResult{}, err
		}
		res.PaginatedData = &PageSummary{Total: page.Total, Page: page.Page, Pages: page.Pages}
	}

	for i := 0; i < combinedLogMessages; i++ {
		fields := map[string]any{"test_run": i}
		if opts.AsyncLogging {
			uc.logs.Log("Demo all optimizations", fields)
		} else {
			uc.logger.InfoContext(ctx, "Demo all optimizations", "test_run", i)
		}
	}
	res.LoggedMessages = combinedLogMessages

	return CombinedResult{
		Message:           "All optimizations demo",
		ExecutionTimeMS:   millis(time.Since(start), 2),
		OptimizationsUsed: opts,
		Results:           res,
	}, nil
}
