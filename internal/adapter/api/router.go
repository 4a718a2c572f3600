package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/V4T54L/api-performance/internal/adapter/api/handler"
	"github.com/V4T54L/api-performance/internal/adapter/api/middleware"
	"github.com/V4T54L/api-performance/internal/adapter/metrics"
)

// RouterConfig carries the settings the router needs.
type RouterConfig struct {
	// CompressionMinSize is the smallest body the compression middleware encodes.
	CompressionMinSize int
}

// NewRouter creates and configures the HTTP router for the techniques API.
// accessLogger should be the async pipeline's logger; logger is used for
// handler diagnostics. m may be nil.
func NewRouter(
	cfg RouterConfig,
	logger *slog.Logger,
	accessLogger *slog.Logger,
	m *metrics.APIMetrics,
	techniques *handler.TechniquesHandler,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(accessLogger, m))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Compress(cfg.CompressionMinSize, logger, m))

	r.Get("/", techniques.Root)
	r.Get("/health", techniques.HealthCheck)

	r.Route("/techniques", func(r chi.Router) {
		r.Get("/caching", techniques.Caching)
		r.Delete("/caching", techniques.InvalidateCache)
		r.Get("/connection-pool", techniques.ConnectionPool)
		r.Get("/avoid-n-plus-1", techniques.AvoidNPlusOne)
		r.Get("/pagination", techniques.Pagination)
		r.Get("/pagination/cursor", techniques.CursorPagination)
		r.Get("/json-serialization", techniques.JSONSerialization)
		r.Get("/compression", techniques.Compression)
		r.Get("/compression/compare", techniques.CompressionCompare)
		r.Get("/async-logging", techniques.AsyncLogging)
		r.Get("/all", techniques.All)
	})

	return r
}
