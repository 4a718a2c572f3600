package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/V4T54L/api-performance/internal/adapter/api/handler"
	"github.com/V4T54L/api-performance/internal/adapter/metrics"
	"github.com/V4T54L/api-performance/internal/domain"
	"github.com/V4T54L/api-performance/internal/domain/mocks"
	"github.com/V4T54L/api-performance/internal/usecase"
)

type discardSubmitter struct{}

func (discardSubmitter) Log(string, map[string]any) {}

func newTestRouter(t *testing.T, reg prometheus.Registerer) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	repo := &mocks.MockPostRepository{}
	for i := int64(1); i <= 50; i++ {
		repo.Posts = append(repo.Posts, domain.Post{
			ID:        i,
			Title:     "A reasonably long title for a post",
			Content:   strings.Repeat("lorem ipsum ", 30),
			Published: true,
			CreatedAt: time.Unix(1700000000+i, 0).UTC(),
		})
	}
	factory := func(ctx context.Context) (domain.ProbeRepository, func() error, error) {
		return &mocks.MockProbeRepository{Result: 1}, func() error { return nil }, nil
	}
	m := metrics.NewAPIMetrics(reg)

	caching := usecase.NewCachingUseCase(repo, &mocks.MockCacheRepository{}, time.Minute, logger, m)
	pool := usecase.NewConnectionPoolUseCase(&mocks.MockProbeRepository{Result: 1}, factory, logger)
	nPlusOne := usecase.NewNPlusOneUseCase(repo, logger)
	pages := usecase.NewPaginationUseCase(repo, logger)
	h := handler.NewTechniquesHandler(handler.Services{
		Caching:       caching,
		Pool:          pool,
		NPlusOne:      nPlusOne,
		Pagination:    pages,
		Serialization: usecase.NewSerializationUseCase(repo, logger),
		Compression:   usecase.NewCompressionUseCase(repo, logger),
		AsyncLogging:  usecase.NewAsyncLoggingUseCase(discardSubmitter{}, logger),
		Combined:      usecase.NewCombinedUseCase(caching, pool, nPlusOne, pages, discardSubmitter{}, logger),
	}, logger)

	return NewRouter(RouterConfig{CompressionMinSize: 1000}, logger, logger, m, h)
}

func TestRouter_Routes(t *testing.T) {
	r := newTestRouter(t, nil)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/techniques/caching", http.StatusOK},
		{http.MethodDelete, "/techniques/caching", http.StatusOK},
		{http.MethodGet, "/techniques/connection-pool?pooled=false", http.StatusOK},
		{http.MethodGet, "/techniques/avoid-n-plus-1", http.StatusOK},
		{http.MethodGet, "/techniques/pagination?page=1&size=5", http.StatusOK},
		{http.MethodGet, "/techniques/pagination/cursor", http.StatusOK},
		{http.MethodGet, "/techniques/json-serialization?optimized=false", http.StatusOK},
		{http.MethodGet, "/techniques/compression", http.StatusOK},
		{http.MethodGet, "/techniques/compression/compare?size_kb=8", http.StatusOK},
		{http.MethodGet, "/techniques/async-logging", http.StatusOK},
		{http.MethodGet, "/techniques/all", http.StatusOK},
		{http.MethodPost, "/techniques/caching", http.StatusMethodNotAllowed},
		{http.MethodGet, "/techniques/unknown", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, nil))
			if rr.Code != tt.want {
				t.Errorf("expected status %d, got %d; body=%q", tt.want, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestRouter_CompressesLargeResponses(t *testing.T) {
	r := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/techniques/caching", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Header().Get("Content-Encoding") != "gzip" {
		t.Errorf("expected the listing to be gzip encoded, got %q", rr.Header().Get("Content-Encoding"))
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Header().Get("Content-Encoding") != "" {
		t.Errorf("expected the small health body to stay uncompressed, got %q", rr.Header().Get("Content-Encoding"))
	}
}

func TestRouter_HandlerCompressionNotDoubled(t *testing.T) {
	r := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/techniques/compression/compare?size_kb=64", nil)
	req.Header.Set("Accept-Encoding", "br")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/techniques/compression", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if got := rr.Header().Values("Content-Encoding"); len(got) != 1 || got[0] != "gzip" {
		t.Errorf("expected a single gzip Content-Encoding, got %v", got)
	}
}

func TestAdminRouter(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := newTestRouter(t, reg)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/techniques/caching", nil))

	admin := NewAdminRouter(reg)
	rr = httptest.NewRecorder()
	admin.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	for _, want := range []string{"api_performance_cache_misses_total 1", "api_performance_http_request_duration_seconds"} {
		if !strings.Contains(rr.Body.String(), want) {
			t.Errorf("expected metrics output to contain %q", want)
		}
	}

	rr = httptest.NewRecorder()
	admin.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK || rr.Body.String() != "OK" {
		t.Errorf("unexpected health response %d %q", rr.Code, rr.Body.String())
	}
}
