package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/V4T54L/api-performance/internal/pkg/compress"
	"github.com/V4T54L/api-performance/internal/usecase"
)

// Services bundles the use cases served over HTTP.
type Services struct {
	Caching       *usecase.CachingUseCase
	Pool          *usecase.ConnectionPoolUseCase
	NPlusOne      *usecase.NPlusOneUseCase
	Pagination    *usecase.PaginationUseCase
	Serialization *usecase.SerializationUseCase
	Compression   *usecase.CompressionUseCase
	AsyncLogging  *usecase.AsyncLoggingUseCase
	Combined      *usecase.CombinedUseCase
}

// TechniquesHandler serves one endpoint per performance technique.
type TechniquesHandler struct {
	svc    Services
	logger *slog.Logger
}

// NewTechniquesHandler creates a new TechniquesHandler.
func NewTechniquesHandler(svc Services, logger *slog.Logger) *TechniquesHandler {
	return &TechniquesHandler{svc: svc, logger: logger}
}

type technique struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Endpoint string `json:"endpoint"`
}

var techniques = []technique{
	{1, "Caching", "/techniques/caching"},
	{2, "Connection Pooling", "/techniques/connection-pool"},
	{3, "Avoid N+1 Query Problem", "/techniques/avoid-n-plus-1"},
	{4, "Pagination", "/techniques/pagination"},
	{5, "Lightweight JSON Serialization", "/techniques/json-serialization"},
	{6, "Compression", "/techniques/compression"},
	{7, "Asynchronous Logging", "/techniques/async-logging"},
}

// Root lists the available techniques.
func (h *TechniquesHandler) Root(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, h.logger, http.StatusOK, map[string]any{
		"message":    "API Performance Optimization Techniques",
		"techniques": techniques,
	})
}

func (h *TechniquesHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, h.logger, http.StatusOK, map[string]string{"status": "ok"})
}

// Caching serves the post listing, cache-aside unless cache=false.
func (h *TechniquesHandler) Caching(w http.ResponseWriter, r *http.Request) {
	useCache, err := queryBool(r, "cache", true)
	if err != nil {
		respondWithParamError(w, h.logger, err)
		return
	}

	posts, hit, err := h.svc.Caching.GetPosts(r.Context(), usecase.PostsCacheKey, useCache)
	if err != nil {
		respondWithError(w, h.logger, r, err)
		return
	}
	if hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	respondWithJSON(w, h.logger, http.StatusOK, posts)
}

// InvalidateCache drops the cached listings.
func (h *TechniquesHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Caching.Invalidate(r.Context())
	if err != nil {
		respondWithError(w, h.logger, r, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusOK, map[string]int64{"deleted": n})
}

func (h *TechniquesHandler) ConnectionPool(w http.ResponseWriter, r *http.Request) {
	pooled, err := queryBool(r, "pooled", true)
	if err != nil {
		respondWithParamError(w, h.logger, err)
		return
	}

	res, err := h.svc.Pool.Probe(r.Context(), pooled)
	if err != nil {
		respondWithError(w, h.logger, r, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusOK, res)
}

// AvoidNPlusOne returns posts with comments and reports the cost in headers.
func (h *TechniquesHandler) AvoidNPlusOne(w http.ResponseWriter, r *http.Request) {
	optimized, err := queryBool(r, "optimized", true)
	if err != nil {
		respondWithParamError(w, h.logger, err)
		return
	}
	strategy, err := usecase.ParseStrategy(optimized, r.URL.Query().Get("strategy"))
	if err != nil {
		respondWithError(w, h.logger, r, err)
		return
	}

	res, err := h.svc.NPlusOne.PostsWithComments(r.Context(), strategy)
	if err != nil {
		respondWithError(w, h.logger, r, err)
		return
	}
	w.Header().Set("X-Execution-Time", fmt.Sprintf("%.2fms", float64(res.Elapsed.Microseconds())/1000))
	w.Header().Set("X-Query-Count", strconv.Itoa(res.Queries))
	w.Header().Set("X-Strategy", string(res.Strategy))
	respondWithJSON(w, h.logger, http.StatusOK, res.Posts)
}

func (h *TechniquesHandler) Pagination(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		respondWithParamError(w, h.logger, err)
		return
	}
	size, err := queryInt(r, "size", usecase.DefaultPageSize)
	if err != nil {
		respondWithParamError(w, h.logger, err)
		return
	}
	includeComments, err := queryBool(r, "include_comments", false)
	if err != nil {
		respondWithParamError(w, h.logger, err)
		return
	}

	res, err := h.svc.Pagination.Page(r.Context(), page, size, includeComments)
	if err != nil {
		respondWithError(w, h.logger, r, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusOK, res)
}

func (h *TechniquesHandler) CursorPagination(w http.ResponseWriter, r *http.Request) {
	size, err := queryInt(r, "size", usecase.DefaultPageSize)
	if err != nil {
		respondWithParamError(w, h.logger, err)
		return
	}

	res, err := h.svc.Pagination.Cursor(r.Context(), r.URL.Query().Get("cursor"), size)
	if err != nil {
		respondWithError(w, h.logger, r, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusOK, res)
}

func (h *TechniquesHandler) JSONSerialization(w http.ResponseWriter, r *http.Request) {
	optimized, err := queryBool(r, "optimized", true)
	if err != nil {
		respondWithParamError(w, h.logger, err)
		return
	}

	res, err := h.svc.Serialization.Serialize(r.Context(), optimized)
	if err != nil {
		respondWithError(w, h.logger, r, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusOK, res)
}

// Compression compresses its own body when compressed=true, choosing the
// encoding from Accept-Encoding.
func (h *TechniquesHandler) Compression(w http.ResponseWriter, r *http.Request) {
	compressed, err := queryBool(r, "compressed", true)
	if err != nil {
		respondWithParamError(w, h.logger, err)
		return
	}

	payload, err := h.svc.Compression.Payload(r.Context(), compressed)
	if err != nil {
		respondWithError(w, h.logger, r, err)
		return
	}
	if !compressed {
		respondWithJSON(w, h.logger, http.StatusOK, payload)
		return
	}

	body, err := usecase.Encode(true, payload)
	if err != nil {
		respondWithError(w, h.logger, r, err)
		return
	}
	h.respondCompressed(w, r, body)
}

func (h *TechniquesHandler) CompressionCompare(w http.ResponseWriter, r *http.Request) {
	sizeKB, err := queryInt(r, "size_kb", usecase.DefaultPayloadKB)
	if err != nil {
		respondWithParamError(w, h.logger, err)
		return
	}

	res, err := h.svc.Compression.Compare(sizeKB)
	if err != nil {
		respondWithError(w, h.logger, r, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusOK, res)
}

func (h *TechniquesHandler) AsyncLogging(w http.ResponseWriter, r *http.Request) {
	async, err := queryBool(r, "async_logging", true)
	if err != nil {
		respondWithParamError(w, h.logger, err)
		return
	}
	count, err := queryInt(r, "message_count", 10)
	if err != nil {
		respondWithParamError(w, h.logger, err)
		return
	}
	level := r.URL.Query().Get("log_level")
	if level == "" {
		level = "info"
	}

	res, err := h.svc.AsyncLogging.Run(r.Context(), async, level, count)
	if err != nil {
		respondWithError(w, h.logger, r, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusOK, res)
}

// All runs every selected technique together. The response itself is
// encoded with go-json and compressed when those techniques are selected.
func (h *TechniquesHandler) All(w http.ResponseWriter, r *http.Request) {
	opts := usecase.AllEnabled()
	flags := []struct {
		name string
		dst  *bool
	}{
		{"use_caching", &opts.Caching},
		{"use_connection_pool", &opts.ConnectionPool},
		{"avoid_n_plus_1", &opts.AvoidNPlusOne},
		{"use_pagination", &opts.Pagination},
		{"use_optimized_json", &opts.OptimizedJSON},
		{"use_compression", &opts.Compression},
		{"use_async_logging", &opts.AsyncLogging},
	}
	for _, f := range flags {
		v, err := queryBool(r, f.name, true)
		if err != nil {
			respondWithParamError(w, h.logger, err)
			return
		}
		*f.dst = v
	}

	res, err := h.svc.Combined.Run(r.Context(), opts)
	if err != nil {
		respondWithError(w, h.logger, r, err)
		return
	}

	body, err := usecase.Encode(opts.OptimizedJSON, res)
	if err != nil {
		respondWithError(w, h.logger, r, err)
		return
	}
	if opts.Compression {
		h.respondCompressed(w, r, body)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// respondCompressed writes body compressed with the client's preferred
// encoding. Clients that advertise nothing get brotli at a fast quality.
// On failure the body is sent uncompressed.
func (h *TechniquesHandler) respondCompressed(w http.ResponseWriter, r *http.Request, body []byte) {
	enc := compress.Negotiate(r.Header.Get("Accept-Encoding"))
	level := compress.GzipLevel
	switch enc {
	case compress.Identity, compress.Brotli:
		enc, level = compress.Brotli, compress.FastBrotliQuality
	}

	start := time.Now()
	out, err := compress.Bytes(enc, body, level)
	if err != nil {
		h.logger.Error("compression failed, sending uncompressed body", "encoding", string(enc), "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.WriteHeader(http.StatusOK)
		w.Write(body)
		return
	}

	ratio := compress.Ratio(len(body), len(out))
	h.logger.Info("response compressed",
		"encoding", string(enc),
		"original_size", len(body),
		"compressed_size", len(out),
		"ratio", fmt.Sprintf("%.2f", ratio),
		"elapsed", time.Since(start),
	)

	hdr := w.Header()
	hdr.Set("Content-Type", "application/json")
	hdr.Set("Content-Encoding", string(enc))
	hdr.Add("Vary", "Accept-Encoding")
	hdr.Set("Content-Length", strconv.Itoa(len(out)))
	hdr.Set("X-Original-Size", strconv.Itoa(len(body)))
	hdr.Set("X-Compressed-Size", strconv.Itoa(len(out)))
	hdr.Set("X-Compression-Ratio", fmt.Sprintf("%.2f", ratio))
	w.WriteHeader(http.StatusOK)
	w.Write(out)
}
