package usecase

import (
	"context"
	stdjson "encoding/json"
	"log/slog"
	"time"

	"github.com/goccy/go-json"

	"github.com/V4T54L/api-performance/internal/domain"
)

const serializationPostLimit = 100

// SerializationResult reports how long one encoding of the post listing took.
type SerializationResult struct {
	Technique           string  `json:"technique"`
	Method              string  `json:"method"`
	SerializationTimeMS float64 `json:"serialization_time_ms"`
	SerializedSizeBytes int     `json:"serialized_size_bytes"`
}

// Encode serializes v with goccy/go-json when optimized is set and with
// encoding/json otherwise.
func Encode(optimized bool, v any) ([]byte, error) {
	if optimized {
		return json.Marshal(v)
	}
	return stdjson.Marshal(v)
}

// SerializationUseCase compares the standard library encoder with go-json.
type SerializationUseCase struct {
	posts  domain.PostRepository
	logger *slog.Logger
}

// NewSerializationUseCase creates a new SerializationUseCase.
func NewSerializationUseCase(posts domain.PostRepository, logger *slog.Logger) *SerializationUseCase {
	return &SerializationUseCase{posts: posts, logger: logger}
}

// Serialize loads the posts and times a single encoding pass.
func (uc *SerializationUseCase) Serialize(ctx context.Context, optimized bool) (SerializationResult, error) {
	posts, err := uc.posts.ListPosts(ctx, serializationPostLimit)
	if err != nil {
		return SerializationResult{}, err
	}

	start := time.Now()
	out, err := Encode(optimized, posts)
	elapsed := time.Since(start)
	if err != nil {
		return SerializationResult{}, err
	}

	method := "standard (encoding/json)"
	if optimized {
		method = "optimized (goccy/go-json)"
	}
	uc.logger.Info("serialized posts", "method", method, "bytes", len(out), "elapsed", elapsed)
	return SerializationResult{
		Technique:           "Lightweight JSON Serialization",
		Method:              method,
		SerializationTimeMS: millis(elapsed, 4),
		SerializedSizeBytes: len(out),
	}, nil
}
