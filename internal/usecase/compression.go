package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/goccy/go-json"

	"github.com/V4T54L/api-performance/internal/domain"
	"github.com/V4T54L/api-performance/internal/pkg/compress"
)

const (
	compressionPostLimit = 10
	compressionSample    = 3

	DefaultPayloadKB = 100
	MaxPayloadKB     = 10000
)

// ErrInvalidPayloadSize is returned when size_kb is out of range.
var ErrInvalidPayloadSize = fmt.Errorf("size_kb must be between 1 and %d", MaxPayloadKB)

// CompressionPayload is the body served by the compression demo.
type CompressionPayload struct {
	Technique     string        `json:"technique"`
	Compressed    bool          `json:"compressed"`
	PayloadSample []domain.Post `json:"payload_sample"`
	TotalItems    int           `json:"total_items"`
}

// CompressionComparison reports every algorithm on a generated payload.
type CompressionComparison struct {
	Technique string              `json:"technique"`
	SizeKB    int                 `json:"size_kb"`
	Results   compress.Comparison `json:"results"`
}

// CompressionUseCase builds the compression demo payloads.
type CompressionUseCase struct {
	posts  domain.PostRepository
	logger *slog.Logger
}

// NewCompressionUseCase creates a new CompressionUseCase.
func NewCompressionUseCase(posts domain.PostRepository, logger *slog.Logger) *CompressionUseCase {
	return &CompressionUseCase{posts: posts, logger: logger}
}

// Payload loads a handful of posts and returns a sample of them.
func (uc *CompressionUseCase) Payload(ctx context.Context, compressed bool) (CompressionPayload, error) {
	posts, err := uc.posts.ListPosts(ctx, compressionPostLimit)
	if err != nil {
		return CompressionPayload{}, err
	}
	sample := posts
	if len(sample) > compressionSample {
		sample = sample[:compressionSample]
	}
	return CompressionPayload{
		Technique:     "Compression",
		Compressed:    compressed,
		PayloadSample: sample,
		TotalItems:    len(posts),
	}, nil
}

// Compare generates a JSON payload of roughly sizeKB kilobytes and compresses
// it with every supported algorithm.
func (uc *CompressionUseCase) Compare(sizeKB int) (CompressionComparison, error) {
	if sizeKB < 1 || sizeKB > MaxPayloadKB {
		return CompressionComparison{}, ErrInvalidPayloadSize
	}
	data, err := LargePayload(sizeKB)
	if err != nil {
		return CompressionComparison{}, err
	}
	res, err := compress.Compare(data)
	if err != nil {
		return CompressionComparison{}, err
	}
	uc.logger.Info("compared compression algorithms",
		"original_size", res.OriginalSize,
		"gzip_size", res.Gzip.Size,
		"brotli_size", res.Brotli.Size,
		"zstd_size", res.Zstd.Size,
	)
	return CompressionComparison{Technique: "Compression", SizeKB: sizeKB, Results: res}, nil
}

type payloadRecord struct {
	ID       int      `json:"id"`
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	AuthorID int      `json:"author_id"`
	Views    int      `json:"views"`
	Tags     []string `json:"tags"`
}

var payloadTags = []string{"go", "database", "performance", "api", "cloud", "testing"}

// LargePayload returns a deterministic JSON array of post-like records that
// is at least sizeKB kilobytes long.
func LargePayload(sizeKB int) ([]byte, error) {
	target := sizeKB * 1024
	words := strings.Fields("the quick brown fox jumps over the lazy dog while the api serves cached pages")

	var records []payloadRecord
	size := 2
	for i := 1; size < target; i++ {
		var b strings.Builder
		for j := 0; j < 40; j++ {
			if j > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(words[(i*7+j)%len(words)])
		}
		rec := payloadRecord{
			ID:       i,
			Title:    fmt.Sprintf("Post %d", i),
			Content:  b.String(),
			AuthorID: i%20 + 1,
			Views:    (i * 7919) % 10000,
			Tags:     []string{payloadTags[i%len(payloadTags)], payloadTags[(i+2)%len(payloadTags)]},
		}
		encoded, err := json.Marshal(rec)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
		size += len(encoded) + 1
	}
	return json.Marshal(records)
}
