// Package compress encodes response bodies with gzip, brotli or zstd and
// compares the algorithms on a payload.
package compress

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Encoding is an HTTP content-coding token.
type Encoding string

const (
	Identity Encoding = "identity"
	Gzip     Encoding = "gzip"
	Brotli   Encoding = "br"
	Zstd     Encoding = "zstd"
)

const (
	// GzipLevel is used by the response middleware and the comparison.
	GzipLevel = 6
	// BrotliQuality is used by the comparison.
	BrotliQuality = 6
	// FastBrotliQuality favours speed for explicitly compressed responses.
	FastBrotliQuality = 4
)

// preference orders encodings when the client accepts several with equal weight.
var preference = []Encoding{Brotli, Zstd, Gzip}

var gzipPool = sync.Pool{
	New: func() any {
		w, _ := gzip.NewWriterLevel(io.Discard, GzipLevel)
		return w
	},
}

var zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))

// Bytes compresses data in one shot. level is the gzip level or brotli
// quality; it is ignored for zstd.
func Bytes(enc Encoding, data []byte, level int) ([]byte, error) {
	switch enc {
	case Identity:
		return data, nil
	case Zstd:
		return zstdEncoder.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
	}

	var buf bytes.Buffer
	w, err := NewWriter(&buf, enc, level)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("failed to compress with %s: %w", enc, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish %s stream: %w", enc, err)
	}
	return buf.Bytes(), nil
}

// NewWriter returns a streaming compressor writing to w. Closing it flushes
// the stream but does not close w.
func NewWriter(w io.Writer, enc Encoding, level int) (io.WriteCloser, error) {
	switch enc {
	case Gzip:
		if level == GzipLevel {
			gz := gzipPool.Get().(*gzip.Writer)
			gz.Reset(w)
			return &pooledGzip{Writer: gz}, nil
		}
		gz, err := gzip.NewWriterLevel(w, level)
		if err != nil {
			return nil, fmt.Errorf("invalid gzip level %d: %w", level, err)
		}
		return gz, nil
	case Brotli:
		return brotli.NewWriterLevel(w, level), nil
	case Zstd:
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	default:
		return nil, fmt.Errorf("unsupported encoding %q", enc)
	}
}

type pooledGzip struct {
	*gzip.Writer
}

func (p *pooledGzip) Close() error {
	err := p.Writer.Close()
	gzipPool.Put(p.Writer)
	p.Writer = nil
	return err
}

// Negotiate picks the best supported encoding from an Accept-Encoding header.
// It returns Identity when nothing acceptable is offered.
func Negotiate(acceptEncoding string) Encoding {
	if acceptEncoding == "" {
		return Identity
	}

	weights := make(map[Encoding]float64)
	wildcard := -1.0
	for _, part := range strings.Split(acceptEncoding, ",") {
		name, q := parseCoding(part)
		if name == "" {
			continue
		}
		if name == "*" {
			wildcard = q
			continue
		}
		weights[Encoding(name)] = q
	}

	best, bestQ := Identity, 0.0
	for _, enc := range preference {
		q, ok := weights[enc]
		if !ok {
			if wildcard < 0 {
				continue
			}
			q = wildcard
		}
		if q > bestQ {
			best, bestQ = enc, q
		}
	}
	return best
}

func parseCoding(part string) (string, float64) {
	name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
	name = strings.ToLower(strings.TrimSpace(name))
	q := 1.0
	for _, p := range strings.Split(params, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(p), "=")
		if !ok || strings.TrimSpace(k) != "q" {
			continue
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			q = f
		}
	}
	return name, q
}

// Stats describes one algorithm's result on a payload.
type Stats struct {
	Size   int     `json:"size"`
	Ratio  float64 `json:"ratio"`
	TimeMS float64 `json:"time_ms"`
}

// Comparison holds the result of Compare.
type Comparison struct {
	OriginalSize int   `json:"original_size"`
	Gzip         Stats `json:"gzip"`
	Brotli       Stats `json:"brotli"`
	Zstd         Stats `json:"zstd"`
}

// Compare compresses data with every algorithm and reports size, ratio and time.
func Compare(data []byte) (Comparison, error) {
	c := Comparison{OriginalSize: len(data)}

	var err error
	if c.Gzip, err = measure(data, Gzip, GzipLevel); err != nil {
		return c, err
	}
	if c.Brotli, err = measure(data, Brotli, BrotliQuality); err != nil {
		return c, err
	}
	if c.Zstd, err = measure(data, Zstd, 0); err != nil {
		return c, err
	}
	return c, nil
}

func measure(data []byte, enc Encoding, level int) (Stats, error) {
	start := time.Now()
	out, err := Bytes(enc, data, level)
	if err != nil {
		return Stats{}, err
	}
	elapsed := time.Since(start)
	return Stats{
		Size:   len(out),
		Ratio:  Ratio(len(data), len(out)),
		TimeMS: float64(elapsed.Microseconds()) / 1000,
	}, nil
}

// Ratio returns original/compressed, or 0 when compressed is empty.
func Ratio(original, compressed int) float64 {
	if compressed <= 0 {
		return 0
	}
	return float64(original) / float64(compressed)
}
