package compress

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

var payload = []byte(strings.Repeat(`{"id":1,"title":"Post 1","content":"lorem ipsum dolor sit amet"},`, 200))

func decode(t *testing.T, enc Encoding, data []byte) []byte {
	t.Helper()
	var r io.Reader
	switch enc {
	case Gzip:
		gz, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("gzip.NewReader() error = %v", err)
		}
		r = gz
	case Brotli:
		r = brotli.NewReader(bytes.NewReader(data))
	case Zstd:
		d, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("zstd.NewReader() error = %v", err)
		}
		defer d.Close()
		r = d
	default:
		return data
	}
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("failed to decode %s: %v", enc, err)
	}
	return out
}

func TestBytes(t *testing.T) {
	tests := []struct {
		enc   Encoding
		level int
	}{
		{Gzip, GzipLevel},
		{Gzip, 1},
		{Brotli, FastBrotliQuality},
		{Zstd, 0},
		{Identity, 0},
	}
	for _, tt := range tests {
		t.Run(string(tt.enc), func(t *testing.T) {
			out, err := Bytes(tt.enc, payload, tt.level)
			if err != nil {
				t.Fatalf("Bytes() error = %v", err)
			}
			if tt.enc != Identity && len(out) >= len(payload) {
				t.Errorf("expected compressed output smaller than %d, got %d", len(payload), len(out))
			}
			if got := decode(t, tt.enc, out); !bytes.Equal(got, payload) {
				t.Error("decoded output does not match input")
			}
		})
	}
}

func TestBytes_UnsupportedEncoding(t *testing.T) {
	if _, err := Bytes(Encoding("lzma"), payload, 0); err == nil {
		t.Fatal("expected an error for an unsupported encoding")
	}
}

func TestPooledGzipReuse(t *testing.T) {
	for i := 0; i < 3; i++ {
		out, err := Bytes(Gzip, payload, GzipLevel)
		if err != nil {
			t.Fatalf("round %d: Bytes() error = %v", i, err)
		}
		if got := decode(t, Gzip, out); !bytes.Equal(got, payload) {
			t.Fatalf("round %d: decoded output does not match input", i)
		}
	}
}

func TestNegotiate(t *testing.T) {
	tests := []struct {
		header string
		want   Encoding
	}{
		{"", Identity},
		{"gzip", Gzip},
		{"gzip, deflate, br", Brotli},
		{"gzip;q=1.0, br;q=0.5", Gzip},
		{"br;q=0, gzip", Gzip},
		{"zstd, gzip", Zstd},
		{"*", Brotli},
		{"deflate", Identity},
		{"GZIP", Gzip},
		{"identity", Identity},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			if got := Negotiate(tt.header); got != tt.want {
				t.Errorf("Negotiate(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	c, err := Compare(payload)
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if c.OriginalSize != len(payload) {
		t.Errorf("expected original size %d, got %d", len(payload), c.OriginalSize)
	}
	for name, s := range map[string]Stats{"gzip": c.Gzip, "brotli": c.Brotli, "zstd": c.Zstd} {
		if s.Size <= 0 || s.Size >= len(payload) {
			t.Errorf("%s: unexpected size %d", name, s.Size)
		}
		if s.Ratio <= 1 {
			t.Errorf("%s: expected ratio above 1, got %f", name, s.Ratio)
		}
	}
}

func TestRatio(t *testing.T) {
	if got := Ratio(100, 0); got != 0 {
		t.Errorf("Ratio(100, 0) = %f, want 0", got)
	}
	if got := Ratio(100, 25); got != 4 {
		t.Errorf("Ratio(100, 25) = %f, want 4", got)
	}
}
