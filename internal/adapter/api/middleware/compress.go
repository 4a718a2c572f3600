package middleware

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/V4T54L/api-performance/internal/adapter/metrics"
	"github.com/V4T54L/api-performance/internal/pkg/compress"
)

// Compress is a middleware factory that compresses response bodies of at
// least minSize bytes with the best encoding the client accepts. Responses
// that already carry a Content-Encoding pass through untouched. m may be nil.
func Compress(minSize int, logger *slog.Logger, m *metrics.APIMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			enc := compress.Negotiate(r.Header.Get("Accept-Encoding"))
			if enc == compress.Identity || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Add("Vary", "Accept-Encoding")
			cw := &compressWriter{
				ResponseWriter: w,
				encoding:       enc,
				minSize:        minSize,
				statusCode:     http.StatusOK,
			}
			defer func() {
				if err := cw.Close(); err != nil {
					logger.Error("failed to finish compressed response", "encoding", string(enc), "error", err)
				}
				cw.record(m)
			}()
			next.ServeHTTP(cw, r)
		})
	}
}

// compressWriter buffers the body until it knows whether it reaches minSize,
// then either streams it through a compressor or writes it as is.
type compressWriter struct {
	http.ResponseWriter
	encoding   compress.Encoding
	minSize    int
	statusCode int

	buf         []byte
	decided     bool
	passthrough bool
	enc         io.WriteCloser
	counter     *countingWriter
	raw         int
	err         error // deferred from WriteHeader
}

func (cw *compressWriter) WriteHeader(code int) {
	if cw.decided {
		return
	}
	cw.statusCode = code
	if !bodyAllowed(code) {
		cw.err = cw.startPassthrough()
	}
}

func (cw *compressWriter) Write(p []byte) (int, error) {
	cw.raw += len(p)
	if cw.decided {
		if cw.passthrough {
			return cw.ResponseWriter.Write(p)
		}
		return cw.enc.Write(p)
	}

	cw.buf = append(cw.buf, p...)
	if len(cw.buf) < cw.minSize {
		return len(p), nil
	}

	var err error
	if cw.Header().Get("Content-Encoding") != "" {
		err = cw.startPassthrough()
	} else {
		err = cw.startCompression()
	}
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

func (cw *compressWriter) startPassthrough() error {
	cw.decided = true
	cw.passthrough = true
	cw.ResponseWriter.WriteHeader(cw.statusCode)
	if len(cw.buf) == 0 {
		return nil
	}
	buffered := cw.buf
	cw.buf = nil
	_, err := cw.ResponseWriter.Write(buffered)
	return err
}

func (cw *compressWriter) startCompression() error {
	level := compress.GzipLevel
	if cw.encoding == compress.Brotli {
		level = compress.FastBrotliQuality
	}

	cw.counter = &countingWriter{w: cw.ResponseWriter}
	enc, err := compress.NewWriter(cw.counter, cw.encoding, level)
	if err != nil {
		return cw.startPassthrough()
	}

	h := cw.Header()
	h.Set("Content-Encoding", string(cw.encoding))
	h.Del("Content-Length")
	cw.decided = true
	cw.enc = enc
	cw.ResponseWriter.WriteHeader(cw.statusCode)

	buffered := cw.buf
	cw.buf = nil
	_, err = enc.Write(buffered)
	return err
}

// Close flushes whatever is pending. Bodies that never reached minSize are
// written uncompressed.
func (cw *compressWriter) Close() error {
	if !cw.decided {
		return cw.startPassthrough()
	}
	if cw.enc != nil {
		return cw.enc.Close()
	}
	return cw.err
}

func (cw *compressWriter) record(m *metrics.APIMetrics) {
	if m == nil || cw.enc == nil {
		return
	}
	m.UncompressedSize.Add(float64(cw.raw))
	m.CompressedBytes.WithLabelValues(string(cw.encoding)).Add(float64(cw.counter.n))
}

func (cw *compressWriter) Unwrap() http.ResponseWriter {
	return cw.ResponseWriter
}

type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}

func bodyAllowed(status int) bool {
	switch {
	case status >= 100 && status <= 199:
		return false
	case status == http.StatusNoContent, status == http.StatusNotModified:
		return false
	}
	return true
}
