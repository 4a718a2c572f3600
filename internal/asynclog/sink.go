package asynclog

import (
	"context"
	"io"
	"log/slog"
	"maps"
	"slices"

	"github.com/V4T54L/api-performance/internal/pkg/logger"
)

// Sink is the final destination of dispatched entries. A pipeline calls Write
// from its single worker goroutine only, so implementations need not be safe
// for concurrent use.
type Sink interface {
	Write(e Entry) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(e Entry) error

func (f SinkFunc) Write(e Entry) error { return f(e) }

// WriterSink renders entries through a slog handler.
type WriterSink struct {
	handler slog.Handler
}

// NewWriterSink renders entries onto w as JSON or text. Level filtering is
// left to the pipeline, so the handler accepts everything.
func NewWriterSink(w io.Writer, format logger.Format) *WriterSink {
	return &WriterSink{handler: logger.NewHandler(w, slog.Level(LevelDebug), format)}
}

// Write renders e. The timestamp field becomes the record time; the remaining
// fields are emitted in key order.
func (s *WriterSink) Write(e Entry) error {
	ctx := context.Background()
	if !s.handler.Enabled(ctx, e.Level.Slog()) {
		return nil
	}

	ts := e.Time()
	r := slog.NewRecord(ts, e.Level.Slog(), e.Message, 0)
	for _, k := range slices.Sorted(maps.Keys(e.Fields)) {
		if k == FieldTimestamp && !ts.IsZero() {
			continue
		}
		r.AddAttrs(slog.Any(k, e.Fields[k]))
	}
	return s.handler.Handle(ctx, r)
}
