package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/V4T54L/api-performance/internal/asynclog"
)

const defaultWriteTimeout = 2 * time.Second

type streamRecord struct {
	Message string          `json:"message"`
	Level   string          `json:"level"`
	Fields  asynclog.Fields `json:"fields"`
}

// LogStream is an asynclog sink that appends entries to a capped Redis Stream.
// While Redis is unreachable, entries go to the optional fallback sink instead.
type LogStream struct {
	client       *redis.Client
	logger       *slog.Logger
	streamKey    string
	maxLen       int64
	writeTimeout time.Duration
	fallback     asynclog.Sink
	isAvailable  atomic.Bool
}

// NewLogStream creates a collector sink. fallback may be nil, in which case
// writes fail while Redis is down and the pipeline reports them.
func NewLogStream(client *redis.Client, logger *slog.Logger, streamKey string, maxLen int64, fallback asynclog.Sink) *LogStream {
	s := &LogStream{
		client:       client,
		logger:       logger.With("component", "log_stream"),
		streamKey:    streamKey,
		maxLen:       maxLen,
		writeTimeout: defaultWriteTimeout,
		fallback:     fallback,
	}
	s.isAvailable.Store(true)
	return s
}

// Write implements asynclog.Sink.
func (s *LogStream) Write(e asynclog.Entry) error {
	if !s.isAvailable.Load() {
		return s.writeFallback(e, errors.New("redis is unavailable"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
	defer cancel()

	err := s.xadd(ctx, e)
	if err == nil {
		return nil
	}
	if isNetworkError(err) {
		if s.isAvailable.CompareAndSwap(true, false) {
			s.logger.Error("Redis connection lost during write", "error", err)
		}
		return s.writeFallback(e, err)
	}
	return err
}

func (s *LogStream) writeFallback(e asynclog.Entry, cause error) error {
	if s.fallback == nil {
		return fmt.Errorf("collector unavailable and no fallback sink configured: %w", cause)
	}
	return s.fallback.Write(e)
}

func (s *LogStream) xadd(ctx context.Context, e asynclog.Entry) error {
	payload, err := encodeEntry(e)
	if err != nil {
		return err
	}

	args := &redis.XAddArgs{
		Stream: s.streamKey,
		Values: map[string]interface{}{"payload": payload},
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}
	if err := s.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to XADD to redis stream: %w", err)
	}
	return nil
}

// StartHealthCheck pings Redis until ctx is cancelled and re-enables the
// stream once it answers again.
func (s *LogStream) StartHealthCheck(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Stopping Redis health check")
			return
		case <-ticker.C:
			if err := s.client.Ping(ctx).Err(); err != nil {
				if s.isAvailable.CompareAndSwap(true, false) {
					s.logger.Error("Redis connection lost", "error", err)
				}
				continue
			}
			if s.isAvailable.CompareAndSwap(false, true) {
				s.logger.Info("Redis connection recovered")
			}
		}
	}
}

// Available reports whether writes currently go to Redis.
func (s *LogStream) Available() bool {
	return s.isAvailable.Load()
}

func encodeEntry(e asynclog.Entry) ([]byte, error) {
	payload, err := json.Marshal(streamRecord{
		Message: e.Message,
		Level:   e.Level.String(),
		Fields:  e.Fields,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal log entry: %w", err)
	}
	return payload, nil
}

func isNetworkError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) || errors.Is(err, redis.ErrClosed) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
