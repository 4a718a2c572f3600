package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/V4T54L/api-performance/internal/adapter/logfile"
	redisrepo "github.com/V4T54L/api-performance/internal/adapter/repository/redis"
	"github.com/V4T54L/api-performance/internal/asynclog"
	"github.com/V4T54L/api-performance/internal/pkg/config"
	"github.com/V4T54L/api-performance/internal/pkg/logger"
)

// logSink is the pipeline destination plus whatever must be released once
// the pipeline has stopped.
type logSink struct {
	sink   asynclog.Sink
	stream *redisrepo.LogStream
	close  func() error
}

// buildSink creates the destination selected by LOG_SINK. The collector sink
// falls back to the rotating file while Redis is unreachable.
func buildSink(cfg *config.Config, format logger.Format, client *redis.Client, log *slog.Logger) (*logSink, error) {
	switch cfg.LogSink {
	case config.SinkConsole:
		return &logSink{
			sink:  asynclog.NewWriterSink(os.Stdout, format),
			close: func() error { return nil },
		}, nil

	case config.SinkFile:
		sw, err := logfile.NewSegmentWriter(cfg.LogFileDir, cfg.LogSegmentSize, cfg.LogMaxDiskSize, log)
		if err != nil {
			return nil, fmt.Errorf("failed to open log directory: %w", err)
		}
		return &logSink{sink: asynclog.NewWriterSink(sw, format), close: sw.Close}, nil

	case config.SinkCollector:
		sw, err := logfile.NewSegmentWriter(cfg.LogFileDir, cfg.LogSegmentSize, cfg.LogMaxDiskSize, log)
		if err != nil {
			return nil, fmt.Errorf("failed to open fallback log directory: %w", err)
		}
		stream := redisrepo.NewLogStream(client, log, cfg.LogStreamKey, cfg.LogStreamMaxLen, asynclog.NewWriterSink(sw, format))
		return &logSink{sink: stream, stream: stream, close: sw.Close}, nil

	default:
		return nil, fmt.Errorf("unknown log sink %q", cfg.LogSink)
	}
}
