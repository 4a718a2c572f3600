package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/V4T54L/api-performance/internal/asynclog"
)

const MaxLogMessages = 1000

// ErrInvalidMessageCount is returned when message_count is out of range.
var ErrInvalidMessageCount = fmt.Errorf("message_count must be between 1 and %d", MaxLogMessages)

// LogSubmitter accepts log entries without blocking on their destination.
// *asynclog.Pipeline satisfies it.
type LogSubmitter interface {
	Log(message string, fields map[string]any)
}

// SubmitFunc adapts a function, such as asynclog.LogRequest, to LogSubmitter.
type SubmitFunc func(message string, fields map[string]any)

func (f SubmitFunc) Log(message string, fields map[string]any) { f(message, fields) }

// AsyncLoggingResult reports how long producing the messages took.
type AsyncLoggingResult struct {
	Technique       string  `json:"technique"`
	AsyncLogging    bool    `json:"async_logging"`
	LogLevel        string  `json:"log_level"`
	MessageCount    int     `json:"message_count"`
	ExecutionTimeMS float64 `json:"execution_time_ms"`
}

// AsyncLoggingUseCase compares submitting through the pipeline with writing
// through a synchronous logger.
type AsyncLoggingUseCase struct {
	async LogSubmitter
	sync  *slog.Logger
}

// NewAsyncLoggingUseCase creates a new AsyncLoggingUseCase.
func NewAsyncLoggingUseCase(async LogSubmitter, sync *slog.Logger) *AsyncLoggingUseCase {
	return &AsyncLoggingUseCase{async: async, sync: sync}
}

// Run emits count messages at level and times the producer side only.
func (uc *AsyncLoggingUseCase) Run(ctx context.Context, async bool, level string, count int) (AsyncLoggingResult, error) {
	if count < 1 || count > MaxLogMessages {
		return AsyncLoggingResult{}, ErrInvalidMessageCount
	}

	start := time.Now()
	if async {
		for i := 0; i < count; i++ {
			uc.async.Log(fmt.Sprintf("Log message %d", i), map[string]any{
				asynclog.FieldLevel: level,
				"async":             true,
			})
		}
	} else {
		lvl := asynclog.LevelOf(level).Slog()
		for i := 0; i < count; i++ {
			uc.sync.Log(ctx, lvl, fmt.Sprintf("Log message %d", i), "async", false)
		}
	}
	elapsed := time.Since(start)

	return AsyncLoggingResult{
		Technique:       "Asynchronous Logging",
		AsyncLogging:    async,
		LogLevel:        level,
		MessageCount:    count,
		ExecutionTimeMS: millis(elapsed, 2),
	}, nil
}
