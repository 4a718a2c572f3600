package asynclog

import (
	"log/slog"
	"os"
	"sync"
)

var (
	defaultMu       sync.Mutex
	defaultPipeline *Pipeline
)

// Setup builds and starts the process-wide pipeline and returns its logger.
// While that pipeline is running, further calls return the existing logger and
// ignore opts. After Stop, Setup builds a fresh pipeline from opts.
func Setup(opts Options) (*slog.Logger, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultPipeline != nil && defaultPipeline.Running() {
		return defaultPipeline.Logger(), nil
	}

	p := New(opts)
	if err := p.Start(); err != nil {
		return nil, err
	}
	defaultPipeline = p
	return p.Logger(), nil
}

// LogRequest submits a message to the process-wide pipeline.
func LogRequest(message string, fields map[string]any) {
	defaultMu.Lock()
	p := defaultPipeline
	defaultMu.Unlock()

	if p == nil {
		slog.New(slog.NewTextHandler(os.Stderr, nil)).Error("dropped log entry",
			"component", "asynclog",
			"message", message,
			"error", ErrNotSetUp,
		)
		return
	}
	p.Log(message, fields)
}

// Stop drains and stops the process-wide pipeline.
func Stop() error {
	defaultMu.Lock()
	p := defaultPipeline
	defaultMu.Unlock()

	if p == nil {
		return nil
	}
	return p.Stop()
}

// Default returns the process-wide pipeline, or nil before Setup.
func Default() *Pipeline {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultPipeline
}
