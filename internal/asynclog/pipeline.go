package asynclog

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/V4T54L/api-performance/internal/adapter/metrics"
	"github.com/V4T54L/api-performance/internal/pkg/logger"
)

const (
	defaultPollInterval = 500 * time.Millisecond
	defaultGracePeriod  = 5 * time.Second
)

var (
	// ErrClosed is the cause reported when an entry is submitted after Stop.
	ErrClosed = errors.New("asynclog: pipeline is stopped")
	// ErrNotSetUp is the cause reported when LogRequest runs before Setup.
	ErrNotSetUp = errors.New("asynclog: pipeline is not set up")
	// ErrSinkPanic wraps a panic recovered from a sink.
	ErrSinkPanic = errors.New("asynclog: sink panicked")
	// ErrShutdownTimeout is returned by Stop when the grace period elapses first.
	ErrShutdownTimeout = errors.New("asynclog: shutdown grace period elapsed")
	// ErrWorkerBusy is returned by Start while a previous worker is still inside the sink.
	ErrWorkerBusy = errors.New("asynclog: previous worker has not exited")
)

// Redactor scrubs sensitive values from fields before they are enqueued.
type Redactor interface {
	Redact(fields map[string]any) bool
}

// Options configures a Pipeline. The zero value is usable.
type Options struct {
	// Level is the minimum severity passed to the sink.
	Level Level
	// Format is used to render the default console sink.
	Format logger.Format
	// Sink receives dispatched entries. Defaults to a console sink on stdout.
	Sink Sink
	// Fallback receives faults from submission, dispatch and shutdown.
	// Defaults to a text logger on stderr.
	Fallback *slog.Logger
	// PollInterval bounds how long the idle worker waits before rechecking state.
	PollInterval time.Duration
	// GracePeriod bounds how long Stop waits for the queue to drain.
	GracePeriod time.Duration
	Redactor    Redactor
	Metrics     *metrics.PipelineMetrics
}

// Pipeline owns the queue, the stop flag and the worker goroutine.
type Pipeline struct {
	minLevel     Level
	sink         Sink
	fallback     *slog.Logger
	pollInterval time.Duration
	grace        time.Duration
	redactor     Redactor
	metrics      *metrics.PipelineMetrics
	now          func() time.Time

	queue    *queue
	stopping atomic.Bool

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	done    chan struct{}
	handle  *slog.Logger
}

// New builds a pipeline without starting its worker. Entries logged before
// Start are buffered.
func New(opts Options) *Pipeline {
	if opts.Fallback == nil {
		opts.Fallback = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	if opts.Sink == nil {
		opts.Sink = NewWriterSink(os.Stdout, opts.Format)
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = defaultGracePeriod
	}

	p := &Pipeline{
		minLevel:     opts.Level,
		sink:         opts.Sink,
		fallback:     opts.Fallback.With("component", "asynclog"),
		pollInterval: opts.PollInterval,
		grace:        opts.GracePeriod,
		redactor:     opts.Redactor,
		metrics:      opts.Metrics,
		now:          time.Now,
		queue:        newQueue(),
	}
	p.handle = slog.New(&Handler{p: p})
	return p
}

// Logger returns a slog logger whose records are submitted to the pipeline.
func (p *Pipeline) Logger() *slog.Logger { return p.handle }

// Len reports how many entries are waiting for the worker.
func (p *Pipeline) Len() int { return p.queue.len() }

// Running reports whether a worker has been started and not yet stopped.
func (p *Pipeline) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Start spawns the worker. Calling Start on a running pipeline does nothing.
func (p *Pipeline) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil
	}
	if p.done != nil {
		select {
		case <-p.done:
		default:
			return ErrWorkerBusy
		}
	}

	p.stopping.Store(false)
	p.queue.open()
	p.stopCh = make(chan struct{})
	p.done = make(chan struct{})
	p.running = true

	go p.run(p.stopCh, p.done)
	return nil
}

// Stop signals the worker and blocks until every queued entry has been
// dispatched or the grace period elapses. In the latter case the remaining
// entries are discarded and ErrShutdownTimeout is returned.
func (p *Pipeline) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return nil
	}
	p.running = false
	// Close the queue before signalling so that every accepted entry is
	// already queued when the worker looks for the last time.
	p.queue.close()
	p.stopping.Store(true)
	close(p.stopCh)

	timer := time.NewTimer(p.grace)
	defer timer.Stop()

	select {
	case <-p.done:
		return nil
	case <-timer.C:
	}

	discarded := p.queue.drain()
	if p.metrics != nil {
		p.metrics.QueueDepth.Sub(float64(discarded))
		p.metrics.EntriesDropped.WithLabelValues("shutdown_timeout").Add(float64(discarded))
	}
	p.fallback.Warn("shutdown grace period elapsed, discarding pending entries",
		"discarded", discarded,
		"grace", p.grace,
	)
	return ErrShutdownTimeout
}

// Log submits a message without waiting for the sink. A "level" key in fields
// selects the severity and is removed; a "timestamp" is added when missing.
// Failures are reported on the fallback logger, never to the caller.
func (p *Pipeline) Log(message string, fields map[string]any) {
	defer func() {
		if r := recover(); r != nil {
			p.submissionFault("submission_fault", message, fmt.Errorf("%v", r))
		}
	}()

	e := newEntry(message, fields, p.now())
	if p.redactor != nil {
		p.redactor.Redact(e.Fields)
	}
	if !p.queue.push(e) {
		p.submissionFault("closed", message, ErrClosed)
		return
	}

	if p.metrics != nil {
		p.metrics.EntriesEnqueued.Inc()
		p.metrics.QueueDepth.Inc()
	}
}

func (p *Pipeline) submissionFault(reason, message string, err error) {
	if p.metrics != nil {
		p.metrics.EntriesDropped.WithLabelValues(reason).Inc()
	}
	p.fallback.Error("dropped log entry", "message", message, "error", err)
}

func (p *Pipeline) run(stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	timer := time.NewTimer(p.pollInterval)
	defer timer.Stop()

	for {
		// Read the flag before popping: anything enqueued before Stop is then
		// visible to this pop, so exiting on an empty queue loses nothing.
		stopping := p.stopping.Load()

		if e, ok := p.queue.pop(); ok {
			if p.metrics != nil {
				p.metrics.QueueDepth.Dec()
			}
			p.dispatch(e)
			continue
		}
		if stopping {
			return
		}

		timer.Reset(p.pollInterval)
		select {
		case <-p.queue.ready:
		case <-stopCh:
		case <-timer.C:
		}
	}
}

func (p *Pipeline) dispatch(e Entry) {
	if e.Level < p.minLevel {
		if p.metrics != nil {
			p.metrics.EntriesFiltered.Inc()
		}
		return
	}

	if err := p.deliver(e); err != nil {
		if p.metrics != nil {
			p.metrics.DispatchFailures.Inc()
		}
		p.fallback.Error("failed to dispatch log entry",
			"entry_level", e.Level.String(),
			"message", e.Message,
			"error", err,
		)
		return
	}

	if p.metrics != nil {
		p.metrics.EntriesDispatched.WithLabelValues(e.Level.String()).Inc()
	}
}

// deliver runs one sink call and turns a panic into an error.
func (p *Pipeline) deliver(e Entry) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrSinkPanic, r)
		}
	}()
	return p.sink.Write(e)
}
