package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/V4T54L/api-performance/internal/domain"
)

// ProbeResult is the outcome of one connection pool probe.
type ProbeResult struct {
	Technique       string         `json:"technique"`
	Pooled          bool           `json:"pooled"`
	ExecutionTimeMS float64        `json:"execution_time_ms"`
	Result          map[string]int `json:"result"`
}

// ConnectionPoolUseCase times a trivial query on the shared pool against a
// freshly opened connection.
type ConnectionPoolUseCase struct {
	pooled domain.ProbeRepository
	open   domain.ProbeFactory
	logger *slog.Logger
}

// NewConnectionPoolUseCase creates a new ConnectionPoolUseCase.
func NewConnectionPoolUseCase(pooled domain.ProbeRepository, open domain.ProbeFactory, logger *slog.Logger) *ConnectionPoolUseCase {
	return &ConnectionPoolUseCase{pooled: pooled, open: open, logger: logger}
}

// Probe runs SELECT 1, either on the pool or on a connection opened and
// closed inside the timed section.
func (uc *ConnectionPoolUseCase) Probe(ctx context.Context, pooled bool) (ProbeResult, error) {
	start := time.Now()

	var (
		result int
		err    error
	)
	if pooled {
		result, err = uc.pooled.SelectOne(ctx)
	} else {
		result, err = uc.probeUnpooled(ctx)
	}
	if err != nil {
		return ProbeResult{}, err
	}

	elapsed := time.Since(start)
	uc.logger.Info("connection probe finished", "pooled", pooled, "elapsed", elapsed)
	return ProbeResult{
		Technique:       "Connection Pooling",
		Pooled:          pooled,
		ExecutionTimeMS: millis(elapsed, 2),
		Result:          map[string]int{"result": result},
	}, nil
}

func (uc *ConnectionPoolUseCase) probeUnpooled(ctx context.Context) (int, error) {
	probe, closeFn, err := uc.open(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to open dedicated connection: %w", err)
	}
	defer func() {
		if cerr := closeFn(); cerr != nil {
			uc.logger.Warn("failed to close dedicated connection", "error", cerr)
		}
	}()
	return probe.SelectOne(ctx)
}
