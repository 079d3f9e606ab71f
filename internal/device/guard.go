package device

import (
	"context"
	"errors"
	"fmt"
	"time"

	"transcribe-ro/internal/observability/logging"
	"transcribe-ro/internal/observability/metrics"
	"transcribe-ro/internal/speech"
)

// ErrDeviceFault is returned when numeric instability can no longer be
// recovered: either it occurred on CPU, or the run is already degraded.
var ErrDeviceFault = errors.New("device: unrecoverable numeric instability")

// Guard wraps speech engine calls so numeric output faults trigger exactly
// one reload-on-CPU retry per run.
type Guard struct {
	engine  speech.Engine
	state   *State
	metrics *metrics.Metrics
}

// NewGuard creates a guard over engine with the run's device state.
func NewGuard(engine speech.Engine, state *State) *Guard {
	return &Guard{
		engine:  engine,
		state:   state,
		metrics: metrics.DefaultMetrics,
	}
}

// State returns the guarded run state.
func (g *Guard) State() *State {
	return g.state
}

// Transcribe runs the engine and inspects the outcome for numeric
// instability. On the first fault on a non-CPU device it reloads the model on
// CPU, retries the same call exactly once, and marks the run degraded. A
// fault on CPU, or any fault after degradation, is fatal: there is no further
// fallback target and the guard must not loop.
func (g *Guard) Transcribe(ctx context.Context, audioPath string) (*speech.Result, error) {
	res, err := g.engine.Transcribe(ctx, audioPath)
	if err == nil {
		return res, nil
	}
	if !errors.Is(err, speech.ErrNumericInstability) {
		return nil, err
	}

	log := logging.WithComponent("device")
	g.metrics.RecordDeviceFault(g.state.Active)

	if g.state.Active == CPU || g.state.Degraded {
		log.Error().
			Str("device", g.state.Active).
			Bool("degraded", g.state.Degraded).
			Msg("Numeric instability with no fallback target")
		return nil, fmt.Errorf("%w on %s: %v", ErrDeviceFault, g.state.Active, err)
	}

	log.Warn().
		Str("device", g.state.Active).
		Err(err).
		Msg("Numeric instability detected, reloading model on CPU")

	reloadStart := time.Now()
	if loadErr := g.engine.Load(ctx, CPU); loadErr != nil {
		return nil, fmt.Errorf("reload on cpu after fault on %s: %w", g.state.Active, loadErr)
	}
	log.Info().
		Dur("reloadDuration", time.Since(reloadStart)).
		Str("from", g.state.Active).
		Msg("Model reloaded on CPU")

	g.state.Active = CPU
	g.state.Precision = precisionFor(CPU)
	g.state.Degraded = true
	g.metrics.RecordDeviceFallback()

	res, err = g.engine.Transcribe(ctx, audioPath)
	if err != nil {
		if errors.Is(err, speech.ErrNumericInstability) {
			return nil, fmt.Errorf("%w on cpu retry: %v", ErrDeviceFault, err)
		}
		return nil, fmt.Errorf("cpu retry after fallback: %w", err)
	}
	return res, nil
}
