// Package mock provides a scripted speech engine for tests and local runs
// without cloud credentials. Faults can be injected per device to exercise
// the degraded-mode fallback path.
package mock

import (
	"context"
	"fmt"
	"sync"

	"transcribe-ro/internal/models"
	"transcribe-ro/internal/speech"
)

// DefaultSegments is the canned transcript returned when none is configured.
var DefaultSegments = []models.Segment{
	{Start: 0, End: 5, Text: "Hello everyone and welcome back."},
	{Start: 5, End: 10, Text: "Today we are testing the pipeline."},
	{Start: 10, End: 15, Text: "Thanks for listening."},
}

// Engine implements speech.Engine with scripted results.
type Engine struct {
	mu sync.Mutex

	// Language is the detected language reported by Transcribe.
	Language string
	// Segments is the canned transcript. Defaults to DefaultSegments.
	Segments []models.Segment
	// Devices lists the devices this engine reports as available.
	Devices []string
	// FaultOn marks devices whose inference produces numeric instability.
	FaultOn map[string]bool

	device     string
	loads      []string
	transcribe int
	closed     bool
}

// New creates a mock engine that supports only CPU and speaks English.
func New() *Engine {
	return &Engine{
		Language: "en",
		Segments: DefaultSegments,
		Devices:  []string{"cpu"},
	}
}

// Available reports whether the engine supports the given device.
// Satisfies the device selector's prober.
func (e *Engine) Available(device string) bool {
	for _, d := range e.Devices {
		if d == device {
			return true
		}
	}
	return false
}

// Load records the device the model was (re)loaded on.
func (e *Engine) Load(ctx context.Context, device string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return fmt.Errorf("engine closed")
	}
	e.device = device
	e.loads = append(e.loads, device)
	return nil
}

// Transcribe returns the scripted result, or a numeric instability fault when
// configured for the active device.
func (e *Engine) Transcribe(ctx context.Context, audioPath string) (*speech.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, fmt.Errorf("engine closed")
	}
	if e.device == "" {
		return nil, fmt.Errorf("engine not loaded")
	}
	e.transcribe++

	if e.FaultOn[e.device] {
		return nil, fmt.Errorf("decode on %s: %w", e.device, speech.ErrNumericInstability)
	}

	segments := make([]models.Segment, len(e.Segments))
	copy(segments, e.Segments)
	return &speech.Result{Language: e.Language, Segments: segments}, nil
}

// Close marks the engine as released.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

// ActiveDevice returns the device of the most recent Load.
func (e *Engine) ActiveDevice() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.device
}

// Loads returns the sequence of devices Load was called with.
func (e *Engine) Loads() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.loads))
	copy(out, e.loads)
	return out
}

// TranscribeCalls returns how many times Transcribe ran.
func (e *Engine) TranscribeCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.transcribe
}
