// Package speech defines the interface for speech recognition engines.
package speech

import (
	"context"
	"errors"

	"transcribe-ro/internal/models"
)

// ErrNumericInstability signals that an inference call produced non-finite
// probabilities. The device guard recovers from this once by reloading the
// engine on CPU; implementations must wrap this sentinel so callers can use
// errors.Is.
var ErrNumericInstability = errors.New("speech: numeric instability in model output")

// Result is the outcome of one transcription run: the detected language and
// an ordered sequence of non-overlapping timed segments.
type Result struct {
	Language string
	Segments []models.Segment
}

// Engine is a speech recognition engine bound to a compute device.
// Implementations are not expected to be safe for concurrent Transcribe calls.
type Engine interface {
	// Load prepares the engine on the given device. Loading is expensive and
	// observable; callers log its timing. Load may be called again with a
	// different device to move the model.
	Load(ctx context.Context, device string) error

	// Transcribe runs recognition over the file at audioPath and returns the
	// detected language with ordered segments. Numeric instability is
	// reported by wrapping ErrNumericInstability.
	Transcribe(ctx context.Context, audioPath string) (*Result, error)

	// Close releases engine resources.
	Close() error
}
