// Package diarize assigns speaker identities to regions of an audio file.
package diarize

import (
	"context"
	"errors"

	"transcribe-ro/internal/models"
)

// ErrMissingCredential indicates the diarization engine cannot run because no
// Hugging Face auth token was provided.
var ErrMissingCredential = errors.New("diarize: missing auth token (set HF_TOKEN or HUGGING_FACE_TOKEN)")

// Engine produces speaker intervals for an audio file.
type Engine interface {
	// Diarize analyses the audio at audioPath and returns non-overlapping
	// speaker intervals ordered by start time. numSpeakers is a hint; the
	// engine may return fewer distinct speakers.
	Diarize(ctx context.Context, audioPath string, numSpeakers int) ([]models.SpeakerInterval, error)
}

// CheckRequirements verifies that diarization can run with the given
// credential. It is called before any audio is processed so configuration
// problems surface up front rather than mid-run.
func CheckRequirements(authToken string) error {
	if authToken == "" {
		return ErrMissingCredential
	}
	return nil
}
