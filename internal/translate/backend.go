// Package translate routes text between an online translation service and a
// local offline model, with retry, chunking and failover.
package translate

import (
	"context"
	"errors"

	"transcribe-ro/internal/models"
)

// ErrModelUnavailable means no offline model exists for the requested
// language pair. Distinct from an inference failure on a resolvable model:
// fatal in offline-only mode, soft in auto mode.
var ErrModelUnavailable = errors.New("translate: no offline model for language pair")

// ErrNetworkUnavailable marks an online failure classified as a dead network
// rather than a transient service error.
var ErrNetworkUnavailable = errors.New("translate: network unavailable")

// Backend translates text for one language pair. Implementations are the
// online service client and the offline local-model runner.
type Backend interface {
	// Name identifies the backend variant in outcomes and metrics.
	Name() models.TranslationBackend

	// Translate converts text from sourceLang to targetLang. sourceLang may
	// be "auto" for backends that detect the source language.
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}
