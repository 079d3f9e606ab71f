package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"transcribe-ro/internal/models"
	"transcribe-ro/internal/observability/logging"
	"transcribe-ro/internal/observability/metrics"
	"transcribe-ro/internal/retry"
)

// Mode selects the backend sequencing strategy.
type Mode string

const (
	// ModeAuto biases the first attempt by the connectivity probe and fails
	// over across backends.
	ModeAuto Mode = "auto"
	// ModeOnline uses only the network service.
	ModeOnline Mode = "online"
	// ModeOffline uses only the local model.
	ModeOffline Mode = "offline"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeAuto, ModeOnline, ModeOffline:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown translation mode %q (expected auto, online or offline)", s)
	}
}

// ProbeFunc reports whether the network looks usable. Advisory only: a
// positive probe does not guarantee the online backend will succeed.
type ProbeFunc func(ctx context.Context) bool

// Router produces a translation for a run of text, choosing and sequencing
// backends according to its mode. It never loses source text: total failure
// yields a StatusFailed outcome carrying the original.
type Router struct {
	mode       Mode
	target     string
	online     Backend
	offline    Backend
	probe      ProbeFunc
	policy     retry.Policy
	chunkLimit int
	metrics    *metrics.Metrics
	log        zerolog.Logger
}

// RouterConfig wires a Router.
type RouterConfig struct {
	Mode           Mode
	TargetLanguage string
	Online         Backend
	Offline        Backend
	Probe          ProbeFunc
	Policy         retry.Policy
	ChunkLimit     int
}

// NewRouter creates a translation router.
func NewRouter(cfg RouterConfig) *Router {
	if cfg.TargetLanguage == "" {
		cfg.TargetLanguage = "ro"
	}
	if cfg.Policy.MaxAttempts == 0 {
		cfg.Policy = retry.DefaultPolicy()
	}
	if cfg.ChunkLimit == 0 {
		cfg.ChunkLimit = 4500
	}
	return &Router{
		mode:       cfg.Mode,
		target:     cfg.TargetLanguage,
		online:     cfg.Online,
		offline:    cfg.Offline,
		probe:      cfg.Probe,
		policy:     cfg.Policy,
		chunkLimit: cfg.ChunkLimit,
		metrics:    metrics.DefaultMetrics,
		log:        logging.WithComponent("translate"),
	}
}

// TargetLanguage returns the router's fixed target language.
func (r *Router) TargetLanguage() string {
	return r.target
}

// Translate routes one run of text. The returned error is non-nil only for
// failures with no fallback: offline-only mode with no model for the pair.
// Every other failure is absorbed into a StatusFailed outcome preserving the
// source text.
func (r *Router) Translate(ctx context.Context, text, sourceLang string) (models.TranslationOutcome, error) {
	if strings.TrimSpace(text) == "" {
		return models.TranslationOutcome{Text: text, Backend: models.BackendNone, Status: models.StatusOK}, nil
	}

	// Same-language input needs no translation; callers distinguish this
	// from a failure by the ok status with no backend.
	if normalizeLang(sourceLang) == normalizeLang(r.target) {
		r.metrics.RecordTranslationSkipped()
		r.log.Debug().Str("lang", sourceLang).Msg("Source already in target language, skipping translation")
		return models.TranslationOutcome{Text: text, Backend: models.BackendNone, Status: models.StatusOK}, nil
	}

	switch r.mode {
	case ModeOnline:
		return r.singleBackend(ctx, r.online, text, sourceLang)
	case ModeOffline:
		out, err := r.translateVia(ctx, r.offline, text, sourceLang)
		if err != nil {
			if errors.Is(err, ErrModelUnavailable) {
				// No model for the pair is a hard failure in offline-only mode.
				return models.Failed(text, models.BackendOffline), err
			}
			r.log.Error().Err(err).Msg("Offline translation failed")
			return models.Failed(text, models.BackendOffline), nil
		}
		return models.TranslationOutcome{Text: out, Backend: models.BackendOffline, Status: models.StatusOK}, nil
	default:
		return r.translateAuto(ctx, text, sourceLang)
	}
}

// singleBackend runs one backend with soft failure.
func (r *Router) singleBackend(ctx context.Context, b Backend, text, sourceLang string) (models.TranslationOutcome, error) {
	if b == nil {
		return models.Failed(text, models.BackendNone), nil
	}
	out, err := r.translateVia(ctx, b, text, sourceLang)
	if err != nil {
		r.log.Error().Err(err).Str("backend", string(b.Name())).Msg("Translation failed, preserving source text")
		return models.Failed(text, b.Name()), nil
	}
	return models.TranslationOutcome{Text: out, Backend: b.Name(), Status: models.StatusOK}, nil
}

// translateAuto sequences both backends, first attempt biased by the probe.
func (r *Router) translateAuto(ctx context.Context, text, sourceLang string) (models.TranslationOutcome, error) {
	order := []Backend{r.online, r.offline}
	if r.online == nil || (r.probe != nil && !r.probe(ctx)) {
		r.log.Info().Msg("Network probe negative, trying offline backend first")
		order = []Backend{r.offline, r.online}
	}

	var lastErr error
	var lastBackend = models.BackendNone
	for i, b := range order {
		if b == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return models.Failed(text, lastBackend), nil
		}

		out, err := r.translateVia(ctx, b, text, sourceLang)
		if err == nil {
			return models.TranslationOutcome{Text: out, Backend: b.Name(), Status: models.StatusOK}, nil
		}

		lastErr = err
		lastBackend = b.Name()
		evt := r.log.Warn().Err(err).Str("backend", string(b.Name()))
		switch {
		case errors.Is(err, ErrModelUnavailable):
			evt.Msg("No offline model for language pair, trying next backend")
		case errors.Is(err, ErrNetworkUnavailable):
			evt.Msg("Network unavailable, failing over without further retries")
		default:
			evt.Msg("Backend exhausted, failing over")
		}
		if i < len(order)-1 {
			r.metrics.RecordTranslationFailover()
		}
	}

	r.log.Error().Err(lastErr).Msg("All translation backends failed, preserving source text")
	return models.Failed(text, lastBackend), nil
}

// translateVia applies chunking and per-chunk retries to one backend. A
// failed chunk degrades to its original-language text; only when every chunk
// fails does the whole call count as a backend failure. Missing-model and
// network-classified errors are backend-wide, so they abort the remaining
// chunks and propagate for failover.
func (r *Router) translateVia(ctx context.Context, b Backend, text, sourceLang string) (string, error) {
	chunks := SplitChunks(text, r.chunkLimit)
	if len(chunks) == 0 {
		return text, nil
	}
	if len(chunks) == 1 {
		return r.attempt(ctx, b, chunks[0], sourceLang)
	}

	r.log.Info().
		Int("chunks", len(chunks)).
		Int("chars", len(text)).
		Str("backend", string(b.Name())).
		Msg("Splitting long text for translation")

	parts := make([]string, 0, len(chunks))
	failed := 0
	var firstErr error
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		out, err := r.attempt(ctx, b, chunk, sourceLang)
		if err != nil {
			if errors.Is(err, ErrModelUnavailable) {
				// The pair has no model; later chunks cannot fare better.
				return "", err
			}
			if errors.Is(err, ErrNetworkUnavailable) {
				// The network is down for this backend, not this chunk.
				// Surface it so the caller can fail over for the whole text.
				return "", err
			}
			r.log.Warn().Err(err).Int("chunk", i+1).Msg("Chunk failed, keeping original text")
			r.metrics.RecordChunkFailure()
			failed++
			if firstErr == nil {
				firstErr = err
			}
			out = chunk
		}
		parts = append(parts, out)
	}

	if failed == len(chunks) {
		return "", fmt.Errorf("all %d chunks failed: %w", len(chunks), firstErr)
	}
	return strings.Join(parts, " "), nil
}

// attempt runs one chunk through the backend under the retry policy. An
// empty or whitespace-only result is a failure, not a success with empty
// content. In auto mode a network-classified online failure aborts the
// remaining retries so the router can fail over immediately.
func (r *Router) attempt(ctx context.Context, b Backend, chunk, sourceLang string) (string, error) {
	policy := r.policy
	if b.Name() == models.BackendOffline {
		// The local model is deterministic; repeating a failed inference
		// cannot change the result.
		policy = retry.Policy{MaxAttempts: 1}
	}

	var out string
	err := retry.Do(ctx, policy, func(attempt int) error {
		start := time.Now()
		res, err := b.Translate(ctx, chunk, sourceLang, r.target)
		r.metrics.RecordTranslationAttempt(string(b.Name()), err, time.Since(start).Seconds())

		if err != nil {
			if errors.Is(err, ErrModelUnavailable) {
				return retry.Abort(err)
			}
			if r.mode == ModeAuto && b.Name() == models.BackendOnline && IsNetworkError(err) {
				return retry.Abort(fmt.Errorf("%w: %v", ErrNetworkUnavailable, err))
			}
			r.log.Warn().Err(err).Int("attempt", attempt).Str("backend", string(b.Name())).Msg("Translation attempt failed")
			return err
		}
		if strings.TrimSpace(res) == "" {
			return errors.New("empty translation result")
		}
		out = res
		return nil
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

// normalizeLang lowers the code and strips any region subtag, so "en-US"
// matches "en".
func normalizeLang(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	return lang
}
