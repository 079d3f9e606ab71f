// Package merge combines transcription segments with diarized speaker
// intervals and per-segment translations into a final transcript.
package merge

import (
	"context"
	"sync"

	"transcribe-ro/internal/models"
	"transcribe-ro/internal/observability/logging"
)

// defaultSpeakerNames label the first two speakers in order of appearance
// when no explicit names are configured.
var defaultSpeakerNames = []string{"Speaker 1", "Speaker 2"}

// Translator produces a translation outcome for one piece of text.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang string) (models.TranslationOutcome, error)
}

// Merger attaches speaker labels and translations to segments. Segment
// order, text and timestamps from the speech engine pass through unchanged.
type Merger struct {
	translator   Translator
	speakerNames []string
	workers      int
}

// Option configures a Merger.
type Option func(*Merger)

// WithSpeakerNames sets the display names assigned to speakers in order of
// first appearance.
func WithSpeakerNames(names []string) Option {
	return func(m *Merger) {
		if len(names) > 0 {
			m.speakerNames = names
		}
	}
}

// WithWorkers bounds concurrent per-segment translation.
func WithWorkers(n int) Option {
	return func(m *Merger) {
		if n > 0 {
			m.workers = n
		}
	}
}

// New creates a Merger. translator may be nil when translation is disabled.
func New(translator Translator, opts ...Option) *Merger {
	m := &Merger{
		translator:   translator,
		speakerNames: defaultSpeakerNames,
		workers:      4,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Merge labels each segment with its speaker, translates segment text, and
// returns the assembled transcript. intervals may be empty, in which case no
// speaker labels are attached.
//
// A segment belongs to the interval containing its temporal midpoint;
// midpoints falling in a gap between intervals leave the segment unlabeled.
// Translation failures are soft: the segment keeps its source text as the
// translation and the per-segment status is folded into the returned
// backend and status.
func (m *Merger) Merge(ctx context.Context, transcript *models.Transcript, intervals []models.SpeakerInterval) (*models.Transcript, models.TranslationBackend, models.TranslationStatus, error) {
	log := logging.WithComponent("merge")

	out := &models.Transcript{
		Language: transcript.Language,
		Segments: make([]models.Segment, len(transcript.Segments)),
	}
	copy(out.Segments, transcript.Segments)

	if len(intervals) > 0 {
		names := m.assignNames(intervals)
		for i := range out.Segments {
			id, ok := speakerAt(intervals, out.Segments[i].Midpoint())
			if !ok {
				continue
			}
			if name, known := names[id]; known {
				out.Segments[i].SpeakerLabel = name
			} else {
				out.Segments[i].SpeakerLabel = id
			}
		}
	}

	backend, status := models.BackendNone, models.StatusOK
	if m.translator != nil {
		var err error
		backend, status, err = m.translateAll(ctx, out)
		if err != nil {
			return nil, backend, models.StatusFailed, err
		}
	}

	log.Debug().
		Int("segments", len(out.Segments)).
		Int("speaker_intervals", len(intervals)).
		Str("translation_backend", string(backend)).
		Str("translation_status", string(status)).
		Msg("Merge complete")
	return out, backend, status, nil
}

// assignNames maps engine speaker IDs to display names in order of first
// appearance in the interval timeline. Identities beyond the configured
// names keep their raw IDs. The ordering is per run; the same voice may map
// to a different name on another recording.
func (m *Merger) assignNames(intervals []models.SpeakerInterval) map[string]string {
	names := make(map[string]string, len(m.speakerNames))
	for _, iv := range intervals {
		if _, seen := names[iv.SpeakerID]; seen {
			continue
		}
		if len(names) == len(m.speakerNames) {
			continue
		}
		names[iv.SpeakerID] = m.speakerNames[len(names)]
	}
	return names
}

// speakerAt finds the interval whose half-open range contains t.
func speakerAt(intervals []models.SpeakerInterval, t float64) (string, bool) {
	for _, iv := range intervals {
		if iv.Contains(t) {
			return iv.SpeakerID, true
		}
	}
	return "", false
}

// translateAll runs per-segment translation over a bounded worker pool and
// writes results back in place, preserving segment order. The aggregate
// backend reports the backend that served the run; status is failed only
// when every attempted segment failed.
func (m *Merger) translateAll(ctx context.Context, transcript *models.Transcript) (models.TranslationBackend, models.TranslationStatus, error) {
	type result struct {
		idx     int
		outcome models.TranslationOutcome
		err     error
	}

	jobs := make(chan int)
	results := make(chan result)

	var wg sync.WaitGroup
	for w := 0; w < m.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				outcome, err := m.translator.Translate(ctx, transcript.Segments[idx].Text, transcript.Language)
				results <- result{idx: idx, outcome: outcome, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range transcript.Segments {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	backend := models.BackendNone
	attempted, failed := 0, 0
	var firstErr error
	for r := range results {
		if r.err != nil {
			if firstErr == nil {
				firstErr = r.err
			}
			continue
		}
		transcript.Segments[r.idx].TranslatedText = r.outcome.Text
		if r.outcome.Backend != models.BackendNone {
			attempted++
			if backend == models.BackendNone {
				backend = r.outcome.Backend
			}
			if r.outcome.Status == models.StatusFailed {
				failed++
			}
		}
	}
	if firstErr != nil {
		return backend, models.StatusFailed, firstErr
	}
	if err := ctx.Err(); err != nil {
		return backend, models.StatusFailed, err
	}

	status := models.StatusOK
	if attempted > 0 && failed == attempted {
		status = models.StatusFailed
	}
	return backend, status, nil
}
