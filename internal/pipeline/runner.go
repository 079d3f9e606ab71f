// Package pipeline orchestrates one transcription run per input file: device
// selection, guarded transcription, diarization, merge, output and events.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"transcribe-ro/internal/device"
	"transcribe-ro/internal/diarize"
	"transcribe-ro/internal/events"
	"transcribe-ro/internal/media"
	"transcribe-ro/internal/merge"
	"transcribe-ro/internal/models"
	"transcribe-ro/internal/observability/logging"
	"transcribe-ro/internal/observability/metrics"
	"transcribe-ro/internal/output"
	"transcribe-ro/internal/speech"
)

// Runner executes the pipeline over input files.
type Runner struct {
	engine      speech.Engine
	prober      device.Prober
	requested   string
	extractor   *media.Extractor
	diarizer    diarize.Engine
	numSpeakers int
	merger      *merge.Merger
	consumer    output.Consumer
	publisher   *events.Publisher
	metrics     *metrics.Metrics
}

// Config wires a Runner's collaborators.
type Config struct {
	Engine speech.Engine
	// Prober reports device availability; nil means only CPU is available.
	Prober          device.Prober
	RequestedDevice string
	// Extractor pulls audio tracks out of video inputs; nil gets a default
	// ffmpeg-based one.
	Extractor *media.Extractor
	// Diarizer is optional; nil disables speaker labeling.
	Diarizer    diarize.Engine
	NumSpeakers int
	Merger      *merge.Merger
	Consumer    output.Consumer
	Publisher   *events.Publisher
}

// NewRunner assembles a Runner from its collaborators.
func NewRunner(cfg Config) *Runner {
	prober := cfg.Prober
	if prober == nil {
		prober = device.StaticProber{}
	}
	numSpeakers := cfg.NumSpeakers
	if numSpeakers <= 0 {
		numSpeakers = 2
	}
	extractor := cfg.Extractor
	if extractor == nil {
		extractor = media.NewExtractor("ffmpeg")
	}
	return &Runner{
		engine:      cfg.Engine,
		prober:      prober,
		requested:   cfg.RequestedDevice,
		extractor:   extractor,
		diarizer:    cfg.Diarizer,
		numSpeakers: numSpeakers,
		merger:      cfg.Merger,
		consumer:    cfg.Consumer,
		publisher:   cfg.Publisher,
		metrics:     metrics.DefaultMetrics,
	}
}

// Process dispatches a path to single-file or directory processing.
func (r *Runner) Process(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return r.ProcessDirectory(ctx, path)
	}
	return r.ProcessFile(ctx, path)
}

// ProcessFile runs the full pipeline over one input file. Device state is
// fresh per file, so a degradation in one run never leaks into the next.
func (r *Runner) ProcessFile(ctx context.Context, path string) error {
	runID := uuid.NewString()
	log := logging.WithRun(runID, path)
	start := time.Now()

	state, err := device.Select(r.requested, r.prober)
	if err != nil {
		return fmt.Errorf("select device: %w", err)
	}

	run := models.RunMetadata{
		RunID:      runID,
		SourcePath: path,
		Device:     state.Active,
		Timestamp:  start.Unix(),
	}
	r.metrics.RecordRunStart(state.Active)
	if r.publisher != nil {
		if err := r.publisher.PublishRunStarted(ctx, run); err != nil {
			log.Warn().Err(err).Msg("Failed to publish run started event")
		}
	}

	err = r.runPipeline(ctx, log, state, &run, path)
	r.metrics.RecordRunEnd(err == nil, time.Since(start).Seconds())

	if err != nil {
		log.Error().Err(err).Dur("duration", time.Since(start)).Msg("Run failed")
		if r.publisher != nil {
			if pubErr := r.publisher.PublishRunFailed(ctx, run, err); pubErr != nil {
				log.Warn().Err(pubErr).Msg("Failed to publish run failed event")
			}
		}
		return err
	}

	log.Info().
		Str("device", run.Device).
		Bool("degraded", run.Degraded).
		Str("translation_backend", string(run.TranslationBackend)).
		Dur("duration", time.Since(start)).
		Msg("Run complete")
	if r.publisher != nil {
		if err := r.publisher.PublishRunCompleted(ctx, run); err != nil {
			log.Warn().Err(err).Msg("Failed to publish run completed event")
		}
	}
	return nil
}

func (r *Runner) runPipeline(ctx context.Context, log zerolog.Logger, state *device.State, run *models.RunMetadata, path string) error {
	// Video containers carry their audio in a track the engine cannot read
	// directly; decode it to wav first and feed that downstream.
	audioPath := path
	if media.IsVideo(path) {
		extracted, cleanup, err := r.extractor.ExtractAudio(ctx, path)
		if err != nil {
			return err
		}
		defer cleanup()
		audioPath = extracted
	}

	if err := r.engine.Load(ctx, state.Active); err != nil {
		return fmt.Errorf("load engine on %s: %w", state.Active, err)
	}

	guard := device.NewGuard(r.engine, state)
	transcribeStart := time.Now()
	result, err := guard.Transcribe(ctx, audioPath)
	if err != nil {
		return fmt.Errorf("transcribe: %w", err)
	}
	r.metrics.RecordTranscription(len(result.Segments), time.Since(transcribeStart).Seconds())
	run.Device = state.Active
	run.Degraded = state.Degraded
	run.Language = result.Language

	if err := ctx.Err(); err != nil {
		return err
	}

	// Diarization failure is soft: the transcript ships unlabeled rather
	// than being lost.
	var intervals []models.SpeakerInterval
	if r.diarizer != nil {
		intervals, err = r.diarizer.Diarize(ctx, audioPath, r.numSpeakers)
		if err != nil {
			log.Warn().Err(err).Msg("Diarization failed, continuing without speaker labels")
			intervals = nil
		}
		run.SpeakersDetected = countSpeakers(intervals)
	}

	transcript := &models.Transcript{Language: result.Language, Segments: result.Segments}
	merged, backend, status, err := r.merger.Merge(ctx, transcript, intervals)
	if err != nil {
		return fmt.Errorf("merge: %w", err)
	}
	run.TranslationBackend = backend
	run.TranslationStatus = status

	if err := r.consumer.Consume(ctx, *run, merged); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// BatchResult summarizes a directory run.
type BatchResult struct {
	Processed int
	Failed    int
}

// ProcessDirectory runs the pipeline over every media file directly in dir.
// Files are processed in name order; one file's failure never stops the
// batch. The returned error is non-nil only when the batch could not run at
// all or the context was cancelled.
func (r *Runner) ProcessDirectory(ctx context.Context, dir string) error {
	log := logging.WithComponent("pipeline")

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if media.IsMedia(e.Name()) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	if len(files) == 0 {
		log.Warn().Str("dir", dir).Msg("No media files found")
		return nil
	}

	var res BatchResult
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.ProcessFile(ctx, f); err != nil {
			res.Failed++
			continue
		}
		res.Processed++
	}

	log.Info().
		Str("dir", dir).
		Int("processed", res.Processed).
		Int("failed", res.Failed).
		Msg("Batch complete")
	return nil
}

func countSpeakers(intervals []models.SpeakerInterval) int {
	seen := make(map[string]bool, 2)
	for _, iv := range intervals {
		seen[iv.SpeakerID] = true
	}
	return len(seen)
}
