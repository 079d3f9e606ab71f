package diarize

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sort"
	"strconv"
	"time"

	"transcribe-ro/internal/models"
	"transcribe-ro/internal/observability/logging"
	"transcribe-ro/internal/observability/metrics"
)

// RunFunc executes the diarization model over an audio file and returns its
// raw intervals.
type RunFunc func(ctx context.Context, audioPath string, numSpeakers int) ([]rawInterval, error)

type rawInterval struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker"`
}

// Local runs speaker diarization through a local helper process wrapping the
// pyannote pipeline.
type Local struct {
	authToken string
	run       RunFunc
	metrics   *metrics.Metrics
}

// LocalOption configures the local engine.
type LocalOption func(*Local)

// WithRunner overrides the helper invocation, for tests.
func WithRunner(run RunFunc) LocalOption {
	return func(l *Local) { l.run = run }
}

// NewLocal creates a local diarization engine. The auth token is passed to
// the helper, which needs it to fetch the gated pipeline weights.
func NewLocal(pythonBin, authToken string, opts ...LocalOption) (*Local, error) {
	if err := CheckRequirements(authToken); err != nil {
		return nil, err
	}
	l := &Local{authToken: authToken, metrics: metrics.DefaultMetrics}
	for _, opt := range opts {
		opt(l)
	}
	if l.run == nil {
		l.run = execRunner(pythonBin, authToken)
	}
	return l, nil
}

// Diarize implements Engine. Intervals come back ordered by start time with
// stable speaker identifiers scoped to this run.
func (l *Local) Diarize(ctx context.Context, audioPath string, numSpeakers int) ([]models.SpeakerInterval, error) {
	log := logging.WithComponent("diarize")
	start := time.Now()

	raw, err := l.run(ctx, audioPath, numSpeakers)
	if l.metrics != nil {
		l.metrics.RecordDiarization(len(raw), err)
	}
	if err != nil {
		return nil, fmt.Errorf("diarize %s: %w", audioPath, err)
	}

	intervals := make([]models.SpeakerInterval, 0, len(raw))
	for _, r := range raw {
		if r.End <= r.Start {
			log.Warn().
				Float64("start", r.Start).
				Float64("end", r.End).
				Msg("Dropping degenerate speaker interval")
			continue
		}
		intervals = append(intervals, models.SpeakerInterval{
			Start:     r.Start,
			End:       r.End,
			SpeakerID: r.Speaker,
		})
	}
	sort.Slice(intervals, func(i, j int) bool { return intervals[i].Start < intervals[j].Start })

	log.Info().
		Str("audio_path", audioPath).
		Int("intervals", len(intervals)).
		Dur("duration", time.Since(start)).
		Msg("Diarization complete")
	return intervals, nil
}

type helperOutput struct {
	Segments []rawInterval `json:"segments"`
}

// execRunner invokes the diarization helper process. Intervals come back as
// JSON on stdout, stderr is folded into the error.
func execRunner(pythonBin, authToken string) RunFunc {
	return func(ctx context.Context, audioPath string, numSpeakers int) ([]rawInterval, error) {
		cmd := exec.CommandContext(ctx, pythonBin, "-m", "diarize_runner",
			"--audio", audioPath,
			"--num-speakers", strconv.Itoa(numSpeakers),
		)
		cmd.Env = append(cmd.Environ(), "HF_TOKEN="+authToken)
		out, err := cmd.Output()
		if err != nil {
			if ee, ok := err.(*exec.ExitError); ok {
				return nil, fmt.Errorf("helper failed: %s", string(ee.Stderr))
			}
			return nil, fmt.Errorf("run helper: %w", err)
		}
		var parsed helperOutput
		if err := json.Unmarshal(out, &parsed); err != nil {
			return nil, fmt.Errorf("parse helper output: %w", err)
		}
		return parsed.Segments, nil
	}
}
