// Package google provides a Google Cloud Speech-to-Text engine.
package google

import (
	"context"
	"fmt"
	"os"

	speechapi "cloud.google.com/go/speech/apiv1"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	speechpb "google.golang.org/genproto/googleapis/cloud/speech/v1"

	"transcribe-ro/internal/models"
	"transcribe-ro/internal/observability/logging"
	"transcribe-ro/internal/speech"
)

// Engine implements speech.Engine using Google Cloud Speech-to-Text.
// Inference runs remotely, so Load accepts any device and the engine never
// reports numeric instability.
type Engine struct {
	client       *speechapi.Client
	languageHint string
	sampleRateHz int
}

// New creates a new Google speech engine.
// Requires GOOGLE_APPLICATION_CREDENTIALS environment variable to be set.
func New(ctx context.Context, languageHint string, sampleRateHz int) (*Engine, error) {
	c, err := speechapi.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create speech client: %w", err)
	}
	return &Engine{
		client:       c,
		languageHint: languageHint,
		sampleRateHz: sampleRateHz,
	}, nil
}

// Load is a no-op: recognition runs on Google's side regardless of the local
// compute device.
func (e *Engine) Load(ctx context.Context, device string) error {
	log := logging.WithComponent("speech.google")
	log.Debug().
		Str("device", device).
		Msg("Load ignored for cloud-hosted engine")
	return nil
}

// Transcribe sends the audio file for batch recognition with word time
// offsets and converts each result into a timed segment.
func (e *Engine) Transcribe(ctx context.Context, audioPath string) (*speech.Result, error) {
	data, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}

	resp, err := e.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:              speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:       int32(e.sampleRateHz),
			LanguageCode:          e.languageHint,
			EnableWordTimeOffsets: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: data},
		},
	})
	if err != nil {
		return nil, mapError(err)
	}

	result := &speech.Result{Language: e.languageHint}
	for _, r := range resp.Results {
		if len(r.Alternatives) == 0 {
			continue
		}
		alt := r.Alternatives[0]
		if len(alt.Words) == 0 {
			continue
		}
		start := alt.Words[0].StartTime.AsDuration().Seconds()
		end := alt.Words[len(alt.Words)-1].EndTime.AsDuration().Seconds()
		result.Segments = append(result.Segments, models.Segment{
			Start: start,
			End:   end,
			Text:  alt.Transcript,
		})
		if r.LanguageCode != "" {
			result.Language = r.LanguageCode
		}
	}
	return result, nil
}

// Close releases the underlying client.
func (e *Engine) Close() error {
	return e.client.Close()
}

// mapError keeps gRPC transport detail out of the pipeline while preserving
// the status code for operators.
func mapError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("speech service unreachable (%s): %w", st.Code(), err)
	case codes.ResourceExhausted:
		return fmt.Errorf("speech service rate limited: %w", err)
	default:
		return fmt.Errorf("speech recognition failed (%s): %w", st.Code(), err)
	}
}
