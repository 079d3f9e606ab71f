// Package media prepares input files for the speech engine: video
// containers get their audio track extracted with ffmpeg.
package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"transcribe-ro/internal/observability/logging"
)

// videoExtensions are containers whose audio track must be extracted before
// transcription.
var videoExtensions = map[string]bool{
	".mp4": true, ".avi": true, ".mkv": true, ".mov": true, ".wmv": true,
	".flv": true, ".webm": true, ".m4v": true, ".mpeg": true, ".mpg": true,
	".3gp": true, ".ts": true, ".mts": true, ".m2ts": true, ".vob": true,
}

// audioExtensions are formats the speech engine accepts directly.
var audioExtensions = map[string]bool{
	".mp3": true, ".wav": true, ".m4a": true, ".flac": true, ".ogg": true,
	".wma": true, ".aac": true, ".opus": true, ".aiff": true, ".aif": true,
}

// IsVideo reports whether path looks like a video container.
func IsVideo(path string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(path))]
}

// IsMedia reports whether path is a supported audio or video input.
func IsMedia(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return audioExtensions[ext] || videoExtensions[ext]
}

// RunFunc performs the actual extraction from src into the wav file at dst.
type RunFunc func(ctx context.Context, src, dst string) error

// Extractor pulls the audio track out of video files into temporary wav
// files sized for the speech engine (16 kHz mono PCM).
type Extractor struct {
	ffmpegBin string
	run       RunFunc
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithRunner overrides the ffmpeg invocation, for tests.
func WithRunner(run RunFunc) ExtractorOption {
	return func(e *Extractor) { e.run = run }
}

// NewExtractor creates an audio extractor using the given ffmpeg binary.
func NewExtractor(ffmpegBin string, opts ...ExtractorOption) *Extractor {
	e := &Extractor{ffmpegBin: ffmpegBin}
	for _, opt := range opts {
		opt(e)
	}
	if e.run == nil {
		e.run = ffmpegRunner(ffmpegBin)
	}
	return e
}

// ExtractAudio writes the audio track of videoPath into a temporary wav file
// and returns its path together with a cleanup func removing it. The caller
// owns the cleanup.
func (e *Extractor) ExtractAudio(ctx context.Context, videoPath string) (string, func(), error) {
	tmp, err := os.CreateTemp("", "transcribe-ro-*.wav")
	if err != nil {
		return "", nil, fmt.Errorf("create temp audio file: %w", err)
	}
	dst := tmp.Name()
	tmp.Close()
	cleanup := func() { os.Remove(dst) }

	log := logging.WithComponent("media")
	start := time.Now()
	if err := e.run(ctx, videoPath, dst); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("extract audio from %s: %w", videoPath, err)
	}

	log.Info().
		Str("video", videoPath).
		Str("audio", dst).
		Dur("duration", time.Since(start)).
		Msg("Audio track extracted")
	return dst, cleanup, nil
}

// ffmpegRunner shells out to ffmpeg for the extraction: no video stream,
// 16-bit PCM, 16 kHz, mono, overwriting the pre-created temp file.
func ffmpegRunner(ffmpegBin string) RunFunc {
	return func(ctx context.Context, src, dst string) error {
		cmd := exec.CommandContext(ctx, ffmpegBin,
			"-i", src,
			"-vn",
			"-acodec", "pcm_s16le",
			"-ar", "16000",
			"-ac", "1",
			"-y",
			dst,
		)
		out, err := cmd.CombinedOutput()
		if err != nil {
			return fmt.Errorf("ffmpeg: %v: %s", err, lastLine(out))
		}
		return nil
	}
}

// lastLine trims ffmpeg's banner noise down to the line carrying the error.
func lastLine(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
