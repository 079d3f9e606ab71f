package media

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
)

func TestIsVideo(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"meeting.mp4", true},
		{"MEETING.MKV", true},
		{"call.wav", false},
		{"podcast.mp3", false},
		{"notes.txt", false},
	}
	for _, tt := range tests {
		if got := IsVideo(tt.path); got != tt.want {
			t.Errorf("IsVideo(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestIsMedia(t *testing.T) {
	for _, path := range []string{"a.wav", "b.mp4", "c.flac", "d.webm"} {
		if !IsMedia(path) {
			t.Errorf("IsMedia(%q) = false, want true", path)
		}
	}
	for _, path := range []string{"notes.txt", "cover.jpg", "README"} {
		if IsMedia(path) {
			t.Errorf("IsMedia(%q) = true, want false", path)
		}
	}
}

func TestExtractAudio_ProducesTempWav(t *testing.T) {
	var gotSrc, gotDst string
	run := func(ctx context.Context, src, dst string) error {
		gotSrc, gotDst = src, dst
		return os.WriteFile(dst, []byte("RIFF"), 0o644)
	}
	e := NewExtractor("ffmpeg", WithRunner(run))

	path, cleanup, err := e.ExtractAudio(context.Background(), "meeting.mp4")
	if err != nil {
		t.Fatalf("ExtractAudio: %v", err)
	}
	defer cleanup()

	if gotSrc != "meeting.mp4" {
		t.Errorf("runner src %q, want meeting.mp4", gotSrc)
	}
	if path != gotDst || !strings.HasSuffix(path, ".wav") {
		t.Errorf("extracted path %q, want the runner's .wav destination", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("extracted file missing: %v", err)
	}

	cleanup()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("cleanup did not remove the temp file")
	}
}

func TestExtractAudio_RunnerFailureRemovesTempFile(t *testing.T) {
	var dst string
	run := func(ctx context.Context, src, d string) error {
		dst = d
		return errors.New("no audio stream")
	}
	e := NewExtractor("ffmpeg", WithRunner(run))

	if _, _, err := e.ExtractAudio(context.Background(), "meeting.mp4"); err == nil {
		t.Fatal("expected error from runner")
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Error("temp file left behind after failed extraction")
	}
}
