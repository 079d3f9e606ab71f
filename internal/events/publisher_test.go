package events

import (
	"context"
	"errors"
	"testing"

	"transcribe-ro/internal/models"
)

func TestNew_DisabledMode(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"disabled", &Config{Enabled: false, Brokers: []string{"localhost:9092"}}},
		{"no brokers", &Config{Enabled: true, Brokers: []string{}}},
		{"nil brokers", &Config{Enabled: true, Brokers: nil}},
		{"nil config", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.cfg)
			if p == nil {
				t.Fatal("expected non-nil publisher")
			}
			if p.enabled {
				t.Error("expected publisher to be disabled")
			}
			if p.writer != nil {
				t.Error("expected nil writer when disabled")
			}
		})
	}
}

func TestNew_ConfigValues(t *testing.T) {
	cfg := &Config{
		Enabled:   false,
		Brokers:   []string{"localhost:9092"},
		TopicRuns: "transcription.runs",
		Principal: "transcribe-ro",
	}

	p := New(cfg)

	if p.principal != "transcribe-ro" {
		t.Errorf("expected principal 'transcribe-ro', got %s", p.principal)
	}
	if p.topic != "transcription.runs" {
		t.Errorf("expected topic 'transcription.runs', got %s", p.topic)
	}
}

func TestPublisher_LifecycleEvents_Disabled(t *testing.T) {
	p := New(&Config{Enabled: false, TopicRuns: "test.runs", Principal: "test-svc"})

	run := models.RunMetadata{
		RunID:      "run-123",
		SourcePath: "call.wav",
		Language:   "en",
		Device:     "cpu",
	}

	if err := p.PublishRunStarted(context.Background(), run); err != nil {
		t.Errorf("PublishRunStarted: %v", err)
	}
	if err := p.PublishRunCompleted(context.Background(), run); err != nil {
		t.Errorf("PublishRunCompleted: %v", err)
	}
	if err := p.PublishRunFailed(context.Background(), run, errors.New("decode failed")); err != nil {
		t.Errorf("PublishRunFailed: %v", err)
	}
}

func TestPublisher_Close_NoWriter(t *testing.T) {
	p := New(&Config{Enabled: false})

	if err := p.Close(); err != nil {
		t.Errorf("expected no error closing disabled publisher, got %v", err)
	}
}
