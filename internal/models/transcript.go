// Package models defines the data structures shared across the pipeline.
package models

// Segment is a timed span of transcribed text.
// Start, End and Text are set once by the speech engine and never change;
// SpeakerLabel and TranslatedText are optional attachments added by the merger.
type Segment struct {
	Start          float64 `json:"start"`
	End            float64 `json:"end"`
	Text           string  `json:"text"`
	SpeakerLabel   string  `json:"speakerLabel,omitempty"`
	TranslatedText string  `json:"translatedText,omitempty"`
}

// Midpoint returns the temporal midpoint of the segment, used for speaker
// interval lookup.
func (s Segment) Midpoint() float64 {
	return (s.Start + s.End) / 2
}

// SpeakerInterval is a timed span attributed to one diarized speaker identity.
// SpeakerID is an opaque engine-assigned token.
type SpeakerInterval struct {
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	SpeakerID string  `json:"speakerId"`
}

// Contains reports whether t falls within the half-open range [Start, End).
func (si SpeakerInterval) Contains(t float64) bool {
	return si.Start <= t && t < si.End
}

// TranslationBackend identifies which backend produced a translation.
type TranslationBackend string

const (
	BackendOnline  TranslationBackend = "online"
	BackendOffline TranslationBackend = "offline"
	// BackendNone marks outcomes where no backend was invoked, e.g. the
	// source language already matched the target.
	BackendNone TranslationBackend = "none"
)

// TranslationStatus is the terminal status of a translation call.
type TranslationStatus string

const (
	StatusOK     TranslationStatus = "ok"
	StatusFailed TranslationStatus = "failed"
)

// TranslationOutcome is the typed result of a translation call. Failures
// preserve the original source text in Text rather than leaving it empty;
// callers must treat StatusFailed as "no translation occurred", not as an
// error to crash on.
type TranslationOutcome struct {
	Text    string             `json:"text"`
	Backend TranslationBackend `json:"backend"`
	Status  TranslationStatus  `json:"status"`
}

// Failed builds a soft-failure outcome carrying the original text.
func Failed(original string, backend TranslationBackend) TranslationOutcome {
	return TranslationOutcome{Text: original, Backend: backend, Status: StatusFailed}
}

// Transcript is the final ordered sequence of segments handed to the output
// consumer. Segment order always matches the order produced by the speech
// engine.
type Transcript struct {
	Language string    `json:"language"`
	Segments []Segment `json:"segments"`
}

// RunMetadata describes one pipeline run over a single input file.
type RunMetadata struct {
	RunID              string             `json:"runId"`
	SourcePath         string             `json:"sourcePath"`
	Language           string             `json:"language"`
	Device             string             `json:"device"`
	Degraded           bool               `json:"degraded"`
	TranslationBackend TranslationBackend `json:"translationBackend"`
	TranslationStatus  TranslationStatus  `json:"translationStatus"`
	SpeakersDetected   int                `json:"speakersDetected"`
	Timestamp          int64              `json:"timestamp"`
}
