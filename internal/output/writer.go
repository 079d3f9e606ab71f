// Package output persists finished transcripts.
package output

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"transcribe-ro/internal/models"
	"transcribe-ro/internal/observability/logging"
)

// Consumer receives the finished transcript for one run.
type Consumer interface {
	Consume(ctx context.Context, run models.RunMetadata, transcript *models.Transcript) error
}

// Document is the on-disk shape of one run's output.
type Document struct {
	Run        models.RunMetadata `json:"run"`
	Transcript *models.Transcript `json:"transcript"`
}

// JSONWriter writes one JSON document per run into a directory. Writes are
// atomic: the document lands in a temp file first and is renamed into place,
// so readers never observe a partial file.
type JSONWriter struct {
	dir string
}

// NewJSONWriter creates a writer rooted at dir, creating it if needed.
func NewJSONWriter(dir string) (*JSONWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", dir, err)
	}
	return &JSONWriter{dir: dir}, nil
}

// Consume implements Consumer.
func (w *JSONWriter) Consume(ctx context.Context, run models.RunMetadata, transcript *models.Transcript) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.MarshalIndent(Document{Run: run, Transcript: transcript}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}

	path := filepath.Join(w.dir, outputName(run.SourcePath, run.RunID))
	tmp, err := os.CreateTemp(w.dir, ".transcript-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write transcript: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename into place: %w", err)
	}

	log := logging.WithComponent("output")
	log.Info().
		Str("run_id", run.RunID).
		Str("path", path).
		Int("segments", len(transcript.Segments)).
		Msg("Transcript written")
	return nil
}

// outputName derives the output filename from the input file, suffixed with
// the run ID so repeated runs over the same input never clobber each other.
func outputName(sourcePath, runID string) string {
	base := filepath.Base(sourcePath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." {
		base = "transcript"
	}
	return fmt.Sprintf("%s.%s.json", base, runID)
}
