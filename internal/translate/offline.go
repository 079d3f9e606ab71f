package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"transcribe-ro/internal/models"
	"transcribe-ro/internal/observability/logging"
)

// pairModels maps source language codes to the Helsinki-NLP opus-mt model
// translating into Romanian. Pairs absent here have no offline model.
var pairModels = map[string]string{
	"en": "opus-mt-en-roa",
	"es": "opus-mt-es-ro",
	"fr": "opus-mt-fr-ro",
	"de": "opus-mt-de-ro",
	"it": "opus-mt-it-ro",
	"pt": "opus-mt-itc-itc",
	"ru": "opus-mt-ru-ro",
	"zh": "opus-mt-zh-ro",
	"ja": "opus-mt-jap-ro",
	"ar": "opus-mt-ar-ro",
	"hi": "opus-mt-hi-ro",
	"nl": "opus-mt-nl-ro",
	"pl": "opus-mt-pl-ro",
	"tr": "opus-mt-tr-ro",
}

// ModelForPair resolves the offline model name for a language pair.
// Returns ErrModelUnavailable when no model covers the pair.
func ModelForPair(sourceLang, targetLang string) (string, error) {
	if targetLang != "ro" {
		return "", fmt.Errorf("%w: %s->%s", ErrModelUnavailable, sourceLang, targetLang)
	}
	name, ok := pairModels[sourceLang]
	if !ok {
		return "", fmt.Errorf("%w: %s->%s", ErrModelUnavailable, sourceLang, targetLang)
	}
	return name, nil
}

// RunFunc executes local model inference: given the resolved model directory
// and input text, it returns the translated text.
type RunFunc func(ctx context.Context, modelDir, text, sourceLang, targetLang string) (string, error)

// Offline implements Backend using locally resident opus-mt models.
// Deterministic and network-free; each model covers one language pair.
type Offline struct {
	modelsDir string
	run       RunFunc
}

// OfflineOption configures the offline backend.
type OfflineOption func(*Offline)

// WithRunner overrides the inference runner, for tests.
func WithRunner(run RunFunc) OfflineOption {
	return func(o *Offline) { o.run = run }
}

// NewOffline creates the offline backend. pythonBin runs the inference
// helper unless a custom runner is injected.
func NewOffline(modelsDir, pythonBin string, opts ...OfflineOption) *Offline {
	o := &Offline{modelsDir: modelsDir}
	for _, opt := range opts {
		opt(o)
	}
	if o.run == nil {
		o.run = execRunner(pythonBin)
	}
	return o
}

// Name identifies the backend variant.
func (o *Offline) Name() models.TranslationBackend {
	return models.BackendOffline
}

// Translate resolves the model for the pair and runs local inference.
// Offline models cannot auto-detect the source language; "auto" is assumed
// to be English, matching the original tool's behavior.
func (o *Offline) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if sourceLang == "auto" {
		log := logging.WithComponent("translate.offline")
		log.Warn().Msg("Offline translation cannot auto-detect language, assuming English")
		sourceLang = "en"
	}

	name, err := ModelForPair(sourceLang, targetLang)
	if err != nil {
		return "", err
	}

	modelDir := filepath.Join(o.modelsDir, name)
	if _, statErr := os.Stat(modelDir); statErr != nil {
		return "", fmt.Errorf("%w: model %s not downloaded at %s", ErrModelUnavailable, name, modelDir)
	}

	out, err := o.run(ctx, modelDir, text, sourceLang, targetLang)
	if err != nil {
		return "", fmt.Errorf("offline inference with %s: %w", name, err)
	}
	return out, nil
}

type helperOutput struct {
	Text string `json:"text"`
}

// execRunner invokes the local inference helper process. Text goes in on
// stdin, JSON comes back on stdout, stderr is folded into the error.
func execRunner(pythonBin string) RunFunc {
	return func(ctx context.Context, modelDir, text, sourceLang, targetLang string) (string, error) {
		cmd := exec.CommandContext(ctx, pythonBin, "-m", "marian_runner",
			"--model-dir", modelDir,
			"--source", sourceLang,
			"--target", targetLang,
		)
		cmd.Stdin = strings.NewReader(text)
		out, err := cmd.Output()
		if err != nil {
			if ee, ok := err.(*exec.ExitError); ok {
				return "", fmt.Errorf("helper failed: %s", strings.TrimSpace(string(ee.Stderr)))
			}
			return "", fmt.Errorf("run helper: %w", err)
		}
		var parsed helperOutput
		if err := json.Unmarshal(out, &parsed); err != nil {
			return "", fmt.Errorf("parse helper output: %w", err)
		}
		return parsed.Text, nil
	}
}
