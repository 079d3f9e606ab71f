// Package app wires configuration into a runnable pipeline.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"transcribe-ro/internal/config"
	"transcribe-ro/internal/device"
	"transcribe-ro/internal/diarize"
	"transcribe-ro/internal/events"
	"transcribe-ro/internal/media"
	"transcribe-ro/internal/merge"
	"transcribe-ro/internal/netcheck"
	"transcribe-ro/internal/observability"
	"transcribe-ro/internal/observability/logging"
	"transcribe-ro/internal/output"
	"transcribe-ro/internal/pipeline"
	"transcribe-ro/internal/retry"
	"transcribe-ro/internal/speech"
	"transcribe-ro/internal/speech/google"
	"transcribe-ro/internal/speech/mock"
	"transcribe-ro/internal/translate"
)

// Application holds process-wide state for the pipeline.
type Application struct {
	StartupTime time.Time
	Logger      zerolog.Logger
	Cfg         *config.Configuration

	Runner    *pipeline.Runner
	publisher *events.Publisher
	obs       *observability.Server
	engine    speech.Engine
}

// New constructs an Application: it builds the speech engine, translation
// backends, diarizer, output writer and event publisher from configuration.
func New(ctx context.Context, cfg *config.Configuration) (*Application, error) {
	logging.Init(logging.Config{
		Level:  cfg.Observability.LogLevel,
		Format: cfg.Observability.LogFormat,
	})

	a := &Application{
		Cfg:    cfg,
		Logger: logging.WithComponent("application"),
	}

	engine, prober, err := buildEngine(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.engine = engine

	// The engine may hold a live client; release it when any later
	// constructor fails.
	wired := false
	defer func() {
		if !wired {
			if closeErr := engine.Close(); closeErr != nil {
				a.Logger.Warn().Err(closeErr).Msg("Error closing speech engine during failed startup")
			}
		}
	}()

	router, err := buildRouter(cfg)
	if err != nil {
		return nil, err
	}

	var diarizer diarize.Engine
	if cfg.Diarization.Enabled {
		local, err := diarize.NewLocal(cfg.Diarization.PythonBin, cfg.Diarization.AuthToken)
		if err != nil {
			return nil, fmt.Errorf("diarization: %w", err)
		}
		diarizer = local
	}

	writer, err := output.NewJSONWriter(cfg.Output.Dir)
	if err != nil {
		return nil, err
	}

	a.publisher = events.New(&events.Config{
		Enabled:   cfg.Kafka.Enabled,
		Brokers:   cfg.Kafka.Brokers,
		TopicRuns: cfg.Kafka.TopicRuns,
		Principal: cfg.Kafka.Principal,
	})

	mergeOpts := []merge.Option{merge.WithWorkers(cfg.Translation.Workers)}
	if len(cfg.Diarization.SpeakerNames) > 0 {
		mergeOpts = append(mergeOpts, merge.WithSpeakerNames(cfg.Diarization.SpeakerNames))
	}

	a.Runner = pipeline.NewRunner(pipeline.Config{
		Engine:          engine,
		Prober:          prober,
		RequestedDevice: cfg.Device.Requested,
		Extractor:       media.NewExtractor(cfg.Speech.FFmpegBin),
		Diarizer:        diarizer,
		NumSpeakers:     cfg.Diarization.NumSpeakers,
		Merger:          merge.New(router, mergeOpts...),
		Consumer:        writer,
		Publisher:       a.publisher,
	})

	if cfg.Observability.Enabled {
		a.obs = observability.NewServer(cfg.Observability.HTTPAddr)
	}
	wired = true

	a.Logger.Info().Str("service", cfg.Service.Name).Msg("Application created")
	return a, nil
}

// Start begins serving observability endpoints.
func (a *Application) Start() {
	a.StartupTime = time.Now().UTC()
	if a.obs != nil {
		a.obs.Start()
	}
	a.Logger.Info().Time("startupTime", a.StartupTime).Msg("Application started")
}

// Shutdown releases the engine, flushes events and stops the HTTP server.
func (a *Application) Shutdown(ctx context.Context) {
	a.Logger.Info().Msg("Application shutting down")
	if a.engine != nil {
		if err := a.engine.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Error closing speech engine")
		}
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Error closing event publisher")
		}
	}
	if a.obs != nil {
		if err := a.obs.Shutdown(ctx); err != nil {
			a.Logger.Warn().Err(err).Msg("Error shutting down observability server")
		}
	}
}

// buildEngine selects the speech engine implementation. The mock engine
// doubles as the device prober; the cloud engine runs remotely, so locally
// only CPU is reported.
func buildEngine(ctx context.Context, cfg *config.Configuration) (speech.Engine, device.Prober, error) {
	switch cfg.Speech.Provider {
	case "google":
		eng, err := google.New(ctx, cfg.Speech.LanguageHint, cfg.Speech.SampleRateHz)
		if err != nil {
			return nil, nil, fmt.Errorf("google speech engine: %w", err)
		}
		return eng, device.StaticProber{device.CPU}, nil
	case "mock":
		eng := mock.New()
		return eng, eng, nil
	default:
		return nil, nil, fmt.Errorf("unknown speech provider %q", cfg.Speech.Provider)
	}
}

func buildRouter(cfg *config.Configuration) (*translate.Router, error) {
	mode, err := translate.ParseMode(cfg.Translation.Mode)
	if err != nil {
		return nil, err
	}

	probe := netcheck.New(
		netcheck.WithHost(cfg.Netcheck.Host),
		netcheck.WithTimeout(cfg.Netcheck.Timeout),
	)

	return translate.NewRouter(translate.RouterConfig{
		Mode:           mode,
		TargetLanguage: cfg.Translation.TargetLanguage,
		Online:         translate.NewOnline(cfg.Translation.RequestTimeout),
		Offline:        translate.NewOffline(cfg.Translation.ModelsDir, cfg.Translation.PythonBin),
		Probe:          probe.Available,
		Policy: retry.Policy{
			MaxAttempts: cfg.Translation.MaxRetries,
			Backoff:     cfg.Translation.BackoffBase,
		},
		ChunkLimit: cfg.Translation.MaxChunkChars,
	}), nil
}
