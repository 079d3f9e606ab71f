// Package config loads pipeline configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ServiceConfig holds process-level settings.
type ServiceConfig struct {
	Name string
}

// DeviceConfig holds compute device selection settings.
type DeviceConfig struct {
	// Requested is the user device intent: auto, cpu, cuda or mps.
	Requested string
}

// SpeechConfig holds speech engine settings.
type SpeechConfig struct {
	// Provider selects the engine implementation: google or mock.
	Provider     string
	LanguageHint string
	SampleRateHz int
	// FFmpegBin extracts audio tracks from video inputs.
	FFmpegBin string
}

// TranslationConfig holds translation router settings.
type TranslationConfig struct {
	// Mode is auto, online or offline.
	Mode           string
	TargetLanguage string
	MaxChunkChars  int
	MaxRetries     int
	BackoffBase    time.Duration
	RequestTimeout time.Duration
	// Workers bounds concurrent per-segment translation in the merger.
	Workers int
	// PythonBin runs the offline model helper.
	PythonBin string
	ModelsDir string
}

// DiarizationConfig holds speaker diarization settings.
type DiarizationConfig struct {
	Enabled      bool
	NumSpeakers  int
	SpeakerNames []string
	// AuthToken is the Hugging Face credential required by the diarization
	// engine. Resolved from HF_TOKEN or HUGGING_FACE_TOKEN.
	AuthToken string
	PythonBin string
}

// NetcheckConfig holds connectivity probe settings.
type NetcheckConfig struct {
	Host    string
	Timeout time.Duration
}

// KafkaConfig holds run event publisher settings.
type KafkaConfig struct {
	Enabled   bool
	Brokers   []string
	TopicRuns string
	Principal string
}

// ObservabilityConfig holds metrics server and logging settings.
type ObservabilityConfig struct {
	Enabled   bool
	HTTPAddr  string
	LogLevel  string
	LogFormat string
}

// OutputConfig holds output consumer settings.
type OutputConfig struct {
	Dir string
}

// Configuration is the full pipeline configuration.
type Configuration struct {
	Service       ServiceConfig
	Device        DeviceConfig
	Speech        SpeechConfig
	Translation   TranslationConfig
	Diarization   DiarizationConfig
	Netcheck      NetcheckConfig
	Kafka         KafkaConfig
	Observability ObservabilityConfig
	Output        OutputConfig
}

// Load reads configuration from the environment, applying defaults for
// anything unset.
func Load() *Configuration {
	return &Configuration{
		Service: ServiceConfig{
			Name: envOrDefault("SERVICE_NAME", "transcribe-ro"),
		},
		Device: DeviceConfig{
			Requested: envOrDefault("DEVICE", "auto"),
		},
		Speech: SpeechConfig{
			Provider:     envOrDefault("SPEECH_PROVIDER", "mock"),
			LanguageHint: envOrDefault("SPEECH_LANGUAGE_HINT", "en-US"),
			SampleRateHz: envInt("SPEECH_SAMPLE_RATE_HZ", 16000),
			FFmpegBin:    envOrDefault("FFMPEG_BIN", "ffmpeg"),
		},
		Translation: TranslationConfig{
			Mode:           envOrDefault("TRANSLATION_MODE", "auto"),
			TargetLanguage: envOrDefault("TRANSLATION_TARGET_LANG", "ro"),
			MaxChunkChars:  envInt("TRANSLATION_MAX_CHUNK_CHARS", 4500),
			MaxRetries:     envInt("TRANSLATION_MAX_RETRIES", 3),
			BackoffBase:    envDuration("TRANSLATION_BACKOFF_BASE", 2*time.Second),
			RequestTimeout: envDuration("TRANSLATION_REQUEST_TIMEOUT", 10*time.Second),
			Workers:        envInt("TRANSLATION_WORKERS", 4),
			PythonBin:      envOrDefault("TRANSLATION_PYTHON_BIN", "python3"),
			ModelsDir:      envOrDefault("TRANSLATION_MODELS_DIR", defaultModelsDir()),
		},
		Diarization: DiarizationConfig{
			Enabled:      envBool("DIARIZATION_ENABLED", false),
			NumSpeakers:  envInt("DIARIZATION_NUM_SPEAKERS", 2),
			SpeakerNames: envList("DIARIZATION_SPEAKER_NAMES"),
			AuthToken:    firstEnv("HF_TOKEN", "HUGGING_FACE_TOKEN"),
			PythonBin:    envOrDefault("DIARIZATION_PYTHON_BIN", "python3"),
		},
		Netcheck: NetcheckConfig{
			Host:    envOrDefault("NETCHECK_HOST", "8.8.8.8:53"),
			Timeout: envDuration("NETCHECK_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Enabled:   envBool("KAFKA_ENABLED", false),
			Brokers:   envList("KAFKA_BROKERS"),
			TopicRuns: envOrDefault("KAFKA_TOPIC_RUNS", "transcription.runs"),
			Principal: envOrDefault("KAFKA_PRINCIPAL", "svc-transcribe-ro"),
		},
		Observability: ObservabilityConfig{
			Enabled:   envBool("OBSERVABILITY_ENABLED", true),
			HTTPAddr:  envOrDefault("OBSERVABILITY_HTTP_ADDR", ":9090"),
			LogLevel:  envOrDefault("LOG_LEVEL", "info"),
			LogFormat: envOrDefault("LOG_FORMAT", "json"),
		},
		Output: OutputConfig{
			Dir: envOrDefault("OUTPUT_DIR", "."),
		},
	}
}

func defaultModelsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".models"
	}
	return home + "/.cache/transcribe-ro/models"
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
