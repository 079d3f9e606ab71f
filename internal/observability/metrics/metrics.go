// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "transcribe_ro"

// Metrics holds all Prometheus metrics for the pipeline.
type Metrics struct {
	// Run metrics
	RunsTotal   prometheus.Counter
	RunsActive  prometheus.Gauge
	RunsSuccess prometheus.Counter
	RunsFailed  prometheus.Counter
	RunDuration prometheus.Histogram

	// Device metrics
	DeviceSelected  *prometheus.CounterVec
	DeviceFallbacks prometheus.Counter
	DeviceFaults    *prometheus.CounterVec

	// Transcription metrics
	SegmentsTranscribed prometheus.Counter
	TranscribeDuration  prometheus.Histogram

	// Translation metrics
	TranslationAttempts  *prometheus.CounterVec
	TranslationFailures  *prometheus.CounterVec
	TranslationFailovers prometheus.Counter
	TranslationSkipped   prometheus.Counter
	ChunksFailed         prometheus.Counter
	TranslationLatency   *prometheus.HistogramVec

	// Diarization metrics
	DiarizationIntervals prometheus.Counter
	DiarizationErrors    prometheus.Counter

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		RunsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total number of pipeline runs started",
		}),
		RunsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "runs_active",
			Help:      "Number of currently active pipeline runs",
		}),
		RunsSuccess: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_success_total",
			Help:      "Total number of successfully completed runs",
		}),
		RunsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_failed_total",
			Help:      "Total number of failed runs",
		}),
		RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of pipeline runs in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
		}),

		DeviceSelected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "device_selected_total",
			Help:      "Total number of runs per selected device",
		}, []string{"device"}),
		DeviceFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "device_fallbacks_total",
			Help:      "Total number of accelerator-to-CPU fallbacks",
		}),
		DeviceFaults: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "device_faults_total",
			Help:      "Total number of numeric instability faults per device",
		}, []string{"device"}),

		SegmentsTranscribed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_transcribed_total",
			Help:      "Total number of transcription segments produced",
		}),
		TranscribeDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transcribe_duration_seconds",
			Help:      "Duration of transcription calls in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),

		TranslationAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "translation_attempts_total",
			Help:      "Total number of translation attempts per backend",
		}, []string{"backend"}),
		TranslationFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "translation_failures_total",
			Help:      "Total number of failed translation calls per backend",
		}, []string{"backend"}),
		TranslationFailovers: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "translation_failovers_total",
			Help:      "Total number of online-to-offline failovers",
		}),
		TranslationSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "translation_skipped_total",
			Help:      "Total number of same-language no-op translations",
		}),
		ChunksFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "translation_chunks_failed_total",
			Help:      "Total number of chunks degraded to original-language text",
		}),
		TranslationLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "translation_latency_seconds",
			Help:      "Translation call latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"backend"}),

		DiarizationIntervals: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "diarization_intervals_total",
			Help:      "Total number of speaker intervals produced",
		}),
		DiarizationErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "diarization_errors_total",
			Help:      "Total number of diarization failures",
		}),

		KafkaPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic", "event_type"}),
		KafkaPublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),
	}
}

// RecordRunStart records a new pipeline run starting.
func (m *Metrics) RecordRunStart(device string) {
	m.RunsTotal.Inc()
	m.RunsActive.Inc()
	m.DeviceSelected.WithLabelValues(device).Inc()
}

// RecordRunEnd records a pipeline run ending.
func (m *Metrics) RecordRunEnd(success bool, durationSeconds float64) {
	m.RunsActive.Dec()
	m.RunDuration.Observe(durationSeconds)
	if success {
		m.RunsSuccess.Inc()
	} else {
		m.RunsFailed.Inc()
	}
}

// RecordDeviceFault records a numeric instability fault on a device.
func (m *Metrics) RecordDeviceFault(device string) {
	m.DeviceFaults.WithLabelValues(device).Inc()
}

// RecordDeviceFallback records an accelerator-to-CPU fallback.
func (m *Metrics) RecordDeviceFallback() {
	m.DeviceFallbacks.Inc()
}

// RecordTranscription records a completed transcription call.
func (m *Metrics) RecordTranscription(segments int, durationSeconds float64) {
	m.SegmentsTranscribed.Add(float64(segments))
	m.TranscribeDuration.Observe(durationSeconds)
}

// RecordTranslationAttempt records one backend translation attempt.
func (m *Metrics) RecordTranslationAttempt(backend string, err error, latencySeconds float64) {
	m.TranslationAttempts.WithLabelValues(backend).Inc()
	m.TranslationLatency.WithLabelValues(backend).Observe(latencySeconds)
	if err != nil {
		m.TranslationFailures.WithLabelValues(backend).Inc()
	}
}

// RecordTranslationFailover records an online-to-offline failover.
func (m *Metrics) RecordTranslationFailover() {
	m.TranslationFailovers.Inc()
}

// RecordTranslationSkipped records a same-language no-op translation.
func (m *Metrics) RecordTranslationSkipped() {
	m.TranslationSkipped.Inc()
}

// RecordChunkFailure records a chunk degraded to its original text.
func (m *Metrics) RecordChunkFailure() {
	m.ChunksFailed.Inc()
}

// RecordDiarization records a completed diarization call.
func (m *Metrics) RecordDiarization(intervals int, err error) {
	if err != nil {
		m.DiarizationErrors.Inc()
		return
	}
	m.DiarizationIntervals.Add(float64(intervals))
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}
