// Package prometheus holds the Prometheus implementations of the metric
// interfaces consumed elsewhere in the codebase.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mrusso19/picshuttle/pkg/metrics"
	"github.com/mrusso19/picshuttle/pkg/upload"
)

func init() {
	metrics.RegisterUploadMetricsConstructor(NewUploadMetrics)
}

// uploadMetrics is the Prometheus implementation of upload.Metrics.
type uploadMetrics struct {
	sessionsStarted   prometheus.Counter
	sessionsCompleted prometheus.Counter
	sessionsFailed    *prometheus.CounterVec
	sessionDuration   prometheus.Histogram
	sessionBytes      prometheus.Histogram
	chunksSent        prometheus.Counter
	chunkBytes        prometheus.Histogram
	chunkRetries      prometheus.Counter
}

// NewUploadMetrics creates a Prometheus-backed upload.Metrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewUploadMetrics() upload.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &uploadMetrics{
		sessionsStarted: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "picshuttle_upload_sessions_started_total",
				Help: "Total number of upload sessions opened against the gallery",
			},
		),
		sessionsCompleted: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "picshuttle_upload_sessions_completed_total",
				Help: "Total number of upload sessions finalized successfully",
			},
		),
		sessionsFailed: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "picshuttle_upload_sessions_failed_total",
				Help: "Total number of failed upload sessions by failure kind",
			},
			[]string{"kind"},
		),
		sessionDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name: "picshuttle_upload_session_duration_seconds",
				Help: "End-to-end duration of completed upload sessions",
				Buckets: []float64{
					0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600,
				},
			},
		),
		sessionBytes: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name: "picshuttle_upload_session_bytes",
				Help: "Distribution of source-file sizes of completed sessions",
				Buckets: []float64{
					65536,     // 64KB - thumbnails
					524288,    // 512KB
					1048576,   // 1MB
					5242880,   // 5MB - typical phone photo
					10485760,  // 10MB
					52428800,  // 50MB - raw photos
					104857600, // 100MB
					524288000, // 500MB - video
				},
			},
		),
		chunksSent: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "picshuttle_upload_chunks_sent_total",
				Help: "Total number of chunk payloads accepted by the gallery",
			},
		),
		chunkBytes: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name: "picshuttle_upload_chunk_wire_bytes",
				Help: "Distribution of chunk payload sizes as sent on the wire",
				Buckets: []float64{
					65536,    // 64KB
					262144,   // 256KB
					1048576,  // 1MB
					2621440,  // 2.5MB
					5242880,  // 5MB - default chunk size
					10485760, // 10MB
				},
			},
		),
		chunkRetries: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "picshuttle_upload_chunk_retries_total",
				Help: "Total number of chunk transfer retries",
			},
		),
	}
}

func (m *uploadMetrics) SessionStarted() {
	if m == nil {
		return
	}
	m.sessionsStarted.Inc()
}

func (m *uploadMetrics) SessionCompleted(duration time.Duration, bytes int64) {
	if m == nil {
		return
	}
	m.sessionsCompleted.Inc()
	m.sessionDuration.Observe(duration.Seconds())
	if bytes > 0 {
		m.sessionBytes.Observe(float64(bytes))
	}
}

func (m *uploadMetrics) SessionFailed(kind string) {
	if m == nil {
		return
	}
	m.sessionsFailed.WithLabelValues(kind).Inc()
}

func (m *uploadMetrics) ChunkSent(bytes int64) {
	if m == nil {
		return
	}
	m.chunksSent.Inc()
	if bytes > 0 {
		m.chunkBytes.Observe(float64(bytes))
	}
}

func (m *uploadMetrics) ChunkRetried() {
	if m == nil {
		return
	}
	m.chunkRetries.Inc()
}
