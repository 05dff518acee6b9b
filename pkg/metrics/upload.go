package metrics

import (
	"github.com/mrusso19/picshuttle/pkg/upload"
)

// NewUploadMetrics creates a Prometheus-backed upload.Metrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called) so
// callers can pass the result straight into upload.Options.
func NewUploadMetrics() upload.Metrics {
	if !IsEnabled() || newPrometheusUploadMetrics == nil {
		return nil
	}
	return newPrometheusUploadMetrics()
}

// newPrometheusUploadMetrics is implemented in pkg/metrics/prometheus.
// The indirection avoids an import cycle between the registry and the
// instrument implementations.
var newPrometheusUploadMetrics func() upload.Metrics

// RegisterUploadMetricsConstructor registers the Prometheus upload metrics
// constructor. Called by pkg/metrics/prometheus during package
// initialization.
func RegisterUploadMetricsConstructor(constructor func() upload.Metrics) {
	newPrometheusUploadMetrics = constructor
}
