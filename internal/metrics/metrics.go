// Package metrics exposes Prometheus counters for mapping runs. Metrics
// are optional: recorders silently no-op until Init is called, so library
// consumers and most commands pay nothing.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	secretsMappedTotal    *prometheus.CounterVec
	mappingFailuresTotal  *prometheus.CounterVec
	fetchDuration         *prometheus.HistogramVec
	variablesWrittenTotal prometheus.Counter

	metricsOnce       sync.Once
	metricsRegistered bool
)

// Failure reason label values.
const (
	ReasonFetchFailed    = "fetch_failed"
	ReasonMissingPayload = "missing_payload"
	ReasonInvalidJSON    = "invalid_json"
	ReasonInvalidShape   = "invalid_shape"
	ReasonMissingField   = "missing_field"
	ReasonNullField      = "null_field"
	ReasonOther          = "other"
)

// Init registers all metrics with the default registry. Safe to call more
// than once.
func Init() {
	metricsOnce.Do(func() {
		secretsMappedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "secretmap_secrets_mapped_total",
				Help: "Secrets successfully decoded and projected into variables",
			},
			[]string{"kind"},
		)

		mappingFailuresTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "secretmap_mapping_failures_total",
				Help: "Secrets that failed to fetch, decode or project",
			},
			[]string{"kind", "reason"},
		)

		fetchDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "secretmap_fetch_duration_seconds",
				Help:    "Time spent fetching payloads from source backends",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"source"},
		)

		variablesWrittenTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "secretmap_variables_written_total",
				Help: "Variables written into the store across all runs",
			},
		)

		metricsRegistered = true
	})
}

// Recorder records mapping run events. The zero value is usable and
// no-ops until Init has been called.
type Recorder struct{}

// NewRecorder creates a Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// SecretMapped counts one successfully projected secret.
func (r *Recorder) SecretMapped(kind string) {
	if !metricsRegistered {
		return
	}
	secretsMappedTotal.WithLabelValues(kind).Inc()
}

// MappingFailed counts one failed secret with its failure reason.
func (r *Recorder) MappingFailed(kind, reason string) {
	if !metricsRegistered {
		return
	}
	mappingFailuresTotal.WithLabelValues(kind, reason).Inc()
}

// FetchObserved records the duration of one backend fetch.
func (r *Recorder) FetchObserved(source string, seconds float64) {
	if !metricsRegistered {
		return
	}
	fetchDuration.WithLabelValues(source).Observe(seconds)
}

// VariablesWritten counts variables written into the store.
func (r *Recorder) VariablesWritten(count int) {
	if !metricsRegistered || count <= 0 {
		return
	}
	variablesWrittenTotal.Add(float64(count))
}
