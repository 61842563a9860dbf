package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels.
const (
	OutcomeOK      = "ok"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	RecordsFlattened *prometheus.CounterVec
	FlattenLatency   prometheus.Histogram
	AttributeCount   prometheus.Histogram
	SinkPublished    *prometheus.CounterVec
	SinkLatency      *prometheus.HistogramVec
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers on reg. Tests pass a fresh prometheus.NewRegistry()
// to avoid duplicate registration panics.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RecordsFlattened: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "userflat_records_flattened_total",
			Help: "User records run through the flattening pipeline by outcome",
		}, []string{"outcome"}),

		FlattenLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "userflat_flatten_duration_seconds",
			Help:    "Duration of a single flatten call including sink publishing",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),

		AttributeCount: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "userflat_record_attributes",
			Help:    "Number of UserAttributes entries per flattened record",
			Buckets: prometheus.LinearBuckets(0, 5, 8),
		}),

		SinkPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "userflat_sink_publish_total",
			Help: "Flattened records published to a sink by outcome",
		}, []string{"sink", "outcome"}),

		SinkLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "userflat_sink_publish_duration_seconds",
			Help:    "Duration of publishing one record to a sink",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		}, []string{"sink"}),
	}
}

// IncrementFlattened records one pipeline outcome.
func (m *Metrics) IncrementFlattened(outcome string) {
	if m != nil {
		m.RecordsFlattened.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) ObserveFlattenLatency(d time.Duration) {
	if m != nil {
		m.FlattenLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) ObserveAttributeCount(n int) {
	if m != nil {
		m.AttributeCount.Observe(float64(n))
	}
}

// ObserveSinkPublish records one publish attempt against a named sink.
func (m *Metrics) ObserveSinkPublish(sink string, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.SinkPublished.WithLabelValues(sink, outcome).Inc()
	m.SinkLatency.WithLabelValues(sink).Observe(d.Seconds())
}
