package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments the query pipeline. A nil *Metrics is valid and
// records nothing, so tests and metrics-disabled deployments need no
// special-casing.
type Metrics struct {
	queriesTotal       *prometheus.CounterVec
	rejectionsTotal    *prometheus.CounterVec
	queryDuration      *prometheus.HistogramVec
	collaboratorErrors *prometheus.CounterVec
	corpusSize         *prometheus.GaugeVec
}

// NewMetrics registers pipeline metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		queriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "assistant",
			Name:      "queries_total",
			Help:      "Queries processed, labelled by response tier.",
		}, []string{"tier"}),
		rejectionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "assistant",
			Name:      "guardrail_rejections_total",
			Help:      "Queries rejected by the guardrail, labelled by reason.",
		}, []string{"reason"}),
		queryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "assistant",
			Name:      "query_duration_seconds",
			Help:      "End-to-end query latency, labelled by response tier.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tier"}),
		collaboratorErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "assistant",
			Name:      "collaborator_errors_total",
			Help:      "Embedder/generator call failures, labelled by collaborator.",
		}, []string{"collaborator"}),
		corpusSize: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "assistant",
			Name:      "corpus_records",
			Help:      "Loaded corpus records, labelled by corpus.",
		}, []string{"corpus"}),
	}
}

// RecordQuery records one completed query.
func (m *Metrics) RecordQuery(tier string, duration time.Duration) {
	if m == nil {
		return
	}
	m.queriesTotal.WithLabelValues(tier).Inc()
	m.queryDuration.WithLabelValues(tier).Observe(duration.Seconds())
}

// RecordRejection records a guardrail rejection.
func (m *Metrics) RecordRejection(reason string) {
	if m == nil {
		return
	}
	m.rejectionsTotal.WithLabelValues(reason).Inc()
}

// RecordCollaboratorError records an embedder or generator failure.
func (m *Metrics) RecordCollaboratorError(collaborator string) {
	if m == nil {
		return
	}
	m.collaboratorErrors.WithLabelValues(collaborator).Inc()
}

// SetCorpusSize records loaded corpus sizes at startup and after reloads.
func (m *Metrics) SetCorpusSize(samples, documents int) {
	if m == nil {
		return
	}
	m.corpusSize.WithLabelValues("samples").Set(float64(samples))
	m.corpusSize.WithLabelValues("documents").Set(float64(documents))
}
