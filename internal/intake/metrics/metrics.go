package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"intake/internal/extraction"
	"intake/internal/verification"
	"intake/pkg/domain"
)

// Metrics provides observability for the intake workflow.
type Metrics struct {
	// Extraction latency by document type and outcome
	ExtractionLatency *prometheus.HistogramVec

	// Classification verdicts by kind
	ClassificationVerdicts *prometheus.CounterVec

	// Field status transitions
	Transitions *prometheus.CounterVec

	// Commit outcomes by document type and result kind
	CommitOutcome *prometheus.CounterVec

	// Hand-off transfers consumed into the record
	HandoffsConsumed prometheus.Counter
}

// New creates the intake metrics and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ExtractionLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "intake_extraction_duration_seconds",
			Help:    "Duration of extraction calls by document type and outcome",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		}, []string{"document_type", "outcome"}),

		ClassificationVerdicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_classification_verdicts_total",
			Help: "Classification verdicts by kind",
		}, []string{"kind", "verdict"}),

		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_field_transitions_total",
			Help: "Field verification status transitions",
		}, []string{"document_type", "field", "to"}),

		CommitOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_commit_outcomes_total",
			Help: "Commit outcomes by document type and result kind",
		}, []string{"document_type", "kind"}),

		HandoffsConsumed: factory.NewCounter(prometheus.CounterOpts{
			Name: "intake_handoffs_consumed_total",
			Help: "Residency transfers merged into the record",
		}),
	}
}

// ObserveExtraction records the duration of one extraction call.
func (m *Metrics) ObserveExtraction(docType domain.DocumentType, outcome string, d time.Duration) {
	if m != nil {
		m.ExtractionLatency.WithLabelValues(docType.String(), outcome).Observe(d.Seconds())
	}
}

// ObserveClassification counts a resolved verdict.
func (m *Metrics) ObserveClassification(kind extraction.Kind, verdict extraction.Verdict) {
	if m != nil {
		m.ClassificationVerdicts.WithLabelValues(string(kind), string(verdict)).Inc()
	}
}

// ObserveTransition counts a field status change.
func (m *Metrics) ObserveTransition(docType domain.DocumentType, field domain.Field, _, to verification.Status) {
	if m != nil {
		m.Transitions.WithLabelValues(docType.String(), field.String(), to.String()).Inc()
	}
}

// IncrementCommit records a commit outcome.
func (m *Metrics) IncrementCommit(docType domain.DocumentType, kind string) {
	if m != nil {
		m.CommitOutcome.WithLabelValues(docType.String(), kind).Inc()
	}
}

// IncrementHandoffConsumed records a consumed residency transfer.
func (m *Metrics) IncrementHandoffConsumed() {
	if m != nil {
		m.HandoffsConsumed.Inc()
	}
}
