package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ReconciliationMetrics records auto-match and commit outcomes.
type ReconciliationMetrics struct {
	matchOutcome   *prometheus.CounterVec
	commitLines    *prometheus.CounterVec
	commitDuration prometheus.Histogram
}

// NewReconciliationMetrics registers the reconciliation metrics on the provided
// registerer. A nil registerer yields a no-op recorder.
func NewReconciliationMetrics(reg prometheus.Registerer) *ReconciliationMetrics {
	if reg == nil {
		return &ReconciliationMetrics{}
	}
	matchOutcome := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "receipt_match_outcome_total",
		Help: "Auto-match decisions per outcome (mapped, pending).",
	}, []string{"outcome"})
	commitLines := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "receipt_commit_lines_total",
		Help: "Committed receipt lines per result (success, failure).",
	}, []string{"result"})
	commitDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "receipt_commit_duration_seconds",
		Help:    "Duration of bulk receipt commits in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(matchOutcome, commitLines, commitDuration)
	return &ReconciliationMetrics{
		matchOutcome:   matchOutcome,
		commitLines:    commitLines,
		commitDuration: commitDuration,
	}
}

// IncMatchOutcome increments the decision counter for the named outcome.
func (m *ReconciliationMetrics) IncMatchOutcome(outcome string) {
	if m == nil || m.matchOutcome == nil {
		return
	}
	m.matchOutcome.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncCommitLine increments the per-line commit counter for the named result.
func (m *ReconciliationMetrics) IncCommitLine(result string) {
	if m == nil || m.commitLines == nil {
		return
	}
	m.commitLines.WithLabelValues(normalizeLabel(result)).Inc()
}

// ObserveCommitDuration records the duration of one bulk commit.
func (m *ReconciliationMetrics) ObserveCommitDuration(duration time.Duration) {
	if m == nil || m.commitDuration == nil {
		return
	}
	m.commitDuration.Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
