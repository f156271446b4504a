package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilRegistererIsNoOp(t *testing.T) {
	m := NewReconciliationMetrics(nil)
	m.IncMatchOutcome("mapped")
	m.IncCommitLine("success")
	m.ObserveCommitDuration(time.Second)

	var nilMetrics *ReconciliationMetrics
	nilMetrics.IncMatchOutcome("mapped")
	nilMetrics.IncCommitLine("failure")
	nilMetrics.ObserveCommitDuration(time.Second)
}

func TestCountersIncrement(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewReconciliationMetrics(reg)

	m.IncMatchOutcome("mapped")
	m.IncMatchOutcome("mapped")
	m.IncMatchOutcome("pending")
	m.IncCommitLine("success")
	m.IncCommitLine("")

	if got := testutil.ToFloat64(m.matchOutcome.WithLabelValues("mapped")); got != 2 {
		t.Fatalf("expected 2 mapped outcomes, got %v", got)
	}
	if got := testutil.ToFloat64(m.matchOutcome.WithLabelValues("pending")); got != 1 {
		t.Fatalf("expected 1 pending outcome, got %v", got)
	}
	if got := testutil.ToFloat64(m.commitLines.WithLabelValues("unknown")); got != 1 {
		t.Fatalf("expected empty label to normalize to unknown, got %v", got)
	}
}
