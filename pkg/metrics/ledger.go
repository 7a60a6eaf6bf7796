package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "doumai"

// LedgerMetrics counts stock adjustments by change type, plus deductions that
// were clamped at zero and batches that stopped early.
type LedgerMetrics struct {
	adjustments   *prometheus.CounterVec
	clamped       prometheus.Counter
	batchFailures prometheus.Counter
}

func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	m := &LedgerMetrics{
		adjustments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inventory",
			Name:      "adjustments_total",
			Help:      "Applied inventory adjustments.",
		}, []string{"change_type"}),
		clamped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inventory",
			Name:      "clamped_deductions_total",
			Help:      "Order deductions reduced to stop stock going negative.",
		}),
		batchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inventory",
			Name:      "batch_partial_failures_total",
			Help:      "Batch adjustments aborted after a failing SKU.",
		}),
	}
	reg.MustRegister(m.adjustments, m.clamped, m.batchFailures)
	return m
}

func (m *LedgerMetrics) IncAdjustment(changeType string) {
	if m == nil || m.adjustments == nil {
		return
	}
	m.adjustments.WithLabelValues(normalizeLabel(changeType)).Inc()
}

func (m *LedgerMetrics) IncClamped() {
	if m == nil || m.clamped == nil {
		return
	}
	m.clamped.Inc()
}

func (m *LedgerMetrics) IncBatchFailure() {
	if m == nil || m.batchFailures == nil {
		return
	}
	m.batchFailures.Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
