// Package capbitmetrics exposes Prometheus instrumentation for the engine.
//
// These counters and gauges observe how often checks and mutations happen
// and how long they take; they never feed back into effective_mask. There is
// no cross-object effective-permission cache here, only observability.
package capbitmetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ChecksTotal counts check_access/has_capability invocations. A
	// has_capability call with required 0 returns false without being counted.
	ChecksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "capbit_checks_total",
		Help: "Total number of permission checks performed.",
	})

	// ChecksDenied counts has_capability calls with a nonzero required mask
	// that returned false.
	ChecksDenied = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "capbit_checks_denied_total",
		Help: "Total number of has_capability calls that denied access.",
	})

	// MutationsTotal counts protected-API mutations by operation, regardless
	// of outcome.
	MutationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "capbit_mutations_total",
		Help: "Total number of protected mutations attempted, by operation.",
	}, []string{"op"})

	// MutationsDenied counts protected-API mutations rejected with
	// PermissionDenied or DelegationExceedsBounds, by operation.
	MutationsDenied = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "capbit_mutations_denied_total",
		Help: "Total number of protected mutations denied, by operation.",
	}, []string{"op"})

	// ResolverLatency tracks effective_mask wall-clock time.
	ResolverLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "capbit_resolver_latency_seconds",
		Help:    "Time taken to compute an effective capability mask.",
		Buckets: prometheus.DefBuckets,
	})

	// ProtectedLatency tracks protected-mutation wall-clock time, including
	// the pre-check.
	ProtectedLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "capbit_protected_latency_seconds",
		Help:    "Time taken to perform a protected mutation end to end.",
		Buckets: prometheus.DefBuckets,
	})

	// EpochGauge tracks the last epoch observed by a write transaction.
	EpochGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "capbit_epoch",
		Help: "Most recently committed write-transaction epoch.",
	})
)

func init() {
	prometheus.MustRegister(
		ChecksTotal,
		ChecksDenied,
		MutationsTotal,
		MutationsDenied,
		ResolverLatency,
		ProtectedLatency,
		EpochGauge,
	)
}

// Timer measures elapsed wall-clock time for a single call.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed time to a histogram.
func (t *Timer) ObserveDuration(h prometheus.Histogram) {
	h.Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
