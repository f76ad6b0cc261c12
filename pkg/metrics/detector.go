// Package metrics exposes the detector's Prometheus series, following the
// same prometheus.NewCounterVec/NewHistogram + sync.Once MustRegister idiom
// the original rate-limit gateway used for its anomaly/mitigation metrics
// — rekeyed here from per-{route,client} HTTP metrics to per-run
// detection-pipeline metrics (SPEC_FULL.md §3 ambient observability).
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// AlertsReceivedTotal counts every Alert the coordinator collects,
	// labeled by worker rank.
	AlertsReceivedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stormgate_ddos",
			Name:      "alerts_received_total",
			Help:      "Total Alerts the coordinator has collected, labeled by worker rank.",
		},
		[]string{"rank"},
	)

	// DetectorFiresTotal counts how often each named detector fired across
	// all workers, labeled by detector name (entropy/cusum/ml, or whatever
	// the worker's detector slice holds).
	DetectorFiresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stormgate_ddos",
			Name:      "detector_fires_total",
			Help:      "Total detector fires across all workers, labeled by detector name.",
		},
		[]string{"detector"},
	)

	// RunsTotal counts completed coordinator runs, labeled by the global
	// verdict.
	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stormgate_ddos",
			Name:      "runs_total",
			Help:      "Completed coordinator runs, labeled by global_attack verdict (true/false).",
		},
		[]string{"global_attack"},
	)

	// BlockedIPsTotal counts confirmed-attack blackhole targets, labeled by
	// whether the IP was already blocked from a prior run (registry hit).
	BlockedIPsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stormgate_ddos",
			Name:      "blocked_ips_total",
			Help:      "Confirmed-attack blackhole targets, labeled by whether they were a repeat block.",
		},
		[]string{"repeat"},
	)

	// RunLatencySeconds observes the coordinator's end-to-end detection
	// latency (spec.md §4.8 step 5, "detection_latency").
	RunLatencySeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "stormgate_ddos",
			Name:      "run_latency_seconds",
			Help:      "End-to-end coordinator detection latency per run.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	registerOnce sync.Once
)

// Register registers every detector metric once, regardless of how many
// times it's called — safe to call from both cmd/coordinator and tests.
func Register(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		reg.MustRegister(AlertsReceivedTotal)
		reg.MustRegister(DetectorFiresTotal)
		reg.MustRegister(RunsTotal)
		reg.MustRegister(BlockedIPsTotal)
		reg.MustRegister(RunLatencySeconds)
	})
}
