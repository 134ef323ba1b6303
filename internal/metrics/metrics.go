package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fraudshield"

// Prometheus collectors shared by the gateway, the scoring orchestrator and the outbox worker.
var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests handled by the gateway",
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	ScoringVerdictsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scoring_verdicts_total",
			Help:      "Verdicts returned by the scoring orchestrator by status",
		},
		[]string{"status"},
	)

	ScoringFallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scoring_fallback_total",
			Help:      "Analyze calls answered with the PENDING fallback, by failure kind",
		},
		[]string{"kind"},
	)

	ScoringCallDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scoring_call_duration_seconds",
			Help:      "Latency of the remote PredictFraud call, including failed calls",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2, 5},
		},
	)

	ResultCacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "result_cache_lookups_total",
			Help:      "Result cache lookups by outcome (hit, miss, error)",
		},
		[]string{"outcome"},
	)

	OutboxEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_events_total",
			Help:      "Outbox records processed by the worker, by outcome",
		},
		[]string{"outcome"},
	)
)

var registerOnce sync.Once

// Register adds every collector to reg. Repeated calls are no-ops.
func Register(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		reg.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDuration,
			ScoringVerdictsTotal,
			ScoringFallbackTotal,
			ScoringCallDuration,
			ResultCacheLookupsTotal,
			OutboxEventsTotal,
		)
	})
}
