package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fanpool_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fanpool_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	StakesPlacedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fanpool_stakes_placed_total",
			Help: "Total number of stakes placed",
		},
	)

	StakesCancelledTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fanpool_stakes_cancelled_total",
			Help: "Total number of stakes cancelled",
		},
	)

	SettlementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fanpool_settlements_total",
			Help: "Total number of settled or voided predictions",
		},
		[]string{"outcome"},
	)

	SettlementPayoutCents = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fanpool_settlement_payout_cents_total",
			Help: "Total cents paid out to winners",
		},
	)

	EscrowDriftDetectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fanpool_escrow_drift_detected_total",
			Help: "Total number of reconciliations that found drift",
		},
	)

	EscrowSourceDegradedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fanpool_escrow_source_degraded_total",
			Help: "Total number of reconciliations served with degraded provenance",
		},
	)

	ExpiredLocksReleasedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fanpool_expired_locks_released_total",
			Help: "Total number of stale escrow locks released by the sweeper",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordSettlement(outcome string, payoutCents int64) {
	SettlementsTotal.WithLabelValues(outcome).Inc()
	if payoutCents > 0 {
		SettlementPayoutCents.Add(float64(payoutCents))
	}
}
