package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	DonationsCommitted  prometheus.Counter
	RequestsCreated     prometheus.Counter
	RequestsFulfilled   prometheus.Counter
	BlocksMined         prometheus.Counter
	MiningDuration      prometheus.Histogram
	StaleTailRetries    prometheus.Counter
	NotificationsSent   prometheus.Counter
	NotificationsFailed prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		DonationsCommitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lifeline_donations_committed_total",
			Help: "Total number of donations committed end to end",
		}),
		RequestsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lifeline_requests_created_total",
			Help: "Total number of blood requests created",
		}),
		RequestsFulfilled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lifeline_requests_fulfilled_total",
			Help: "Total number of blood requests that reached the fulfilled state",
		}),
		BlocksMined: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lifeline_ledger_blocks_mined_total",
			Help: "Total number of ledger blocks mined and committed",
		}),
		MiningDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "lifeline_ledger_mining_duration_seconds",
			Help:    "Time spent finding a nonce for a ledger block",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		StaleTailRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lifeline_ledger_stale_tail_retries_total",
			Help: "Number of mined blocks discarded because the chain tail advanced",
		}),
		NotificationsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lifeline_notifications_sent_total",
			Help: "Total number of donor notifications dispatched successfully",
		}),
		NotificationsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lifeline_notifications_failed_total",
			Help: "Total number of donor notification dispatch failures",
		}),
	}
}

// ObserveMining records one successful mining run.
func (m *Metrics) ObserveMining(d time.Duration) {
	if m == nil {
		return
	}
	m.BlocksMined.Inc()
	m.MiningDuration.Observe(d.Seconds())
}
