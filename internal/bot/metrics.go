package bot

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the bot's Prometheus instruments. They are registered on the
// caller's registry rather than the global one so tests can use a fresh
// registry per case.
type Metrics struct {
	NotificationsSent prometheus.Counter
	WebhooksReceived  prometheus.Counter
	Actions           *prometheus.CounterVec
	SyncRuns          prometheus.Counter
	SyncEditFailures  prometheus.Counter
	SyncDuration      prometheus.Histogram
}

// NewMetrics creates and registers the bot's instruments. tracked reports the
// current number of registry entries and is exported as a gauge.
func NewMetrics(reg prometheus.Registerer, tracked func() float64) *Metrics {
	m := &Metrics{
		NotificationsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "keelbot",
			Name:      "notifications_sent_total",
			Help:      "Approval notification messages successfully sent.",
		}),
		WebhooksReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "keelbot",
			Name:      "webhooks_received_total",
			Help:      "Keel webhook notifications accepted by the gateway.",
		}),
		Actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "keelbot",
			Name:      "actions_total",
			Help:      "Approve, reject and delete actions relayed to Keel.",
		}, []string{"action", "outcome"}),
		SyncRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "keelbot",
			Name:      "sync_runs_total",
			Help:      "Completed synchronization passes.",
		}),
		SyncEditFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "keelbot",
			Name:      "sync_edit_failures_total",
			Help:      "Message edits that failed during sync and were forgotten.",
		}),
		SyncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "keelbot",
			Name:      "sync_duration_seconds",
			Help:      "Duration of synchronization passes.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		m.NotificationsSent,
		m.WebhooksReceived,
		m.Actions,
		m.SyncRuns,
		m.SyncEditFailures,
		m.SyncDuration,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "keelbot",
			Name:      "tracked_messages",
			Help:      "Chat messages currently tracked by the registry.",
		}, tracked),
	)

	return m
}
