// Package metrics exposes the Prometheus collectors of the ledger.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ledger"

var (
	// ImportRows counts import rows by outcome (imported, failed).
	ImportRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "import_rows_total",
		Help:      "Rows processed by the import reconciler.",
	}, []string{"outcome"})

	// CategoriesCreated counts categories created from unknown import labels.
	CategoriesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "import_categories_created_total",
		Help:      "Categories created during imports.",
	})

	// Categorizations counts resolved categories by the strategy that produced them.
	Categorizations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "categorizations_total",
		Help:      "Category resolutions by strategy.",
	}, []string{"strategy"})

	// AIRequestDuration observes AI categorizer latency.
	AIRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "ai_request_duration_seconds",
		Help:      "Latency of AI categorization calls.",
		Buckets:   prometheus.DefBuckets,
	})

	// Captured counts transactions submitted from bank notifications.
	Captured = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "captured_transactions_total",
		Help:      "Bank notifications submitted for capture by outcome.",
	}, []string{"outcome"})

	// AlertsSent counts notifications sent by the alert scheduler.
	AlertsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "alerts_sent_total",
		Help:      "Alerts delivered by kind.",
	}, []string{"kind"})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
