package tracking

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "farewatch"

// Metrics holds the scanner's prometheus collectors.
type Metrics struct {
	ScanRuns             *prometheus.CounterVec
	SearchesScanned      *prometheus.CounterVec
	OffersPersisted      prometheus.Counter
	NotificationsCreated prometheus.Counter
	ScanDuration         prometheus.Histogram
}

// NewMetrics registers the collectors with reg. Tests pass a fresh
// prometheus.NewRegistry() so runs do not collide.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ScanRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scan_runs_total",
			Help:      "Scanner runs by result.",
		}, []string{"result"}),
		SearchesScanned: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_scanned_total",
			Help:      "Recurring searches processed by outcome.",
		}, []string{"outcome"}),
		OffersPersisted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "offers_persisted_total",
			Help:      "Offers appended to price history.",
		}),
		NotificationsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_created_total",
			Help:      "Price alert notifications created.",
		}),
		ScanDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scan_duration_seconds",
			Help:      "Wall time of a full scanner run.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
	}
}
