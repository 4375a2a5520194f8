package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Query outcomes recorded in insight_queries_total.
const (
	statusSuccess  = "success"
	statusInvalid  = "invalid"
	statusTooLarge = "too_large"
	statusError    = "error"
)

type metrics struct {
	queries         *prometheus.CounterVec
	queryDuration   prometheus.Histogram
	queryRows       prometheus.Histogram
	datasetsAdded   prometheus.Counter
	datasetsRemoved prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	return &metrics{
		queries: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "insight",
			Name:      "queries_total",
			Help:      "Total number of queries by outcome.",
		}, []string{"status"}),
		queryDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Namespace: "insight",
			Name:      "query_duration_seconds",
			Help:      "Time spent executing queries.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		queryRows: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Namespace: "insight",
			Name:      "query_result_rows",
			Help:      "Number of rows returned by successful queries.",
			Buckets:   []float64{0, 1, 10, 100, 1000, 5000},
		}),
		datasetsAdded: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "insight",
			Name:      "datasets_added_total",
			Help:      "Total number of datasets added.",
		}),
		datasetsRemoved: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "insight",
			Name:      "datasets_removed_total",
			Help:      "Total number of datasets removed.",
		}),
	}
}
