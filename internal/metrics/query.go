package metrics

import "github.com/prometheus/client_golang/prometheus"

// Query Prometheus metrics.
var (
	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "canopy",
			Name:      "queries_total",
			Help:      "Total number of list queries executed",
		},
		[]string{"resource"},
	)

	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "canopy",
			Name:      "query_duration_seconds",
			Help:      "List query evaluation duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"resource"},
	)

	QueryMatchedRecords = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "canopy",
			Name:      "query_matched_records",
			Help:      "Number of records matched per query before pagination",
			Buckets:   []float64{0, 1, 10, 50, 100, 500, 1000, 5000, 10000},
		},
		[]string{"resource"},
	)

	SubscriptionsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "canopy",
			Name:      "subscriptions_active",
			Help:      "Number of active change subscriptions",
		},
		[]string{"resource"},
	)
)

var queryMetricsRegistered bool

// RegisterQueryMetrics registers Prometheus query metrics. Must be called once from main.
func RegisterQueryMetrics() {
	if queryMetricsRegistered {
		return
	}
	prometheus.MustRegister(QueriesTotal)
	prometheus.MustRegister(QueryDuration)
	prometheus.MustRegister(QueryMatchedRecords)
	prometheus.MustRegister(SubscriptionsActive)
	queryMetricsRegistered = true
}
