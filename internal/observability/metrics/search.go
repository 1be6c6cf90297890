package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SearchMetrics instruments the retrieval pipeline on a private registry.
type SearchMetrics struct {
	registry *prometheus.Registry

	searchTotal    *prometheus.CounterVec
	searchDuration *prometheus.HistogramVec
	searchInFlight prometheus.Gauge
	sourceDegraded *prometheus.CounterVec
	resultCount    prometheus.Histogram
}

func NewSearchMetrics(service string) *SearchMetrics {
	registry := prometheus.NewRegistry()

	searchTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clinsearch",
			Subsystem: "api",
			Name:      "search_total",
			Help:      "Total search requests by outcome.",
		},
		[]string{"service", "status"},
	)
	searchDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "clinsearch",
			Subsystem: "api",
			Name:      "search_duration_seconds",
			Help:      "End-to-end search duration in seconds by outcome.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	searchInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "clinsearch",
			Subsystem: "api",
			Name:      "search_in_flight",
			Help:      "Number of in-flight search requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	sourceDegraded := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clinsearch",
			Subsystem: "retrieval",
			Name:      "source_degraded_total",
			Help:      "Requests in which an enabled backend source did not contribute.",
		},
		[]string{"service", "source"},
	)
	resultCount := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "clinsearch",
			Subsystem: "retrieval",
			Name:      "final_result_count",
			Help:      "Number of results in the final ranked list.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 10, 15, 20, 30, 50},
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(searchTotal, searchDuration, searchInFlight, sourceDegraded, resultCount)

	return &SearchMetrics{
		registry:       registry,
		searchTotal:    searchTotal,
		searchDuration: searchDuration,
		searchInFlight: searchInFlight,
		sourceDegraded: sourceDegraded,
		resultCount:    resultCount,
	}
}

func (m *SearchMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *SearchMetrics) StartSearch() {
	m.searchInFlight.Inc()
}

func (m *SearchMetrics) FinishSearch(service string, duration time.Duration, err error) {
	m.searchInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}
	m.searchTotal.WithLabelValues(service, status).Inc()
	m.searchDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *SearchMetrics) SourceDegraded(service, source string) {
	m.sourceDegraded.WithLabelValues(service, source).Inc()
}

func (m *SearchMetrics) ObserveResultCount(count int) {
	m.resultCount.Observe(float64(count))
}
