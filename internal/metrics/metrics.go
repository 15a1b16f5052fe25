package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "inventory"

// Metrics holds the business metrics of the inventory engine. Each instance
// owns its registry, so tests can create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	SalesRecorded      prometheus.Counter
	UnitsSold          prometheus.Counter
	SaleFailures       *prometheus.CounterVec
	SaleDuration       prometheus.Histogram
	StockRestocked     prometheus.Counter
	RequestTransitions *prometheus.CounterVec
	EventsPublished    *prometheus.CounterVec

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates and registers every collector.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Metrics{registry: registry}

	m.SalesRecorded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sales_recorded_total",
		Help:      "Total number of committed sales",
	})

	m.UnitsSold = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "units_sold_total",
		Help:      "Total quantity of units sold",
	})

	m.SaleFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sale_failures_total",
			Help:      "Sales that did not commit, by failure kind",
		},
		[]string{"kind"},
	)

	m.SaleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "sale_transaction_duration_seconds",
		Help:      "Duration of the sale transaction including the row lock wait",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	})

	m.StockRestocked = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "units_restocked_total",
		Help:      "Total quantity of units added by restocks",
	})

	m.RequestTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "request_transitions_total",
			Help:      "Request status changes",
		},
		[]string{"from", "to"},
	)

	m.EventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Domain events handed to publishers",
		},
		[]string{"type", "status"},
	)

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	registry.MustRegister(
		m.SalesRecorded,
		m.UnitsSold,
		m.SaleFailures,
		m.SaleDuration,
		m.StockRestocked,
		m.RequestTransitions,
		m.EventsPublished,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)

	return m
}

// Handler returns an HTTP handler for the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RecordSale(quantity int, duration time.Duration) {
	m.SalesRecorded.Inc()
	m.UnitsSold.Add(float64(quantity))
	m.SaleDuration.Observe(duration.Seconds())
}

func (m *Metrics) RecordSaleFailure(kind string, duration time.Duration) {
	m.SaleFailures.WithLabelValues(kind).Inc()
	m.SaleDuration.Observe(duration.Seconds())
}

func (m *Metrics) RecordRestock(quantity int) {
	m.StockRestocked.Add(float64(quantity))
}

func (m *Metrics) RecordRequestTransition(from, to string) {
	m.RequestTransitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) RecordEvent(eventType string, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	m.EventsPublished.WithLabelValues(eventType, status).Inc()
}

func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
