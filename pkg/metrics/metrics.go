package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors exported by the service.
type Metrics struct {
	registry *prometheus.Registry

	RequestCounter    *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
	CheckIns          prometheus.Counter
	CheckOuts         prometheus.Counter
	RejectedCheckOuts prometheus.Counter
}

// New creates and registers all collectors on a private registry so tests
// can build as many instances as they like.
func New(service string) *Metrics {
	reg := prometheus.NewRegistry()
	constLabels := prometheus.Labels{"service": service}

	m := &Metrics{
		registry: reg,
		RequestCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests",
			ConstLabels: constLabels,
		}, []string{"method", "route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "Duration of HTTP requests in seconds",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: constLabels,
		}, []string{"method", "route"}),
		CheckIns: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "visitor_checkins_total",
			Help:        "Total number of visitor check-ins",
			ConstLabels: constLabels,
		}),
		CheckOuts: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "visitor_checkouts_total",
			Help:        "Total number of visitor check-outs",
			ConstLabels: constLabels,
		}),
		RejectedCheckOuts: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "visitor_checkouts_rejected_total",
			Help:        "Check-outs rejected because the visitor had already left",
			ConstLabels: constLabels,
		}),
	}

	reg.MustRegister(
		m.RequestCounter,
		m.RequestDuration,
		m.CheckIns,
		m.CheckOuts,
		m.RejectedCheckOuts,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, seconds float64) {
	if route == "" {
		route = "unmatched"
	}
	m.RequestCounter.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(seconds)
}

func (m *Metrics) IncCheckIns() {
	m.CheckIns.Inc()
}

func (m *Metrics) IncCheckOuts() {
	m.CheckOuts.Inc()
}

func (m *Metrics) IncRejectedCheckOuts() {
	m.RejectedCheckOuts.Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
