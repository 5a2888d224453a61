package metrics

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns the dashboard API metrics and their registry
type Collector struct {
	reg *prometheus.Registry

	HTTPRequests *prometheus.CounterVec // method, route, code
	HTTPDuration *prometheus.HistogramVec

	FilterRequests prometheus.Counter
	FilterMatches  prometheus.Histogram

	JourneySearches *prometheus.CounterVec // outcome: matched|fallback|cancelled|rejected
	SearchDuration  prometheus.Histogram
	SearchLatency   prometheus.Gauge // configured simulated latency, seconds

	SelectionTransitions *prometheus.CounterVec // action: view|select|back
	SessionsCreated      prometheus.Counter

	RegistryRecords *prometheus.GaugeVec // registry: buses|routes|stops|eta_stops

	NATSPublished   prometheus.Counter
	NATSPublishErrs prometheus.Counter
	NATSConnected   prometheus.Gauge
	PublishDuration prometheus.Histogram
}

// NewCollector creates and registers all metrics
func NewCollector(searchLatency time.Duration) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_http_requests_total",
			Help: "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dashboard_http_request_duration_seconds",
			Help:    "HTTP request duration by route pattern.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}, []string{"route"}),
		FilterRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_filter_requests_total",
			Help: "Total fleet filter evaluations.",
		}),
		FilterMatches: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dashboard_filter_matches",
			Help:    "Number of buses returned by a fleet filter.",
			Buckets: prometheus.LinearBuckets(0, 2, 10),
		}),
		JourneySearches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_journey_searches_total",
			Help: "Journey searches by outcome.",
		}, []string{"outcome"}),
		SearchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dashboard_journey_search_duration_seconds",
			Help:    "Wall time of journey searches including simulated latency.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		SearchLatency: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_journey_search_latency_seconds",
			Help: "Configured simulated journey search latency in seconds.",
		}),
		SelectionTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_selection_transitions_total",
			Help: "Selection state transitions by action.",
		}, []string{"action"}),
		SessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_sessions_created_total",
			Help: "Total dashboard sessions created.",
		}),
		RegistryRecords: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dashboard_registry_records",
			Help: "Records loaded per registry.",
		}, []string{"registry"}),
		NATSPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_nats_published_total",
			Help: "Total NATS messages published.",
		}),
		NATSPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_nats_publish_errors_total",
			Help: "Total NATS publish errors.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_nats_connected",
			Help: "1 if NATS connection is established, 0 otherwise.",
		}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dashboard_nats_publish_duration_seconds",
			Help:    "Duration to marshal and publish a NATS message.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}),
	}

	reg.MustRegister(
		c.HTTPRequests, c.HTTPDuration,
		c.FilterRequests, c.FilterMatches,
		c.JourneySearches, c.SearchDuration, c.SearchLatency,
		c.SelectionTransitions, c.SessionsCreated,
		c.RegistryRecords,
		c.NATSPublished, c.NATSPublishErrs, c.NATSConnected, c.PublishDuration,
	)

	c.SearchLatency.Set(searchLatency.Seconds())

	return c
}

// WatchSessions exposes the live session count, read from fn on every scrape
func (c *Collector) WatchSessions(fn func() int) {
	c.reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "dashboard_active_sessions",
		Help: "Number of live dashboard sessions.",
	}, func() float64 { return float64(fn()) }))
}

// SetRegistryCounts records the size of each loaded registry
func (c *Collector) SetRegistryCounts(buses, routes, stops, etaStops int) {
	c.RegistryRecords.WithLabelValues("buses").Set(float64(buses))
	c.RegistryRecords.WithLabelValues("routes").Set(float64(routes))
	c.RegistryRecords.WithLabelValues("stops").Set(float64(stops))
	c.RegistryRecords.WithLabelValues("eta_stops").Set(float64(etaStops))
}

// ObserveFilter records one fleet filter evaluation
func (c *Collector) ObserveFilter(matches int) {
	c.FilterRequests.Inc()
	c.FilterMatches.Observe(float64(matches))
}

// ObserveSearch records a finished journey search
func (c *Collector) ObserveSearch(outcome string, d time.Duration) {
	c.JourneySearches.WithLabelValues(outcome).Inc()
	if d > 0 {
		c.SearchDuration.Observe(d.Seconds())
	}
}

// SessionCreated counts a new dashboard session
func (c *Collector) SessionCreated() {
	c.SessionsCreated.Inc()
}

// Middleware records request counts and durations by chi route pattern
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		c.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		c.HTTPDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Serve starts an HTTP server exposing /metrics on the given address.
func (c *Collector) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()
	log.Printf("metrics listening on %s", addr)
	return srv
}
