// Package metrics exposes Prometheus counters for upstream calls and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcomes recorded for a finished upstream call.
const (
	OutcomeSuccess     = "success"
	OutcomeHTTPError   = "http_error"
	OutcomeNetworkErr  = "network_error"
	OutcomeCanceled    = "canceled"
	RetryReasonStatus  = "overloaded"
	RetryReasonNetwork = "network"
)

// UpstreamRecorder is consumed by the Gemini invoker.
type UpstreamRecorder interface {
	RecordUpstreamAttempt()
	RecordUpstreamRetry(reason string)
	RecordUpstreamResult(outcome string, elapsed time.Duration)
}

// HTTPRecorder is consumed by the request logging middleware.
type HTTPRecorder interface {
	RecordHTTPRequest(method, route string, status int)
}

// Collector implements both recorders on top of Prometheus.
type Collector struct {
	upstreamAttempts prometheus.Counter
	upstreamRetries  *prometheus.CounterVec
	upstreamResults  *prometheus.CounterVec
	upstreamLatency  prometheus.Histogram
	httpRequests     *prometheus.CounterVec
}

// NewCollector registers the service metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		upstreamAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "visaverse_upstream_attempts_total",
			Help: "Network attempts made against the generative-language API.",
		}),
		upstreamRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "visaverse_upstream_retries_total",
			Help: "Retries scheduled after a transient upstream failure.",
		}, []string{"reason"}),
		upstreamResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "visaverse_upstream_results_total",
			Help: "Finished upstream calls by outcome.",
		}, []string{"outcome"}),
		upstreamLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "visaverse_upstream_latency_seconds",
			Help:    "Wall time of an upstream call including retries.",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "visaverse_http_requests_total",
			Help: "HTTP requests served by route and status.",
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(
		c.upstreamAttempts,
		c.upstreamRetries,
		c.upstreamResults,
		c.upstreamLatency,
		c.httpRequests,
	)
	return c
}

func (c *Collector) RecordUpstreamAttempt() {
	c.upstreamAttempts.Inc()
}

func (c *Collector) RecordUpstreamRetry(reason string) {
	c.upstreamRetries.WithLabelValues(reason).Inc()
}

func (c *Collector) RecordUpstreamResult(outcome string, elapsed time.Duration) {
	c.upstreamResults.WithLabelValues(outcome).Inc()
	c.upstreamLatency.Observe(elapsed.Seconds())
}

func (c *Collector) RecordHTTPRequest(method, route string, status int) {
	if route == "" {
		route = "unmatched"
	}
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards every measurement.
type Nop struct{}

func (Nop) RecordUpstreamAttempt()                     {}
func (Nop) RecordUpstreamRetry(string)                 {}
func (Nop) RecordUpstreamResult(string, time.Duration) {}
func (Nop) RecordHTTPRequest(string, string, int)      {}
