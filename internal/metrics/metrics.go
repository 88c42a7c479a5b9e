// Package metrics collects Prometheus counters for API traffic and session
// transitions.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the client and session store report to.
type Recorder interface {
	RecordRequest(method string, status int, d time.Duration)
	RecordFailure(method, reason string)
	RecordUnauthorized()
	RecordTransition(status string)
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordRequest(string, int, time.Duration) {}
func (Nop) RecordFailure(string, string)              {}
func (Nop) RecordUnauthorized()                       {}
func (Nop) RecordTransition(string)                   {}

var _ Recorder = (*Collector)(nil)

// Collector is the Prometheus-backed Recorder.
type Collector struct {
	requests     *prometheus.CounterVec
	failures     *prometheus.CounterVec
	latency      prometheus.Histogram
	unauthorized prometheus.Counter
	transitions  *prometheus.CounterVec
}

// NewCollector registers the estoque metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "estoque_api_requests_total",
			Help: "API responses by method and status code.",
		}, []string{"method", "status_code"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "estoque_api_failures_total",
			Help: "Failed API calls by method and reason.",
		}, []string{"method", "reason"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "estoque_api_latency_seconds",
			Help:    "API round trip latency.",
			Buckets: prometheus.DefBuckets,
		}),
		unauthorized: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "estoque_unauthorized_episodes_total",
			Help: "Unauthorized episodes published to the session layer.",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "estoque_session_transitions_total",
			Help: "Session store transitions by resulting status.",
		}, []string{"status"}),
	}

	reg.MustRegister(
		c.requests,
		c.failures,
		c.latency,
		c.unauthorized,
		c.transitions,
	)
	return c
}

// RecordRequest counts a response and observes its latency.
func (c *Collector) RecordRequest(method string, status int, d time.Duration) {
	c.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	c.latency.Observe(d.Seconds())
}

// RecordFailure counts a failed call. reason is "transport" or "http".
func (c *Collector) RecordFailure(method, reason string) {
	c.failures.WithLabelValues(method, reason).Inc()
}

// RecordUnauthorized counts a published unauthorized episode.
func (c *Collector) RecordUnauthorized() {
	c.unauthorized.Inc()
}

// RecordTransition counts a session state change.
func (c *Collector) RecordTransition(status string) {
	c.transitions.WithLabelValues(status).Inc()
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer) error {
	r := chi.NewRouter()
	r.Handle("/metrics", Handler(gatherer))
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
