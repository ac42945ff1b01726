package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the API
	Registry = prometheus.NewRegistry()
	// HTTPRequests counts requests by method, path, and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// Sessions counts game sessions by lifecycle event (started, ended, dropped)
	Sessions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "optimizer_sessions_total", Help: "Game sessions by lifecycle event."},
		[]string{"event"},
	)
	// Rounds counts optimized rounds
	Rounds = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "optimizer_rounds_total", Help: "Rounds optimized."},
	)
	// Iterations counts annealing iterations over all rounds
	Iterations = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "optimizer_iterations_total", Help: "Simulated annealing iterations."},
	)
	// Accepted counts candidate decisions by kind (improvement, equal, worse, rejected)
	Accepted = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "optimizer_accepted_total", Help: "Candidate plan decisions by kind."},
		[]string{"kind"},
	)
	// RoundDuration records optimizer wall time per round in seconds
	RoundDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "optimizer_round_duration_seconds", Help: "Optimizer wall time per round.", Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5}},
	)
	// Temperature exposes the current annealing temperature per live session
	Temperature = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "optimizer_temperature", Help: "Current annealing temperature."},
		[]string{"session"},
	)
)

// RegisterDefault registers collectors to the default registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(Sessions)
		Registry.MustRegister(Rounds)
		Registry.MustRegister(Iterations)
		Registry.MustRegister(Accepted)
		Registry.MustRegister(RoundDuration)
		Registry.MustRegister(Temperature)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
