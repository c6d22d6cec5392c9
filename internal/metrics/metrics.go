// Package metrics defines the Prometheus collectors exported by garage-status.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "garage_status"

var (
	// Registry holds every collector below plus the Go runtime collectors
	Registry = prometheus.NewRegistry()

	// FetchTotal counts fetch cycles by result (success/failure)
	FetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_total",
			Help:      "Total number of garage count fetch cycles.",
		},
		[]string{"result"},
	)

	// FetchFailures counts failed cycles by stage (fetch/parse)
	FetchFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_failures_total",
			Help:      "Failed garage count fetch cycles by stage.",
		},
		[]string{"stage"},
	)

	// FetchDuration records how long a fetch and parse cycle takes
	FetchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Latency of fetching and parsing the garage count page.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// CacheHits counts refreshes answered from the cached snapshot
	CacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Refreshes served from the cached garage snapshot.",
		},
	)

	// Garages is the number of garages in the current snapshot
	Garages = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "garages",
			Help:      "Number of garages in the cached snapshot.",
		},
	)

	// CommandTotal counts dispatched chat commands by name and outcome
	CommandTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "command_total",
			Help:      "Chat commands dispatched, by command and outcome.",
		},
		[]string{"command", "outcome"}, // outcome: ok/denied/invalid/error
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		FetchTotal,
		FetchFailures,
		FetchDuration,
		CacheHits,
		Garages,
		CommandTotal,
	)
}

// Handler serves the registry in the Prometheus exposition format
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
