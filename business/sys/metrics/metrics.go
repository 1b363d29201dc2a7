// Package metrics constructs the metrics the application will track.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Source provides the ledger values reported as gauges.
type Source interface {
	QueryMempoolLength() int
	ChainLength() int
	Difficulty() int
}

// Metrics holds the set of counters the node reports and the registry
// they are exposed through.
type Metrics struct {
	registry *prometheus.Registry
	requests prometheus.Counter
	errors   prometheus.Counter
	panics   prometheus.Counter
}

// New constructs the metrics with a private registry. When a source is
// provided, gauges for the chain height, pending pool size and difficulty
// are read from it at scrape time.
func New(src Source) *Metrics {
	m := Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "doniyorcoin",
			Name:      "requests_total",
			Help:      "Total count of HTTP requests handled.",
		}),
		errors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "doniyorcoin",
			Name:      "errors_total",
			Help:      "Total count of HTTP requests that returned an error.",
		}),
		panics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "doniyorcoin",
			Name:      "panics_total",
			Help:      "Total count of panics recovered in handlers.",
		}),
	}

	m.registry.MustRegister(
		m.requests,
		m.errors,
		m.panics,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if src != nil {
		m.registry.MustRegister(
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: "doniyorcoin",
				Name:      "chain_height",
				Help:      "Number of blocks in the chain including genesis.",
			}, func() float64 { return float64(src.ChainLength()) }),
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: "doniyorcoin",
				Name:      "pending_transactions",
				Help:      "Number of transactions waiting to be mined.",
			}, func() float64 { return float64(src.QueryMempoolLength()) }),
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: "doniyorcoin",
				Name:      "difficulty",
				Help:      "Leading zero hex digits required of a block hash.",
			}, func() float64 { return float64(src.Difficulty()) }),
		)
	}

	return &m
}

// AddRequest increments the request count by 1.
func (m *Metrics) AddRequest() {
	if m == nil {
		return
	}
	m.requests.Inc()
}

// AddError increments the error count by 1.
func (m *Metrics) AddError() {
	if m == nil {
		return
	}
	m.errors.Inc()
}

// AddPanic increments the panic count by 1.
func (m *Metrics) AddPanic() {
	if m == nil {
		return
	}
	m.panics.Inc()
}

// Handler returns the http handler serving the registry in the
// prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the registry for inspection.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
