package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry
	orders   *prometheus.CounterVec
}

// New registers pipeline metrics on a private registry. dropped reports how
// many log entries live subscribers have missed.
func New(dropped func() uint64) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "testnet_trader",
			Name:      "orders_submitted_total",
			Help:      "Order submissions by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(
		m.orders,
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "testnet_trader",
			Name:      "log_entries_dropped_total",
			Help:      "Log entries not delivered to a slow subscriber.",
		}, func() float64 { return float64(dropped()) }),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) RecordOutcome(outcome string) {
	m.orders.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
