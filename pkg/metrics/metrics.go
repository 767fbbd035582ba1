package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Recorder owns the service counters. A nil *Recorder records nothing.
type Recorder struct {
	registry *prometheus.Registry
	auth     *prometheus.CounterVec
	products *prometheus.CounterVec
}

func New() *Recorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	auth := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inventory",
		Name:      "auth_events_total",
		Help:      "Account lifecycle events by outcome.",
	}, []string{"event", "outcome"})

	products := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inventory",
		Name:      "product_operations_total",
		Help:      "Catalog mutations by outcome.",
	}, []string{"operation", "outcome"})

	registry.MustRegister(auth, products)

	return &Recorder{registry: registry, auth: auth, products: products}
}

func (r *Recorder) AuthEvent(event string, err error) {
	if r == nil {
		return
	}
	r.auth.WithLabelValues(event, outcome(err)).Inc()
}

func (r *Recorder) ProductOperation(op string, err error) {
	if r == nil {
		return
	}
	r.products.WithLabelValues(op, outcome(err)).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}
