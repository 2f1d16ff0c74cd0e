package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mrscrape/docbench/internal/common/benchmarkerrors"
)

const namespace = "docbench"

// Observer receives live per-operation events from the driver, in addition to the Collector.
type Observer interface {
	ObserveLatency(operation string, latency time.Duration)
	ObserveFailure(operation string, kind benchmarkerrors.Kind)
	InFlight(operation string, delta float64)
}

type nopObserver struct{}

func (nopObserver) ObserveLatency(string, time.Duration)        {}
func (nopObserver) ObserveFailure(string, benchmarkerrors.Kind) {}
func (nopObserver) InFlight(string, float64)                    {}

// NopObserver discards every event.
var NopObserver Observer = nopObserver{}

// PrometheusRecorder owns the docbench operation metrics.
type PrometheusRecorder struct {
	latency  *prometheus.HistogramVec
	failures *prometheus.CounterVec
	inFlight *prometheus.GaugeVec
}

func NewPrometheusRecorder(registerer prometheus.Registerer) *PrometheusRecorder {
	r := &PrometheusRecorder{
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_latency_seconds",
				Help:      "Latency of successful benchmark operations",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 16),
			},
			[]string{"scenario", "store", "operation"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operation_failures_total",
				Help:      "Number of failed benchmark operations by error kind",
			},
			[]string{"scenario", "store", "operation", "kind"},
		),
		inFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "operations_in_flight",
				Help:      "Number of benchmark operations currently executing",
			},
			[]string{"scenario", "store", "operation"},
		),
	}
	registerer.MustRegister(r.latency, r.failures, r.inFlight)
	return r
}

// Observer returns an Observer whose events are labelled with the given scenario and store.
func (r *PrometheusRecorder) Observer(scenario, store string) Observer {
	return &labelledObserver{recorder: r, scenario: scenario, store: store}
}

type labelledObserver struct {
	recorder *PrometheusRecorder
	scenario string
	store    string
}

func (o *labelledObserver) ObserveLatency(operation string, latency time.Duration) {
	o.recorder.latency.WithLabelValues(o.scenario, o.store, operation).Observe(latency.Seconds())
}

func (o *labelledObserver) ObserveFailure(operation string, kind benchmarkerrors.Kind) {
	o.recorder.failures.WithLabelValues(o.scenario, o.store, operation, string(kind)).Inc()
}

func (o *labelledObserver) InFlight(operation string, delta float64) {
	o.recorder.inFlight.WithLabelValues(o.scenario, o.store, operation).Add(delta)
}
