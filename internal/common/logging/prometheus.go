package logging

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// PrometheusHook is a zerolog.Hook counting log lines per level, so warnings raised mid-benchmark
// (failed phases, amount mismatches) are visible next to the phase metrics.
type PrometheusHook struct {
	lines *prometheus.CounterVec
}

func NewPrometheusHook(registerer prometheus.Registerer) *PrometheusHook {
	lines := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "docbench",
		Name:      "log_lines_total",
		Help:      "Number of log lines written, by level",
	}, []string{"level"})
	registerer.MustRegister(lines)
	return &PrometheusHook{lines: lines}
}

func (h *PrometheusHook) Run(_ *zerolog.Event, level zerolog.Level, _ string) {
	if level == zerolog.NoLevel || level == zerolog.Disabled {
		return
	}
	h.lines.WithLabelValues(level.String()).Inc()
}
