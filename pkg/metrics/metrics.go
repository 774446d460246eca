package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the Prometheus instruments used by the service. A nil
// *Metrics is valid and records nothing, so wiring stays optional in tests.
type Metrics struct {
	registry *prometheus.Registry

	ChatTurns       *prometheus.CounterVec
	ToolInvocations *prometheus.CounterVec
	ModelLatency    prometheus.Histogram
}

func New(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		ChatTurns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_turns_total",
			Help:      "Agent chat turns by outcome.",
		}, []string{"outcome"}),
		ToolInvocations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_invocations_total",
			Help:      "Tool invocations by tool name and outcome.",
		}, []string{"tool", "outcome"}),
		ModelLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_latency_seconds",
			Help:      "Latency of model inference calls.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
	}
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveTurn(outcome string) {
	if m == nil {
		return
	}
	m.ChatTurns.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveTool(tool, outcome string) {
	if m == nil {
		return
	}
	m.ToolInvocations.WithLabelValues(tool, outcome).Inc()
}

func (m *Metrics) ObserveModelLatency(d time.Duration) {
	if m == nil {
		return
	}
	m.ModelLatency.Observe(d.Seconds())
}
