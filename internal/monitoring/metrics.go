package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector handles Prometheus metrics collection and reporting
type MetricsCollector struct {
	registry *prometheus.Registry
	metrics  map[string]prometheus.Collector
}

// NewMetricsCollector creates a new metrics collector with its own registry
func NewMetricsCollector() *MetricsCollector {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "request_duration_seconds",
			Help:    "Time taken to serve requests",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
		[]string{"request_type"},
	)

	agentExecutions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_executions_total",
			Help: "Number of agent executions",
		},
		[]string{"agent", "success"},
	)

	agentDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agent_execution_seconds",
			Help:    "Time taken by individual agents",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 8),
		},
		[]string{"agent"},
	)

	apiCost := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_cost_dollars_total",
			Help: "Estimated API spend in dollars",
		},
		[]string{"model"},
	)

	tokensUsed := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_tokens_total",
			Help: "Tokens consumed by API calls",
		},
		[]string{"model"},
	)

	breakerState := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"breaker"},
	)

	metrics := map[string]prometheus.Collector{
		"request_duration": requestDuration,
		"agent_executions": agentExecutions,
		"agent_duration":   agentDuration,
		"api_cost":         apiCost,
		"tokens_used":      tokensUsed,
		"breaker_state":    breakerState,
	}

	for _, metric := range metrics {
		registry.MustRegister(metric)
	}

	return &MetricsCollector{
		registry: registry,
		metrics:  metrics,
	}
}

// Handler returns an HTTP handler exposing the registry in Prometheus format
func (mc *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(mc.registry, promhttp.HandlerOpts{})
}

// RecordRequest records the duration of a served request
func (mc *MetricsCollector) RecordRequest(requestType string, seconds float64) {
	if histogram, ok := mc.metrics["request_duration"].(*prometheus.HistogramVec); ok {
		histogram.WithLabelValues(requestType).Observe(seconds)
	}
}

// RecordAgentRun records an agent execution and its duration
func (mc *MetricsCollector) RecordAgentRun(agent string, seconds float64, success bool) {
	label := "true"
	if !success {
		label = "false"
	}
	if counter, ok := mc.metrics["agent_executions"].(*prometheus.CounterVec); ok {
		counter.WithLabelValues(agent, label).Inc()
	}
	if histogram, ok := mc.metrics["agent_duration"].(*prometheus.HistogramVec); ok {
		histogram.WithLabelValues(agent).Observe(seconds)
	}
}

// RecordAPIUsage records cost and token consumption for a model call
func (mc *MetricsCollector) RecordAPIUsage(model string, cost float64, tokens int) {
	if counter, ok := mc.metrics["api_cost"].(*prometheus.CounterVec); ok {
		counter.WithLabelValues(model).Add(cost)
	}
	if counter, ok := mc.metrics["tokens_used"].(*prometheus.CounterVec); ok {
		counter.WithLabelValues(model).Add(float64(tokens))
	}
}

// RecordBreakerState records the current state of a circuit breaker
func (mc *MetricsCollector) RecordBreakerState(breaker string, state float64) {
	if gauge, ok := mc.metrics["breaker_state"].(*prometheus.GaugeVec); ok {
		gauge.WithLabelValues(breaker).Set(state)
	}
}
