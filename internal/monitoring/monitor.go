package monitoring

import (
	"sync"
	"time"
)

// Monitor collects and provides lightweight in-process metrics for the
// JSON metrics endpoint. Prometheus collectors live in MetricsCollector;
// this keeps human-readable counters the API can return directly.
type Monitor struct {
	metrics      map[string]interface{}
	metricsMutex sync.RWMutex
	startTime    time.Time
}

// NewMonitor creates a new monitoring instance
func NewMonitor() *Monitor {
	return &Monitor{
		metrics:   make(map[string]interface{}),
		startTime: time.Now(),
	}
}

// RecordMetric records a metric value
func (m *Monitor) RecordMetric(name string, value interface{}) {
	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()
	m.metrics[name] = value
}

// GetMetric returns a specific metric value
func (m *Monitor) GetMetric(name string) (interface{}, bool) {
	m.metricsMutex.RLock()
	defer m.metricsMutex.RUnlock()
	value, exists := m.metrics[name]
	return value, exists
}

// GetMetrics returns all current metrics
func (m *Monitor) GetMetrics() map[string]interface{} {
	m.metricsMutex.RLock()
	defer m.metricsMutex.RUnlock()

	// Create a copy to avoid concurrent map access
	metrics := make(map[string]interface{}, len(m.metrics))
	for k, v := range m.metrics {
		metrics[k] = v
	}

	// Add system metrics
	metrics["uptime_seconds"] = time.Since(m.startTime).Seconds()

	return metrics
}

// Reset clears all metrics
func (m *Monitor) Reset() {
	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()
	m.metrics = make(map[string]interface{})
}

// RecordRequest records the outcome of a served request
func (m *Monitor) RecordRequest(requestType string, duration time.Duration, success bool) {
	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()

	prefix := requestType + "_"
	m.incr(prefix + "requests_total")
	if !success {
		m.incr(prefix + "requests_failed")
	}
	m.metrics[prefix+"last_duration_seconds"] = duration.Seconds()
	m.metrics[prefix+"last_request_at"] = time.Now().Format(time.RFC3339)
}

// RecordPipelineResult records the outcome of a recommendation pipeline run
func (m *Monitor) RecordPipelineResult(agentsUsed int, tokensUsed int, fallback bool) {
	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()

	m.incr("pipeline_runs_total")
	if fallback {
		m.incr("pipeline_fallbacks_total")
	}
	m.addInt("pipeline_tokens_total", tokensUsed)
	m.metrics["pipeline_last_agents_used"] = agentsUsed
}

func (m *Monitor) incr(name string) {
	m.addInt(name, 1)
}

func (m *Monitor) addInt(name string, delta int) {
	if v, ok := m.metrics[name].(int); ok {
		m.metrics[name] = v + delta
	} else {
		m.metrics[name] = delta
	}
}
