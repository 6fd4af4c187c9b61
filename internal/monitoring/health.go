package monitoring

import (
	"strings"
	"time"
)

const Version = "3.0.0"

// Component health states, ordered by severity.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// ComponentHealth describes one checked subsystem.
type ComponentHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthReport is the full health-check response.
type HealthReport struct {
	Status     string                     `json:"status"`
	Version    string                     `json:"version"`
	Timestamp  string                     `json:"timestamp"`
	Components map[string]ComponentHealth `json:"components"`
}

// HealthChecker runs the component checks. The probes are injected so
// the checker stays decoupled from storage and cost wiring.
type HealthChecker struct {
	apiKey        string
	dbAvailable   func() bool
	budgetPercent func() float64
}

func NewHealthChecker(apiKey string, dbAvailable func() bool, budgetPercent func() float64) *HealthChecker {
	return &HealthChecker{
		apiKey:        apiKey,
		dbAvailable:   dbAvailable,
		budgetPercent: budgetPercent,
	}
}

// Check runs all component checks and derives the overall status. Any
// unhealthy component makes the service unhealthy; any degraded one
// makes it degraded.
func (h *HealthChecker) Check() *HealthReport {
	components := map[string]ComponentHealth{
		"database":   h.checkDatabase(),
		"openai_api": h.checkAPIKey(),
		"budget":     h.checkBudget(),
	}

	overall := StatusHealthy
	for _, c := range components {
		switch c.Status {
		case StatusUnhealthy:
			overall = StatusUnhealthy
		case StatusDegraded:
			if overall != StatusUnhealthy {
				overall = StatusDegraded
			}
		}
	}

	return &HealthReport{
		Status:     overall,
		Version:    Version,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Components: components,
	}
}

func (h *HealthChecker) checkDatabase() ComponentHealth {
	if h.dbAvailable == nil || !h.dbAvailable() {
		return ComponentHealth{
			Status:  StatusDegraded,
			Message: "database unavailable, using JSON file fallback",
		}
	}
	return ComponentHealth{Status: StatusHealthy, Message: "database connection OK"}
}

func (h *HealthChecker) checkAPIKey() ComponentHealth {
	if h.apiKey == "" {
		return ComponentHealth{Status: StatusUnhealthy, Message: "OpenAI API key not configured"}
	}
	if !strings.HasPrefix(h.apiKey, "sk-") {
		return ComponentHealth{Status: StatusUnhealthy, Message: "OpenAI API key looks invalid"}
	}
	return ComponentHealth{Status: StatusHealthy, Message: "API key configured"}
}

func (h *HealthChecker) checkBudget() ComponentHealth {
	if h.budgetPercent == nil {
		return ComponentHealth{Status: StatusHealthy}
	}
	percent := h.budgetPercent()
	if percent > 90 {
		return ComponentHealth{
			Status:  StatusDegraded,
			Message: "daily budget nearly exhausted",
		}
	}
	return ComponentHealth{Status: StatusHealthy, Message: "budget within limits"}
}
