package agents

import (
	"context"
	"sync"
	"time"

	"mealwise/internal/providers"
	"mealwise/internal/resilience"
)

// AgentRole identifies an agent in the recommendation pipeline.
type AgentRole string

const (
	RoleProfileManager AgentRole = "profile_manager"
	RoleNutritionist   AgentRole = "nutritionist"
	RoleRestaurant     AgentRole = "restaurant"
	RoleCoordinator    AgentRole = "coordinator"
)

// DisplayName returns the human-readable agent name used in session
// summaries and progress events.
func (r AgentRole) DisplayName() string {
	switch r {
	case RoleProfileManager:
		return "Profile Manager Agent"
	case RoleNutritionist:
		return "Nutritionist Agent"
	case RoleRestaurant:
		return "Restaurant Agent"
	case RoleCoordinator:
		return "Coordinator Agent"
	default:
		return string(r)
	}
}

// StepTimeout bounds each agent call in the pipeline.
const StepTimeout = 45 * time.Second

// Agent wraps an LLM provider with a role-specific system prompt. Calls
// go through a shared circuit breaker and retry policy.
type Agent struct {
	role    AgentRole
	prompt  string
	model   providers.Provider
	breaker *resilience.CircuitBreaker
	retrier *resilience.Retrier
}

// NewAgent creates an agent for the given role.
func NewAgent(role AgentRole, prompt string, model providers.Provider, breaker *resilience.CircuitBreaker, retrier *resilience.Retrier) *Agent {
	return &Agent{
		role:    role,
		prompt:  prompt,
		model:   model,
		breaker: breaker,
		retrier: retrier,
	}
}

// Role returns the agent's role.
func (a *Agent) Role() AgentRole {
	return a.role
}

// Run sends the request to the model under the step timeout, retrying
// transient failures and respecting the circuit breaker.
func (a *Agent) Run(ctx context.Context, request string) (string, providers.Usage, error) {
	ctx, cancel := context.WithTimeout(ctx, StepTimeout)
	defer cancel()

	var (
		output string
		usage  providers.Usage
	)

	err := a.retrier.Do(ctx, func() error {
		return a.breaker.Call(func() error {
			text, u, err := a.model.Complete(ctx, a.prompt, request)
			if err != nil {
				return err
			}
			output, usage = text, u
			return nil
		})
	})

	return output, usage, err
}

// Session records what happened during one pipeline run.
type Session struct {
	ID                string   `json:"id"`
	UserGoal          string   `json:"user_goal"`
	AgentsUsed        []string `json:"agents_used"`
	Errors            []string `json:"errors"`
	FallbackTriggered bool     `json:"fallback_triggered"`
	TokensUsed        int      `json:"tokens_used"`

	// Token split kept for cost accounting; input and output tokens
	// are priced differently.
	InputTokens  int `json:"-"`
	OutputTokens int `json:"-"`

	mu sync.Mutex
}

func (s *Session) recordAgent(role AgentRole) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.AgentsUsed = append(s.AgentsUsed, role.DisplayName())
}

func (s *Session) recordError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Errors = append(s.Errors, msg)
}

func (s *Session) recordUsage(u providers.Usage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.TokensUsed += u.Total()
	s.InputTokens += u.InputTokens
	s.OutputTokens += u.OutputTokens
}
