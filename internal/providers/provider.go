package providers

import "context"

// Usage reports token consumption for a single completion.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Total returns the combined token count.
func (u Usage) Total() int {
	return u.InputTokens + u.OutputTokens
}

// Provider interface for LLM providers
type Provider interface {
	Complete(ctx context.Context, system, user string) (string, Usage, error)
	SetTemperature(temp float64)
	SetMaxTokens(tokens int)
	ModelName() string
}
