package costs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEstimateCostPerModel(t *testing.T) {
	c := NewController(1.00, 100, nil)

	cases := []struct {
		model  string
		input  int
		output int
		want   float64
	}{
		{"gpt-4", 1000, 1000, 0.03 + 0.06},
		{"gpt-4-turbo", 1000, 1000, 0.01 + 0.03},
		{"gpt-3.5-turbo", 1000, 1000, 0.0005 + 0.0015},
		// Unknown models priced as gpt-3.5-turbo
		{"some-future-model", 1000, 1000, 0.0005 + 0.0015},
		{"gpt-3.5-turbo", 0, 0, 0},
	}

	for _, tc := range cases {
		got := c.EstimateCost(tc.model, tc.input, tc.output)
		assert.InDelta(t, tc.want, got, 1e-9, "EstimateCost(%s, %d, %d)", tc.model, tc.input, tc.output)
	}
}

func TestCanMakeRequestWithinBudget(t *testing.T) {
	c := NewController(1.00, 100, nil)

	ok, reason := c.CanMakeRequest(0.01)
	assert.True(t, ok, "reason: %s", reason)
	assert.Empty(t, reason)
}

func TestCanMakeRequestDailyLimit(t *testing.T) {
	c := NewController(0.01, 100, nil)

	// Spend past the daily limit
	c.LogUsage(UsageRecord{Model: "gpt-4", InputTokens: 1000, OutputTokens: 1000, RequestType: "recommendation", Success: true})

	ok, reason := c.CanMakeRequest(0.01)
	assert.False(t, ok, "request should be blocked by the daily budget")
	assert.Contains(t, reason, "daily budget")
}

func TestCanMakeRequestHourlyLimit(t *testing.T) {
	c := NewController(100.00, 2, nil)

	c.LogUsage(UsageRecord{Model: "gpt-3.5-turbo", InputTokens: 10, OutputTokens: 10})
	c.LogUsage(UsageRecord{Model: "gpt-3.5-turbo", InputTokens: 10, OutputTokens: 10})

	ok, reason := c.CanMakeRequest(0.0001)
	assert.False(t, ok, "request should be blocked by the hourly rate limit")
	assert.Contains(t, reason, "hourly rate limit")
}

func TestLogUsagePrunesSpendOutsideMonthlyWindow(t *testing.T) {
	c := NewController(1.00, 100, nil)

	// Seed spend from two months ago; it never counts toward any limit
	// and should be dropped on the next log.
	c.spend = []spendEntry{{at: time.Now().AddDate(0, -2, 0), cost: 5.00}}

	c.LogUsage(UsageRecord{Model: "gpt-4", InputTokens: 1000, OutputTokens: 1000})

	assert.Len(t, c.spend, 1, "stale entries should be pruned")
	assert.InDelta(t, 0.09, c.MonthlyUsage(), 1e-9)
}

func TestGetSummary(t *testing.T) {
	c := NewController(1.00, 100, nil)

	c.LogUsage(UsageRecord{Model: "gpt-4", InputTokens: 1000, OutputTokens: 1000})

	s := c.GetSummary()
	assert.InDelta(t, 0.09, s.DailyUsage, 1e-9)
	assert.InDelta(t, 1.00, s.DailyLimit, 1e-9)
	assert.InDelta(t, 0.91, s.DailyRemaining, 1e-9)
	assert.InDelta(t, 9.0, s.DailyPercent, 1e-9)
	// Monthly limit derives from the daily limit
	assert.InDelta(t, 30.00, s.MonthlyLimit, 1e-9)
	assert.InDelta(t, 0.09, s.MonthlyUsage, 1e-9)
}
