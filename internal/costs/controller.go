package costs

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jinzhu/gorm"

	"mealwise/internal/models"
)

// Per-token pricing in USD.
type pricing struct {
	input  float64
	output float64
}

var modelPricing = map[string]pricing{
	"gpt-4":         {input: 0.03 / 1000, output: 0.06 / 1000},
	"gpt-4-turbo":   {input: 0.01 / 1000, output: 0.03 / 1000},
	"gpt-3.5-turbo": {input: 0.0005 / 1000, output: 0.0015 / 1000},
}

// Summary reports budget consumption.
type Summary struct {
	DailyUsage       float64 `json:"daily_usage"`
	DailyLimit       float64 `json:"daily_limit"`
	DailyRemaining   float64 `json:"daily_remaining"`
	DailyPercent     float64 `json:"daily_percent"`
	MonthlyUsage     float64 `json:"monthly_usage"`
	MonthlyLimit     float64 `json:"monthly_limit"`
	MonthlyRemaining float64 `json:"monthly_remaining"`
	MonthlyPercent   float64 `json:"monthly_percent"`
}

// UsageRecord describes one API call for logging.
type UsageRecord struct {
	Model        string
	InputTokens  int
	OutputTokens int
	RequestType  string
	ProfileName  string
	Success      bool
	ErrorMessage string
}

// Controller tracks API spend against daily and monthly budgets and
// enforces the hourly request limit. Usage is written to the database
// when one is available; an in-memory window keeps the limits working
// without one.
type Controller struct {
	dailyLimit   float64
	monthlyLimit float64
	hourlyLimit  int

	db func() *gorm.DB

	mu       sync.Mutex
	requests []time.Time
	spend    []spendEntry
}

type spendEntry struct {
	at   time.Time
	cost float64
}

// NewController creates a cost controller. dbFn returns the current
// database handle or nil when the service runs on JSON storage only.
func NewController(dailyLimit float64, hourlyLimit int, dbFn func() *gorm.DB) *Controller {
	if dbFn == nil {
		dbFn = func() *gorm.DB { return nil }
	}
	return &Controller{
		dailyLimit:   dailyLimit,
		monthlyLimit: dailyLimit * 30,
		hourlyLimit:  hourlyLimit,
		db:           dbFn,
	}
}

// EstimateCost estimates the dollar cost of a call. Unknown models are
// priced as gpt-3.5-turbo.
func (c *Controller) EstimateCost(model string, inputTokens, outputTokens int) float64 {
	p, ok := modelPricing[model]
	if !ok {
		p = modelPricing["gpt-3.5-turbo"]
	}
	return float64(inputTokens)*p.input + float64(outputTokens)*p.output
}

// CanMakeRequest reports whether a request of the estimated cost fits
// the configured limits, with a reason when it does not.
func (c *Controller) CanMakeRequest(estimatedCost float64) (bool, string) {
	if !c.withinHourlyLimit() {
		return false, fmt.Sprintf("hourly rate limit exceeded (%d requests/hour)", c.hourlyLimit)
	}
	if c.DailyUsage()+estimatedCost > c.dailyLimit {
		return false, fmt.Sprintf("daily budget limit reached ($%.2f)", c.dailyLimit)
	}
	if c.MonthlyUsage()+estimatedCost > c.monthlyLimit {
		return false, fmt.Sprintf("monthly budget limit reached ($%.2f)", c.monthlyLimit)
	}
	return true, ""
}

func (c *Controller) withinHourlyLimit() bool {
	cutoff := time.Now().Add(-time.Hour)

	c.mu.Lock()
	kept := c.requests[:0]
	for _, ts := range c.requests {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	c.requests = kept
	inMemory := len(c.requests)
	c.mu.Unlock()

	if db := c.db(); db != nil {
		var count int
		err := db.Model(&models.APIUsage{}).
			Where("created_at >= ?", cutoff).
			Count(&count).Error
		if err == nil {
			return count < c.hourlyLimit
		}
		log.Printf("Error checking rate limit: %v", err)
	}

	return inMemory < c.hourlyLimit
}

// DailyUsage returns the total cost recorded since midnight.
func (c *Controller) DailyUsage() float64 {
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return c.usageSince(midnight)
}

// MonthlyUsage returns the total cost recorded since the first of the month.
func (c *Controller) MonthlyUsage() float64 {
	now := time.Now()
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return c.usageSince(firstOfMonth)
}

func (c *Controller) usageSince(cutoff time.Time) float64 {
	if db := c.db(); db != nil {
		type row struct{ Total float64 }
		var r row
		err := db.Model(&models.APIUsage{}).
			Select("COALESCE(SUM(estimated_cost), 0) as total").
			Where("created_at >= ?", cutoff).
			Scan(&r).Error
		if err == nil {
			return r.Total
		}
		log.Printf("Error querying usage: %v", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var total float64
	for _, e := range c.spend {
		if e.at.After(cutoff) {
			total += e.cost
		}
	}
	return total
}

// LogUsage records an API call for budget tracking.
func (c *Controller) LogUsage(rec UsageRecord) {
	cost := c.EstimateCost(rec.Model, rec.InputTokens, rec.OutputTokens)
	now := time.Now()

	c.mu.Lock()
	c.requests = append(c.requests, now)
	c.spend = append(c.spend, spendEntry{at: now, cost: cost})
	// Entries older than the monthly window never count toward a limit.
	cutoff := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	kept := c.spend[:0]
	for _, e := range c.spend {
		if e.at.After(cutoff) || e.at.Equal(cutoff) {
			kept = append(kept, e)
		}
	}
	c.spend = kept
	c.mu.Unlock()

	if db := c.db(); db != nil {
		usage := models.APIUsage{
			ModelName:     rec.Model,
			TokensUsed:    rec.InputTokens + rec.OutputTokens,
			EstimatedCost: cost,
			RequestType:   rec.RequestType,
			ProfileName:   rec.ProfileName,
			Success:       rec.Success,
			ErrorMessage:  rec.ErrorMessage,
		}
		if err := db.Create(&usage).Error; err != nil {
			log.Printf("Error logging usage to database: %v", err)
		}
	}

	if daily := c.DailyUsage(); daily > c.dailyLimit*0.8 {
		log.Printf("Approaching daily limit: $%.4f / $%.2f", daily, c.dailyLimit)
	}
}

// GetSummary returns the current budget consumption.
func (c *Controller) GetSummary() Summary {
	daily := c.DailyUsage()
	monthly := c.MonthlyUsage()

	s := Summary{
		DailyUsage:   daily,
		DailyLimit:   c.dailyLimit,
		MonthlyUsage: monthly,
		MonthlyLimit: c.monthlyLimit,
	}
	if remaining := c.dailyLimit - daily; remaining > 0 {
		s.DailyRemaining = remaining
	}
	if remaining := c.monthlyLimit - monthly; remaining > 0 {
		s.MonthlyRemaining = remaining
	}
	if c.dailyLimit > 0 {
		s.DailyPercent = daily / c.dailyLimit * 100
	}
	if c.monthlyLimit > 0 {
		s.MonthlyPercent = monthly / c.monthlyLimit * 100
	}
	return s
}
