package models

import "github.com/jinzhu/gorm"

// APIUsage records a single model API call for cost accounting and
// rate limiting.
type APIUsage struct {
	gorm.Model
	ModelName     string  `gorm:"column:model_name" json:"model"`
	TokensUsed    int     `json:"tokens_used"`
	EstimatedCost float64 `json:"estimated_cost"`
	RequestType   string  `json:"request_type"`
	ProfileName   string  `json:"profile_name,omitempty"`
	Success       bool    `json:"success"`
	ErrorMessage  string  `json:"error_message,omitempty"`
}

// TableName sets the table name for APIUsage
func (APIUsage) TableName() string {
	return "api_usage"
}

// ErrorLog records an application error for later review.
type ErrorLog struct {
	gorm.Model
	ErrorType    string `json:"error_type"`
	ErrorMessage string `json:"error_message"`
	StackTrace   string `gorm:"type:text" json:"stack_trace,omitempty"`
	ProfileName  string `json:"profile_name,omitempty"`
	UserInput    string `json:"user_input,omitempty"`
	Severity     string `json:"severity"`
}

// TableName sets the table name for ErrorLog
func (ErrorLog) TableName() string {
	return "error_logs"
}

// SystemMetric records an application metric sample.
type SystemMetric struct {
	gorm.Model
	MetricName  string  `json:"metric_name"`
	MetricValue float64 `json:"metric_value"`
	MetricUnit  string  `json:"metric_unit"`
	TagsJSON    string  `gorm:"type:text" json:"-"`
}

// TableName sets the table name for SystemMetric
func (SystemMetric) TableName() string {
	return "system_metrics"
}
