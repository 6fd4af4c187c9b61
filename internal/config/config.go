package config

import (
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

// Environment identifies the deployment environment.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// Config represents the application configuration
type Config struct {
	AppName     string      `yaml:"app_name"`
	Version     string      `yaml:"version"`
	Environment Environment `yaml:"environment"`
	Debug       bool        `yaml:"debug"`
	LogLevel    string      `yaml:"log_level"`

	OpenAIKey   string `yaml:"openai_key"`
	DatabaseURL string `yaml:"database_url"`
	JWTSecret   string `yaml:"jwt_secret"`
	USDAAPIKey  string `yaml:"usda_api_key"`

	Model struct {
		Name        string  `yaml:"name"`
		Fallback    string  `yaml:"fallback"`
		MaxTokens   int     `yaml:"max_tokens"`
		Temperature float64 `yaml:"temperature"`
	} `yaml:"model"`

	Limits struct {
		DailyCostLimit      float64 `yaml:"daily_cost_limit"`
		RequestLimitPerHour int     `yaml:"request_limit_per_hour"`
	} `yaml:"limits"`

	Features struct {
		ContentFilter bool `yaml:"content_filter"`
		Monitoring    bool `yaml:"monitoring"`
	} `yaml:"features"`

	Storage struct {
		ProfilesDir string `yaml:"profiles_dir"`
	} `yaml:"storage"`
}

// Load reads the config file (if present), applies environment defaults,
// and overlays environment variables. A missing file is not an error: the
// service can run entirely from environment variables.
func Load(path string) (*Config, error) {
	cfg := defaults(detectEnvironment())

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// detectEnvironment reads ENVIRONMENT, defaulting to development.
func detectEnvironment() Environment {
	name := os.Getenv("ENVIRONMENT")
	switch Environment(name) {
	case EnvDevelopment, EnvStaging, EnvProduction:
		return Environment(name)
	case "":
		return EnvDevelopment
	default:
		log.Printf("Unknown environment %q, defaulting to development", name)
		return EnvDevelopment
	}
}

// defaults returns the environment-specific base configuration.
func defaults(env Environment) *Config {
	cfg := &Config{
		AppName:     "Mealwise",
		Version:     "3.0.0",
		Environment: env,
	}
	cfg.Model.Name = "gpt-3.5-turbo"
	cfg.Model.Fallback = "gpt-3.5-turbo"
	cfg.Model.Temperature = 0.7
	cfg.Storage.ProfilesDir = "data/profiles"

	switch env {
	case EnvProduction:
		cfg.LogLevel = "warning"
		cfg.Model.MaxTokens = 800
		cfg.Limits.DailyCostLimit = 0.17
		cfg.Limits.RequestLimitPerHour = 20
		cfg.Features.ContentFilter = true
		cfg.Features.Monitoring = true
	case EnvStaging:
		cfg.Debug = true
		cfg.LogLevel = "info"
		cfg.Model.MaxTokens = 1000
		cfg.Limits.DailyCostLimit = 0.50
		cfg.Limits.RequestLimitPerHour = 50
		cfg.Features.ContentFilter = true
		cfg.Features.Monitoring = true
	default: // development
		cfg.Debug = true
		cfg.LogLevel = "debug"
		cfg.Model.MaxTokens = 1000
		cfg.Limits.DailyCostLimit = 1.00
		cfg.Limits.RequestLimitPerHour = 100
	}

	return cfg
}

// applyEnvOverrides overlays secrets and connection strings from the
// environment so they never need to live in the config file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAIKey = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("USDA_API_KEY"); v != "" {
		cfg.USDAAPIKey = v
	}
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// MonthlyCostLimit derives the monthly budget from the daily limit.
func (c *Config) MonthlyCostLimit() float64 {
	return c.Limits.DailyCostLimit * 30
}
