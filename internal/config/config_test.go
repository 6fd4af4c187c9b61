package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDevelopmentDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("USDA_API_KEY", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Environment != EnvDevelopment {
		t.Errorf("Environment = %q, want development", cfg.Environment)
	}
	if !cfg.Debug {
		t.Error("Debug should be on in development")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.Model.Name != "gpt-3.5-turbo" {
		t.Errorf("Model.Name = %q", cfg.Model.Name)
	}
	if cfg.Model.MaxTokens != 1000 {
		t.Errorf("MaxTokens = %d, want 1000", cfg.Model.MaxTokens)
	}
	if cfg.Limits.DailyCostLimit != 1.00 {
		t.Errorf("DailyCostLimit = %v, want 1.00", cfg.Limits.DailyCostLimit)
	}
	if cfg.Limits.RequestLimitPerHour != 100 {
		t.Errorf("RequestLimitPerHour = %d, want 100", cfg.Limits.RequestLimitPerHour)
	}
	if cfg.Features.ContentFilter {
		t.Error("ContentFilter should be off in development")
	}
	if cfg.IsProduction() {
		t.Error("IsProduction should be false")
	}
}

func TestLoadProductionDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !cfg.IsProduction() {
		t.Error("IsProduction should be true")
	}
	if cfg.Debug {
		t.Error("Debug should be off in production")
	}
	if cfg.LogLevel != "warning" {
		t.Errorf("LogLevel = %q, want warning", cfg.LogLevel)
	}
	if cfg.Model.MaxTokens != 800 {
		t.Errorf("MaxTokens = %d, want 800", cfg.Model.MaxTokens)
	}
	if cfg.Limits.DailyCostLimit != 0.17 {
		t.Errorf("DailyCostLimit = %v, want 0.17", cfg.Limits.DailyCostLimit)
	}
	if cfg.Limits.RequestLimitPerHour != 20 {
		t.Errorf("RequestLimitPerHour = %d, want 20", cfg.Limits.RequestLimitPerHour)
	}
	if !cfg.Features.ContentFilter || !cfg.Features.Monitoring {
		t.Error("content filter and monitoring should be on in production")
	}
}

func TestLoadStagingDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "staging")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Limits.DailyCostLimit != 0.50 {
		t.Errorf("DailyCostLimit = %v, want 0.50", cfg.Limits.DailyCostLimit)
	}
	if cfg.Limits.RequestLimitPerHour != 50 {
		t.Errorf("RequestLimitPerHour = %d, want 50", cfg.Limits.RequestLimitPerHour)
	}
	if !cfg.Features.ContentFilter {
		t.Error("ContentFilter should be on in staging")
	}
}

func TestLoadUnknownEnvironmentFallsBackToDevelopment(t *testing.T) {
	t.Setenv("ENVIRONMENT", "canary")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Environment != EnvDevelopment {
		t.Errorf("Environment = %q, want development for unknown value", cfg.Environment)
	}
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	t.Setenv("ENVIRONMENT", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load with missing file: %v", err)
	}
	if cfg.AppName != "Mealwise" {
		t.Errorf("AppName = %q", cfg.AppName)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
model:
  name: gpt-4
  max_tokens: 600
limits:
  daily_cost_limit: 2.5
storage:
  profiles_dir: /tmp/profiles
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Model.Name != "gpt-4" {
		t.Errorf("Model.Name = %q, want gpt-4", cfg.Model.Name)
	}
	if cfg.Model.MaxTokens != 600 {
		t.Errorf("MaxTokens = %d, want 600", cfg.Model.MaxTokens)
	}
	if cfg.Limits.DailyCostLimit != 2.5 {
		t.Errorf("DailyCostLimit = %v, want 2.5", cfg.Limits.DailyCostLimit)
	}
	if cfg.Storage.ProfilesDir != "/tmp/profiles" {
		t.Errorf("ProfilesDir = %q", cfg.Storage.ProfilesDir)
	}
	// Untouched defaults should survive a partial file.
	if cfg.Limits.RequestLimitPerHour != 100 {
		t.Errorf("RequestLimitPerHour = %d, want development default 100", cfg.Limits.RequestLimitPerHour)
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("model: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load should fail on malformed YAML")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("OPENAI_API_KEY", "sk-test-123")
	t.Setenv("DATABASE_URL", "postgres://localhost/mealwise")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("USDA_API_KEY", "usda-key")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.OpenAIKey != "sk-test-123" {
		t.Errorf("OpenAIKey = %q", cfg.OpenAIKey)
	}
	if cfg.DatabaseURL != "postgres://localhost/mealwise" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.JWTSecret != "secret" {
		t.Errorf("JWTSecret = %q", cfg.JWTSecret)
	}
	if cfg.USDAAPIKey != "usda-key" {
		t.Errorf("USDAAPIKey = %q", cfg.USDAAPIKey)
	}
}

func TestMonthlyCostLimit(t *testing.T) {
	cfg := defaults(EnvProduction)
	if got := cfg.MonthlyCostLimit(); math.Abs(got-5.1) > 1e-9 {
		t.Errorf("MonthlyCostLimit = %v, want 5.1", got)
	}
}
