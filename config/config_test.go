package config

import (
	"testing"
)

func baseConfig() *Config {
	cfg := Load()
	cfg.Database.URL = "postgres://localhost/app"
	cfg.Auth.URL = ""
	cfg.Auth.Key = ""
	return cfg
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "MAX_BODY_BYTES", "RATE_LIMIT_WINDOW", "RATE_LIMIT_MAX"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Service.Port == "" {
		t.Error("port default missing")
	}
	if cfg.HTTP.MaxBodyBytes != 10<<20 {
		t.Errorf("max body %d, want 10MiB default", cfg.HTTP.MaxBodyBytes)
	}
	if cfg.RateLimit.WindowSeconds != 900 || cfg.RateLimit.Max != 200 {
		t.Errorf("rate limit %d/%ds, want 200 per 15 minutes",
			cfg.RateLimit.Max, cfg.RateLimit.WindowSeconds)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("APP_ENV", "production")
	t.Setenv("RATE_LIMIT_MAX", "50")

	cfg := Load()

	if cfg.Service.Port != "8080" {
		t.Errorf("port %q", cfg.Service.Port)
	}
	if !cfg.IsProduction() {
		t.Error("want production mode")
	}
	if cfg.RateLimit.Max != 50 {
		t.Errorf("rate limit max %d", cfg.RateLimit.Max)
	}
}

func TestValidateDatabaseRequiredForLocalAuth(t *testing.T) {
	cfg := baseConfig()
	cfg.Database.URL = ""

	if err := cfg.Validate(); err == nil {
		t.Error("want error: local auth cannot run without a database")
	}

	// A hosted identity service lifts the database requirement.
	cfg.Auth.URL = "https://project.supabase.co"
	cfg.Auth.Key = "service-key"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateHostedAuthNeedsKey(t *testing.T) {
	cfg := baseConfig()
	cfg.Auth.URL = "https://project.supabase.co"
	cfg.Auth.Key = ""

	if err := cfg.Validate(); err == nil {
		t.Error("want error: hosted auth without a key")
	}
}

func TestValidateLimits(t *testing.T) {
	cfg := baseConfig()
	cfg.HTTP.MaxBodyBytes = 0
	if err := cfg.Validate(); err == nil {
		t.Error("want error for zero body limit")
	}

	cfg = baseConfig()
	cfg.RateLimit.Max = 0
	if err := cfg.Validate(); err == nil {
		t.Error("want error for zero rate limit")
	}
}
