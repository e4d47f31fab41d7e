package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service configuration, loaded once at startup from the
// environment and treated as immutable afterwards.
type Config struct {
	Service   ServiceConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Gemini    GeminiConfig
	Storage   StorageConfig
	HTTP      HTTPConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
	Tracing   TracingConfig
	Profiling ProfilingConfig
}

type ServiceConfig struct {
	Name    string
	Version string
	Env     string
	Port    string

	ShutdownTimeoutSeconds     int
	ReadinessDrainDelaySeconds int
}

type DatabaseConfig struct {
	URL string
}

// AuthConfig configures the external identity provider. When URL is empty the
// service falls back to the self-hosted Postgres-backed provider.
type AuthConfig struct {
	URL string
	Key string
}

type GeminiConfig struct {
	APIKey string
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	Bucket    string
	// PublicURL is the base URL under which uploaded objects are publicly
	// reachable. Defaults to <Endpoint>/<Bucket> when unset.
	PublicURL string
}

type HTTPConfig struct {
	// AllowedOrigin is the single origin allowed for credentialed CORS.
	AllowedOrigin string
	// MaxBodyBytes caps request bodies. Image payloads travel as JSON, so the
	// default is deliberately large.
	MaxBodyBytes int64
}

type RateLimitConfig struct {
	// Window and Max express the classic fixed-window contract: Max requests
	// per client IP per Window.
	WindowSeconds int
	Max           int
}

type LoggingConfig struct {
	Level string
}

type TracingConfig struct {
	Enabled    bool
	Endpoint   string
	SampleRate float64
}

type ProfilingConfig struct {
	Enabled  bool
	Endpoint string
}

// Load reads configuration from the environment. A .env file is honored when
// present (local development); real deployments set variables directly.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Service: ServiceConfig{
			Name:                       getEnv("SERVICE_NAME", "imagegen-service"),
			Version:                    getEnv("SERVICE_VERSION", "dev"),
			Env:                        getEnv("APP_ENV", "development"),
			Port:                       getEnv("PORT", "5000"),
			ShutdownTimeoutSeconds:     getEnvInt("SHUTDOWN_TIMEOUT", 15),
			ReadinessDrainDelaySeconds: getEnvInt("READINESS_DRAIN_DELAY", 0),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Auth: AuthConfig{
			URL: os.Getenv("SUPABASE_URL"),
			Key: os.Getenv("SUPABASE_KEY"),
		},
		Gemini: GeminiConfig{
			APIKey: os.Getenv("GEMINI_API_KEY"),
		},
		Storage: StorageConfig{
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
			Region:    getEnv("S3_REGION", "us-east-1"),
			Bucket:    getEnv("S3_BUCKET", "generations"),
			PublicURL: os.Getenv("S3_PUBLIC_URL"),
		},
		HTTP: HTTPConfig{
			AllowedOrigin: getEnv("FRONTEND_URL", "http://localhost:5173"),
			MaxBodyBytes:  getEnvInt64("MAX_BODY_BYTES", 10<<20),
		},
		RateLimit: RateLimitConfig{
			WindowSeconds: getEnvInt("RATE_LIMIT_WINDOW", 900),
			Max:           getEnvInt("RATE_LIMIT_MAX", 200),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Tracing: TracingConfig{
			Enabled:    getEnvBool("TRACING_ENABLED", false),
			Endpoint:   getEnv("TRACING_ENDPOINT", "localhost:4318"),
			SampleRate: getEnvFloat("TRACING_SAMPLE_RATE", 1.0),
		},
		Profiling: ProfilingConfig{
			Enabled:  getEnvBool("PROFILING_ENABLED", false),
			Endpoint: getEnv("PROFILING_ENDPOINT", "http://localhost:4040"),
		},
	}
}

// Validate checks invariants that would otherwise surface as confusing
// runtime failures.
func (c *Config) Validate() error {
	// The self-hosted identity provider is the fallback when no external
	// identity service is configured, and it cannot run without Postgres.
	if c.Auth.URL == "" && c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required when SUPABASE_URL is not set")
	}
	if c.Auth.URL != "" && c.Auth.Key == "" {
		return fmt.Errorf("SUPABASE_KEY is required when SUPABASE_URL is set")
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive")
	}
	if c.RateLimit.WindowSeconds <= 0 || c.RateLimit.Max <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW and RATE_LIMIT_MAX must be positive")
	}
	return nil
}

// IsProduction reports whether the service runs with production hardening
// (secure cookies, release-mode router).
func (c *Config) IsProduction() bool {
	return c.Service.Env == "production"
}

func (c *Config) GetShutdownTimeoutDuration() time.Duration {
	return time.Duration(c.Service.ShutdownTimeoutSeconds) * time.Second
}

func (c *Config) GetReadinessDrainDelayDuration() time.Duration {
	return time.Duration(c.Service.ReadinessDrainDelaySeconds) * time.Second
}

func (c *Config) GetRateLimitWindowDuration() time.Duration {
	return time.Duration(c.RateLimit.WindowSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
