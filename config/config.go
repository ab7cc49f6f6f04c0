package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mindmesh/mindmesh-client/internal/logging"
)

type Config struct {
	Server   ServerConfig
	Backend  BackendConfig
	Redis    RedisConfig
	Session  SessionConfig
	Decision DecisionConfig
	App      AppConfig
}

type ServerConfig struct {
	Port           string
	AllowedOrigins []string
	CookieSecure   bool
}

// BackendConfig describes the external MindMesh API the client talks to.
type BackendConfig struct {
	BaseURL      string
	Timeout      time.Duration
	DecisionPath string
	RateLimit    float64 // requests per second, 0 disables the limiter
	RateBurst    int
}

// RedisConfig is optional; an empty Addr selects the in-memory session store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type SessionConfig struct {
	TTL                time.Duration
	MaxEntries         int
	SweepSchedule      string
	RevalidateInterval time.Duration
}

type DecisionConfig struct {
	QuestionThreshold int
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
}

func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Warning: .env not loaded: %v", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
			CookieSecure:   getEnvAsBool("COOKIE_SECURE", false),
		},
		Backend: BackendConfig{
			BaseURL:      strings.TrimRight(getEnv("BACKEND_API_URL", "http://127.0.0.1:5001/api"), "/"),
			Timeout:      getEnvAsDuration("BACKEND_TIMEOUT", 30*time.Second),
			DecisionPath: getEnv("BACKEND_DECISION_PATH", "/analyze-decision"),
			RateLimit:    getEnvAsFloat("BACKEND_RATE_LIMIT", 0),
			RateBurst:    getEnvAsInt("BACKEND_RATE_BURST", 10),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Session: SessionConfig{
			TTL:                getEnvAsDuration("SESSION_TTL", 7*24*time.Hour),
			MaxEntries:         getEnvAsInt("SESSION_MAX_ENTRIES", 4096),
			SweepSchedule:      getEnv("SESSION_SWEEP_SCHEDULE", "@every 1m"),
			RevalidateInterval: getEnvAsDuration("SESSION_REVALIDATE_INTERVAL", 5*time.Minute),
		},
		Decision: DecisionConfig{
			QuestionThreshold: getEnvAsInt("DECISION_QUESTION_THRESHOLD", 2),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.Server.Port == "":
		return fmt.Errorf("PORT is required")
	case c.Backend.BaseURL == "":
		return fmt.Errorf("BACKEND_API_URL is required")
	case !strings.HasPrefix(c.Backend.DecisionPath, "/"):
		return fmt.Errorf("BACKEND_DECISION_PATH must start with '/'")
	case c.Backend.RateLimit < 0:
		return fmt.Errorf("BACKEND_RATE_LIMIT must not be negative")
	case c.Session.TTL <= 0:
		return fmt.Errorf("SESSION_TTL must be positive")
	case c.Decision.QuestionThreshold < 1:
		return fmt.Errorf("DECISION_QUESTION_THRESHOLD must be at least 1")
	}
	if _, err := logging.ParseLevel(c.App.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// envParsed reads key through parse, keeping fallback when the variable is
// unset or malformed.
func envParsed[T any](key string, fallback T, parse func(string) (T, error)) T {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := parse(raw)
	if err != nil {
		log.Printf("Warning: ignoring %s=%q (%v), using default %v", key, raw, err, fallback)
		return fallback
	}
	return v
}

func getEnvAsInt(key string, fallback int) int { return envParsed(key, fallback, strconv.Atoi) }

func getEnvAsBool(key string, fallback bool) bool { return envParsed(key, fallback, strconv.ParseBool) }

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	return envParsed(key, fallback, time.ParseDuration)
}

func getEnvAsFloat(key string, fallback float64) float64 {
	return envParsed(key, fallback, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}

func getEnvAsList(key string, fallback []string) []string {
	return envParsed(key, fallback, func(s string) ([]string, error) {
		var out []string
		for _, part := range strings.Split(s, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		if len(out) == 0 {
			return nil, fmt.Errorf("empty list")
		}
		return out, nil
	})
}
