// Package config loads server settings from the environment.
//
// Values come from real environment variables; cmd/server calls
// godotenv.Load() first so a local .env file can supply them during
// development.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// devSecret is accepted outside production so `go run` works with no setup.
const devSecret = "dev-secret-change-in-production"

type Config struct {
	Port     int
	Env      string
	DBPath   string
	LogLevel slog.Level

	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int

	// MoviesSeedFile, when set, is a JSON array of movies inserted at startup.
	MoviesSeedFile string

	// Per-IP limits on /login and /users.
	AuthRateRPS   float64
	AuthRateBurst int
}

// IsProduction reports whether ENV=production.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads the configuration. Every malformed value is reported, not just
// the first one.
func Load() (Config, error) {
	var errs []error

	cfg := Config{
		Env:            getEnv("ENV", "development"),
		DBPath:         getEnv("DB_PATH", "data/dojodb.db"),
		JWTSecret:      getEnv("JWT_SECRET", devSecret),
		MoviesSeedFile: os.Getenv("MOVIES_SEED_FILE"),
	}

	cfg.Port = getInt("PORT", 8080, &errs)
	cfg.BcryptCost = getInt("BCRYPT_COST", 12, &errs)
	cfg.AuthRateBurst = getInt("AUTH_RATE_BURST", 10, &errs)
	cfg.AuthRateRPS = getFloat("AUTH_RATE_RPS", 5, &errs)
	cfg.TokenTTL = getDuration("TOKEN_TTL", 7*24*time.Hour, &errs)

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT: %d is out of range", cfg.Port))
	}
	if cfg.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL: must be positive"))
	}
	if cfg.AuthRateRPS <= 0 || cfg.AuthRateBurst <= 0 {
		errs = append(errs, errors.New("AUTH_RATE_RPS and AUTH_RATE_BURST must be positive"))
	}
	if len(cfg.JWTSecret) < 16 {
		errs = append(errs, errors.New("JWT_SECRET: must be at least 16 characters"))
	}
	if cfg.IsProduction() && cfg.JWTSecret == devSecret {
		errs = append(errs, errors.New("JWT_SECRET must be set in production environment"))
	}

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int, errs *[]error) int {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %q is not an integer", key, v))
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64, errs *[]error) float64 {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %q is not a number", key, v))
		return fallback
	}
	return f
}

func getDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %q is not a duration", key, v))
		return fallback
	}
	return d
}
