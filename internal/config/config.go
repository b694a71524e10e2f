package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by BEGRIPPEN_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("BEGRIPPEN_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

// DatabaseURL is optional. Without it duplicate detection only works on
// corpora supplied in the request.
func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

// RedisURL is optional. Without it lookup results are cached in memory.
func RedisURL() string {
	return os.Getenv("REDIS_URL")
}

func RulesPath() string {
	return getOr("RULES_PATH", "config/rules.yaml")
}

func SynonymsGlob() string {
	return getOr("SYNONYMS_GLOB", "config/synonyms/*.yaml")
}

func WebLookupConfig() string {
	return getOr("WEB_LOOKUP_CONFIG", "config/web_lookup.yaml")
}

// LookupTimeout bounds the HTTP client shared by lookup providers.
// Defaults to 5s if not set.
func LookupTimeout() time.Duration {
	d, err := time.ParseDuration(os.Getenv("LOOKUP_TIMEOUT"))
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// RuleTimeout is the per-rule evaluation budget.
// Defaults to 5s if not set.
func RuleTimeout() time.Duration {
	d, err := time.ParseDuration(os.Getenv("RULE_TIMEOUT"))
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// WatchRules enables hot reload of the rules file. Defaults to true.
func WatchRules() bool {
	v, err := strconv.ParseBool(os.Getenv("WATCH_RULES"))
	if err != nil {
		return true
	}
	return v
}

// HighConfidence returns the score a unique category leader must exceed to
// skip the categorizer fallback. Defaults to 0.60 if unset or outside (0,1).
func HighConfidence() float64 {
	v, err := strconv.ParseFloat(os.Getenv("CATEGORIZER_HIGH_CONFIDENCE"), 64)
	if err != nil || v <= 0 || v >= 1 {
		return 0.60
	}
	return v
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}

func getOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
