package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	for _, k := range []string{"SERVER_PORT", "RULES_PATH", "LOOKUP_TIMEOUT", "WATCH_RULES", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "LOG_LEVEL", "RULE_TIMEOUT", "CATEGORIZER_HIGH_CONFIDENCE"} {
		t.Setenv(k, "")
	}

	assert.Equal(t, ":8080", ServerAddr())
	assert.Equal(t, "config/rules.yaml", RulesPath())
	assert.Equal(t, 5*time.Second, LookupTimeout())
	assert.Equal(t, 5*time.Second, RuleTimeout())
	assert.True(t, WatchRules())
	assert.Equal(t, 100.0, RateLimitRPS())
	assert.Equal(t, 20, RateLimitBurst())
	assert.Equal(t, "info", LogLevel())
	assert.Equal(t, 0.60, HighConfidence())
}

func TestOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("RULES_PATH", "/etc/begrippen/rules.yaml")
	t.Setenv("LOOKUP_TIMEOUT", "750ms")
	t.Setenv("WATCH_RULES", "false")
	t.Setenv("RATE_LIMIT_RPS", "-3")

	assert.Equal(t, ":9090", ServerAddr())
	assert.Equal(t, "/etc/begrippen/rules.yaml", RulesPath())
	assert.Equal(t, 750*time.Millisecond, LookupTimeout())
	assert.False(t, WatchRules())
	assert.Equal(t, 100.0, RateLimitRPS(), "non-positive falls back")

	t.Setenv("CATEGORIZER_HIGH_CONFIDENCE", "0.8")
	assert.Equal(t, 0.8, HighConfidence())
	t.Setenv("CATEGORIZER_HIGH_CONFIDENCE", "1")
	assert.Equal(t, 0.60, HighConfidence(), "outside (0,1) falls back")
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("SYNONYMS_GLOB=custom/*.yaml\n"), 0o644))
	require.NoError(t, os.WriteFile(envFile+".secret", []byte("REDIS_URL=redis://localhost:6379/0\n"), 0o644))

	t.Setenv("BEGRIPPEN_ENV", envFile)
	t.Setenv("SYNONYMS_GLOB", "")
	t.Setenv("REDIS_URL", "")
	os.Unsetenv("SYNONYMS_GLOB")
	os.Unsetenv("REDIS_URL")

	require.NoError(t, Load())
	assert.Equal(t, "custom/*.yaml", SynonymsGlob())
	assert.Equal(t, "redis://localhost:6379/0", RedisURL())
}
