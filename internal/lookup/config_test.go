package lookup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const sampleConfig = `
web_lookup:
  enabled: true
  timeout: 3s
cache:
  default_ttl: 3600
  max_entries: 500
providers:
  wetten:
    kind: page
    enabled: true
    weight: 0.7
    cache_ttl: 10m
    base_url: https://wetten.example.nl/begrip/{term}
  zoek:
    enabled: true
    weight: 0.3
    base_url: https://zoek.example.nl/api
  oud:
    kind: static
    enabled: false
`

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(sampleConfig))
	require.NoError(t, err)

	assert.True(t, cfg.WebLookup.Enabled)
	assert.Equal(t, 3*time.Second, cfg.WebLookup.Timeout.Std())
	assert.Equal(t, time.Hour, cfg.Cache.DefaultTTL.Std())
	assert.Equal(t, 500, cfg.Cache.MaxEntries)
	assert.Equal(t, 10*time.Minute, cfg.Providers["wetten"].CacheTTL.Std())
	assert.Equal(t, KindHTTP, cfg.Providers["zoek"].Kind, "kind defaults to http")
	assert.Equal(t, []string{"wetten", "zoek"}, cfg.EnabledProviders())
}

func TestParseConfig_Defaults(t *testing.T) {
	cfg, err := ParseConfig([]byte("web_lookup:\n  enabled: false\n"))
	require.NoError(t, err)

	assert.Equal(t, DefaultTimeout, cfg.WebLookup.Timeout.Std())
	assert.Equal(t, DefaultCacheTTL, cfg.Cache.DefaultTTL.Std())
	assert.Equal(t, DefaultMaxEntries, cfg.Cache.MaxEntries)
	assert.Empty(t, cfg.EnabledProviders())
}

func TestParseConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"malformed", "web_lookup: ["},
		{"bad duration", "web_lookup:\n  timeout: soon\n"},
		{"negative weight", "providers:\n  a:\n    kind: static\n    weight: -1\n"},
		{"unknown kind", "providers:\n  a:\n    kind: ftp\n"},
		{"missing base url", "providers:\n  a:\n    enabled: true\n"},
		{"negative max entries", "cache:\n  max_entries: -5\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.doc))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "web_lookup.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Providers, 3)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	svc, closeFn, err := Open(ctx, filepath.Join(t.TempDir(), "absent.yaml"), "", time.Second, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, svc, "missing config disables lookups")
	closeFn()

	path := filepath.Join(t.TempDir(), "web_lookup.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o644))
	svc, closeFn, err = Open(ctx, path, "", time.Second, zap.NewNop())
	require.NoError(t, err)
	defer closeFn()
	assert.Equal(t, []string{"wetten", "zoek"}, svc.Providers())

	_, _, err = Open(ctx, path, "not a url", time.Second, zap.NewNop())
	assert.Error(t, err)
}
