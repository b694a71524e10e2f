package lookup

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid web lookup configuration")

const (
	KindHTTP   = "http"
	KindPage   = "page"
	KindStatic = "static"

	DefaultTimeout    = 5 * time.Second
	DefaultCacheTTL   = time.Hour
	DefaultMaxEntries = 1000
)

// Duration decodes either a Go duration string ("30s") or a number of
// seconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration must be a scalar, got %v", value.Tag)
	}
	if secs, err := strconv.ParseFloat(value.Value, 64); err == nil {
		if secs < 0 || math.IsNaN(secs) {
			return fmt.Errorf("negative duration %q", value.Value)
		}
		*d = Duration(time.Duration(secs * float64(time.Second)))
		return nil
	}
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", value.Value, err)
	}
	if parsed < 0 {
		return fmt.Errorf("negative duration %q", value.Value)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type Config struct {
	WebLookup WebLookupConfig           `yaml:"web_lookup"`
	Cache     CacheConfig               `yaml:"cache"`
	Providers map[string]ProviderConfig `yaml:"providers"`
}

type WebLookupConfig struct {
	Enabled bool     `yaml:"enabled"`
	Timeout Duration `yaml:"timeout"`
}

type CacheConfig struct {
	DefaultTTL Duration `yaml:"default_ttl"`
	MaxEntries int      `yaml:"max_entries"`
}

type ProviderConfig struct {
	Kind     string            `yaml:"kind"`
	Enabled  bool              `yaml:"enabled"`
	Weight   float64           `yaml:"weight"`
	CacheTTL Duration          `yaml:"cache_ttl"`
	Timeout  Duration          `yaml:"timeout"`
	BaseURL  string            `yaml:"base_url"`
	Entries  map[string]string `yaml:"entries"`
}

// LoadConfig reads and validates a web lookup YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read web lookup config: %w", err)
	}
	return ParseConfig(data)
}

func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.WebLookup.Timeout == 0 {
		c.WebLookup.Timeout = Duration(DefaultTimeout)
	}
	if c.Cache.DefaultTTL == 0 {
		c.Cache.DefaultTTL = Duration(DefaultCacheTTL)
	}
	if c.Cache.MaxEntries == 0 {
		c.Cache.MaxEntries = DefaultMaxEntries
	}
	for name, p := range c.Providers {
		if p.Kind == "" {
			p.Kind = KindHTTP
		}
		c.Providers[name] = p
	}
}

func (c *Config) Validate() error {
	if c.Cache.MaxEntries < 0 {
		return fmt.Errorf("%w: cache.max_entries must not be negative", ErrInvalidConfig)
	}
	for name, p := range c.Providers {
		if math.IsNaN(p.Weight) || p.Weight < 0 {
			return fmt.Errorf("%w: provider %s weight %v", ErrInvalidConfig, name, p.Weight)
		}
		switch p.Kind {
		case KindHTTP, KindPage:
			if p.Enabled && p.BaseURL == "" {
				return fmt.Errorf("%w: provider %s needs base_url", ErrInvalidConfig, name)
			}
		case KindStatic:
		default:
			return fmt.Errorf("%w: provider %s has unknown kind %q", ErrInvalidConfig, name, p.Kind)
		}
	}
	return nil
}

// EnabledProviders returns the names of enabled providers in sorted order.
func (c *Config) EnabledProviders() []string {
	var names []string
	for name, p := range c.Providers {
		if p.Enabled {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
