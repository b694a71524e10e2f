package lookup

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Harshitk-cp/begrippen/internal/domain"
	"github.com/Harshitk-cp/begrippen/internal/metrics"
)

type registered struct {
	provider Provider
	weight   float64
	cacheTTL time.Duration
	timeout  time.Duration
}

// Service fans a lookup out to every enabled provider and aggregates the
// answers. Provider failures are collected in the result; the call only fails
// when no provider answered.
type Service struct {
	enabled   bool
	timeout   time.Duration
	ttl       time.Duration
	providers []registered
	cache     Cache
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

func NewService(cfg WebLookupConfig, cacheCfg CacheConfig, cache Cache, logger *zap.Logger) *Service {
	return &Service{
		enabled: cfg.Enabled,
		timeout: cfg.Timeout.Std(),
		ttl:     cacheCfg.DefaultTTL.Std(),
		cache:   cache,
		logger:  logger,
	}
}

// FromConfig builds a service with one provider per enabled config entry.
// cache may be nil, in which case an in-memory cache sized from cfg is used.
func FromConfig(cfg *Config, cache Cache, client *http.Client, logger *zap.Logger) (*Service, error) {
	if cache == nil {
		cache = NewMemoryCache(cfg.Cache.MaxEntries)
	}
	s := NewService(cfg.WebLookup, cfg.Cache, cache, logger)
	for _, name := range cfg.EnabledProviders() {
		pc := cfg.Providers[name]
		var p Provider
		switch pc.Kind {
		case KindHTTP:
			p = NewHTTPProvider(name, pc.BaseURL, client)
		case KindPage:
			p = NewPageProvider(name, pc.BaseURL, client)
		case KindStatic:
			p = NewStaticProvider(name, pc.Entries)
		default:
			return nil, fmt.Errorf("%w: provider %s has unknown kind %q", ErrInvalidConfig, name, pc.Kind)
		}
		s.Register(p, pc.Weight, pc.CacheTTL.Std(), pc.Timeout.Std())
	}
	return s, nil
}

// Register adds a provider. A zero cacheTTL uses the default TTL and a zero
// timeout uses the service timeout.
func (s *Service) Register(p Provider, weight float64, cacheTTL, timeout time.Duration) {
	s.providers = append(s.providers, registered{provider: p, weight: weight, cacheTTL: cacheTTL, timeout: timeout})
}

func (s *Service) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

func (s *Service) Providers() []string {
	names := make([]string, 0, len(s.providers))
	for _, r := range s.providers {
		names = append(names, r.provider.Name())
	}
	return names
}

type providerAnswer struct {
	hits []domain.LookupHit
	err  error
}

// Lookup queries all providers concurrently within the service timeout and
// the caller's deadline, whichever is earlier.
func (s *Service) Lookup(ctx context.Context, term string, scope domain.ContextRef) (*domain.LookupResult, error) {
	if !s.enabled {
		return nil, ErrDisabled
	}
	if len(s.providers) == 0 {
		return nil, ErrNoProviders
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	answers := make([]providerAnswer, len(s.providers))
	var g errgroup.Group
	for i, r := range s.providers {
		i, r := i, r
		g.Go(func() error {
			hits, err := s.query(ctx, r, term, scope)
			answers[i] = providerAnswer{hits: hits, err: err}
			return nil
		})
	}
	_ = g.Wait()

	res := &domain.LookupResult{Hits: []domain.LookupHit{}}
	var answered, weightHit, weightAll float64
	for i, r := range s.providers {
		a := answers[i]
		name := r.provider.Name()
		if a.err != nil {
			if res.Failed == nil {
				res.Failed = make(map[string]string)
			}
			res.Failed[name] = string(Category(a.err))
			s.logger.Warn("lookup provider failed",
				zap.String("provider", name),
				zap.String("term", term),
				zap.Error(a.err))
			continue
		}
		answered++
		weightAll += r.weight
		if len(a.hits) > 0 {
			weightHit += r.weight
			res.Hits = append(res.Hits, a.hits...)
		}
	}

	if answered == 0 {
		return nil, fmt.Errorf("%w: %d provider(s)", ErrAllProvidersFailed, len(s.providers))
	}
	if weightAll > 0 {
		res.Score = weightHit / weightAll
	}
	return res, nil
}

func (s *Service) query(ctx context.Context, r registered, term string, scope domain.ContextRef) ([]domain.LookupHit, error) {
	name := r.provider.Name()
	key := cacheKey(name, term, scope)

	if s.cache != nil {
		hits, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn("lookup cache read failed", zap.String("provider", name), zap.Error(err))
		} else if ok {
			s.metrics.ObserveLookup(name, "cache_hit")
			return hits, nil
		}
	}

	pctx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		pctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	hits, err := r.provider.Search(pctx, term, scope)
	if err != nil {
		if pctx.Err() != nil && Category(err) == ErrorInternal {
			err = NewProviderError(ErrorTimeout, name, "deadline exceeded", err)
		}
		s.metrics.ObserveLookup(name, string(Category(err)))
		return nil, err
	}

	outcome := "miss"
	if len(hits) > 0 {
		outcome = "hit"
	}
	s.metrics.ObserveLookup(name, outcome)

	if s.cache != nil {
		ttl := r.cacheTTL
		if ttl == 0 {
			ttl = s.ttl
		}
		if err := s.cache.Set(ctx, key, hits, ttl); err != nil {
			s.logger.Warn("lookup cache write failed", zap.String("provider", name), zap.Error(err))
		}
	}
	return hits, nil
}

func cacheKey(provider, term string, scope domain.ContextRef) string {
	n := scope.Normalized()
	return strings.Join([]string{provider, glossaryKey(term), n.Organisation, n.Jurisdiction, n.LegalAct}, "|")
}
