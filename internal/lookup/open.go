package lookup

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Open builds a lookup service from the YAML file at configPath. A missing
// file is not an error: it returns a nil service and the SAM-01 rule reports
// itself unavailable. When redisURL is set, results are cached in Redis;
// otherwise in memory. The returned close func releases the Redis client.
func Open(ctx context.Context, configPath, redisURL string, clientTimeout time.Duration, logger *zap.Logger) (*Service, func(), error) {
	noop := func() {}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Info("web lookup config not found, lookups disabled", zap.String("path", configPath))
			return nil, noop, nil
		}
		return nil, noop, err
	}

	var cache Cache
	client, err := NewRedisClient(ctx, redisURL)
	if err != nil {
		return nil, noop, err
	}
	closeFn := noop
	if client != nil {
		cache = NewRedisCache(client)
		closeFn = func() { _ = client.Close() }
		logger.Info("web lookup cache backed by redis")
	}

	svc, err := FromConfig(cfg, cache, &http.Client{Timeout: clientTimeout}, logger)
	if err != nil {
		closeFn()
		return nil, noop, err
	}
	logger.Info("web lookup configured",
		zap.Bool("enabled", cfg.WebLookup.Enabled),
		zap.Strings("providers", svc.Providers()))
	return svc, closeFn, nil
}
