package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Harshitk-cp/begrippen/internal/api"
	"github.com/Harshitk-cp/begrippen/internal/buildconfig"
	"github.com/Harshitk-cp/begrippen/internal/config"
	"github.com/Harshitk-cp/begrippen/internal/lookup"
	"github.com/Harshitk-cp/begrippen/internal/registry"
	"github.com/Harshitk-cp/begrippen/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := config.Load(); err != nil {
		panic(err)
	}

	logger := newLogger(config.LogLevel())
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	holder, err := registry.NewHolder(config.RulesPath(), logger)
	if err != nil {
		logger.Fatal("failed to load rule registry", zap.String("path", config.RulesPath()), zap.Error(err))
	}
	logger.Info("rule registry loaded",
		zap.String("contract_version", holder.Current().ContractVersion()),
		zap.Strings("enabled_codes", holder.Current().EnabledCodes("")))

	synonyms, err := registry.LoadSynonyms(config.SynonymsGlob())
	if err != nil {
		logger.Warn("failed to load synonyms, continuing without", zap.Error(err))
	} else {
		logger.Info("synonyms loaded", zap.Int("groups", synonyms.Len()))
	}

	deps := api.Dependencies{
		Registry:       holder,
		Synonyms:       synonyms,
		RuleTimeout:    config.RuleTimeout(),
		HighConfidence: config.HighConfidence(),
		RateLimitRPS:   config.RateLimitRPS(),
		RateLimitBurst: config.RateLimitBurst(),
	}

	lookupSvc, closeLookup, err := lookup.Open(ctx, config.WebLookupConfig(), config.RedisURL(), config.LookupTimeout(), logger)
	if err != nil {
		logger.Fatal("failed to set up web lookup", zap.Error(err))
	}
	defer closeLookup()
	if lookupSvc != nil {
		deps.Lookup = lookupSvc
	}

	if dbURL := config.DatabaseURL(); dbURL != "" {
		pool, err := pgxpool.New(ctx, dbURL)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			logger.Fatal("failed to ping database", zap.Error(err))
		}
		logger.Info("connected to database")

		deps.Store = store.NewDefinitionStore(pool)
		deps.DB = pool
	} else {
		logger.Info("DATABASE_URL not set, duplicate checks need an inline corpus")
	}

	app := api.NewApp(deps, logger)
	defer app.Close()
	if lookupSvc != nil {
		lookupSvc.SetMetrics(app.Metrics)
	}

	var watcher *registry.Watcher
	if config.WatchRules() {
		watcher, err = registry.NewWatcher(holder, logger)
		if err != nil {
			logger.Fatal("failed to create rule watcher", zap.Error(err))
		}
		if err := watcher.Start(); err != nil {
			logger.Fatal("failed to start rule watcher", zap.Error(err))
		}
	}

	addr := config.ServerAddr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server starting",
			zap.String("addr", addr),
			zap.String("version", buildconfig.Version()),
			zap.String("commit", buildconfig.Commit()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down server")

	if watcher != nil {
		watcher.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

func newLogger(level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
