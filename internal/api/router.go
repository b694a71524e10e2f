package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Harshitk-cp/begrippen/internal/api/handlers"
	mw "github.com/Harshitk-cp/begrippen/internal/api/middleware"
	"github.com/Harshitk-cp/begrippen/internal/buildconfig"
	"github.com/Harshitk-cp/begrippen/internal/domain"
	"github.com/Harshitk-cp/begrippen/internal/lookup"
	"github.com/Harshitk-cp/begrippen/internal/metrics"
	"github.com/Harshitk-cp/begrippen/internal/registry"
	"github.com/Harshitk-cp/begrippen/internal/service"
	"github.com/Harshitk-cp/begrippen/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies are the collaborators built by the caller. Any of them may be
// nil; a missing Registry makes every validation degraded.
type Dependencies struct {
	Registry   *registry.Holder
	Synonyms   *registry.SynonymTable
	Lookup     domain.WebLookup
	Store      domain.DefinitionStore
	DB         Pinger
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer

	RuleTimeout    time.Duration
	HighConfidence float64
	RateLimitRPS   float64
	RateLimitBurst int
}

// App holds the router and the services behind it.
type App struct {
	Router     *chi.Mux
	Registry   *registry.Holder
	Categorize *service.CategorizerService
	Duplicates *service.DuplicateService
	Validation *service.ValidationService
	Metrics    *metrics.Metrics
	startTime  time.Time
	stop       chan struct{}
}

func NewApp(deps Dependencies, logger *zap.Logger) *App {
	reg := deps.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	m := metrics.New(reg)
	if deps.Registry == nil {
		deps.Registry = registry.NewStaticHolder(nil, logger)
	}

	// Services
	categorizer := service.NewCategorizerService(logger)
	categorizer.SetMetrics(m)
	if deps.HighConfidence > 0 {
		if err := categorizer.SetHighConfidence(deps.HighConfidence); err != nil {
			logger.Warn("ignoring high confidence threshold", zap.Error(err))
		}
	}

	duplicates := service.NewDuplicateService(deps.Synonyms, logger)
	duplicates.SetMetrics(m)
	if deps.Store != nil {
		duplicates.SetStore(deps.Store)
	}

	catalog := service.DefaultRuleCatalog(deps.Lookup)
	validation := service.NewValidationService(deps.Registry, catalog, logger)
	validation.SetMetrics(m)
	if deps.RuleTimeout > 0 {
		validation.SetRuleTimeout(deps.RuleTimeout)
	}

	deps.Registry.SetReloadHook(func(_ *registry.Snapshot, err error) {
		m.ObserveReload(err)
	})

	// Handlers
	categorizeHandler := handlers.NewCategorizeHandler(categorizer)
	duplicateHandler := handlers.NewDuplicateHandler(duplicates, logger)
	validationHandler := handlers.NewValidationHandler(validation, logger)
	registryHandler := handlers.NewRegistryHandler(deps.Registry)

	r := chi.NewRouter()

	app := &App{
		Router:     r,
		Registry:   deps.Registry,
		Categorize: categorizer,
		Duplicates: duplicates,
		Validation: validation,
		Metrics:    m,
		startTime:  time.Now(),
		stop:       make(chan struct{}),
	}

	rps, burst := deps.RateLimitRPS, deps.RateLimitBurst
	if rps <= 0 {
		rps = 100
	}
	if burst <= 0 {
		burst = 20
	}

	// Global middleware (order matters)
	r.Use(mw.RequestID)                       // Generate/extract request ID first
	r.Use(middleware.RealIP)                  // Extract real IP
	r.Use(mw.Metrics(m))                      // Collect metrics
	r.Use(mw.Logging(logger))                 // Log all requests
	r.Use(middleware.Recoverer)               // Recover from panics
	r.Use(mw.RateLimit(rps, burst, app.stop)) // Rate limiting

	r.Get("/health", app.healthHandler(deps.DB))
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/categorize", categorizeHandler.Categorize)
		r.Post("/duplicates", duplicateHandler.Find)
		r.Post("/validate", validationHandler.Validate)

		r.Route("/registry", func(r chi.Router) {
			r.Get("/", registryHandler.Get)
			r.Post("/reload", registryHandler.Reload)
		})
	})

	return app
}

// Close stops background work started by NewApp.
func (app *App) Close() {
	select {
	case <-app.stop:
	default:
		close(app.stop)
	}
}

func (app *App) healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{
			"status":         "ok",
			"uptime_seconds": time.Since(app.startTime).Seconds(),
			"build":          buildconfig.Current(),
		}
		status := http.StatusOK

		if snap := app.Registry.Current(); snap != nil {
			body["contract_version"] = snap.ContractVersion()
		} else {
			body["status"] = "degraded"
			body["registry"] = "no rule snapshot loaded"
		}

		if db != nil {
			if err := db.Ping(r.Context()); err != nil {
				body["status"] = "error"
				body["error"] = err.Error()
				status = http.StatusServiceUnavailable
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}

// Ensure stores and clients satisfy interfaces at compile time.
var (
	_ domain.DefinitionStore = (*store.DefinitionStore)(nil)
	_ domain.WebLookup       = (*lookup.Service)(nil)
	_ lookup.Provider        = (*lookup.HTTPProvider)(nil)
	_ lookup.Provider        = (*lookup.PageProvider)(nil)
	_ lookup.Provider        = (*lookup.StaticProvider)(nil)
)
