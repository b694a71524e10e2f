package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the service. A nil *Metrics is
// valid and records nothing, so services can run without instrumentation.
type Metrics struct {
	Validations      *prometheus.CounterVec
	ValidationScore  prometheus.Histogram
	RuleOutcomes     *prometheus.CounterVec
	Categorizations  *prometheus.CounterVec
	DuplicateMatches *prometheus.CounterVec
	RegistryReloads  *prometheus.CounterVec
	LookupRequests   *prometheus.CounterVec
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
}

// New creates and registers all collectors with reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Validations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "begrippen_validations_total",
			Help: "Validations by acceptance outcome and degraded flag",
		}, []string{"outcome", "degraded"}),
		ValidationScore: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "begrippen_validation_score",
			Help:    "Distribution of overall validation scores",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		RuleOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "begrippen_rule_outcomes_total",
			Help: "Rule evaluations by code and status",
		}, []string{"code", "status"}),
		Categorizations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "begrippen_categorizations_total",
			Help: "Categorizations by resulting category and deciding step",
		}, []string{"category", "step"}),
		DuplicateMatches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "begrippen_duplicate_matches_total",
			Help: "Reported duplicate matches by stage",
		}, []string{"stage"}),
		RegistryReloads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "begrippen_registry_reloads_total",
			Help: "Rule registry reload attempts by result",
		}, []string{"result"}),
		LookupRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "begrippen_lookup_requests_total",
			Help: "Web lookup provider calls by provider and outcome",
		}, []string{"provider", "outcome"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "begrippen_http_requests_total",
			Help: "HTTP requests by method and status class",
		}, []string{"method", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "begrippen_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
	}
}

func (m *Metrics) ObserveValidation(acceptable, degraded bool, score float64) {
	if m == nil {
		return
	}
	outcome := "rejected"
	if acceptable {
		outcome = "accepted"
	}
	m.Validations.WithLabelValues(outcome, boolLabel(degraded)).Inc()
	m.ValidationScore.Observe(score)
}

func (m *Metrics) ObserveRule(code, status string) {
	if m == nil {
		return
	}
	m.RuleOutcomes.WithLabelValues(code, status).Inc()
}

func (m *Metrics) ObserveCategorization(category, step string) {
	if m == nil {
		return
	}
	m.Categorizations.WithLabelValues(category, step).Inc()
}

func (m *Metrics) ObserveDuplicate(stage string) {
	if m == nil {
		return
	}
	m.DuplicateMatches.WithLabelValues(stage).Inc()
}

func (m *Metrics) ObserveReload(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.RegistryReloads.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveLookup(provider, outcome string) {
	if m == nil {
		return
	}
	m.LookupRequests.WithLabelValues(provider, outcome).Inc()
}

// ObserveHTTP records one request. Status is reported by class (2xx, 4xx).
func (m *Metrics) ObserveHTTP(method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, strconv.Itoa(status/100)+"xx").Inc()
	m.HTTPDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
