package lookup

//go:generate mockgen -source=provider.go -destination=mocks/provider_mock.go -package=mocks Provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/Harshitk-cp/begrippen/internal/domain"
)

// Provider searches one external source for a term.
type Provider interface {
	Name() string
	// Search returns the hits for term. A source that simply does not know the
	// term returns no hits and no error.
	Search(ctx context.Context, term string, scope domain.ContextRef) ([]domain.LookupHit, error)
}

// ErrorCategory is the normalized provider failure taxonomy.
type ErrorCategory string

const (
	ErrorTimeout     ErrorCategory = "timeout"
	ErrorBadData     ErrorCategory = "bad_data"
	ErrorOutage      ErrorCategory = "provider_outage"
	ErrorNotFound    ErrorCategory = "not_found"
	ErrorRateLimited ErrorCategory = "rate_limited"
	ErrorInternal    ErrorCategory = "internal"
)

// ProviderError wraps a provider failure with its category.
type ProviderError struct {
	Category   ErrorCategory
	Provider   string
	Message    string
	Underlying error
	Retryable  bool
}

func (e *ProviderError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("provider %s [%s]: %s: %v", e.Provider, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("provider %s [%s]: %s", e.Provider, e.Category, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Underlying
}

func NewProviderError(category ErrorCategory, provider, message string, underlying error) *ProviderError {
	return &ProviderError{
		Category:   category,
		Provider:   provider,
		Message:    message,
		Underlying: underlying,
		Retryable:  category == ErrorTimeout || category == ErrorOutage || category == ErrorRateLimited,
	}
}

// Category extracts the error category, or ErrorInternal for foreign errors.
func Category(err error) ErrorCategory {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Category
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTimeout
	}
	return ErrorInternal
}

func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}

var (
	ErrDisabled           = errors.New("web lookup disabled")
	ErrNoProviders        = errors.New("no web lookup providers enabled")
	ErrAllProvidersFailed = errors.New("all providers failed")
)
