package providers

import (
	"context"
	"errors"
	"fmt"
)

// ErrorCategory is the normalized failure taxonomy shared by every catalog
// adapter.
type ErrorCategory string

const (
	// ErrorNotFound means the parent or village code is unknown upstream.
	ErrorNotFound ErrorCategory = "not_found"

	// ErrorNetwork is a transport failure before any response arrived.
	ErrorNetwork ErrorCategory = "network"

	// ErrorTimeout means the catalog took too long to respond.
	ErrorTimeout ErrorCategory = "timeout"

	// ErrorProviderOutage means the catalog answered with a server error.
	ErrorProviderOutage ErrorCategory = "provider_outage"

	// ErrorRateLimited means the catalog throttled the request.
	ErrorRateLimited ErrorCategory = "rate_limited"

	// ErrorBadData means the response could not be decoded.
	ErrorBadData ErrorCategory = "bad_data"

	// ErrorInternal covers everything unexpected.
	ErrorInternal ErrorCategory = "internal"
)

// ProviderError wraps adapter failures with a category.
type ProviderError struct {
	Category   ErrorCategory
	ProviderID string
	Message    string
	Underlying error
	Retryable  bool
}

func (e *ProviderError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("provider %s [%s]: %s: %v", e.ProviderID, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("provider %s [%s]: %s", e.ProviderID, e.Category, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Underlying
}

// NewProviderError builds a categorized error. Transient categories are
// marked retryable.
func NewProviderError(category ErrorCategory, providerID, message string, underlying error) *ProviderError {
	retryable := category == ErrorNetwork ||
		category == ErrorTimeout ||
		category == ErrorProviderOutage ||
		category == ErrorRateLimited

	return &ProviderError{
		Category:   category,
		ProviderID: providerID,
		Message:    message,
		Underlying: underlying,
		Retryable:  retryable,
	}
}

// NotFound is shorthand for a not_found error.
func NotFound(providerID, message string) *ProviderError {
	return NewProviderError(ErrorNotFound, providerID, message, nil)
}

// IsRetryable reports whether err is worth retrying. Context deadlines count
// as timeouts even when they did not come through an adapter.
func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// GetCategory extracts the category of err.
func GetCategory(err error) ErrorCategory {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Category
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTimeout
	}
	return ErrorInternal
}

// IsNotFound reports whether err means the queried code is unknown.
func IsNotFound(err error) bool {
	return GetCategory(err) == ErrorNotFound
}

// FromContext converts a context failure into a categorized error.
func FromContext(providerID string, err error) *ProviderError {
	if errors.Is(err, context.DeadlineExceeded) {
		return NewProviderError(ErrorTimeout, providerID, "deadline exceeded", err)
	}
	return NewProviderError(ErrorNetwork, providerID, "request canceled", err)
}

var (
	ErrNoSource       = errors.New("no region source configured")
	ErrCircuitOpen    = errors.New("primary source circuit open")
	ErrInvalidRequest = errors.New("invalid catalog request")
)
