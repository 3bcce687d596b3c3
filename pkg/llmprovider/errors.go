package llmprovider

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAllProvidersFailed indicates both the primary and the fallback failed
	ErrAllProvidersFailed = errors.New("all providers failed")

	// ErrNoProvidersConfigured indicates no providers are enabled
	ErrNoProvidersConfigured = errors.New("no providers configured")

	// ErrInvalidRequest indicates the request is malformed
	ErrInvalidRequest = errors.New("invalid request")

	// ErrMissingToken indicates a stateful provider answered without a continuation token
	ErrMissingToken = errors.New("primary response carries no continuation token")

	// ErrEmptyResponse indicates a provider returned neither text nor images
	ErrEmptyResponse = errors.New("empty provider response")

	// ErrInvalidOutput indicates the caller's validator rejected the output
	ErrInvalidOutput = errors.New("output rejected by validator")
)

// ProviderError wraps provider-specific errors
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ChainError reports a request that no path could serve.
type ChainError struct {
	Primary  error
	Fallback error
}

func (e *ChainError) Error() string {
	var parts []string
	if e.Primary != nil {
		parts = append(parts, "primary: "+e.Primary.Error())
	}
	if e.Fallback != nil {
		parts = append(parts, "fallback: "+e.Fallback.Error())
	}
	return fmt.Sprintf("%s: %s", ErrAllProvidersFailed, strings.Join(parts, "; "))
}

func (e *ChainError) Unwrap() []error {
	errs := []error{ErrAllProvidersFailed}
	if e.Primary != nil {
		errs = append(errs, e.Primary)
	}
	if e.Fallback != nil {
		errs = append(errs, e.Fallback)
	}
	return errs
}
