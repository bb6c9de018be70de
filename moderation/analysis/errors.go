package analysis

import (
	"errors"
	"fmt"
	"strings"
)

// ErrProviderUnavailable indicates an adapter is not configured (missing
// credentials, endpoint, or model files). This is expected and frequent;
// callers exclude the provider from the batch without escalating.
var ErrProviderUnavailable = errors.New("provider not available")

// ProviderError wraps an unexpected vendor-side failure (malformed response,
// upstream 5xx, inference error). The provider is excluded from the batch and
// the failure logged at warning level.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// AllFailedError is returned by a fallback chain when every provider in the
// ordered list failed, carrying the individual failure reasons.
type AllFailedError struct {
	Reasons []string
}

func (e *AllFailedError) Error() string {
	return "all providers failed: " + strings.Join(e.Reasons, "; ")
}

// DecodeError indicates the payload itself is malformed (unreadable image,
// unopenable video container). It is surfaced before any provider is invoked,
// distinct from analysis failures.
type DecodeError struct {
	Kind string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s payload: %v", e.Kind, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
