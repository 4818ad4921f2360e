package provider

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a provider failure for failover decisions.
type Kind int

const (
	// KindConnectivity covers unreachable backends, refused
	// connections, timeouts, and non-2xx responses.
	KindConnectivity Kind = iota
	// KindMalformed covers unexpected payload shapes. Treated as a
	// connectivity-class failure for failover purposes.
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindConnectivity:
		return "connectivity"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Error is a classified failure from a single provider.
type Error struct {
	Provider string
	Kind     Kind
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// connectivityErr wraps err as a connectivity failure.
func connectivityErr(provider string, err error) *Error {
	return &Error{Provider: provider, Kind: KindConnectivity, Err: err}
}

// malformedErr wraps err as a malformed-response failure.
func malformedErr(provider string, err error) *Error {
	return &Error{Provider: provider, Kind: KindMalformed, Err: err}
}

// ErrNoProviders is returned when the failover chain is empty, i.e.
// no provider is registered and enabled.
var ErrNoProviders = errors.New("no enabled providers")

// ExhaustedError is returned when every candidate provider failed.
// It enumerates each provider's individual failure.
type ExhaustedError struct {
	Failures []*Error
}

func (e *ExhaustedError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = fmt.Sprintf("%s: %v", f.Provider, f.Err)
	}
	return fmt.Sprintf("all providers failed: %s", strings.Join(parts, "; "))
}

// IsExhausted reports whether err is an all-providers-failed error.
func IsExhausted(err error) bool {
	var e *ExhaustedError
	return errors.As(err, &e)
}
