// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrMissingCredential   = errors.New("missing credential")
	ErrInsufficientHistory = errors.New("insufficient price history")
	ErrSourceTimeout       = errors.New("source timed out")
	ErrRateLimited         = errors.New("rate limited")
	ErrNoProviders         = errors.New("no synthesis providers configured")
	ErrDataNotFound        = errors.New("data not found")
	ErrConfigInvalid       = errors.New("invalid configuration")
	ErrSymbolNotFound      = errors.New("symbol not found")
	ErrConnectionFailed    = errors.New("connection failed")
)

// SourceError represents a contained failure inside one intelligence
// source. It is logged at the gather boundary and never reaches the
// aggregator as an error.
type SourceError struct {
	Source    string
	Operation string
	Err       error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source error [%s] %s: %v", e.Source, e.Operation, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// NewSourceError creates a new SourceError.
func NewSourceError(source, operation string, err error) *SourceError {
	return &SourceError{
		Source:    source,
		Operation: operation,
		Err:       err,
	}
}

// ProviderError represents a transport-level failure from an upstream
// data or AI provider.
type ProviderError struct {
	Provider string
	Status   int
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider error [%s] status=%d: %s: %v", e.Provider, e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("provider error [%s] status=%d: %s", e.Provider, e.Status, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError creates a new ProviderError.
func NewProviderError(provider string, status int, message string, err error) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Status:   status,
		Message:  message,
		Err:      err,
	}
}

// MalformedResponseError represents a synthesis response that failed
// shape validation. There is no safe default scenario to substitute, so
// this is the one failure allowed to propagate to the caller.
type MalformedResponseError struct {
	Provider string
	Field    string
	Err      error
}

func (e *MalformedResponseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("malformed response from %s: field %q: %v", e.Provider, e.Field, e.Err)
	}
	return fmt.Sprintf("malformed response from %s: %v", e.Provider, e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// NewMalformedResponseError creates a new MalformedResponseError.
func NewMalformedResponseError(provider, field string, err error) *MalformedResponseError {
	return &MalformedResponseError{
		Provider: provider,
		Field:    field,
		Err:      err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
