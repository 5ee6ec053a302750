package errors

import (
	"errors"
	"fmt"
)

// Error codes for programmatic handling.
const (
	CodeConfigInvalid       = "CONFIG_INVALID"
	CodeConfigNotFound      = "CONFIG_NOT_FOUND"
	CodeProfileNotFound     = "PROFILE_NOT_FOUND"
	CodeInvocationFailed    = "INVOCATION_FAILED"
	CodeMemoryAccess        = "MEMORY_ACCESS"
	CodeContextAssembly     = "CONTEXT_ASSEMBLY"
	CodeAPIKeyMissing       = "API_KEY_MISSING"
	CodeProviderUnavailable = "PROVIDER_UNAVAILABLE"
	CodeStoreUnavailable    = "STORE_UNAVAILABLE"
	CodeRateLimited         = "RATE_LIMITED"
	CodeTimeout             = "TIMEOUT"
)

// BrainsError is a structured error with a code and actionable suggestion.
type BrainsError struct {
	Code       string // machine-readable code (e.g. MEMORY_ACCESS)
	Message    string
	Suggestion string // actionable fix, shown by the CLI
	Err        error
}

func (e *BrainsError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap supports errors.Is / errors.As.
func (e *BrainsError) Unwrap() error {
	return e.Err
}

// New creates a BrainsError with the given code and message.
func New(code, message string) *BrainsError {
	return &BrainsError{Code: code, Message: message}
}

// Newf is New with a format string.
func Newf(code, format string, args ...any) *BrainsError {
	return &BrainsError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a BrainsError wrapping an existing error.
func Wrap(code, message string, err error) *BrainsError {
	return &BrainsError{Code: code, Message: message, Err: err}
}

// WithSuggestion sets the suggestion and returns the same error.
func (e *BrainsError) WithSuggestion(suggestion string) *BrainsError {
	e.Suggestion = suggestion
	return e
}

// Is matches any BrainsError carrying the same code.
func (e *BrainsError) Is(target error) bool {
	var be *BrainsError
	if errors.As(target, &be) {
		return e.Code == be.Code
	}
	return false
}

// AsCode extracts the code from an error chain, or "" if none is present.
func AsCode(err error) string {
	var be *BrainsError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

// HasCode reports whether any error in the chain carries code.
func HasCode(err error, code string) bool {
	return err != nil && AsCode(err) == code
}

// Suggestion extracts the suggestion from an error chain, or "".
func Suggestion(err error) string {
	var be *BrainsError
	if errors.As(err, &be) {
		return be.Suggestion
	}
	return ""
}
