// Package errors provides the typed error taxonomy shared by the token codec,
// the key-set cache and the provider extractors.
//
// Every failure carries an ErrorCode; callers branch on the code, and the
// Message is stable presentation text. Nothing in this package knows about
// transport status codes.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Message prefixes and fixed texts shared with clients.
const (
	ValidationPrefix = "validation error: "
	InternalMessage  = "validation internal error"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the whole operation may be retried by the caller.
	Retryable bool `json:"retryable"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// --- Token errors ---

// MalformedToken reports a token that failed structural parsing.
func MalformedToken(reason string) *AppError {
	return New(ErrCodeMalformedToken, "invalid JWT").WithDetail("reason", reason)
}

// UnsupportedAlgorithm reports an algorithm the registry cannot construct.
func UnsupportedAlgorithm(alg string) *AppError {
	return New(ErrCodeUnsupportedAlgorithm, fmt.Sprintf("unsupported algorithm: %s", alg)).
		WithDetail("alg", alg)
}

// UnknownKey reports that no candidate verifier matched the token header.
func UnknownKey() *AppError {
	return New(ErrCodeUnknownKey, "unknown key or algorithm")
}

// SignatureMismatch reports that every matching verifier rejected the signature.
func SignatureMismatch() *AppError {
	return New(ErrCodeSignatureMismatch, "signature mismatch")
}

// IssuerMismatch reports an iss claim outside the accepted set.
func IssuerMismatch() *AppError {
	return New(ErrCodeIssuerMismatch, "issuer mismatch")
}

// AudienceMismatch reports an audience that does not include the client.
func AudienceMismatch() *AppError {
	return New(ErrCodeAudienceMismatch, "audience mismatch")
}

// NotYetValid reports a token used before its nbf claim.
func NotYetValid() *AppError {
	return New(ErrCodeNotYetValid, "not yet valid")
}

// Expired reports a token used at or after its exp claim.
func Expired() *AppError {
	return New(ErrCodeExpired, "expired")
}

// --- Provider errors ---

// Validation reports data rejected by the provider or supplied wrongly by the caller.
func Validation(reason string) *AppError {
	return New(ErrCodeValidation, ValidationPrefix+reason)
}

// Upstream reports a provider, network or key-set fault.
func Upstream(cause error) *AppError {
	return New(ErrCodeUpstream, InternalMessage).WithCause(cause)
}

// MissingField reports absent required inputs.
func MissingField(reason string) *AppError {
	return New(ErrCodeMissingField, ValidationPrefix+reason)
}

// UnsupportedService reports a provider name with no bound extractor.
func UnsupportedService(service string) *AppError {
	return New(ErrCodeUnsupportedService, fmt.Sprintf("Login integration with %s is not supported", service)).
		WithDetail("service", service)
}

// InvalidInput reports a malformed request body or configuration value.
func InvalidInput(message string) *AppError {
	return New(ErrCodeInvalidInput, message)
}

// --- Inspection ---

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// CodeOf returns the code of the first AppError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ""
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}
