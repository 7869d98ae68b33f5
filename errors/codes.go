package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Token structure and signature errors
const (
	// ErrCodeMalformedToken indicates the token is not a well-formed compact JWT.
	ErrCodeMalformedToken ErrorCode = "MALFORMED_TOKEN"
	// ErrCodeUnsupportedAlgorithm indicates an algorithm the registry cannot build.
	ErrCodeUnsupportedAlgorithm ErrorCode = "UNSUPPORTED_ALGORITHM"
	// ErrCodeUnknownKey indicates no candidate verifier matched the token's alg/kid.
	ErrCodeUnknownKey ErrorCode = "UNKNOWN_KEY_OR_ALGORITHM"
	// ErrCodeSignatureMismatch indicates a matching verifier rejected the signature.
	ErrCodeSignatureMismatch ErrorCode = "SIGNATURE_MISMATCH"
)

// Claim errors
const (
	// ErrCodeIssuerMismatch indicates the iss claim is not an accepted issuer.
	ErrCodeIssuerMismatch ErrorCode = "ISSUER_MISMATCH"
	// ErrCodeAudienceMismatch indicates the audience does not include this client.
	ErrCodeAudienceMismatch ErrorCode = "AUDIENCE_MISMATCH"
	// ErrCodeNotYetValid indicates the nbf claim lies in the future.
	ErrCodeNotYetValid ErrorCode = "NOT_YET_VALID"
	// ErrCodeExpired indicates the exp claim has passed.
	ErrCodeExpired ErrorCode = "EXPIRED"
)

// Provider exchange errors
const (
	// ErrCodeValidation indicates the caller or the provider's data was rejected.
	ErrCodeValidation ErrorCode = "VALIDATION"
	// ErrCodeUpstream indicates a provider or network fault.
	ErrCodeUpstream ErrorCode = "UPSTREAM_FAILURE"
	// ErrCodeMissingField indicates a required input is absent.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
)

// Service errors
const (
	// ErrCodeUnsupportedService indicates no extractor is bound for the provider.
	ErrCodeUnsupportedService ErrorCode = "UNSUPPORTED_SERVICE"
	// ErrCodeInvalidInput indicates a malformed request or configuration.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeUpstream: true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
// Nothing inside this module retries; the flag is advice for callers.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
