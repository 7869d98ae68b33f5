package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestAppError_New_Retryable(t *testing.T) {
	if !New(ErrCodeUpstream, "x").Retryable {
		t.Error("UPSTREAM_FAILURE should be retryable")
	}
	if New(ErrCodeSignatureMismatch, "x").Retryable {
		t.Error("SIGNATURE_MISMATCH should not be retryable")
	}
}

func TestFixedMessages(t *testing.T) {
	tests := []struct {
		err  *AppError
		code ErrorCode
		msg  string
	}{
		{UnknownKey(), ErrCodeUnknownKey, "unknown key or algorithm"},
		{SignatureMismatch(), ErrCodeSignatureMismatch, "signature mismatch"},
		{IssuerMismatch(), ErrCodeIssuerMismatch, "issuer mismatch"},
		{AudienceMismatch(), ErrCodeAudienceMismatch, "audience mismatch"},
		{NotYetValid(), ErrCodeNotYetValid, "not yet valid"},
		{Expired(), ErrCodeExpired, "expired"},
		{Upstream(nil), ErrCodeUpstream, "validation internal error"},
		{Validation("bad_verification_code"), ErrCodeValidation, "validation error: bad_verification_code"},
		{MissingField("missing redirect_uri or code_verifier"), ErrCodeMissingField, "validation error: missing redirect_uri or code_verifier"},
		{UnsupportedService("nope"), ErrCodeUnsupportedService, "Login integration with nope is not supported"},
	}
	for _, tc := range tests {
		t.Run(string(tc.code), func(t *testing.T) {
			if tc.err.Code != tc.code {
				t.Errorf("expected code %s, got %s", tc.code, tc.err.Code)
			}
			if tc.err.Message != tc.msg {
				t.Errorf("expected message %q, got %q", tc.msg, tc.err.Message)
			}
			if tc.err.ToResponse().Error != tc.msg {
				t.Errorf("response should carry message, got %q", tc.err.ToResponse().Error)
			}
		})
	}
}

func TestUnsupportedAlgorithm_Detail(t *testing.T) {
	err := UnsupportedAlgorithm("ES256")
	if err.Details["alg"] != "ES256" {
		t.Errorf("expected alg detail, got %v", err.Details)
	}
	if !strings.Contains(err.Message, "ES256") {
		t.Errorf("message should name the algorithm, got %q", err.Message)
	}
}

func TestAppError_WithCause_Chain(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Upstream(cause)
	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("Error() should contain cause, got %q", err.Error())
	}
}

func TestAppError_WithDetail_NilMap(t *testing.T) {
	err := &AppError{}
	err.WithDetail("key", "value")
	if err.Details["key"] != "value" {
		t.Error("expected detail to be set on a nil map")
	}
}

func TestCodeOf_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("google: %w", AudienceMismatch())
	if CodeOf(wrapped) != ErrCodeAudienceMismatch {
		t.Errorf("expected AUDIENCE_MISMATCH, got %q", CodeOf(wrapped))
	}
	if !Is(wrapped, ErrCodeAudienceMismatch) {
		t.Error("Is should see through wrapping")
	}
	if Is(nil, ErrCodeAudienceMismatch) {
		t.Error("nil error carries no code")
	}
	if CodeOf(stderrors.New("plain")) != "" {
		t.Error("plain errors have no code")
	}
}

func TestAsAppError(t *testing.T) {
	if _, ok := AsAppError(stderrors.New("plain")); ok {
		t.Error("plain error is not an AppError")
	}
	appErr, ok := AsAppError(fmt.Errorf("wrap: %w", Expired()))
	if !ok || appErr.Code != ErrCodeExpired {
		t.Errorf("expected wrapped EXPIRED, got %v", appErr)
	}
}
