package validation

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/kbukum/ssogate/errors"
)

type providerConfig struct {
	ClientID string `mapstructure:"client_id" validate:"required"`
	CertsURL string `mapstructure:"certs_url" validate:"required,url"`
}

type rootConfig struct {
	Google *providerConfig `mapstructure:"google"`
	Port   int             `validate:"min=1,max=65535"`
}

func TestValidate_OK(t *testing.T) {
	cfg := rootConfig{
		Google: &providerConfig{ClientID: "abc", CertsURL: "https://example.com/certs"},
		Port:   8080,
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_NestedFieldPaths(t *testing.T) {
	cfg := rootConfig{
		Google: &providerConfig{CertsURL: "not a url"},
		Port:   0,
	}
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}

	appErr, _ := errors.AsAppError(err)
	want := []FieldError{
		{Field: "google.client_id", Message: "is required"},
		{Field: "google.certs_url", Message: "must be a valid URL"},
		{Field: "port", Message: "must be at least 1"},
	}
	if diff := cmp.Diff(want, appErr.Details["fields"]); diff != "" {
		t.Errorf("field errors mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(appErr.Message, "google.client_id: is required") {
		t.Errorf("message should list failures, got %q", appErr.Message)
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"ClientID":       "client_id",
		"CertsURL":       "certs_url",
		"AccessTokenURL": "access_token_url",
		"HTTPTimeout":    "http_timeout",
		"Port":           "port",
	}
	for in, want := range tests {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
