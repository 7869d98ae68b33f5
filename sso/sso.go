// Package sso turns provider tokens and authorization codes into verified
// external user ids.
//
// Each provider has its own config type and verification contract:
//
//   - Google: the external token is an OIDC id token verified locally
//     against the provider's published key set.
//   - GitHub: the external token is an authorization code exchanged for an
//     access token, which is then used to read the user profile.
//   - GitLab: the external token is an authorization code exchanged with
//     PKCE when an access-token URL is configured, otherwise it is treated
//     as a bearer access token; either way the token is introspected and
//     must belong to the configured application.
//
// Extractions are never retried here; failures surface immediately.
package sso

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/kbukum/ssogate/httpclient"
	"github.com/kbukum/ssogate/jwks"
	"github.com/kbukum/ssogate/logger"
)

// Provider names a supported identity provider.
type Provider string

const (
	ProviderGoogle Provider = "google"
	ProviderGitHub Provider = "github"
	ProviderGitLab Provider = "gitlab"
)

// Providers lists every supported provider in binding order.
var Providers = []Provider{ProviderGoogle, ProviderGitHub, ProviderGitLab}

// Details carries the caller-supplied input of one extraction.
type Details struct {
	ExternalToken string `json:"externalToken"`
	RedirectURI   string `json:"redirectUri,omitempty"`
	CodeVerifier  string `json:"codeVerifier,omitempty"`
}

// Extractors holds what every provider extraction needs: the outbound HTTP
// client, the shared key-set cache, a clock and a logger.
type Extractors struct {
	http *httpclient.Client
	keys *jwks.Cache
	now  func() time.Time
	log  *logger.Logger
}

// Option customizes Extractors.
type Option func(*Extractors)

// WithClock overrides the time source for token validity checks.
func WithClock(now func() time.Time) Option {
	return func(e *Extractors) { e.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(e *Extractors) { e.log = l.WithComponent("sso") }
}

// NewExtractors creates the extractor set.
func NewExtractors(client *httpclient.Client, keys *jwks.Cache, opts ...Option) *Extractors {
	e := &Extractors{
		http: client,
		keys: keys,
		now:  time.Now,
		log:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// userID renders a JSON id that providers send either as a string or a number.
func userID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
