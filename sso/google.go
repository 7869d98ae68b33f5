package sso

import (
	"context"

	"github.com/kbukum/ssogate/jwt"
)

// GoogleIssuers are the iss values Google puts in id tokens.
var GoogleIssuers = []string{"accounts.google.com", "https://accounts.google.com"}

// Google verifies an OIDC id token against the key set at cfg.CertsURL and
// returns its subject.
func (e *Extractors) Google(ctx context.Context, cfg *GoogleConfig, d Details) (string, error) {
	verifiers, err := e.keys.Get(ctx, cfg.CertsURL)
	if err != nil {
		return "", err
	}

	token, err := jwt.Decode(d.ExternalToken,
		jwt.WithKeys(verifiers...),
		jwt.WithIssuer(GoogleIssuers...),
		jwt.WithAudience(cfg.ClientID),
		jwt.WithActiveAt(e.now()),
	)
	if err != nil {
		return "", err
	}
	return token.Subject(), nil
}
