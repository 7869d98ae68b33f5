package httpclient

import (
	"encoding/base64"
	"net/http"
)

// AuthConfig sets the Authorization header as "<Scheme> <Credential>".
// A nil config or an empty credential sends no header.
type AuthConfig struct {
	Scheme     string
	Credential string
}

// BearerAuth authenticates with an OAuth access token.
func BearerAuth(token string) *AuthConfig {
	return &AuthConfig{Scheme: "Bearer", Credential: token}
}

// BasicAuth authenticates with a client id and secret.
func BasicAuth(username, password string) *AuthConfig {
	return &AuthConfig{
		Scheme:     "Basic",
		Credential: base64.StdEncoding.EncodeToString([]byte(username + ":" + password)),
	}
}

func (a *AuthConfig) apply(req *http.Request) {
	if a == nil || a.Credential == "" {
		return
	}
	req.Header.Set("Authorization", a.Scheme+" "+a.Credential)
}
