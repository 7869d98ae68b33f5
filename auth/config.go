package auth

import (
	"fmt"
	"strings"

	"github.com/kbukum/ssogate/sso"
	"github.com/kbukum/ssogate/util"
	"github.com/kbukum/ssogate/validation"
)

// Public provider endpoints.
const (
	GoogleAuthURL  = "https://accounts.google.com/o/oauth2/v2/auth"
	GoogleCertsURL = "https://www.googleapis.com/oauth2/v3/certs"

	GitHubAuthURL        = "https://github.com/login/oauth/authorize"
	GitHubAccessTokenURL = "https://github.com/login/oauth/access_token"
	GitHubUserURL        = "https://api.github.com/user"

	GitLabAuthURL      = "https://gitlab.com/oauth/authorize"
	GitLabTokenInfoURL = "https://gitlab.com/oauth/token/info"
)

// Config holds one optional sub-config per provider. A provider is bound
// only when its sub-config is present with a client id.
type Config struct {
	Google *sso.GoogleConfig `yaml:"google" mapstructure:"google"`
	GitHub *sso.GitHubConfig `yaml:"github" mapstructure:"github"`
	GitLab *sso.GitLabConfig `yaml:"gitlab" mapstructure:"gitlab"`
}

// ApplyDefaults fills unset endpoints of configured providers with the
// public ones. The GitLab code exchange URL is never defaulted; setting it
// opts into PKCE.
func (c *Config) ApplyDefaults() {
	if g := c.Google; g != nil {
		g.AuthURL = util.Coalesce(g.AuthURL, GoogleAuthURL)
		g.CertsURL = util.Coalesce(g.CertsURL, GoogleCertsURL)
	}
	if g := c.GitHub; g != nil {
		g.AuthURL = util.Coalesce(g.AuthURL, GitHubAuthURL)
		g.AccessTokenURL = util.Coalesce(g.AccessTokenURL, GitHubAccessTokenURL)
		g.UserURL = util.Coalesce(g.UserURL, GitHubUserURL)
	}
	if g := c.GitLab; g != nil {
		g.AuthURL = util.Coalesce(g.AuthURL, GitLabAuthURL)
		g.TokenInfoURL = util.Coalesce(g.TokenInfoURL, GitLabTokenInfoURL)
	}
}

// Validate checks every provider that will be bound.
func (c *Config) Validate() error {
	if c.Google != nil && c.Google.ClientID != "" {
		if err := validation.Validate(c.Google); err != nil {
			return fmt.Errorf("auth.google: %w", err)
		}
	}
	if c.GitHub != nil && c.GitHub.ClientID != "" {
		if err := validation.Validate(c.GitHub); err != nil {
			return fmt.Errorf("auth.github: %w", err)
		}
	}
	if c.GitLab != nil && c.GitLab.ClientID != "" {
		if err := validation.Validate(c.GitLab); err != nil {
			return fmt.Errorf("auth.gitlab: %w", err)
		}
	}
	return nil
}

// Describe returns a human-readable one-liner for the startup summary.
// Example: "google(1234***) gitlab(abcd***,pkce)"
func (c *Config) Describe() string {
	var parts []string
	if c.Google != nil && c.Google.ClientID != "" {
		parts = append(parts, fmt.Sprintf("google(%s)", util.MaskSecret(c.Google.ClientID, 4)))
	}
	if c.GitHub != nil && c.GitHub.ClientID != "" {
		parts = append(parts, fmt.Sprintf("github(%s)", util.MaskSecret(c.GitHub.ClientID, 4)))
	}
	if c.GitLab != nil && c.GitLab.ClientID != "" {
		mode := ""
		if c.GitLab.UsesPKCE() {
			mode = ",pkce"
		}
		parts = append(parts, fmt.Sprintf("gitlab(%s%s)", util.MaskSecret(c.GitLab.ClientID, 4), mode))
	}
	if len(parts) == 0 {
		return "no providers configured"
	}
	return strings.Join(parts, " ")
}
