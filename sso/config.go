package sso

// GoogleConfig configures the Google OIDC id-token extractor.
type GoogleConfig struct {
	ClientID string `yaml:"client_id" mapstructure:"client_id" validate:"required"`
	AuthURL  string `yaml:"auth_url" mapstructure:"auth_url" validate:"required,url"`
	CertsURL string `yaml:"certs_url" mapstructure:"certs_url" validate:"required,url"`
}

// GitHubConfig configures the GitHub authorization-code extractor.
type GitHubConfig struct {
	ClientID       string `yaml:"client_id" mapstructure:"client_id" validate:"required"`
	AuthURL        string `yaml:"auth_url" mapstructure:"auth_url" validate:"required,url"`
	ClientSecret   string `yaml:"client_secret" mapstructure:"client_secret" validate:"required"`
	AccessTokenURL string `yaml:"access_token_url" mapstructure:"access_token_url" validate:"required,url"`
	UserURL        string `yaml:"user_url" mapstructure:"user_url" validate:"required,url"`
}

// GitLabConfig configures the GitLab extractor. Setting AccessTokenURL
// selects the code+PKCE exchange; leaving it empty treats the external token
// as a bearer access token.
type GitLabConfig struct {
	ClientID       string `yaml:"client_id" mapstructure:"client_id" validate:"required"`
	AuthURL        string `yaml:"auth_url" mapstructure:"auth_url" validate:"required,url"`
	AccessTokenURL string `yaml:"access_token_url" mapstructure:"access_token_url" validate:"omitempty,url"`
	TokenInfoURL   string `yaml:"token_info_url" mapstructure:"token_info_url" validate:"required,url"`
}

// UsesPKCE reports whether the code+PKCE exchange is configured.
func (c *GitLabConfig) UsesPKCE() bool { return c.AccessTokenURL != "" }
