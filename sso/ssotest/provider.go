// Package ssotest simulates the identity providers the sso package talks
// to. It issues RS256 id tokens through a login form, publishes the signing
// key set, and answers scripted GitHub and GitLab token exchanges.
//
// It trusts every redirect URI it is given and must only be used for local
// development and tests.
package ssotest

import (
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbukum/ssogate/jwt"
	"github.com/kbukum/ssogate/sso"
)

// Default values used when no option overrides them.
const (
	DefaultIssuer       = "https://accounts.google.com"
	DefaultKeyID        = "mock-key"
	DefaultCacheControl = "public, max-age=0, must-revalidate, no-transform"
	DefaultClientSecret = "mock-secret"
	tokenLifetime       = time.Hour
)

// Provider is the mock identity provider. It is safe for concurrent use.
type Provider struct {
	issuer       string
	clientSecret string
	key          *jwt.RSAKey
	now          func() time.Time
	engine       *gin.Engine

	mu           sync.Mutex
	cacheControl string
	certsFetches int
	github       map[string]any
	githubTokens map[string]any
	gitlabCodes  map[string]GitLabGrant
	gitlabTokens map[string]GitLabGrant
}

// GitLabGrant scripts one GitLab authorization. Challenge and RedirectURI
// are checked on code redemption when set.
type GitLabGrant struct {
	AppUID      string
	UserID      any
	Challenge   string
	RedirectURI string
}

// Option customizes a Provider.
type Option func(*Provider)

// WithIssuer sets the iss claim of issued id tokens.
func WithIssuer(iss string) Option {
	return func(p *Provider) { p.issuer = iss }
}

// WithClientSecret sets the GitHub client secret the token endpoint expects.
func WithClientSecret(secret string) Option {
	return func(p *Provider) { p.clientSecret = secret }
}

// WithClock overrides the time source for issued tokens.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) { p.now = now }
}

// WithKey signs id tokens with key instead of a generated one.
func WithKey(key *jwt.RSAKey) Option {
	return func(p *Provider) { p.key = key }
}

// New creates a provider with a fresh RS256 signing key.
func New(opts ...Option) (*Provider, error) {
	p := &Provider{
		issuer:       DefaultIssuer,
		clientSecret: DefaultClientSecret,
		now:          time.Now,
		cacheControl: DefaultCacheControl,
		github:       make(map[string]any),
		githubTokens: make(map[string]any),
		gitlabCodes:  make(map[string]GitLabGrant),
		gitlabTokens: make(map[string]GitLabGrant),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.key == nil {
		key, err := jwt.GenerateRSA(DefaultKeyID)
		if err != nil {
			return nil, fmt.Errorf("ssotest: generate key: %w", err)
		}
		p.key = key
	}
	p.engine = p.routes()
	return p, nil
}

// ServeHTTP implements http.Handler.
func (p *Provider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.engine.ServeHTTP(w, r)
}

// Key returns the signing key.
func (p *Provider) Key() *jwt.RSAKey { return p.key }

// Issuer returns the iss claim used for id tokens.
func (p *Provider) Issuer() string { return p.issuer }

// SetCertsCacheControl changes the Cache-Control header of the key set.
func (p *Provider) SetCertsCacheControl(v string) {
	p.mu.Lock()
	p.cacheControl = v
	p.mu.Unlock()
}

// CertsFetches returns how many times the key set was served.
func (p *Provider) CertsFetches() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.certsFetches
}

// AddGitHubCode makes code redeemable for a GitHub user with the given id.
func (p *Provider) AddGitHubCode(code string, userID any) {
	p.mu.Lock()
	p.github[code] = userID
	p.mu.Unlock()
}

// AddGitLabCode makes code redeemable through the PKCE token endpoint.
func (p *Provider) AddGitLabCode(code string, g GitLabGrant) {
	p.mu.Lock()
	p.gitlabCodes[code] = g
	p.mu.Unlock()
}

// AddGitLabToken makes token known to the introspection endpoint.
func (p *Provider) AddGitLabToken(token string, g GitLabGrant) {
	p.mu.Lock()
	p.gitlabTokens[token] = g
	p.mu.Unlock()
}

// IDToken issues a signed id token for subject. Extra claims override the
// defaults.
func (p *Provider) IDToken(clientID, subject string, extra map[string]any) (string, error) {
	now := p.now().Unix()
	claims := map[string]any{
		"iss": p.issuer,
		"aud": clientID,
		"jti": uuid.NewString(),
		"sub": subject,
		"iat": now,
		"exp": now + int64(tokenLifetime/time.Second),
	}
	for k, v := range extra {
		claims[k] = v
	}
	return jwt.Encode(p.key, claims, nil)
}

// GoogleConfig returns extractor settings pointing at a provider served
// from baseURL.
func GoogleConfig(baseURL, clientID string) *sso.GoogleConfig {
	return &sso.GoogleConfig{
		ClientID: clientID,
		AuthURL:  baseURL + "/auth",
		CertsURL: baseURL + "/certs",
	}
}

// GitHubConfig returns extractor settings pointing at a provider served
// from baseURL.
func GitHubConfig(baseURL, clientID string) *sso.GitHubConfig {
	return &sso.GitHubConfig{
		ClientID:       clientID,
		AuthURL:        baseURL + "/auth",
		ClientSecret:   DefaultClientSecret,
		AccessTokenURL: baseURL + "/github/access_token",
		UserURL:        baseURL + "/github/user",
	}
}

// GitLabConfig returns extractor settings pointing at a provider served
// from baseURL. With pkce set the code exchange endpoint is configured.
func GitLabConfig(baseURL, clientID string, pkce bool) *sso.GitLabConfig {
	cfg := &sso.GitLabConfig{
		ClientID:     clientID,
		AuthURL:      baseURL + "/auth",
		TokenInfoURL: baseURL + "/gitlab/token/info",
	}
	if pkce {
		cfg.AccessTokenURL = baseURL + "/gitlab/token"
	}
	return cfg
}

var loginPage = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html>
  <head>
    <title>Mock OAuth service</title>
    <style>
      body { background: #EEEEEE; font: 1em sans-serif; margin: 0; padding: 0; }
      form { width: 400px; max-width: calc(100% - 20px); box-sizing: border-box; margin: 50px auto; padding: 15px; background: #FFFFFF; }
      h1 { margin: 0 0 20px; text-align: center; }
      p { font-size: 0.8em; margin: 20px 0; }
      input[type=text] { width: 200px; font-size: 0.9em; padding: 4px; margin: 0 10px; }
      button { font-size: 0.9em; padding: 6px 12px; border: none; background: #008800; color: #FFFFFF; cursor: pointer; }
    </style>
  </head>
  <body>
    <form method="POST">
      <h1>Mock OAuth service</h1>
      <p>This is a mock implementation of an OAuth server for testing purposes.</p>
      <input type="hidden" name="redirect_uri" value="{{.RedirectURI}}" />
      <input type="hidden" name="nonce" value="{{.Nonce}}" />
      <input type="hidden" name="state" value="{{.State}}" />
      <input type="hidden" name="client_id" value="{{.ClientID}}" />
      <label>Sign in as <input type="text" name="identifier" required autofocus /></label><button>Sign in</button>
    </form>
  </body>
</html>
`))

func (p *Provider) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.SetHTMLTemplate(loginPage)

	r.GET("/auth", p.loginForm)
	r.POST("/auth", p.login)
	r.GET("/certs", p.certs)
	r.POST("/github/access_token", p.githubAccessToken)
	r.GET("/github/user", p.githubUser)
	r.POST("/gitlab/token", p.gitlabToken)
	r.GET("/gitlab/token/info", p.gitlabTokenInfo)
	return r
}

func (p *Provider) loginForm(c *gin.Context) {
	c.HTML(http.StatusOK, "login", gin.H{
		"RedirectURI": c.Query("redirect_uri"),
		"Nonce":       c.Query("nonce"),
		"State":       c.Query("state"),
		"ClientID":    c.Query("client_id"),
	})
}

func (p *Provider) login(c *gin.Context) {
	redirectURI := c.PostForm("redirect_uri")
	clientID := c.PostForm("client_id")
	identifier := c.PostForm("identifier")
	if redirectURI == "" || clientID == "" || identifier == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing fields"})
		return
	}

	extra := map[string]any{}
	if nonce := c.PostForm("nonce"); nonce != "" {
		extra["nonce"] = nonce
	}
	idToken, err := p.IDToken(clientID, identifier, extra)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	fragment := url.Values{"id_token": {idToken}, "state": {c.PostForm("state")}}
	c.Redirect(http.StatusSeeOther, redirectURI+"#"+fragment.Encode())
}

func (p *Provider) certs(c *gin.Context) {
	p.mu.Lock()
	p.certsFetches++
	cacheControl := p.cacheControl
	p.mu.Unlock()

	c.Header("Cache-Control", cacheControl)
	c.JSON(http.StatusOK, jwt.JWKS{Keys: []jwt.JWK{p.key.JWK()}})
}

// GitHub answers token requests in form encoding with status 200, errors
// included.
func (p *Provider) githubAccessToken(c *gin.Context) {
	code := c.PostForm("code")
	if c.PostForm("client_secret") != p.clientSecret {
		sendForm(c, url.Values{"error": {"incorrect_client_credentials"}})
		return
	}

	p.mu.Lock()
	id, ok := p.github[code]
	if ok {
		delete(p.github, code)
		p.githubTokens["gho_"+code] = id
	}
	p.mu.Unlock()

	if !ok {
		sendForm(c, url.Values{"error": {"bad_verification_code"}})
		return
	}
	sendForm(c, url.Values{
		"access_token": {"gho_" + code},
		"scope":        {""},
		"token_type":   {"bearer"},
	})
}

func (p *Provider) githubUser(c *gin.Context) {
	p.mu.Lock()
	id, ok := p.githubTokens[bearer(c)]
	p.mu.Unlock()

	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Bad credentials"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "login": fmt.Sprintf("user%v", id)})
}

func (p *Provider) gitlabToken(c *gin.Context) {
	if c.PostForm("grant_type") != "authorization_code" || c.PostForm("code_challenge_method") != "S256" {
		c.JSON(http.StatusOK, gin.H{"error": "unsupported_grant_type"})
		return
	}

	code := c.PostForm("code")
	p.mu.Lock()
	g, ok := p.gitlabCodes[code]
	p.mu.Unlock()

	switch {
	case !ok, g.AppUID != c.PostForm("client_id"):
		c.JSON(http.StatusOK, gin.H{"error": "invalid_grant"})
		return
	case g.RedirectURI != "" && g.RedirectURI != c.PostForm("redirect_uri"):
		c.JSON(http.StatusOK, gin.H{"error": "invalid_grant"})
		return
	case g.Challenge != "" && !sso.VerifyPKCE(c.PostForm("code_verifier"), g.Challenge):
		c.JSON(http.StatusOK, gin.H{"error": "invalid_grant"})
		return
	}

	token := "glpat-" + code
	p.mu.Lock()
	delete(p.gitlabCodes, code)
	p.gitlabTokens[token] = g
	p.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   int64(tokenLifetime / time.Second),
		"created_at":   p.now().Unix(),
	})
}

func (p *Provider) gitlabTokenInfo(c *gin.Context) {
	p.mu.Lock()
	g, ok := p.gitlabTokens[bearer(c)]
	p.mu.Unlock()

	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"resource_owner_id":  g.UserID,
		"scope":              []string{"openid"},
		"expires_in_seconds": int64(tokenLifetime / time.Second),
		"application":        gin.H{"uid": g.AppUID},
		"created_at":         p.now().Unix(),
	})
}

func sendForm(c *gin.Context, v url.Values) {
	c.Data(http.StatusOK, "application/x-www-form-urlencoded; charset=utf-8", []byte(v.Encode()))
}

func bearer(c *gin.Context) string {
	return strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
}
