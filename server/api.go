package server

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/ssogate/auth"
	"github.com/kbukum/ssogate/errors"
	"github.com/kbukum/ssogate/logger"
	"github.com/kbukum/ssogate/sso"
)

var servicePattern = regexp.MustCompile(`^[a-z0-9]+$`)

// Authenticator is the part of auth.Service the API needs.
type Authenticator interface {
	ClientConfig() map[string]auth.ClientConfig
	SupportsService(name string) bool
	ExtractID(ctx context.Context, name string, d sso.Details) (string, error)
}

// TokenGranter issues the caller's own user token once an external id is
// verified. userID is "<service>-<externalID>".
type TokenGranter interface {
	Grant(ctx context.Context, userID, service, externalID string) (string, error)
}

// TokenGranterFunc adapts an ordinary function to TokenGranter.
type TokenGranterFunc func(ctx context.Context, userID, service, externalID string) (string, error)

// Grant implements TokenGranter.
func (f TokenGranterFunc) Grant(ctx context.Context, userID, service, externalID string) (string, error) {
	return f(ctx, userID, service, externalID)
}

// TokenResponse is the body of a successful exchange.
type TokenResponse struct {
	UserToken string `json:"userToken"`
}

// API serves the authentication routes.
type API struct {
	auth     Authenticator
	granter  TokenGranter
	basePath string
	maxBody  int64
	log      *logger.Logger
}

// NewAPI creates the route handlers. basePath has no trailing slash.
func NewAPI(a Authenticator, granter TokenGranter, basePath string, maxBody int64, log *logger.Logger) *API {
	return &API{
		auth:     a,
		granter:  granter,
		basePath: strings.TrimRight(basePath, "/"),
		maxBody:  maxBody,
		log:      log.WithComponent("api"),
	}
}

// Register mounts the routes on engine. It takes over the engine's 404 and
// 405 handling.
func (a *API) Register(engine *gin.Engine) {
	engine.RedirectTrailingSlash = false
	engine.RedirectFixedPath = false
	engine.HandleMethodNotAllowed = true
	engine.NoRoute(notFound)
	engine.NoMethod(a.methodNotAllowed)

	roots := []string{a.basePath + "/"}
	if a.basePath != "" {
		roots = append(roots, a.basePath)
	}
	for _, p := range roots {
		engine.GET(p, a.getConfig)
	}
	engine.POST(a.basePath+"/:service", a.postService)
	engine.POST(a.basePath+"/:service/", a.postService)
}

func (a *API) getConfig(c *gin.Context) {
	c.JSON(http.StatusOK, a.auth.ClientConfig())
}

func (a *API) postService(c *gin.Context) {
	service := c.Param("service")
	if !servicePattern.MatchString(service) || !a.auth.SupportsService(service) {
		notFound(c)
		return
	}

	ctx := c.Request.Context()
	details, err := a.readDetails(c.Request)
	if err != nil {
		a.sendError(c, err)
		return
	}

	externalID, err := a.auth.ExtractID(ctx, service, details)
	if err != nil {
		a.sendError(c, err)
		return
	}
	if externalID == "" {
		a.sendError(c, errors.Validation("failed to get user ID"))
		return
	}

	userToken, err := a.granter.Grant(ctx, service+"-"+externalID, service, externalID)
	if err != nil {
		a.sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, TokenResponse{UserToken: userToken})
}

// readDetails decodes and type-checks the exchange body.
func (a *API) readDetails(r *http.Request) (sso.Details, error) {
	var d sso.Details
	if r.ContentLength > a.maxBody {
		return d, errors.InvalidInput("too much data")
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, a.maxBody+1))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return d, errors.InvalidInput("too much data")
		}
		return d, errors.InvalidInput("failed to read body").WithCause(err)
	}
	if int64(len(data)) > a.maxBody {
		return d, errors.InvalidInput("too much data")
	}

	trimmed := bytes.TrimSpace(data)
	if !json.Valid(trimmed) {
		return d, errors.InvalidInput("invalid JSON body")
	}
	var fields map[string]json.RawMessage
	// Arrays are accepted but carry no named fields.
	if trimmed[0] != '[' {
		if err := json.Unmarshal(trimmed, &fields); err != nil || fields == nil {
			return d, errors.InvalidInput("missing or invalid body")
		}
	}

	var ok bool
	if d.ExternalToken, ok = stringField(fields, "externalToken"); !ok || d.ExternalToken == "" {
		return d, errors.InvalidInput("no externalToken")
	}
	if _, present := fields["redirectUri"]; present {
		if d.RedirectURI, ok = stringField(fields, "redirectUri"); !ok {
			return d, errors.InvalidInput("invalid redirectUri")
		}
	}
	if _, present := fields["codeVerifier"]; present {
		if d.CodeVerifier, ok = stringField(fields, "codeVerifier"); !ok {
			return d, errors.InvalidInput("invalid codeVerifier")
		}
	}
	return d, nil
}

func stringField(fields map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := fields[key]
	if !ok || bytes.Equal(raw, []byte("null")) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// sendError maps failures onto the wire: provider and network faults are
// opaque 500s, every other typed failure is a 400 carrying its message.
func (a *API) sendError(c *gin.Context, err error) {
	log := a.log.WithContext(c.Request.Context())
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Code == errors.ErrCodeUpstream {
		log.Error("request failed", logger.Fields(logger.FieldError, err.Error()))
		c.JSON(http.StatusInternalServerError, errors.ErrorResponse{Error: "internal error"})
		return
	}
	log.Debug("request rejected", logger.Fields(
		logger.FieldCode, string(appErr.Code),
		logger.FieldError, appErr.Message,
	))
	c.JSON(http.StatusBadRequest, appErr.ToResponse())
}

func (a *API) methodNotAllowed(c *gin.Context) {
	rel, ok := strings.CutPrefix(c.Request.URL.Path, a.basePath)
	rel = strings.TrimPrefix(rel, "/")
	rel = strings.TrimSuffix(rel, "/")
	if ok && (rel == "" || servicePattern.MatchString(rel)) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{})
		return
	}
	notFound(c)
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{})
}
