package sso

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/kbukum/ssogate/errors"
	"github.com/kbukum/ssogate/httpclient"
)

type gitlabToken struct {
	Error       string `json:"error"`
	AccessToken string `json:"access_token"`
}

type gitlabTokenInfo struct {
	Error       string `json:"error"`
	Application struct {
		UID string `json:"uid"`
	} `json:"application"`
	ResourceOwnerID json.RawMessage `json:"resource_owner_id"`
}

// GitLab resolves the user behind a GitLab token. With an access-token URL
// configured the external token is an authorization code redeemed with
// PKCE; otherwise it is used directly as the access token. The access token
// must have been issued to cfg.ClientID.
func (e *Extractors) GitLab(ctx context.Context, cfg *GitLabConfig, d Details) (string, error) {
	accessToken := d.ExternalToken
	if cfg.UsesPKCE() {
		if d.RedirectURI == "" || d.CodeVerifier == "" {
			return "", errors.MissingField("missing redirect_uri or code_verifier")
		}
		token, err := e.redeemGitLabCode(ctx, cfg, d)
		if err != nil {
			return "", err
		}
		accessToken = token
	}
	return e.introspectGitLab(ctx, cfg, accessToken)
}

func (e *Extractors) redeemGitLabCode(ctx context.Context, cfg *GitLabConfig, d Details) (string, error) {
	resp, err := e.http.Do(ctx, httpclient.Request{
		Method:  http.MethodPost,
		Path:    cfg.AccessTokenURL,
		Headers: map[string]string{"Accept": "application/json"},
		Body: url.Values{
			"grant_type":            {"authorization_code"},
			"client_id":             {cfg.ClientID},
			"code":                  {d.ExternalToken},
			"redirect_uri":          {d.RedirectURI},
			"code_verifier":         {d.CodeVerifier},
			"code_challenge_method": {"S256"},
		},
	})
	if err != nil {
		return "", errors.Upstream(err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", errors.Upstream(fmt.Errorf("token endpoint returned HTTP %d", resp.StatusCode))
	}

	var token gitlabToken
	if err := json.Unmarshal(resp.Body, &token); err != nil {
		return "", errors.Upstream(err)
	}
	if token.Error != "" {
		return "", errors.Validation(token.Error)
	}
	if token.AccessToken == "" {
		return "", errors.Upstream(fmt.Errorf("no access_token in response"))
	}
	return token.AccessToken, nil
}

func (e *Extractors) introspectGitLab(ctx context.Context, cfg *GitLabConfig, accessToken string) (string, error) {
	resp, err := e.http.Do(ctx, httpclient.Request{
		Method:  http.MethodGet,
		Path:    cfg.TokenInfoURL,
		Headers: map[string]string{"Accept": "application/json"},
		Auth:    httpclient.BearerAuth(accessToken),
	})
	if resp == nil {
		return "", errors.Upstream(err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return "", errors.Upstream(err)
	}

	var info gitlabTokenInfo
	jsonErr := json.Unmarshal(resp.Body, &info)
	if resp.StatusCode != http.StatusOK || info.Error != "" {
		reason := info.Error
		if reason == "" {
			reason = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		return "", errors.Validation(reason)
	}
	if jsonErr != nil {
		return "", errors.Upstream(jsonErr)
	}

	if info.Application.UID != cfg.ClientID {
		return "", errors.AudienceMismatch().WithDetail("uid", info.Application.UID)
	}
	return userID(info.ResourceOwnerID), nil
}
