package sso

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/kbukum/ssogate/errors"
	"github.com/kbukum/ssogate/httpclient"
	"github.com/kbukum/ssogate/logger"
)

type githubUser struct {
	ID json.RawMessage `json:"id"`
}

// GitHub exchanges an authorization code for an access token and returns the
// id of the user it belongs to.
func (e *Extractors) GitHub(ctx context.Context, cfg *GitHubConfig, d Details) (string, error) {
	resp, err := e.http.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   cfg.AccessTokenURL,
		Body: url.Values{
			"code":          {d.ExternalToken},
			"client_id":     {cfg.ClientID},
			"client_secret": {cfg.ClientSecret},
		},
	})
	if resp == nil {
		return "", errors.Upstream(err)
	}

	// The token endpoint answers in form encoding, errors included. Pairs
	// that fail to parse are dropped and the rest still count.
	values, _ := url.ParseQuery(string(resp.Body))
	if reason := values.Get("error"); reason != "" {
		return "", errors.Validation(reason)
	}
	accessToken := values.Get("access_token")
	if accessToken == "" {
		if err == nil {
			err = fmt.Errorf("no access_token in response")
		}
		return "", errors.Upstream(err)
	}

	user, err := httpclient.DoJSON[githubUser](ctx, e.http, httpclient.Request{
		Method: http.MethodGet,
		Path:   cfg.UserURL,
		Auth:   httpclient.BearerAuth(accessToken),
	})
	if err != nil {
		e.log.WithContext(ctx).Warn("github user lookup failed", logger.Fields(
			logger.FieldURL, cfg.UserURL,
			logger.FieldStatus, httpclient.StatusCode(err),
		))
		return "", errors.Upstream(err)
	}
	return userID(user.Data.ID), nil
}
