// Package httpclient provides the outbound HTTP client used to reach
// identity providers and key-set endpoints.
//
// The Client handles URL resolution, body encoding (JSON, form, raw),
// authentication, bounded response reads, tracing spans and status
// classification. Non-2xx responses are returned together with a typed
// *Error so callers can inspect both.
//
// # Basic Usage
//
//	client, err := httpclient.New(httpclient.Config{Timeout: 10 * time.Second})
//
//	resp, err := client.Do(ctx, httpclient.Request{
//	    Method: http.MethodPost,
//	    Path:   "https://github.com/login/oauth/access_token",
//	    Body:   url.Values{"code": {code}},
//	})
package httpclient
