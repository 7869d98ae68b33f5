package ssotest

import (
	"net/http/httptest"
	"testing"
)

// Server is a Provider listening on a local httptest server.
type Server struct {
	*Provider
	URL string
	srv *httptest.Server
}

// NewServer starts a provider for the duration of the test.
func NewServer(tb testing.TB, opts ...Option) *Server {
	tb.Helper()

	p, err := New(opts...)
	if err != nil {
		tb.Fatalf("ssotest: %v", err)
	}
	srv := httptest.NewServer(p)
	tb.Cleanup(srv.Close)
	return &Server{Provider: p, URL: srv.URL, srv: srv}
}

// Close shuts the server down early.
func (s *Server) Close() { s.srv.Close() }
