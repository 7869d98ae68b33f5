// Package server exposes the authentication service over HTTP.
//
// It runs Gin behind a net/http middleware stack with HTTP/2 cleartext
// support. Routes live under a configurable base path:
//
//	GET  {base}/          public client config of every bound provider
//	POST {base}/{service} exchange an external token for a user token
//
// Any other method on those paths answers 405; everything else 404. All
// responses are JSON and marked uncacheable.
package server
