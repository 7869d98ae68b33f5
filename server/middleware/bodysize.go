package middleware

import (
	"net/http"

	"github.com/kbukum/ssogate/util"
)

// DefaultMaxBodySize caps request bodies when no size is configured.
const DefaultMaxBodySize = 4 * 1024

// BodySizeLimit returns middleware that restricts the request body to the given
// size string (e.g. "4KB", "1MB"). Reading past the limit fails with
// *http.MaxBytesError.
func BodySizeLimit(maxSize string) Middleware {
	size := util.SizeOr(maxSize, DefaultMaxBodySize)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, size)
			next.ServeHTTP(w, r)
		})
	}
}
