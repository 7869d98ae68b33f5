package middleware

import "net/http"

// NoCache marks every response as uncacheable and unsniffable. Token
// responses must never be stored by browsers or proxies.
func NoCache() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("Cache-Control", "no-cache, no-store")
			h.Set("Expires", "0")
			h.Set("Pragma", "no-cache")
			next.ServeHTTP(w, r)
		})
	}
}
