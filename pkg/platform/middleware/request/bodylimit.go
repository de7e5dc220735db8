package request

import (
	"net/http"
)

// DefaultMaxBodyBytes bounds inbound JSON bodies; a resolve request is a
// single short field.
const DefaultMaxBodyBytes int64 = 64 << 10

// BodyLimit returns middleware that limits the size of request bodies.
// Decoders reading past the limit fail and the connection is closed.
func BodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
