package middleware

import (
	"net/http"
)

// DefaultMaxBodySize bounds ingest request bodies.
const DefaultMaxBodySize int64 = 1 << 20 // 1MB

// RequestSize wraps the body in http.MaxBytesReader. Reads past maxBytes fail,
// and the handler reading the body decides what status that maps to.
func RequestSize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
