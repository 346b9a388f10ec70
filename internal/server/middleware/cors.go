package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORSOptions configures cross-origin access.
type CORSOptions struct {
	AllowedOrigins []string
	MaxAge         int
}

// CORS allows any origin, method, and header unless origins are restricted.
// Credentials are never allowed, so a wildcard origin stays valid.
func CORS(opts CORSOptions) func(http.Handler) http.Handler {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{RequestIDHeader, "Retry-After"},
		AllowCredentials: false,
		MaxAge:           opts.MaxAge,
	})
}
