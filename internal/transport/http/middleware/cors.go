package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS allows the browser frontend to call the API with its session cookie.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", HeaderXRequestID},
		ExposedHeaders:   []string{HeaderXRequestID, "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
