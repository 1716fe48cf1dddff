// internal/auth/middleware.go
package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"chat-relay/internal/metrics"
)

type deniedBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// APIKeyMiddleware rejects every request the gate does not accept with the same 401.
func APIKeyMiddleware(gate *Gate, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := gate.Check(r.Header.Values(HeaderName)); err != nil {
				metrics.AuthDenied.Inc()
				log.Info("request denied",
					"reason", err.Error(),
					"method", r.Method,
					"path", r.URL.Path,
					"request_id", middleware.GetReqID(r.Context()),
				)

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(deniedBody{
					Code:    http.StatusUnauthorized,
					Message: "unauthorized",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
