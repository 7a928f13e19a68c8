package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/signuphub/signuphub/internal/platform/httpx"
)

// RequireBasicAuth authenticates each request with HTTP basic
// credentials and injects the principal into the request context.
// Missing credentials and bad credentials answer differently: the
// former is a 401, the latter a 400 with one undifferentiated message.
func RequireBasicAuth(gate *Gate, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email, password, ok := r.BasicAuth()
			if !ok {
				w.Header().Set("WWW-Authenticate", `Basic realm="accounts"`)
				httpx.Detail(w, http.StatusUnauthorized, "Not authenticated")
				return
			}

			principal, err := gate.Authenticate(r.Context(), email, password)
			if err != nil {
				if errors.Is(err, ErrInvalidCredentials) {
					httpx.Detail(w, http.StatusBadRequest, "Incorrect email or password")
					return
				}
				logger.Error("credential check failed", slog.Any("error", err))
				httpx.Detail(w, http.StatusInternalServerError, "An error has occured")
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
		})
	}
}
