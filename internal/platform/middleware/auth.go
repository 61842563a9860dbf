package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"userflat/pkg/requestcontext"
)

// TokenValidator validates a bearer token and returns the caller's subject.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

// Claims is what the middleware needs from a validated token.
type Claims struct {
	Subject  string
	ClientID string
}

// RequireAuth rejects requests without a valid bearer token and stores the
// token subject in the request context.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				writeUnauthorized(w, logger, r, "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeUnauthorized(w, logger, r, "Invalid or expired token")
				return
			}

			ctx = requestcontext.WithSubject(ctx, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, logger *slog.Logger, r *http.Request, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, err := w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to write unauthorized response",
			"error", err,
			"request_id", requestcontext.RequestID(r.Context()),
		)
	}
}
