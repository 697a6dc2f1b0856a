// backend/src/handlers/middleware.go
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/username/optionledger/backend/src/logger"
	"github.com/username/optionledger/backend/src/security"
	"github.com/username/optionledger/backend/src/utils"
)

type contextKey string

const (
	requestIDContextKey contextKey = "requestID"
	traderContextKey    contextKey = "trader"
)

// ContextualLoggerMiddleware attaches a logger carrying a fresh request ID to every request.
func ContextualLoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()

		ctxLogger := logger.L.With(slog.String("requestID", requestID))

		ctx := logger.ToContext(r.Context(), ctxLogger)
		ctx = context.WithValue(ctx, requestIDContextKey, requestID)
		w.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TradeAuthMiddleware requires a Bearer token with the trade scope. Without a configured
// signing secret the wrapped routes answer 503.
func TradeAuthMiddleware(auth *security.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctxLogger := logger.FromContext(r.Context())

			if auth == nil || !auth.Enabled() {
				ctxLogger.Warn("TradeAuthMiddleware: trading disabled, no signing secret", "path", r.URL.Path)
				utils.SendJSONError(w, "Trading is not enabled on this server", http.StatusServiceUnavailable)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				ctxLogger.Debug("TradeAuthMiddleware: Authorization header missing", "path", r.URL.Path)
				utils.SendJSONError(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
			if tokenString == "" {
				utils.SendJSONError(w, "Malformed token", http.StatusUnauthorized)
				return
			}

			trader, err := auth.ValidateTradeToken(tokenString)
			if err != nil {
				ctxLogger.Warn("TradeAuthMiddleware: token rejected", "path", r.URL.Path, "error", err)
				if errors.Is(err, security.ErrMissingScope) {
					utils.SendJSONError(w, "Token is not allowed to place trades", http.StatusForbidden)
					return
				}
				utils.SendJSONError(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			ctx := logger.ToContext(r.Context(), ctxLogger.With(slog.String("trader", trader)))
			ctx = context.WithValue(ctx, traderContextKey, trader)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetTraderFromContext returns the token subject set by TradeAuthMiddleware.
func GetTraderFromContext(ctx context.Context) (string, bool) {
	trader, ok := ctx.Value(traderContextKey).(string)
	return trader, ok
}
