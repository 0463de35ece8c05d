package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/xelth-com/eckreceive/internal/utils"
)

type contextKey string

const purchaserKey contextKey = "purchaser"

// AnonymousPurchaser is used when the service runs without a JWT secret
const AnonymousPurchaser = "anonymous"

// Auth verifies bearer tokens and stores the purchaser in the request context.
// An empty secret disables verification.
func Auth(secret string, log *zap.SugaredLogger) func(http.Handler) http.Handler {
	if secret == "" {
		log.Warn("JWT_SECRET is empty, requests are not authenticated")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				next.ServeHTTP(w, r.WithContext(WithPurchaser(r.Context(), AnonymousPurchaser)))
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				unauthorized(w, r, "Authorization header required")
				return
			}

			// Bearer token
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				unauthorized(w, r, "Invalid authorization header format")
				return
			}

			claims, err := utils.ValidateToken(parts[1], secret)
			if err != nil {
				unauthorized(w, r, "Invalid or expired token")
				return
			}
			purchaser := utils.Purchaser(claims)
			if purchaser == "" {
				unauthorized(w, r, "Token does not name a purchaser")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPurchaser(r.Context(), purchaser)))
		})
	}
}

func unauthorized(w http.ResponseWriter, r *http.Request, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":    msg,
		"endpoint": r.Method + " " + r.URL.Path,
		"status":   http.StatusUnauthorized,
	})
}

// WithPurchaser stores the purchaser identity in ctx
func WithPurchaser(ctx context.Context, purchaser string) context.Context {
	return context.WithValue(ctx, purchaserKey, purchaser)
}

// PurchaserFrom returns the identity stored by Auth
func PurchaserFrom(ctx context.Context) string {
	if p, ok := ctx.Value(purchaserKey).(string); ok {
		return p
	}
	return ""
}
