package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/heartsync/heartsync-backend/internal/common/utils"
	"github.com/heartsync/heartsync-backend/internal/config"
)

// Middleware protects routes behind JWT authentication.
type Middleware struct {
	secret string
	expiry time.Duration
}

func NewMiddleware(cfg *config.Config) *Middleware {
	return &Middleware{secret: cfg.JWTSecret, expiry: cfg.AccessTokenExpiry}
}

// Authenticate verifies the bearer token and adds the user identity to the
// request context, where handlers read it as the acting user.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			utils.RespondWithErrorKind(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid authorization header")
			return
		}

		claims, err := utils.ValidateJWT(token, m.secret)
		if err != nil {
			utils.RespondWithErrorKind(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
			return
		}

		if claims.Type != "access" {
			utils.RespondWithErrorKind(w, http.StatusUnauthorized, "unauthorized", "Invalid token type")
			return
		}
		if claims.ExpiresAt > 0 && claims.ExpiresAt < time.Now().Unix() {
			utils.RespondWithErrorKind(w, http.StatusUnauthorized, "unauthorized", "Token has expired")
			return
		}

		ctx := context.WithValue(r.Context(), "userID", claims.UserID)
		ctx = context.WithValue(ctx, "email", claims.Email)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}

	// Websocket clients can't set headers from the browser.
	return r.URL.Query().Get("token")
}
