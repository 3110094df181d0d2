package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"todo-be/internal/jwt"
)

// UserIDKey is the gin context key holding the authenticated user id.
const UserIDKey = "user_id"

type userIDCtxKey struct{}

// TokenValidator verifies an access token and returns its claims.
type TokenValidator interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

// AuthMiddleware admits only requests carrying a valid "Bearer <token>"
// Authorization header. Every rejection gets the same 401 body.
func AuthMiddleware(tokens TokenValidator, log *slog.Logger) gin.HandlerFunc {
	const op = "middleware.AuthMiddleware"

	log = log.With(slog.String("op", op))

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, log, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			unauthorized(c, log, "malformed authorization header")
			return
		}

		claims, err := tokens.ValidateToken(parts[1])
		if errors.Is(err, jwt.ErrExpiredToken) {
			unauthorized(c, log, "token expired")
			return
		}
		if err != nil || claims.UserID == "" {
			unauthorized(c, log, "invalid token")
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Request = c.Request.WithContext(WithUserID(c.Request.Context(), claims.UserID))

		c.Next()
	}
}

func unauthorized(c *gin.Context, log *slog.Logger, reason string) {
	log.Debug("request rejected", slog.String("reason", reason), slog.String("path", c.Request.URL.Path))
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
}

// WithUserID returns a copy of ctx carrying userID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDCtxKey{}, userID)
}

// UserID returns the authenticated user id stored by AuthMiddleware.
func UserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDCtxKey{}).(string)
	return userID, ok && userID != ""
}
