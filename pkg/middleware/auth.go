package middleware

import (
	"errors"
	"strings"

	"chatanalytics/pkg/auth"
	pkgErrors "chatanalytics/pkg/errors"

	"github.com/gin-gonic/gin"
)

const (
	userIDKey    = "user_id"
	temporaryKey = "temporary"
	claimsKey    = "claims"
)

// AuthMiddleware JWT authentication middleware
func AuthMiddleware(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, pkgErrors.NewUnauthorized(pkgErrors.ReasonUnauthorized, "Authorization header required"))
			return
		}

		// Check Bearer scheme
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			abort(c, pkgErrors.NewUnauthorized(pkgErrors.ReasonUnauthorized, "Invalid authorization header format"))
			return
		}

		claims, err := jwtManager.ValidateToken(parts[1])
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrExpiredToken):
				abort(c, pkgErrors.NewUnauthorized(pkgErrors.ReasonTokenExpired, "Token expired"))
			case errors.Is(err, auth.ErrTemporarySession):
				abort(c, pkgErrors.NewForbidden(pkgErrors.ReasonForbidden, "Temporary sessions cannot submit feedback"))
			default:
				abort(c, pkgErrors.ErrUnauthorized)
			}
			return
		}

		c.Set(userIDKey, claims.Subject)
		c.Set(temporaryKey, claims.Temporary)
		c.Set(claimsKey, claims)

		c.Next()
	}
}

// abort writes err as a unified error body and stops the chain.
func abort(c *gin.Context, err error) {
	resp := pkgErrors.FromError(err).
		WithRequestID(c.GetString("request_id")).
		WithRequest(c.Request.Method, c.Request.URL.Path)
	c.AbortWithStatusJSON(resp.HTTPStatus(), resp)
}

// GetUserID extracts user ID from context
func GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get(userIDKey)
	if !exists {
		return "", false
	}
	id, ok := userID.(string)
	return id, ok
}

// IsTemporary reports whether the authenticated subject is a temporary session.
func IsTemporary(c *gin.Context) bool {
	return c.GetBool(temporaryKey)
}

// GetClaims extracts claims from context
func GetClaims(c *gin.Context) (*auth.Claims, bool) {
	claims, exists := c.Get(claimsKey)
	if !exists {
		return nil, false
	}
	authClaims, ok := claims.(*auth.Claims)
	return authClaims, ok
}
