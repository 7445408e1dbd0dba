// Package middleware holds gin middleware for the HTTP layer.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"vtm/internal/infrastructure/auth"
	apperrors "vtm/internal/shared/errors"
	"vtm/internal/shared/utils"
)

const (
	// SessionTokenHeader is the legacy header clients send tokens in;
	// Authorization: Bearer is accepted as well.
	SessionTokenHeader = "X-Session-Token"

	ContextKeySession = "session_claims"
)

// SessionAuth verifies the session token and stores its claims on the
// request context. Verification is pure and non-blocking.
func SessionAuth(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "session token required")
			c.Abort()
			return
		}

		claims, err := jwtService.VerifySession(token)
		if err != nil {
			if apperrors.ShouldLogAuthError(err) {
				_ = c.Error(err)
			}
			utils.ErrorResponseWithError(c, err)
			c.Abort()
			return
		}

		c.Set(ContextKeySession, claims)
		c.Next()
	}
}

// GetSessionClaims returns the verified session claims set by SessionAuth.
func GetSessionClaims(c *gin.Context) (*auth.SessionClaims, bool) {
	v, ok := c.Get(ContextKeySession)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.SessionClaims)
	return claims, ok
}

func extractToken(c *gin.Context) string {
	if token := c.GetHeader(SessionTokenHeader); token != "" {
		return token
	}
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
