package middleware

import (
	"net/http"
	"strings"

	"github.com/AtRiskMedia/pagecraft-go/internal/application/services"
	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/observability/logging"
	"github.com/gin-gonic/gin"
)

const (
	AuthCookie = "editor_auth"
	roleKey    = "role"
)

// TokenFromRequest reads a bearer token from the Authorization header, the
// auth cookie, or the token query parameter used by EventSource and
// websocket clients.
func TokenFromRequest(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := c.Cookie(AuthCookie); err == nil && cookie != "" {
		return cookie
	}
	return c.Query("token")
}

// RequireAuth rejects requests without a valid editor token. With roles
// given, the token's role must be one of them.
func RequireAuth(auth *services.AuthService, logger *logging.ChanneledLogger, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := auth.ValidateToken(TokenFromRequest(c), roles...)
		if !ok {
			logger.Auth().Warn("Unauthorized access attempt", "path", c.Request.URL.Path, "requestId", GetRequestID(c))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		c.Set(roleKey, role)
		c.Next()
	}
}

func GetRole(c *gin.Context) string {
	return c.GetString(roleKey)
}
