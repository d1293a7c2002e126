package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"linkwise/internal/token"
)

const (
	sessionExpired = "Session expired"

	ContextUserIDKey = "user_id"
	ContextClaimsKey = "claims"
)

// TokenVerifier resolves a bearer token to claims.
type TokenVerifier interface {
	Verify(bearer string) (*token.Claims, error)
}

// BearerAuth rejects requests without a valid "Authorization: Bearer <token>" header.
func BearerAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Missing or invalid Authorization header"})
			return
		}
		claims, err := verifier.Verify(strings.TrimSpace(parts[1]))
		if err != nil {
			// Verifier errors carry parser detail; clients only see the session message.
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": sessionExpired})
			return
		}
		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextClaimsKey, claims)
		c.Next()
	}
}

// UserID returns the authenticated user set by BearerAuth.
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserIDKey)
}

// Claims returns the verified token claims set by BearerAuth.
func Claims(c *gin.Context) *token.Claims {
	value, _ := c.Get(ContextClaimsKey)
	claims, _ := value.(*token.Claims)
	return claims
}
