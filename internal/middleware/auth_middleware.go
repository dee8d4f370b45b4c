package middleware

import (
	"net/http"
	"strings"

	"github.com/artrate/artrate/internal/utils"
	"github.com/gin-gonic/gin"
)

// RequireAuth rejects requests without a valid bearer access token.
// Claims land in the context for handlers and the policy checks.
func RequireAuth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := bearerClaims(c, jwtSecret)
		if !ok {
			return
		}
		if claims == nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header required",
			})
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("user_role", claims.Role)
		c.Set("claims", claims)

		c.Next()
	}
}

// OptionalAuth lets anonymous requests through untouched, but a presented
// credential must still be valid; garbage tokens are rejected rather than
// silently downgraded to anonymous.
func OptionalAuth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := bearerClaims(c, jwtSecret)
		if !ok {
			return
		}
		if claims != nil {
			c.Set("user_id", claims.UserID)
			c.Set("user_role", claims.Role)
			c.Set("claims", claims)
		}

		c.Next()
	}
}

// bearerClaims parses the Authorization header. It returns (nil, true)
// when no header is present, and aborts with 401 on a malformed or
// invalid credential.
func bearerClaims(c *gin.Context, jwtSecret string) (*utils.Claims, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, true
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Invalid authorization format. Use: Bearer <token>",
		})
		c.Abort()
		return nil, false
	}

	claims, err := utils.ValidateToken(tokenString, jwtSecret)
	if err != nil || claims.TokenType != utils.TokenTypeAccess {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Invalid or expired token",
		})
		c.Abort()
		return nil, false
	}

	return claims, true
}
