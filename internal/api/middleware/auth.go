package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mparfenchuk/Blockchain-Document-Management-System/internal/db/models"
	"github.com/mparfenchuk/Blockchain-Document-Management-System/internal/services"
)

const principalKey = "principal"

type AuthMiddleware struct {
	users *services.UserService
}

func NewAuthMiddleware(users *services.UserService) *AuthMiddleware {
	return &AuthMiddleware{users: users}
}

// RequireAuth resolves the bearer credential to a principal and attaches it
// to the request. Requests without a valid credential are rejected before
// any index or ledger access happens.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "You must be signed in."})
			return
		}

		principal, err := am.users.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	// The original client sends the raw token in a "token" header; keep
	// accepting it.
	return c.GetHeader("token")
}

// Principal returns the authenticated user attached by RequireAuth.
func Principal(c *gin.Context) *models.User {
	value, exists := c.Get(principalKey)
	if !exists {
		return nil
	}
	principal, _ := value.(*models.User)
	return principal
}
