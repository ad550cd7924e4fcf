package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nurpe/taskmarket/internal/auth"
	"github.com/nurpe/taskmarket/internal/model"
)

const principalKey = "principal"

// Auth parses the Bearer token and stores the caller identity in the
// request context. Requests without a valid token are rejected.
func Auth(parser *auth.Parser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			return
		}

		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header must be a Bearer token"})
			return
		}

		principal, err := parser.Parse(strings.TrimSpace(tokenString))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(principalKey, *principal)
		c.Next()
	}
}

// MustPrincipal returns the identity stored by Auth. Calling it on a route
// outside the auth group is a programming error.
func MustPrincipal(c *gin.Context) model.Principal {
	value, ok := c.Get(principalKey)
	if !ok {
		panic("principal missing from context; route not behind auth middleware")
	}
	return value.(model.Principal)
}
