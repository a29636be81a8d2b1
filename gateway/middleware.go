package gateway

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/newsbus/newsbus/contracts"
	"github.com/newsbus/newsbus/internal/token"
)

const claimsKey = "claims"

// authRequired verifies the Bearer token and stows its claims on the
// request context.
func (s *Server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, found := strings.CutPrefix(header, "Bearer ")
		if !found || raw == "" {
			s.render(c, http.StatusUnauthorized, "AuthorizationError", "missing bearer token")
			return
		}

		claims, err := token.Parse(s.jwtSecret, raw)
		if err != nil {
			s.render(c, http.StatusUnauthorized, "AuthorizationError", "invalid or expired token")
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// adminRequired gates the admin-only surface by role claim.
func (s *Server) adminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := s.claims(c)
		if claims == nil || claims.Role != contracts.RoleAdmin {
			s.render(c, http.StatusForbidden, "AuthorizationError", "admin role required")
			return
		}
		c.Next()
	}
}

func (s *Server) claims(c *gin.Context) *token.Claims {
	value, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := value.(*token.Claims)
	return claims
}
