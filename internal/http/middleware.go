package http

import (
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"github.com/cloudxplorer/StockDash/internal/domain"
	"github.com/cloudxplorer/StockDash/internal/models"
)

const userKey = "currentUser"

// requireAuth resolves the bearer token to a user and stores it on the
// context for downstream handlers.
func (s *Server) requireAuth(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized,
			apiError{Code: "unauthorized", Message: "missing bearer token"})
		return
	}
	u, err := s.Auth.UserFromToken(c.Request.Context(), token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized,
			apiError{Code: "unauthorized", Message: "invalid or expired token"})
		return
	}
	c.Set(userKey, u)
	c.Next()
}

// requireAdmin must run after requireAuth.
func (s *Server) requireAdmin(c *gin.Context) {
	if currentUser(c).Role != domain.RoleAdmin {
		c.AbortWithStatusJSON(http.StatusForbidden,
			apiError{Code: "forbidden", Message: "admin access required"})
		return
	}
	c.Next()
}

func currentUser(c *gin.Context) models.User {
	u, _ := c.Get(userKey)
	user, _ := u.(models.User)
	return user
}
