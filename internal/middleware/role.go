package middleware

import (
	"net/http"

	domainUser "event-ticketing/internal/domain/user"
	"event-ticketing/pkg/utils"

	"github.com/gin-gonic/gin"
)

// RoleMiddleware must run after AuthMiddleware.
func RoleMiddleware(allowedRoles ...domainUser.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, exists := CurrentPrincipal(c)
		if !exists {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication required")
			c.Abort()
			return
		}

		if !principal.HasRole(allowedRoles...) {
			utils.ErrorResponse(c, http.StatusForbidden, "Insufficient permissions")
			c.Abort()
			return
		}

		c.Next()
	}
}

func HostOnly() gin.HandlerFunc {
	return RoleMiddleware(domainUser.RoleHost)
}
