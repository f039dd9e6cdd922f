package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coursekit/examforge/internal/model"
	"github.com/coursekit/examforge/internal/response"
)

// RequireRole checks that the JWT carries one of the allowed roles.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		for _, role := range roles {
			if claims.Role == role {
				c.Next()
				return
			}
		}

		response.AbortFail(c, http.StatusForbidden, response.ErrPermissionDenied)
	}
}

// RequireAuthor is shorthand for the professor/admin gate guarding all exam
// authoring routes.
func RequireAuthor() gin.HandlerFunc {
	return RequireRole(model.RoleProfessor, model.RoleAdmin)
}
