package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/hostel-meals/services"
)

// WebSocketAuthMiddleware authenticates upgrade requests, which cannot
// carry an Authorization header from browsers, via the token query param.
func WebSocketAuthMiddleware(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.AbortWithStatus(401)
			return
		}
		if !authenticate(c, auth, token) {
			return
		}
		c.Next()
	}
}
