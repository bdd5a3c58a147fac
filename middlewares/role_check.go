package middlewares

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/hostel-meals/services"
	"github.com/yeremiapane/hostel-meals/utils"
)

// RequireCapability stops the request before the handler unless the caller
// is granted capability.
func RequireCapability(capability services.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := CurrentActor(c)
		if actor == nil {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("unauthorized"))
			c.Abort()
			return
		}
		if err := services.Authorize(actor, capability); err != nil {
			utils.InfoLogger.Printf("Denied %s to user %d (role=%s): %v", capability, actor.ID, actor.Role, err)
			utils.RespondError(c, http.StatusForbidden, err)
			c.Abort()
			return
		}
		c.Next()
	}
}
