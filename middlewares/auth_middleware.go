package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/hostel-meals/models"
	"github.com/yeremiapane/hostel-meals/services"
	"github.com/yeremiapane/hostel-meals/utils"
)

// Context keys set by the auth middlewares.
const (
	ContextUser   = "user"
	ContextUserID = "user_id"
	ContextRole   = "role"
	ContextClaims = "claims"
)

// AuthMiddleware validates the bearer token and loads the caller from the
// database, so approval and deactivation take effect without a new login.
func AuthMiddleware(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("Authorization header missing"))
			c.Abort()
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("Authorization header must be a Bearer token"))
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if !authenticate(c, auth, tokenString) {
			return
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, auth *services.AuthService, tokenString string) bool {
	claims, err := utils.ValidateToken(tokenString)
	if err != nil || claims == nil || claims.UserID == 0 {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("Invalid or expired token"))
		c.Abort()
		return false
	}

	user, err := auth.Actor(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("user no longer exists"))
		} else {
			utils.ErrorLogger.Errorf("Failed to load user %d: %v", claims.UserID, err)
			utils.RespondError(c, http.StatusInternalServerError, errors.New("internal server error"))
		}
		c.Abort()
		return false
	}

	c.Set(ContextUser, user)
	c.Set(ContextUserID, user.ID)
	c.Set(ContextRole, string(user.Role))
	c.Set(ContextClaims, claims)
	return true
}

// CurrentUser returns the user loaded by AuthMiddleware, or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(ContextUser)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// CurrentActor returns the caller as a services.Actor, or nil when the
// request is unauthenticated.
func CurrentActor(c *gin.Context) *services.Actor {
	return services.ActorFromUser(CurrentUser(c))
}
