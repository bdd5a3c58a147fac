package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/hostel-meals/middlewares"
	"github.com/yeremiapane/hostel-meals/services"
	"github.com/yeremiapane/hostel-meals/utils"
)

type UserController struct {
	Auth *services.AuthService
}

func NewUserController(auth *services.AuthService) *UserController {
	return &UserController{Auth: auth}
}

// Register user baru. Residents and wardens wait for approval.
func (uc *UserController) Register(c *gin.Context) {
	var req services.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	user, err := uc.Auth.Register(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	message := "User registered"
	if !user.IsApproved {
		message = "User registered, waiting for approval"
	}
	utils.RespondJSON(c, http.StatusCreated, message, gin.H{
		"user_id":     user.ID,
		"role":        user.Role,
		"is_approved": user.IsApproved,
	})
}

// Login user -> return JWT
func (uc *UserController) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	user, err := uc.Auth.Login(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	token, err := utils.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Login successful for user: %s, role: %s", user.Email, user.Role)
	utils.RespondJSON(c, http.StatusOK, "Login successful", gin.H{
		"token":     token,
		"user_role": user.Role,
	})
}

// Logout revokes the token used for this request. Other sessions of the
// same user stay valid.
func (uc *UserController) Logout(c *gin.Context) {
	v, ok := c.Get(middlewares.ContextClaims)
	claims, _ := v.(*utils.CustomClaims)
	if !ok || claims == nil || claims.ID == "" {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("not logged in"))
		return
	}
	expiry := time.Now().Add(utils.TokenTTL)
	if claims.ExpiresAt != nil {
		expiry = claims.ExpiresAt.Time
	}
	utils.BlacklistToken(claims.ID, expiry)
	utils.RespondJSON(c, http.StatusOK, "Logged out", nil)
}

// GetProfile -> the caller as stored, plus what the role may do
func (uc *UserController) GetProfile(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	if user == nil {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("user not found in context"))
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Profile data retrieved successfully", gin.H{
		"user":         user,
		"capabilities": services.Capabilities(user.Role),
	})
}
