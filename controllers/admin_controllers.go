package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/hostel-meals/middlewares"
	"github.com/yeremiapane/hostel-meals/models"
	"github.com/yeremiapane/hostel-meals/services"
	"github.com/yeremiapane/hostel-meals/utils"
)

type AdminController struct {
	Dashboard *services.DashboardService
	Users     *services.UserService
}

func NewAdminController(dashboard *services.DashboardService, users *services.UserService) *AdminController {
	return &AdminController{Dashboard: dashboard, Users: users}
}

// GetDashboardStats mengambil statistik untuk dashboard
func (ac *AdminController) GetDashboardStats(c *gin.Context) {
	stats, err := ac.Dashboard.Admin(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Dashboard stats retrieved successfully", stats)
}

// ListUsers accepts ?role= and ?pending=true filters.
func (ac *AdminController) ListUsers(c *gin.Context) {
	role := models.Role(c.Query("role"))
	if role != "" && !role.Valid() {
		utils.RespondError(c, http.StatusBadRequest, services.Errorf(services.ErrValidation, "unknown role"))
		return
	}
	pending, _ := strconv.ParseBool(c.DefaultQuery("pending", "false"))
	users, err := ac.Users.List(c.Request.Context(), role, pending)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Users retrieved", users)
}

type approvalRequest struct {
	Approved *bool `json:"approved"`
}

func (r approvalRequest) value() bool {
	return r.Approved == nil || *r.Approved
}

// ApproveUser approves (or with {"approved": false} revokes) a resident or
// warden.
func (ac *AdminController) ApproveUser(c *gin.Context) {
	setApproval(c, ac.Users)
}

func setApproval(c *gin.Context, users *services.UserService) {
	userID, ok := uintParam(c, "user_id")
	if !ok {
		return
	}
	var req approvalRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondError(c, http.StatusBadRequest, err)
			return
		}
	}
	user, err := users.SetApproved(c.Request.Context(), middlewares.CurrentActor(c), userID, req.value())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Approval updated", user)
}

func (ac *AdminController) SetActive(c *gin.Context) {
	userID, ok := uintParam(c, "user_id")
	if !ok {
		return
	}
	var req struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	user, err := ac.Users.SetActive(c.Request.Context(), middlewares.CurrentActor(c), userID, *req.Active)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "User updated", user)
}
