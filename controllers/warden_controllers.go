package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/hostel-meals/middlewares"
	"github.com/yeremiapane/hostel-meals/models"
	"github.com/yeremiapane/hostel-meals/services"
	"github.com/yeremiapane/hostel-meals/utils"
)

type WardenController struct {
	Users *services.UserService
	Bulk  *services.BulkOrderService
}

func NewWardenController(users *services.UserService, bulk *services.BulkOrderService) *WardenController {
	return &WardenController{Users: users, Bulk: bulk}
}

func (wc *WardenController) Residents(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	residents, err := wc.Users.Residents(c.Request.Context(), user.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Residents retrieved", residents)
}

func (wc *WardenController) ApproveResident(c *gin.Context) {
	setApproval(c, wc.Users)
}

func (wc *WardenController) ListBulkOrders(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	orders, err := wc.Bulk.List(c.Request.Context(), user.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Bulk orders retrieved", orders)
}

func (wc *WardenController) PlaceBulkOrder(c *gin.Context) {
	var req struct {
		Date                string       `json:"date" binding:"required"`
		MealTypeID          uint         `json:"meal_type_id" binding:"required"`
		SpecialRequirements string       `json:"special_requirements"`
		Items               map[uint]int `json:"items" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	date, err := models.ParseDate(req.Date)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("date must be YYYY-MM-DD"))
		return
	}
	order, err := wc.Bulk.Place(c.Request.Context(), middlewares.CurrentActor(c), services.BulkOrderInput{
		Date:                date,
		MealTypeID:          req.MealTypeID,
		SpecialRequirements: req.SpecialRequirements,
		Items:               req.Items,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Bulk order placed", order)
}
