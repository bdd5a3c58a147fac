package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/hostel-meals/models"
	"github.com/yeremiapane/hostel-meals/services"
	"github.com/yeremiapane/hostel-meals/utils"
	"gorm.io/gorm"
)

// CatalogController serves the public reference data.
type CatalogController struct {
	DB            *gorm.DB
	Subscriptions *services.SubscriptionService
}

func NewCatalogController(db *gorm.DB, subs *services.SubscriptionService) *CatalogController {
	return &CatalogController{DB: db, Subscriptions: subs}
}

func (cc *CatalogController) ListPlans(c *gin.Context) {
	plans, err := cc.Subscriptions.ActivePlans(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Plans retrieved", plans)
}

func (cc *CatalogController) ListMealTypes(c *gin.Context) {
	var mealTypes []models.MealType
	if err := cc.DB.WithContext(c.Request.Context()).Order("name").Find(&mealTypes).Error; err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Meal types retrieved", mealTypes)
}
