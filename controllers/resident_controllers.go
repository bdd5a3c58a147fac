package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/hostel-meals/middlewares"
	"github.com/yeremiapane/hostel-meals/models"
	"github.com/yeremiapane/hostel-meals/services"
	"github.com/yeremiapane/hostel-meals/utils"
	"gorm.io/datatypes"
)

type ResidentController struct {
	Entitlements  *services.EntitlementService
	Orders        *services.OrderService
	Subscriptions *services.SubscriptionService
	Dashboard     *services.DashboardService
}

func NewResidentController(
	entitlements *services.EntitlementService,
	orders *services.OrderService,
	subs *services.SubscriptionService,
	dashboard *services.DashboardService,
) *ResidentController {
	return &ResidentController{
		Entitlements:  entitlements,
		Orders:        orders,
		Subscriptions: subs,
		Dashboard:     dashboard,
	}
}

// Subscribe stages the chosen plan; payment happens in ProcessPayment.
func (rc *ResidentController) Subscribe(c *gin.Context) {
	planID, ok := uintParam(c, "plan_id")
	if !ok {
		return
	}
	user := middlewares.CurrentUser(c)
	pending, err := rc.Subscriptions.StagePurchase(c.Request.Context(), user.ID, planID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Plan selected, proceed to payment", pending)
}

// GetPayment shows the staged purchase awaiting payment.
func (rc *ResidentController) GetPayment(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	pending, err := rc.Subscriptions.Pending(c.Request.Context(), user.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Pending purchase", gin.H{
		"purchase":         pending,
		"amount_formatted": utils.FormatCurrency(pending.Amount),
	})
}

func (rc *ResidentController) ProcessPayment(c *gin.Context) {
	var req struct {
		services.PaymentConfirmation
		PlanID uint `json:"plan_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	user := middlewares.CurrentUser(c)
	sub, err := rc.Subscriptions.Purchase(c.Request.Context(), user.ID, req.PlanID, req.PaymentConfirmation)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Payment successful, subscription active", sub)
}

// GetDailyOrder resolves what the resident may order for a date and meal
// type, together with the order already placed for it, if any.
func (rc *ResidentController) GetDailyOrder(c *gin.Context) {
	date, ok := dateQuery(c, "date")
	if !ok {
		return
	}
	mealTypeID, ok := optionalUintQuery(c, "meal_type_id")
	if !ok {
		return
	}
	user := middlewares.CurrentUser(c)
	ent, err := rc.Entitlements.Resolve(c.Request.Context(), user.ID, date, mealTypeID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	var existing *services.OrderSummary
	if ent.SelectedMealType != nil {
		order, err := rc.Orders.ResidentOrderFor(c.Request.Context(), user.ID, ent.Date, ent.SelectedMealType.ID)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		if order != nil {
			existing = &services.OrderSummary{DailyOrder: *order, Total: order.Total()}
		}
	}

	message := "Menu retrieved"
	if !ent.MenuPublished {
		message = "No menu published yet for this date and meal type"
	}
	utils.RespondJSON(c, http.StatusOK, message, gin.H{
		"entitlement": ent,
		"order":       existing,
	})
}

type placeOrderRequest struct {
	Date       string       `json:"date" binding:"required"`
	MealTypeID uint         `json:"meal_type_id" binding:"required"`
	Items      map[uint]int `json:"items" binding:"required"`
}

func (rc *ResidentController) PlaceDailyOrder(c *gin.Context) {
	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	date, err := models.ParseDate(req.Date)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("date must be YYYY-MM-DD"))
		return
	}

	user := middlewares.CurrentUser(c)
	order, err := rc.Orders.PlaceOrUpdate(c.Request.Context(), user.ID, date, req.MealTypeID, req.Items)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order placed", services.OrderSummary{
		DailyOrder: *order,
		Total:      rc.Orders.Total(order),
	})
}

// TrackOrder is the read-only live status of one order.
func (rc *ResidentController) TrackOrder(c *gin.Context) {
	orderID, ok := uintParam(c, "order_id")
	if !ok {
		return
	}
	user := middlewares.CurrentUser(c)
	order, err := rc.Orders.ResidentOrder(c.Request.Context(), user.ID, orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order status", gin.H{
		"order_id":       order.ID,
		"status":         order.Status,
		"order_date":     order.OrderDate,
		"meal_type":      order.MealType,
		"delivery_agent": agentView(order.DeliveryAgent),
		"assigned_time":  order.AssignedTime,
		"delivered_time": order.DeliveredTime,
		"total":          order.Total(),
	})
}

func agentView(agent *models.User) gin.H {
	if agent == nil {
		return nil
	}
	return gin.H{"id": agent.ID, "name": agent.Name, "phone_number": agent.Phone}
}

func (rc *ResidentController) DeliveryHistory(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	orders, err := rc.Orders.ResidentHistory(c.Request.Context(), user.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Delivery history", services.Summaries(orders))
}

func (rc *ResidentController) GetDashboard(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	dashboard, err := rc.Dashboard.Resident(c.Request.Context(), user.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Dashboard data retrieved", dashboard)
}

// dateQuery parses an optional YYYY-MM-DD query parameter. Missing means
// the zero date, which services read as today.
func dateQuery(c *gin.Context, name string) (datatypes.Date, bool) {
	raw := c.Query(name)
	if raw == "" {
		return datatypes.Date(time.Time{}), true
	}
	date, err := models.ParseDate(raw)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New(name+" must be YYYY-MM-DD"))
		return datatypes.Date{}, false
	}
	return date, true
}
