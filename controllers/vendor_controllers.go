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

type VendorController struct {
	Catalog *services.VendorCatalogService
	Orders  *services.OrderService
	Status  *services.OrderStatusService
}

func NewVendorController(catalog *services.VendorCatalogService, orders *services.OrderService, status *services.OrderStatusService) *VendorController {
	return &VendorController{Catalog: catalog, Orders: orders, Status: status}
}

func (vc *VendorController) GetSubscriptions(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	rows, err := vc.Catalog.PlanOfferings(c.Request.Context(), user.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Plan opt-ins retrieved", rows)
}

// SetSubscriptions replaces the vendor's plan opt-ins with the given set.
func (vc *VendorController) SetSubscriptions(c *gin.Context) {
	var req struct {
		PlanIDs []uint `json:"plan_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	user := middlewares.CurrentUser(c)
	if err := vc.Catalog.SetPlanOfferings(c.Request.Context(), user.ID, req.PlanIDs); err != nil {
		respondServiceError(c, err)
		return
	}
	rows, err := vc.Catalog.PlanOfferings(c.Request.Context(), user.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Plan opt-ins updated", rows)
}

func (vc *VendorController) ListMenuItems(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	items, err := vc.Catalog.MenuItems(c.Request.Context(), user.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu items retrieved", items)
}

func (vc *VendorController) CreateMenuItem(c *gin.Context) {
	var req services.MenuItemInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	user := middlewares.CurrentUser(c)
	item, err := vc.Catalog.CreateMenuItem(c.Request.Context(), user.ID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Menu item created", item)
}

func (vc *VendorController) UpdateMenuItem(c *gin.Context) {
	itemID, ok := uintParam(c, "item_id")
	if !ok {
		return
	}
	var req services.MenuItemUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	user := middlewares.CurrentUser(c)
	item, err := vc.Catalog.UpdateMenuItem(c.Request.Context(), user.ID, itemID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu item updated", item)
}

func (vc *VendorController) PublishDailyMenu(c *gin.Context) {
	var req struct {
		Date       string `json:"date" binding:"required"`
		MealTypeID uint   `json:"meal_type_id" binding:"required"`
		ItemIDs    []uint `json:"item_ids" binding:"required"`
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
	user := middlewares.CurrentUser(c)
	menu, err := vc.Catalog.PublishDailyMenu(c.Request.Context(), user.ID, date, req.MealTypeID, req.ItemIDs)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Daily menu published", menu)
}

// ListOrders is the vendor's preparation queue.
func (vc *VendorController) ListOrders(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	orders, err := vc.Orders.VendorQueue(c.Request.Context(), user.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Orders retrieved", services.Summaries(orders))
}

type statusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

// UpdateOrderStatus is shared by vendors, dispatchers and agents; the
// service decides what each may do.
func updateOrderStatus(status *services.OrderStatusService) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := uintParam(c, "order_id")
		if !ok {
			return
		}
		var req statusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondError(c, http.StatusBadRequest, err)
			return
		}
		order, err := status.Transition(c.Request.Context(), orderID, middlewares.CurrentActor(c), req.Status)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		utils.RespondJSON(c, http.StatusOK, "Order status updated", order)
	}
}

func (vc *VendorController) UpdateOrderStatus(c *gin.Context) {
	updateOrderStatus(vc.Status)(c)
}
