package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/hostel-meals/middlewares"
	"github.com/yeremiapane/hostel-meals/services"
	"github.com/yeremiapane/hostel-meals/utils"
)

// DispatchController is mounted for both admins and wardens. Wardens are
// limited to their own residents by the services.
type DispatchController struct {
	Orders *services.OrderService
	Status *services.OrderStatusService
	Users  *services.UserService
}

func NewDispatchController(orders *services.OrderService, status *services.OrderStatusService, users *services.UserService) *DispatchController {
	return &DispatchController{Orders: orders, Status: status, Users: users}
}

func (dc *DispatchController) PendingOrders(c *gin.Context) {
	orders, err := dc.Orders.PendingForDispatch(c.Request.Context(), middlewares.CurrentActor(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Pending orders retrieved", services.Summaries(orders))
}

func (dc *DispatchController) DeliveryAgents(c *gin.Context) {
	agents, err := dc.Users.DeliveryAgents(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Delivery agents retrieved", agents)
}

// AssignAgent takes {"agent_id": 7}, or {"agent_id": null} to clear.
func (dc *DispatchController) AssignAgent(c *gin.Context) {
	orderID, ok := uintParam(c, "order_id")
	if !ok {
		return
	}
	var req struct {
		AgentID *uint `json:"agent_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	order, err := dc.Status.AssignAgent(c.Request.Context(), orderID, middlewares.CurrentActor(c), req.AgentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Delivery agent updated", order)
}

func (dc *DispatchController) UpdateOrderStatus(c *gin.Context) {
	updateOrderStatus(dc.Status)(c)
}
