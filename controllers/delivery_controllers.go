package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/hostel-meals/middlewares"
	"github.com/yeremiapane/hostel-meals/models"
	"github.com/yeremiapane/hostel-meals/services"
	"github.com/yeremiapane/hostel-meals/utils"
)

type DeliveryController struct {
	Orders *services.OrderService
	Status *services.OrderStatusService
}

func NewDeliveryController(orders *services.OrderService, status *services.OrderStatusService) *DeliveryController {
	return &DeliveryController{Orders: orders, Status: status}
}

// ListOrders returns the agent's open assignments.
func (dc *DeliveryController) ListOrders(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	orders, err := dc.Orders.AgentQueue(c.Request.Context(), user.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Assigned orders retrieved", services.Summaries(orders))
}

func (dc *DeliveryController) History(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	orders, err := dc.Orders.AgentHistory(c.Request.Context(), user.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Delivery history", services.Summaries(orders))
}

func (dc *DeliveryController) UpdateOrderStatus(c *gin.Context) {
	updateOrderStatus(dc.Status)(c)
}

type agentAction func(ctx context.Context, orderID uint, agent *services.Actor) (*models.DailyOrder, error)

func (dc *DeliveryController) act(c *gin.Context, action agentAction, message string) {
	orderID, ok := uintParam(c, "order_id")
	if !ok {
		return
	}
	order, err := action(c.Request.Context(), orderID, middlewares.CurrentActor(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, message, order)
}

func (dc *DeliveryController) Accept(c *gin.Context) {
	dc.act(c, dc.Status.Accept, "Order accepted")
}

func (dc *DeliveryController) Reject(c *gin.Context) {
	dc.act(c, dc.Status.Reject, "Order returned for reassignment")
}

func (dc *DeliveryController) Complete(c *gin.Context) {
	dc.act(c, dc.Status.Complete, "Order delivered")
}
