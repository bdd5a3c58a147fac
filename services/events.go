package services

import (
	"time"

	"github.com/yeremiapane/hostel-meals/models"
)

// Clock returns the current time. Services default to time.Now and tests
// pin it to a fixed instant.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

// OrderEvent is published after an order's status or delivery assignment
// changes.
type OrderEvent struct {
	OrderID         uint               `json:"order_id"`
	ResidentID      uint               `json:"resident_id"`
	From            models.OrderStatus `json:"from"`
	Status          models.OrderStatus `json:"status"`
	DeliveryAgentID *uint              `json:"delivery_agent_id,omitempty"`
	AssignedTime    *time.Time         `json:"assigned_time,omitempty"`
	DeliveredTime   *time.Time         `json:"delivered_time,omitempty"`
	At              time.Time          `json:"at"`
}

// OrderNotifier receives order events once the change is committed.
type OrderNotifier interface {
	PublishOrderEvent(OrderEvent)
}

func eventFor(order *models.DailyOrder, from models.OrderStatus, at time.Time) OrderEvent {
	return OrderEvent{
		OrderID:         order.ID,
		ResidentID:      order.UserID,
		From:            from,
		Status:          order.Status,
		DeliveryAgentID: order.DeliveryAgentID,
		AssignedTime:    order.AssignedTime,
		DeliveredTime:   order.DeliveredTime,
		At:              at,
	}
}
