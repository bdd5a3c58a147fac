package models

type OrderStatus string

const (
	OrderPending         OrderStatus = "pending"
	OrderSubmitted       OrderStatus = "submitted"
	OrderPrepared        OrderStatus = "prepared"
	OrderOutForDelivery  OrderStatus = "out_for_delivery"
	OrderReachedLocation OrderStatus = "reached_location"
	OrderDelivered       OrderStatus = "delivered"
	OrderCancelled       OrderStatus = "cancelled"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderSubmitted, OrderPrepared, OrderOutForDelivery,
		OrderReachedLocation, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderDelivered || s == OrderCancelled
}

// Editable reports whether the resident may still replace the order's items.
func (s OrderStatus) Editable() bool {
	return s == OrderPending || s == OrderSubmitted
}

// TerminalStatuses is used by queries that list open orders.
var TerminalStatuses = []OrderStatus{OrderDelivered, OrderCancelled}
