package services

import (
	"time"

	"github.com/yeremiapane/hostel-meals/models"
)

// ActorKind groups roles by how they may move an order.
type ActorKind int

const (
	ActorNone ActorKind = iota
	ActorVendor
	ActorDispatcher // admin or warden
	ActorAgent
)

func (k ActorKind) String() string {
	switch k {
	case ActorVendor:
		return "vendor"
	case ActorDispatcher:
		return "dispatcher"
	case ActorAgent:
		return "delivery_agent"
	}
	return "none"
}

func ActorKindOf(role models.Role) ActorKind {
	switch role {
	case models.RoleVendor:
		return ActorVendor
	case models.RoleAdmin, models.RoleWarden:
		return ActorDispatcher
	case models.RoleDeliveryAgent:
		return ActorAgent
	}
	return ActorNone
}

type transitionKey struct {
	from  models.OrderStatus
	actor ActorKind
	to    models.OrderStatus
}

// transitions is the single source of truth for status changes. Anything
// not listed is rejected.
var transitions = map[transitionKey]bool{
	{models.OrderPending, ActorVendor, models.OrderCancelled}:       true,
	{models.OrderSubmitted, ActorVendor, models.OrderPrepared}:      true,
	{models.OrderSubmitted, ActorVendor, models.OrderCancelled}:     true,
	{models.OrderPrepared, ActorVendor, models.OrderCancelled}:      true,
	{models.OrderPending, ActorDispatcher, models.OrderCancelled}:   true,
	{models.OrderSubmitted, ActorDispatcher, models.OrderCancelled}: true,

	{models.OrderPrepared, ActorDispatcher, models.OrderOutForDelivery}:        true,
	{models.OrderPrepared, ActorDispatcher, models.OrderCancelled}:             true,
	{models.OrderOutForDelivery, ActorDispatcher, models.OrderCancelled}:       true,
	{models.OrderReachedLocation, ActorDispatcher, models.OrderCancelled}:      true,
	{models.OrderPrepared, ActorAgent, models.OrderOutForDelivery}:             true,
	{models.OrderPrepared, ActorAgent, models.OrderPrepared}:                   true,
	{models.OrderPrepared, ActorAgent, models.OrderCancelled}:                  true,
	{models.OrderOutForDelivery, ActorAgent, models.OrderOutForDelivery}:       true,
	{models.OrderOutForDelivery, ActorAgent, models.OrderReachedLocation}:      true,
	{models.OrderOutForDelivery, ActorAgent, models.OrderDelivered}:            true,
	{models.OrderOutForDelivery, ActorAgent, models.OrderPrepared}:             true,
	{models.OrderOutForDelivery, ActorAgent, models.OrderCancelled}:            true,
	{models.OrderReachedLocation, ActorAgent, models.OrderDelivered}:           true,
	{models.OrderReachedLocation, ActorAgent, models.OrderCancelled}:           true,
}

// CanTransition reports whether an actor of kind may move an order from
// one status to another.
func CanTransition(from models.OrderStatus, kind ActorKind, to models.OrderStatus) bool {
	return transitions[transitionKey{from, kind, to}]
}

// AllowedTransitions lists the statuses an actor may request from the
// current status, in pipeline order.
func AllowedTransitions(from models.OrderStatus, kind ActorKind) []models.OrderStatus {
	var out []models.OrderStatus
	for _, to := range pipeline {
		if CanTransition(from, kind, to) {
			out = append(out, to)
		}
	}
	return out
}

var pipeline = []models.OrderStatus{
	models.OrderPending,
	models.OrderSubmitted,
	models.OrderPrepared,
	models.OrderOutForDelivery,
	models.OrderReachedLocation,
	models.OrderDelivered,
	models.OrderCancelled,
}

// transitionEffects applies the timestamp and assignment side effects of
// moving order to status `to` and returns the columns to write.
func transitionEffects(order *models.DailyOrder, kind ActorKind, to models.OrderStatus, now time.Time) map[string]interface{} {
	updates := map[string]interface{}{"status": to}
	switch to {
	case models.OrderOutForDelivery:
		if order.AssignedTime == nil {
			order.AssignedTime = &now
			updates["assigned_time"] = now
		}
	case models.OrderDelivered:
		if order.DeliveredTime == nil {
			order.DeliveredTime = &now
			updates["delivered_time"] = now
		}
	case models.OrderPrepared:
		if kind == ActorAgent {
			// the agent hands the order back to the assignment pool
			order.DeliveryAgentID = nil
			order.AssignedTime = nil
			updates["delivery_agent_id"] = nil
			updates["assigned_time"] = nil
		}
	}
	order.Status = to
	return updates
}
