package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/yeremiapane/hostel-meals/models"
)

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		from models.OrderStatus
		kind ActorKind
		to   models.OrderStatus
		want bool
	}{
		{models.OrderSubmitted, ActorVendor, models.OrderPrepared, true},
		{models.OrderPending, ActorVendor, models.OrderPrepared, false},
		{models.OrderPrepared, ActorVendor, models.OrderSubmitted, false},
		{models.OrderPrepared, ActorVendor, models.OrderOutForDelivery, false},
		{models.OrderPrepared, ActorDispatcher, models.OrderOutForDelivery, true},
		{models.OrderOutForDelivery, ActorDispatcher, models.OrderDelivered, false},
		{models.OrderOutForDelivery, ActorAgent, models.OrderReachedLocation, true},
		{models.OrderReachedLocation, ActorAgent, models.OrderDelivered, true},
		{models.OrderReachedLocation, ActorAgent, models.OrderPrepared, false},
		{models.OrderSubmitted, ActorAgent, models.OrderOutForDelivery, false},
		{models.OrderDelivered, ActorDispatcher, models.OrderCancelled, false},
		{models.OrderCancelled, ActorVendor, models.OrderSubmitted, false},
		{models.OrderSubmitted, ActorNone, models.OrderCancelled, false},
	}
	for _, tt := range tests {
		got := CanTransition(tt.from, tt.kind, tt.to)
		assert.Equal(t, tt.want, got, "%s -[%s]-> %s", tt.from, tt.kind, tt.to)
	}
}

func TestTerminalStatusesHaveNoTransitions(t *testing.T) {
	for _, from := range models.TerminalStatuses {
		for _, kind := range []ActorKind{ActorVendor, ActorDispatcher, ActorAgent} {
			assert.Empty(t, AllowedTransitions(from, kind), "%s for %s", from, kind)
		}
	}
}

func TestResidentsHaveNoTransitions(t *testing.T) {
	assert.Equal(t, ActorNone, ActorKindOf(models.RoleResident))
	for _, from := range pipeline {
		assert.Empty(t, AllowedTransitions(from, ActorNone))
	}
}

func TestAllowedTransitionsFollowPipelineOrder(t *testing.T) {
	got := AllowedTransitions(models.OrderOutForDelivery, ActorAgent)
	assert.Equal(t, []models.OrderStatus{
		models.OrderPrepared,
		models.OrderOutForDelivery,
		models.OrderReachedLocation,
		models.OrderDelivered,
		models.OrderCancelled,
	}, got)
}

func TestTransitionEffects(t *testing.T) {
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	earlier := now.Add(-time.Hour)
	agentID := uint(7)

	order := &models.DailyOrder{Status: models.OrderPrepared}
	updates := transitionEffects(order, ActorDispatcher, models.OrderOutForDelivery, now)
	assert.Equal(t, now, updates["assigned_time"])
	assert.Equal(t, &now, order.AssignedTime)

	order = &models.DailyOrder{Status: models.OrderPrepared, AssignedTime: &earlier}
	updates = transitionEffects(order, ActorAgent, models.OrderOutForDelivery, now)
	assert.NotContains(t, updates, "assigned_time")
	assert.Equal(t, earlier, *order.AssignedTime)

	order = &models.DailyOrder{Status: models.OrderOutForDelivery}
	updates = transitionEffects(order, ActorAgent, models.OrderDelivered, now)
	assert.Equal(t, now, updates["delivered_time"])
	assert.Equal(t, models.OrderDelivered, order.Status)

	order = &models.DailyOrder{Status: models.OrderOutForDelivery, DeliveryAgentID: &agentID, AssignedTime: &earlier}
	updates = transitionEffects(order, ActorAgent, models.OrderPrepared, now)
	assert.Contains(t, updates, "delivery_agent_id")
	assert.Nil(t, updates["delivery_agent_id"])
	assert.Nil(t, order.DeliveryAgentID)
	assert.Nil(t, order.AssignedTime)
}
