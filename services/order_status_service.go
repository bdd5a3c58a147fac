package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/hostel-meals/models"
	"github.com/yeremiapane/hostel-meals/utils"
	"gorm.io/gorm"
)

// OrderStatusService moves daily orders through the delivery pipeline on
// behalf of vendors, dispatchers (admins and wardens) and delivery agents.
type OrderStatusService struct {
	DB       *gorm.DB
	Notifier OrderNotifier
	Now      Clock
}

func NewOrderStatusService(db *gorm.DB, notifier OrderNotifier) *OrderStatusService {
	return &OrderStatusService{DB: db, Notifier: notifier}
}

// Transition requests a new status for an order. The actor must have the
// right relationship to the order and the change must be in the transition
// table.
func (s *OrderStatusService) Transition(ctx context.Context, orderID uint, actor *Actor, to models.OrderStatus) (*models.DailyOrder, error) {
	return s.transition(ctx, orderID, actor, to, "")
}

// Accept is the delivery agent taking an assigned order out for delivery.
func (s *OrderStatusService) Accept(ctx context.Context, orderID uint, agent *Actor) (*models.DailyOrder, error) {
	return s.agentTransition(ctx, orderID, agent, models.OrderOutForDelivery, "accepted")
}

// Reject returns the order to the assignment pool.
func (s *OrderStatusService) Reject(ctx context.Context, orderID uint, agent *Actor) (*models.DailyOrder, error) {
	return s.agentTransition(ctx, orderID, agent, models.OrderPrepared, "rejected")
}

func (s *OrderStatusService) Complete(ctx context.Context, orderID uint, agent *Actor) (*models.DailyOrder, error) {
	return s.agentTransition(ctx, orderID, agent, models.OrderDelivered, "completed")
}

func (s *OrderStatusService) agentTransition(ctx context.Context, orderID uint, agent *Actor, to models.OrderStatus, note string) (*models.DailyOrder, error) {
	if agent == nil || agent.Role != models.RoleDeliveryAgent {
		return nil, ErrUnauthorized
	}
	return s.transition(ctx, orderID, agent, to, note)
}

func (s *OrderStatusService) transition(ctx context.Context, orderID uint, actor *Actor, to models.OrderStatus, note string) (*models.DailyOrder, error) {
	if !to.Valid() {
		return nil, Errorf(ErrValidation, fmt.Sprintf("unknown status %q", to))
	}
	kind, err := authorizeOrderActor(actor)
	if err != nil {
		return nil, err
	}

	now := s.Now.now()
	var order models.DailyOrder
	var from models.OrderStatus
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("User").First(&order, orderID).Error; err != nil {
			return notFound(err, "order")
		}
		if err := checkOrderRelationship(tx, &order, actor, kind); err != nil {
			return err
		}

		from = order.Status
		if !CanTransition(from, kind, to) {
			return Errorf(ErrInvalidTransition, fmt.Sprintf("cannot change order from %s to %s", from, to))
		}
		if kind == ActorDispatcher && to == models.OrderOutForDelivery && order.DeliveryAgentID == nil {
			return Errorf(ErrInvalidTransition, "assign a delivery agent first")
		}

		updates := transitionEffects(&order, kind, to, now)
		if err := guardedOrderUpdate(tx, order.ID, from, updates); err != nil {
			return err
		}
		return appendStatusLog(tx, order.ID, from, to, actor, note)
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"order_id": order.ID,
		"from":     from,
		"to":       to,
		"actor_id": actor.ID,
		"role":     actor.Role,
	}).Info("Order status changed")
	s.publish(&order, from, now)
	return loadOrder(s.DB.WithContext(ctx), order.ID)
}

// AssignAgent sets or clears the delivery agent of an order. Assigning an
// agent to a prepared order sends it out for delivery; clearing the agent
// of an order already out returns it to prepared.
func (s *OrderStatusService) AssignAgent(ctx context.Context, orderID uint, actor *Actor, agentID *uint) (*models.DailyOrder, error) {
	kind, err := authorizeOrderActor(actor)
	if err != nil {
		return nil, err
	}
	if kind != ActorDispatcher {
		return nil, ErrUnauthorized
	}

	now := s.Now.now()
	var order models.DailyOrder
	var from models.OrderStatus
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("User").First(&order, orderID).Error; err != nil {
			return notFound(err, "order")
		}
		if err := checkOrderRelationship(tx, &order, actor, kind); err != nil {
			return err
		}
		from = order.Status
		if from.IsTerminal() {
			return Errorf(ErrInvalidTransition, fmt.Sprintf("order is already %s", from))
		}

		updates := map[string]interface{}{}
		note := "agent cleared"
		if agentID != nil {
			var agent models.User
			err := tx.Where("id = ? AND role = ? AND is_active = ?", *agentID, models.RoleDeliveryAgent, true).
				First(&agent).Error
			if err != nil {
				return notFound(err, "delivery agent")
			}
			order.DeliveryAgentID = &agent.ID
			updates["delivery_agent_id"] = agent.ID
			if order.AssignedTime == nil {
				order.AssignedTime = &now
				updates["assigned_time"] = now
			}
			if from == models.OrderPrepared {
				order.Status = models.OrderOutForDelivery
				updates["status"] = order.Status
			}
			note = fmt.Sprintf("assigned agent %d", agent.ID)
		} else {
			order.DeliveryAgentID = nil
			order.AssignedTime = nil
			updates["delivery_agent_id"] = nil
			updates["assigned_time"] = nil
			if from == models.OrderOutForDelivery || from == models.OrderReachedLocation {
				order.Status = models.OrderPrepared
				updates["status"] = order.Status
			}
		}

		if err := guardedOrderUpdate(tx, order.ID, from, updates); err != nil {
			return err
		}
		return appendStatusLog(tx, order.ID, from, order.Status, actor, note)
	})
	if err != nil {
		return nil, err
	}

	fields := logrus.Fields{
		"order_id": order.ID,
		"status":   order.Status,
		"actor_id": actor.ID,
	}
	if order.DeliveryAgentID != nil {
		fields["agent_id"] = *order.DeliveryAgentID
	}
	utils.InfoLogger.WithFields(fields).Info("Delivery agent assignment changed")
	s.publish(&order, from, now)
	return loadOrder(s.DB.WithContext(ctx), order.ID)
}

// StatusLog returns the audit trail of an order, oldest first.
func (s *OrderStatusService) StatusLog(ctx context.Context, orderID uint) ([]models.DailyOrderStatusLog, error) {
	var logs []models.DailyOrderStatusLog
	err := s.DB.WithContext(ctx).Where("daily_order_id = ?", orderID).Order("id").Find(&logs).Error
	return logs, err
}

func (s *OrderStatusService) publish(order *models.DailyOrder, from models.OrderStatus, at time.Time) {
	if s.Notifier == nil {
		return
	}
	s.Notifier.PublishOrderEvent(eventFor(order, from, at))
}

// authorizeOrderActor maps the actor's role onto the capability it needs
// to touch an order at all.
func authorizeOrderActor(actor *Actor) (ActorKind, error) {
	if actor == nil {
		return ActorNone, Errorf(ErrForbidden, "authentication required")
	}
	kind := ActorKindOf(actor.Role)
	var capability Capability
	switch kind {
	case ActorVendor:
		capability = CapOrderPrepare
	case ActorDispatcher:
		capability = CapOrderDispatch
	case ActorAgent:
		capability = CapDeliveryUpdate
	default:
		return ActorNone, Errorf(ErrUnauthorized, "residents cannot change order status")
	}
	if err := Authorize(actor, capability); err != nil {
		return ActorNone, err
	}
	return kind, nil
}

// checkOrderRelationship enforces that the actor is connected to the
// order: a vendor supplies at least one line item, an agent is the assigned
// agent, a warden looks after the ordering resident.
func checkOrderRelationship(tx *gorm.DB, order *models.DailyOrder, actor *Actor, kind ActorKind) error {
	switch kind {
	case ActorVendor:
		var count int64
		err := tx.Model(&models.DailyOrderItem{}).
			Joins("JOIN vendor_menu_items ON vendor_menu_items.id = daily_order_items.menu_item_id").
			Where("daily_order_items.daily_order_id = ? AND vendor_menu_items.vendor_id = ?", order.ID, actor.ID).
			Count(&count).Error
		if err != nil {
			return fmt.Errorf("failed to check vendor items: %w", err)
		}
		if count == 0 {
			return Errorf(ErrUnauthorized, "order has no items from this vendor")
		}
	case ActorAgent:
		if order.DeliveryAgentID == nil || *order.DeliveryAgentID != actor.ID {
			return Errorf(ErrUnauthorized, "order is not assigned to you")
		}
	case ActorDispatcher:
		if actor.Role == models.RoleWarden {
			if order.User == nil || order.User.WardenID == nil || *order.User.WardenID != actor.ID {
				return Errorf(ErrUnauthorized, "resident is not under your care")
			}
		}
	default:
		return ErrUnauthorized
	}
	return nil
}

// guardedOrderUpdate writes updates only if the order still has status
// from. Zero matching rows means someone else moved the order first.
func guardedOrderUpdate(tx *gorm.DB, orderID uint, from models.OrderStatus, updates map[string]interface{}) error {
	res := tx.Model(&models.DailyOrder{}).
		Where("id = ? AND status = ?", orderID, from).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update order: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}
	// MySQL reports changed rows, not matched rows.
	to := from
	if status, ok := updates["status"].(models.OrderStatus); ok {
		to = status
	}
	var count int64
	if err := tx.Model(&models.DailyOrder{}).Where("id = ? AND status = ?", orderID, to).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to re-check order: %w", err)
	}
	if count == 0 {
		return ErrConflict
	}
	return nil
}

func appendStatusLog(tx *gorm.DB, orderID uint, from, to models.OrderStatus, actor *Actor, note string) error {
	entry := models.DailyOrderStatusLog{
		DailyOrderID: orderID,
		FromStatus:   from,
		ToStatus:     to,
		ActorID:      actor.ID,
		ActorRole:    actor.Role,
		Note:         note,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to write status log: %w", err)
	}
	return nil
}

func loadOrder(db *gorm.DB, orderID uint) (*models.DailyOrder, error) {
	var order models.DailyOrder
	err := db.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Items.MenuItem").
		Preload("MealType").
		Preload("DeliveryAgent").
		First(&order, orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Errorf(ErrNotFound, "order not found")
		}
		return nil, err
	}
	return &order, nil
}
