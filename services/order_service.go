package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/hostel-meals/models"
	"github.com/yeremiapane/hostel-meals/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const DefaultMaxItemQuantity = 10

// OrderService builds residents' daily orders from their resolved menu.
type OrderService struct {
	DB              *gorm.DB
	Entitlements    *EntitlementService
	Notifier        OrderNotifier
	MaxItemQuantity int
}

func NewOrderService(db *gorm.DB, entitlements *EntitlementService, notifier OrderNotifier) *OrderService {
	return &OrderService{
		DB:              db,
		Entitlements:    entitlements,
		Notifier:        notifier,
		MaxItemQuantity: DefaultMaxItemQuantity,
	}
}

// PlaceOrUpdate creates the resident's order for (date, meal type) or
// replaces the line items of the existing one while it is still editable.
// selections maps menu item id to quantity; zero quantities are ignored.
func (s *OrderService) PlaceOrUpdate(ctx context.Context, residentID uint, date datatypes.Date, mealTypeID uint, selections map[uint]int) (*models.DailyOrder, error) {
	selected, err := s.cleanSelections(selections)
	if err != nil {
		return nil, err
	}

	var order models.DailyOrder
	var from models.OrderStatus
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ent, err := s.Entitlements.resolve(tx, residentID, date, &mealTypeID)
		if err != nil {
			return err
		}
		if !ent.MenuPublished {
			return ErrMenuNotPublished
		}
		eligible := make(map[uint]models.VendorMenuItem, len(ent.EligibleItems))
		for _, item := range ent.EligibleItems {
			eligible[item.ID] = item
		}
		for _, id := range selected {
			if _, ok := eligible[id]; !ok {
				return Errorf(ErrItemNotEligible, fmt.Sprintf("item %d is not on your menu", id))
			}
		}

		covering := ent.CoveringSubscription(mealTypeID)
		if covering == nil {
			return ErrNoCoveringSubscription
		}

		err = tx.Where("user_id = ? AND order_date = ? AND meal_type_id = ?", residentID, ent.Date, mealTypeID).
			First(&order).Error
		switch {
		case err == nil:
			from = order.Status
			if !from.Editable() {
				return ErrAlreadyFinalized
			}
			if err := tx.Where("daily_order_id = ?", order.ID).Delete(&models.DailyOrderItem{}).Error; err != nil {
				return fmt.Errorf("failed to clear order items: %w", err)
			}
			updates := map[string]interface{}{
				"status":               models.OrderSubmitted,
				"user_subscription_id": covering.ID,
			}
			if err := guardedOrderUpdate(tx, order.ID, from, updates); err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			order = models.DailyOrder{
				UserID:             residentID,
				UserSubscriptionID: &covering.ID,
				OrderDate:          ent.Date,
				MealTypeID:         mealTypeID,
				Status:             models.OrderSubmitted,
			}
			if err := tx.Omit(clause.Associations).Create(&order).Error; err != nil {
				return err
			}
		default:
			return fmt.Errorf("failed to look up order: %w", err)
		}

		items := make([]models.DailyOrderItem, 0, len(selected))
		for _, id := range selected {
			items = append(items, models.DailyOrderItem{
				DailyOrderID:     order.ID,
				MenuItemID:       id,
				Quantity:         selections[id],
				PriceAtOrderTime: eligible[id].Price,
			})
		}
		if err := tx.Omit(clause.Associations).Create(&items).Error; err != nil {
			return err
		}
		note := "placed"
		if from != "" {
			note = "items replaced"
		}
		return appendStatusLog(tx, order.ID, from, models.OrderSubmitted,
			&Actor{ID: residentID, Role: models.RoleResident}, note)
	})
	if err != nil {
		if isDuplicateKey(err) {
			return nil, Errorf(ErrDuplicate, "order already exists, reload and try again")
		}
		return nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"order_id":    order.ID,
		"resident_id": residentID,
		"date":        models.FormatDate(order.OrderDate),
		"items":       len(selected),
	}).Info("Daily order placed")

	placed, err := loadOrder(s.DB.WithContext(ctx), order.ID)
	if err != nil {
		return nil, err
	}
	if s.Notifier != nil && from != models.OrderSubmitted {
		s.Notifier.PublishOrderEvent(eventFor(placed, from, s.Entitlements.Now.now()))
	}
	return placed, nil
}

// Total is the sum of quantity times snapshot price over the order's items.
func (s *OrderService) Total(order *models.DailyOrder) decimal.Decimal {
	return order.Total()
}

// cleanSelections validates quantities and returns the selected item ids in
// ascending order.
func (s *OrderService) cleanSelections(selections map[uint]int) ([]uint, error) {
	max := s.MaxItemQuantity
	if max <= 0 {
		max = DefaultMaxItemQuantity
	}
	ids := make([]uint, 0, len(selections))
	for id, qty := range selections {
		if qty < 0 || qty > max {
			return nil, Errorf(ErrInvalidQuantity, fmt.Sprintf("quantity must be between 0 and %d", max))
		}
		if qty > 0 {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, ErrEmptySelection
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// ResidentOrder loads one of the resident's own orders for tracking.
func (s *OrderService) ResidentOrder(ctx context.Context, residentID, orderID uint) (*models.DailyOrder, error) {
	order, err := loadOrder(s.DB.WithContext(ctx), orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != residentID {
		return nil, Errorf(ErrNotFound, "order not found")
	}
	return order, nil
}

// ResidentOrderFor returns the resident's order for a date and meal type,
// or nil if none was placed.
func (s *OrderService) ResidentOrderFor(ctx context.Context, residentID uint, date datatypes.Date, mealTypeID uint) (*models.DailyOrder, error) {
	var order models.DailyOrder
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND order_date = ? AND meal_type_id = ?", residentID, models.DateOf(time.Time(date)), mealTypeID).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return loadOrder(s.DB.WithContext(ctx), order.ID)
}
