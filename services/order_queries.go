package services

import (
	"context"

	"github.com/yeremiapane/hostel-meals/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func (s *OrderService) today() datatypes.Date {
	return models.DateOf(s.Entitlements.Now.now())
}

func (s *OrderService) listOrders(ctx context.Context, scope func(*gorm.DB) *gorm.DB) ([]models.DailyOrder, error) {
	var orders []models.DailyOrder
	err := scope(s.DB.WithContext(ctx)).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Items.MenuItem").
		Preload("MealType").
		Preload("User").
		Preload("DeliveryAgent").
		Find(&orders).Error
	return orders, err
}

// VendorQueue lists today's and upcoming orders still waiting on the
// vendor that contain at least one of the vendor's items.
func (s *OrderService) VendorQueue(ctx context.Context, vendorID uint) ([]models.DailyOrder, error) {
	return s.listOrders(ctx, func(db *gorm.DB) *gorm.DB {
		vendorOrders := s.DB.Model(&models.DailyOrderItem{}).
			Select("daily_order_items.daily_order_id").
			Joins("JOIN vendor_menu_items ON vendor_menu_items.id = daily_order_items.menu_item_id").
			Where("vendor_menu_items.vendor_id = ?", vendorID)
		return db.Where("id IN (?)", vendorOrders).
			Where("order_date >= ? AND status IN ?", s.today(),
				[]models.OrderStatus{models.OrderSubmitted, models.OrderPrepared}).
			Order("order_date, id")
	})
}

// AgentQueue lists the open orders assigned to a delivery agent.
func (s *OrderService) AgentQueue(ctx context.Context, agentID uint) ([]models.DailyOrder, error) {
	return s.listOrders(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("delivery_agent_id = ? AND status NOT IN ?", agentID, models.TerminalStatuses).
			Order("order_date, id")
	})
}

func (s *OrderService) AgentHistory(ctx context.Context, agentID uint) ([]models.DailyOrder, error) {
	return s.listOrders(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("delivery_agent_id = ? AND status IN ?", agentID, models.TerminalStatuses).
			Order("order_date DESC, id DESC")
	})
}

// PendingForDispatch lists open orders from today on. Wardens only see
// orders of their own residents.
func (s *OrderService) PendingForDispatch(ctx context.Context, actor *Actor) ([]models.DailyOrder, error) {
	if err := Authorize(actor, CapOrderOverview); err != nil {
		return nil, err
	}
	return s.listOrders(ctx, func(db *gorm.DB) *gorm.DB {
		db = db.Where("order_date >= ? AND status NOT IN ?", s.today(), models.TerminalStatuses)
		if actor.Role == models.RoleWarden {
			residents := s.DB.Model(&models.User{}).Select("id").Where("warden_id = ?", actor.ID)
			db = db.Where("user_id IN (?)", residents)
		}
		return db.Order("order_date, id")
	})
}

// ResidentUpcoming lists the resident's orders from today on.
func (s *OrderService) ResidentUpcoming(ctx context.Context, residentID uint) ([]models.DailyOrder, error) {
	return s.listOrders(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ? AND order_date >= ?", residentID, s.today()).Order("order_date, meal_type_id")
	})
}

// ResidentHistory lists the resident's finished orders, newest first.
func (s *OrderService) ResidentHistory(ctx context.Context, residentID uint) ([]models.DailyOrder, error) {
	return s.listOrders(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ? AND status IN ?", residentID, models.TerminalStatuses).
			Order("order_date DESC, id DESC")
	})
}
