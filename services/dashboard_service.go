package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/yeremiapane/hostel-meals/models"
	"gorm.io/gorm"
)

type DashboardService struct {
	DB            *gorm.DB
	Subscriptions *SubscriptionService
	Orders        *OrderService
	Now           Clock
}

func NewDashboardService(db *gorm.DB, subs *SubscriptionService, orders *OrderService) *DashboardService {
	return &DashboardService{DB: db, Subscriptions: subs, Orders: orders}
}

type AdminStats struct {
	ActiveSubscriptions int64           `json:"active_subscriptions"`
	PendingApprovals    int64           `json:"pending_approvals"`
	Vendors             int64           `json:"vendors"`
	DeliveryAgents      int64           `json:"delivery_agents"`
	Residents           int64           `json:"residents"`
	Revenue             decimal.Decimal `json:"revenue"`
	TodayOrders         struct {
		Pending        int64 `json:"pending"`
		Submitted      int64 `json:"submitted"`
		Prepared       int64 `json:"prepared"`
		OutForDelivery int64 `json:"out_for_delivery"`
		Delivered      int64 `json:"delivered"`
		Cancelled      int64 `json:"cancelled"`
	} `json:"today_orders"`
	RecentOrders []models.DailyOrder `json:"recent_orders"`
}

// Admin gathers the headline counts for the admin dashboard.
func (s *DashboardService) Admin(ctx context.Context) (*AdminStats, error) {
	db := s.DB.WithContext(ctx)
	today := models.DateOf(s.Now.now())
	var stats AdminStats

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&stats.ActiveSubscriptions, db.Model(&models.UserSubscription{}).
			Where("status = ? AND is_paid = ? AND end_date >= ?", models.SubscriptionActive, true, today)},
		{&stats.PendingApprovals, db.Model(&models.User{}).
			Where("role IN ? AND is_approved = ?", []models.Role{models.RoleResident, models.RoleWarden}, false)},
		{&stats.Vendors, db.Model(&models.User{}).Where("role = ?", models.RoleVendor)},
		{&stats.DeliveryAgents, db.Model(&models.User{}).Where("role = ?", models.RoleDeliveryAgent)},
		{&stats.Residents, db.Model(&models.User{}).Where("role = ?", models.RoleResident)},
	}
	todayOrders := map[models.OrderStatus]*int64{
		models.OrderPending:        &stats.TodayOrders.Pending,
		models.OrderSubmitted:      &stats.TodayOrders.Submitted,
		models.OrderPrepared:       &stats.TodayOrders.Prepared,
		models.OrderOutForDelivery: &stats.TodayOrders.OutForDelivery,
		models.OrderDelivered:      &stats.TodayOrders.Delivered,
		models.OrderCancelled:      &stats.TodayOrders.Cancelled,
	}
	for status, dest := range todayOrders {
		counts = append(counts, struct {
			dest  *int64
			query *gorm.DB
		}{dest, db.Model(&models.DailyOrder{}).Where("order_date = ? AND status = ?", today, status)})
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, fmt.Errorf("failed to load dashboard counts: %w", err)
		}
	}

	var revenue float64
	if err := db.Model(&models.Payment{}).Where("is_successful = ?", true).
		Select("COALESCE(SUM(amount), 0)").Row().Scan(&revenue); err != nil {
		return nil, fmt.Errorf("failed to load revenue: %w", err)
	}
	stats.Revenue = decimal.NewFromFloat(revenue).Round(2)

	err := db.Preload("User").Preload("MealType").
		Order("ordered_at DESC, id DESC").Limit(10).Find(&stats.RecentOrders).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

type ResidentDashboard struct {
	Subscriptions  []models.UserSubscription `json:"subscriptions"`
	UpcomingOrders []OrderSummary            `json:"upcoming_orders"`
	Payments       []models.Payment          `json:"payments"`
}

// OrderSummary pairs an order with its computed total.
type OrderSummary struct {
	models.DailyOrder
	Total decimal.Decimal `json:"total"`
}

func Summaries(orders []models.DailyOrder) []OrderSummary {
	out := make([]OrderSummary, 0, len(orders))
	for _, o := range orders {
		out = append(out, OrderSummary{DailyOrder: o, Total: o.Total()})
	}
	return out
}

// Resident collects a resident's current subscriptions, upcoming orders and
// payments.
func (s *DashboardService) Resident(ctx context.Context, residentID uint) (*ResidentDashboard, error) {
	var d ResidentDashboard
	var err error
	if d.Subscriptions, err = s.Subscriptions.ResidentSubscriptions(ctx, residentID); err != nil {
		return nil, err
	}
	upcoming, err := s.Orders.ResidentUpcoming(ctx, residentID)
	if err != nil {
		return nil, err
	}
	d.UpcomingOrders = Summaries(upcoming)
	if d.Payments, err = s.Subscriptions.ResidentPayments(ctx, residentID); err != nil {
		return nil, err
	}
	return &d, nil
}
