package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type DailyOrder struct {
	ID                 uint              `gorm:"primaryKey" json:"id"`
	UserID             uint              `gorm:"not null;uniqueIndex:idx_user_date_meal" json:"user_id"`
	User               *User             `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"user,omitempty"`
	UserSubscriptionID *uint             `gorm:"index" json:"user_subscription_id,omitempty"`
	UserSubscription   *UserSubscription `gorm:"foreignKey:UserSubscriptionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	OrderDate          datatypes.Date    `gorm:"not null;uniqueIndex:idx_user_date_meal;index" json:"order_date"`
	MealTypeID         uint              `gorm:"not null;uniqueIndex:idx_user_date_meal" json:"meal_type_id"`
	MealType           *MealType         `gorm:"foreignKey:MealTypeID;references:ID" json:"meal_type,omitempty"`
	Status             OrderStatus       `gorm:"type:varchar(20);not null;default:'submitted';index" json:"status"`
	DeliveryAgentID    *uint             `gorm:"index" json:"delivery_agent_id,omitempty"`
	DeliveryAgent      *User             `gorm:"foreignKey:DeliveryAgentID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"delivery_agent,omitempty"`
	AssignedTime       *time.Time        `json:"assigned_time,omitempty"`
	DeliveredTime      *time.Time        `json:"delivered_time,omitempty"`
	OrderedAt          time.Time         `gorm:"autoCreateTime" json:"ordered_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
	Items              []DailyOrderItem  `gorm:"foreignKey:DailyOrderID" json:"items"`
}

// Total is derived from the line items, which must be loaded.
func (o *DailyOrder) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

type DailyOrderItem struct {
	ID           uint `gorm:"primaryKey" json:"id"`
	DailyOrderID uint `gorm:"not null;uniqueIndex:idx_order_menu_item" json:"daily_order_id"`
	// Omitting DailyOrder from JSON to avoid recursive nesting
	DailyOrder       *DailyOrder     `gorm:"foreignKey:DailyOrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	MenuItemID       uint            `gorm:"not null;uniqueIndex:idx_order_menu_item;index" json:"menu_item_id"`
	MenuItem         *VendorMenuItem `gorm:"foreignKey:MenuItemID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"menu_item,omitempty"`
	Quantity         int             `gorm:"not null" json:"quantity"`
	PriceAtOrderTime decimal.Decimal `gorm:"type:decimal(6,2);not null" json:"price_at_order_time"`
}

func (i DailyOrderItem) Subtotal() decimal.Decimal {
	return i.PriceAtOrderTime.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// DailyOrderStatusLog is an append-only record of every status change.
type DailyOrderStatusLog struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	DailyOrderID uint        `gorm:"not null;index" json:"daily_order_id"`
	FromStatus   OrderStatus `gorm:"type:varchar(20);not null" json:"from_status"`
	ToStatus     OrderStatus `gorm:"type:varchar(20);not null" json:"to_status"`
	ActorID      uint        `gorm:"not null" json:"actor_id"`
	ActorRole    Role        `gorm:"type:varchar(20);not null" json:"actor_role"`
	Note         string      `gorm:"type:varchar(255)" json:"note,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}
