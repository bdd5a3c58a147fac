package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// BulkOrder is placed by a warden for the residents under their care. It
// has no per-resident attribution.
type BulkOrder struct {
	ID                  uint            `gorm:"primaryKey" json:"id"`
	WardenID            uint            `gorm:"not null;index" json:"warden_id"`
	Warden              *User           `gorm:"foreignKey:WardenID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	OrderDate           datatypes.Date  `gorm:"not null;index" json:"order_date"`
	MealTypeID          uint            `gorm:"not null" json:"meal_type_id"`
	MealType            *MealType       `gorm:"foreignKey:MealTypeID;references:ID" json:"meal_type,omitempty"`
	Status              OrderStatus     `gorm:"type:varchar(20);not null;default:'submitted'" json:"status"`
	DeliveryAgentID     *uint           `gorm:"index" json:"delivery_agent_id,omitempty"`
	AssignedTime        *time.Time      `json:"assigned_time,omitempty"`
	DeliveredTime       *time.Time      `json:"delivered_time,omitempty"`
	SpecialRequirements string          `gorm:"type:text" json:"special_requirements,omitempty"`
	TotalCost           decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_cost"`
	OrderedAt           time.Time       `gorm:"autoCreateTime" json:"ordered_at"`
	Items               []BulkOrderItem `gorm:"foreignKey:BulkOrderID" json:"items"`
}

type BulkOrderItem struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	BulkOrderID      uint            `gorm:"not null;uniqueIndex:idx_bulk_menu_item" json:"bulk_order_id"`
	MenuItemID       uint            `gorm:"not null;uniqueIndex:idx_bulk_menu_item" json:"menu_item_id"`
	MenuItem         *VendorMenuItem `gorm:"foreignKey:MenuItemID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"menu_item,omitempty"`
	Quantity         int             `gorm:"not null" json:"quantity"`
	PriceAtOrderTime decimal.Decimal `gorm:"type:decimal(6,2);not null" json:"price_at_order_time"`
}
