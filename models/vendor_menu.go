package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type VendorMenuItem struct {
	ID                  uint               `gorm:"primaryKey" json:"id"`
	VendorID            uint               `gorm:"not null;index" json:"vendor_id"`
	Vendor              *User              `gorm:"foreignKey:VendorID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"vendor,omitempty"`
	Name                string             `gorm:"type:varchar(150);not null" json:"name"`
	Description         string             `gorm:"type:text" json:"description,omitempty"`
	Price               decimal.Decimal    `gorm:"type:decimal(6,2);not null" json:"price"`
	MealTypeID          uint               `gorm:"not null;index" json:"meal_type_id"`
	MealType            *MealType          `gorm:"foreignKey:MealTypeID;references:ID" json:"meal_type,omitempty"`
	IsAvailableGlobally bool               `gorm:"not null" json:"is_available_globally"`
	SubscriptionPlans   []SubscriptionPlan `gorm:"many2many:menu_item_plans" json:"subscription_plans,omitempty"`
	CreatedAt           time.Time          `json:"-"`
	UpdatedAt           time.Time          `json:"-"`
}

// LinkedToAny requires SubscriptionPlans to be preloaded.
func (i *VendorMenuItem) LinkedToAny(planIDs map[uint]bool) bool {
	for _, p := range i.SubscriptionPlans {
		if planIDs[p.ID] {
			return true
		}
	}
	return false
}

// DailyMenu is what one vendor offers for one meal type on one date.
type DailyMenu struct {
	ID         uint             `gorm:"primaryKey" json:"id"`
	VendorID   uint             `gorm:"not null;uniqueIndex:idx_vendor_date_meal" json:"vendor_id"`
	Vendor     *User            `gorm:"foreignKey:VendorID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	MenuDate   datatypes.Date   `gorm:"not null;uniqueIndex:idx_vendor_date_meal" json:"menu_date"`
	MealTypeID uint             `gorm:"not null;uniqueIndex:idx_vendor_date_meal" json:"meal_type_id"`
	MealType   *MealType        `gorm:"foreignKey:MealTypeID;references:ID" json:"meal_type,omitempty"`
	Items      []VendorMenuItem `gorm:"many2many:daily_menu_items" json:"items"`
	CreatedAt  time.Time        `json:"-"`
	UpdatedAt  time.Time        `json:"-"`
}
