package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type SubscriptionPlan struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Name         string          `gorm:"type:varchar(100);not null" json:"name"`
	Description  string          `gorm:"type:text" json:"description,omitempty"`
	BasePrice    decimal.Decimal `gorm:"type:decimal(8,2);not null" json:"base_price"`
	DurationDays int             `gorm:"not null" json:"duration_days"`
	MealTypes    []MealType      `gorm:"many2many:plan_meal_types" json:"meal_types,omitempty"`
	IsActive     bool            `gorm:"not null;index" json:"is_active"`
	CreatedAt    time.Time       `json:"-"`
	UpdatedAt    time.Time       `json:"-"`
}

// IncludesMealType requires MealTypes to be preloaded.
func (p *SubscriptionPlan) IncludesMealType(mealTypeID uint) bool {
	for _, mt := range p.MealTypes {
		if mt.ID == mealTypeID {
			return true
		}
	}
	return false
}

// VendorSubscription records that a vendor has opted in to serve a plan.
type VendorSubscription struct {
	ID                 uint             `gorm:"primaryKey" json:"id"`
	VendorID           uint             `gorm:"not null;uniqueIndex:idx_vendor_plan" json:"vendor_id"`
	Vendor             *User            `gorm:"foreignKey:VendorID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	SubscriptionPlanID uint             `gorm:"not null;uniqueIndex:idx_vendor_plan" json:"plan_id"`
	SubscriptionPlan   SubscriptionPlan `gorm:"foreignKey:SubscriptionPlanID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"plan"`
	IsActive           bool             `gorm:"not null" json:"is_active"`
	JoinedAt           time.Time        `gorm:"autoCreateTime" json:"joined_at"`
}
