package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionPaused    SubscriptionStatus = "paused"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

type UserSubscription struct {
	ID                 uint               `gorm:"primaryKey" json:"id"`
	UserID             uint               `gorm:"not null;index" json:"user_id"`
	User               *User              `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	SubscriptionPlanID uint               `gorm:"not null" json:"plan_id"`
	Plan               SubscriptionPlan   `gorm:"foreignKey:SubscriptionPlanID;references:ID" json:"plan"`
	StartDate          datatypes.Date     `gorm:"not null;index" json:"start_date"`
	EndDate            datatypes.Date     `gorm:"not null;index" json:"end_date"`
	TotalAmountPaid    decimal.Decimal    `gorm:"type:decimal(8,2);not null" json:"total_amount_paid"`
	Status             SubscriptionStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	IsPaid             bool               `gorm:"not null" json:"is_paid"`
	SubscribedOn       time.Time          `gorm:"autoCreateTime" json:"subscribed_on"`
}

// Covers reports whether the subscription entitles its owner on date.
func (s *UserSubscription) Covers(date datatypes.Date) bool {
	if s.Status != SubscriptionActive || !s.IsPaid {
		return false
	}
	d := time.Time(date)
	return !d.Before(time.Time(s.StartDate)) && !d.After(time.Time(s.EndDate))
}
