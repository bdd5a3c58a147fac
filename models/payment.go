package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Payment is the append-only record of a successful subscription payment.
type Payment struct {
	ID                 uint              `gorm:"primaryKey" json:"id"`
	UserID             uint              `gorm:"not null;index" json:"user_id"`
	User               *User             `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	UserSubscriptionID *uint             `gorm:"uniqueIndex" json:"user_subscription_id"`
	UserSubscription   *UserSubscription `gorm:"foreignKey:UserSubscriptionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
	Amount             decimal.Decimal   `gorm:"type:decimal(8,2);not null" json:"amount"`
	Method             string            `gorm:"type:varchar(20);not null" json:"method"`
	Details            datatypes.JSON    `json:"details,omitempty"` // masked payment details
	PaymentDate        time.Time         `gorm:"autoCreateTime" json:"payment_date"`
	IsSuccessful       bool              `gorm:"not null" json:"is_successful"`
}

// PendingPurchase is a plan selection staged between choosing a plan and
// confirming payment. Nothing is subscribed until the payment succeeds.
type PendingPurchase struct {
	ID                 uint            `gorm:"primaryKey" json:"-"`
	Token              string          `gorm:"type:varchar(36);uniqueIndex;not null" json:"token"`
	UserID             uint            `gorm:"not null;uniqueIndex" json:"user_id"`
	SubscriptionPlanID uint            `gorm:"not null" json:"plan_id"`
	PlanName           string          `gorm:"type:varchar(100);not null" json:"plan_name"`
	Amount             decimal.Decimal `gorm:"type:decimal(8,2);not null" json:"amount"`
	DurationDays       int             `gorm:"not null" json:"duration_days"`
	ExpiresAt          time.Time       `gorm:"not null;index" json:"expires_at"`
	CreatedAt          time.Time       `json:"created_at"`
}

func (p *PendingPurchase) Expired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}
