package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/hostel-meals/models"
	"github.com/yeremiapane/hostel-meals/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const DefaultPurchaseTTL = 15 * time.Minute

// Payment methods accepted by the simulated checkout.
const (
	PaymentMethodCard = "card"
	PaymentMethodUPI  = "upi"
)

// PaymentConfirmation is what the resident submits on the payment step.
// Only the last four card digits are ever stored.
type PaymentConfirmation struct {
	Token      string `json:"token"`
	Method     string `json:"method" binding:"required"`
	CardNumber string `json:"card_number"`
	CardHolder string `json:"card_holder"`
	Expiry     string `json:"expiry"`
	UPIID      string `json:"upi_id"`
}

func (p PaymentConfirmation) validate() error {
	switch strings.ToLower(p.Method) {
	case PaymentMethodCard:
		digits := 0
		for _, r := range p.CardNumber {
			switch {
			case unicode.IsDigit(r):
				digits++
			case r == ' ' || r == '-':
			default:
				return Errorf(ErrInvalidPayment, "card number must contain digits only")
			}
		}
		if digits < 12 || digits > 19 {
			return Errorf(ErrInvalidPayment, "card number is required")
		}
	case PaymentMethodUPI:
		if !strings.Contains(p.UPIID, "@") {
			return Errorf(ErrInvalidPayment, "a valid UPI id is required")
		}
	default:
		return Errorf(ErrInvalidPayment, "payment method must be card or upi")
	}
	return nil
}

// details returns the masked payment details kept on the Payment row.
func (p PaymentConfirmation) details() datatypes.JSON {
	d := map[string]string{"method": strings.ToLower(p.Method)}
	if strings.EqualFold(p.Method, PaymentMethodCard) {
		var digits []rune
		for _, r := range p.CardNumber {
			if unicode.IsDigit(r) {
				digits = append(digits, r)
			}
		}
		d["card_last4"] = string(digits[len(digits)-4:])
		if p.CardHolder != "" {
			d["card_holder"] = p.CardHolder
		}
	} else {
		d["upi_id"] = p.UPIID
	}
	raw, _ := json.Marshal(d)
	return datatypes.JSON(raw)
}

type SubscriptionService struct {
	DB          *gorm.DB
	Store       PurchaseStore
	PurchaseTTL time.Duration
	Now         Clock
}

func NewSubscriptionService(db *gorm.DB, store PurchaseStore) *SubscriptionService {
	return &SubscriptionService{DB: db, Store: store, PurchaseTTL: DefaultPurchaseTTL}
}

// ActivePlans lists the plans residents can buy, by name.
func (s *SubscriptionService) ActivePlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	var plans []models.SubscriptionPlan
	err := s.DB.WithContext(ctx).Preload("MealTypes").
		Where("is_active = ?", true).Order("name").Find(&plans).Error
	return plans, err
}

// StagePurchase records the resident's plan choice ahead of payment,
// replacing any earlier choice.
func (s *SubscriptionService) StagePurchase(ctx context.Context, residentID, planID uint) (*models.PendingPurchase, error) {
	var plan models.SubscriptionPlan
	err := s.DB.WithContext(ctx).Where("id = ? AND is_active = ?", planID, true).First(&plan).Error
	if err != nil {
		return nil, notFound(err, "plan")
	}

	ttl := s.PurchaseTTL
	if ttl <= 0 {
		ttl = DefaultPurchaseTTL
	}
	pending := &models.PendingPurchase{
		Token:              uuid.NewString(),
		UserID:             residentID,
		SubscriptionPlanID: plan.ID,
		PlanName:           plan.Name,
		Amount:             plan.BasePrice,
		DurationDays:       plan.DurationDays,
		ExpiresAt:          s.Now.now().Add(ttl),
	}
	if err := s.Store.Save(ctx, pending, ttl); err != nil {
		return nil, err
	}
	return pending, nil
}

// Pending returns the resident's staged purchase if it is still valid.
func (s *SubscriptionService) Pending(ctx context.Context, residentID uint) (*models.PendingPurchase, error) {
	pending, err := s.Store.Get(ctx, residentID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrExpiredSession
		}
		return nil, err
	}
	if pending.Expired(s.Now.now()) {
		_ = s.Store.Delete(ctx, residentID)
		return nil, ErrExpiredSession
	}
	return pending, nil
}

// Purchase confirms a staged plan. The subscription and its payment record
// are written together or not at all, in the same transaction that consumes
// the staging, so a staging confirms at most once.
func (s *SubscriptionService) Purchase(ctx context.Context, residentID, planID uint, payment PaymentConfirmation) (*models.UserSubscription, error) {
	pending, err := s.Pending(ctx, residentID)
	if err != nil {
		return nil, err
	}
	if pending.SubscriptionPlanID != planID || (payment.Token != "" && payment.Token != pending.Token) {
		return nil, Errorf(ErrExpiredSession, "selected plan does not match, select the plan again")
	}
	if err := payment.validate(); err != nil {
		return nil, err
	}

	start := models.DateOf(s.Now.now())
	sub := models.UserSubscription{
		UserID:             residentID,
		SubscriptionPlanID: pending.SubscriptionPlanID,
		StartDate:          start,
		EndDate:            models.AddDays(start, pending.DurationDays-1),
		TotalAmountPaid:    pending.Amount,
		Status:             models.SubscriptionActive,
		IsPaid:             true,
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&sub).Error; err != nil {
			return fmt.Errorf("failed to create subscription: %w", err)
		}
		record := models.Payment{
			UserID:             residentID,
			UserSubscriptionID: &sub.ID,
			Amount:             pending.Amount,
			Method:             strings.ToLower(payment.Method),
			Details:            payment.details(),
			IsSuccessful:       true,
		}
		if err := tx.Omit(clause.Associations).Create(&record).Error; err != nil {
			return fmt.Errorf("failed to record payment: %w", err)
		}
		return s.Store.Consume(ctx, tx, residentID, pending.Token)
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"resident_id":     residentID,
		"subscription_id": sub.ID,
		"plan_id":         sub.SubscriptionPlanID,
		"end_date":        models.FormatDate(sub.EndDate),
	}).Info("Subscription purchased")

	if err := s.DB.WithContext(ctx).Preload("Plan.MealTypes").First(&sub, sub.ID).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

// ResidentSubscriptions lists subscriptions that have not ended before
// today, soonest first.
func (s *SubscriptionService) ResidentSubscriptions(ctx context.Context, residentID uint) ([]models.UserSubscription, error) {
	var subs []models.UserSubscription
	err := s.DB.WithContext(ctx).Preload("Plan.MealTypes").
		Where("user_id = ? AND end_date >= ?", residentID, models.DateOf(s.Now.now())).
		Order("start_date, id").Find(&subs).Error
	return subs, err
}

func (s *SubscriptionService) ResidentPayments(ctx context.Context, residentID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := s.DB.WithContext(ctx).Where("user_id = ?", residentID).Order("payment_date DESC, id DESC").Find(&payments).Error
	return payments, err
}
