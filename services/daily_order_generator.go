package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/hostel-meals/models"
	"github.com/yeremiapane/hostel-meals/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GenerateResult counts what a generation run did.
type GenerateResult struct {
	Date      string `json:"date"`
	Generated int    `json:"generated"`
	Skipped   int    `json:"skipped"`
}

// DailyOrderGenerator creates pending placeholder orders for every meal a
// subscription covers on a date, so residents only need to fill them in.
type DailyOrderGenerator struct {
	DB     *gorm.DB
	DryRun bool
}

func NewDailyOrderGenerator(db *gorm.DB) *DailyOrderGenerator {
	return &DailyOrderGenerator{DB: db}
}

func (g *DailyOrderGenerator) Generate(ctx context.Context, date datatypes.Date) (GenerateResult, error) {
	date = models.DateOf(time.Time(date))
	result := GenerateResult{Date: models.FormatDate(date)}

	db := g.DB.WithContext(ctx)
	var subs []models.UserSubscription
	if err := activeOn(db, date).Order("user_id, id").Find(&subs).Error; err != nil {
		return result, fmt.Errorf("failed to load subscriptions: %w", err)
	}

	for _, sub := range subs {
		for _, mt := range sub.Plan.MealTypes {
			created, err := g.ensureOrder(db, &sub, date, mt.ID)
			if err != nil {
				return result, fmt.Errorf("failed to generate order for user %d: %w", sub.UserID, err)
			}
			if created {
				result.Generated++
				utils.InfoLogger.WithFields(logrus.Fields{
					"user_id":   sub.UserID,
					"meal_type": mt.Name,
					"date":      result.Date,
				}).Info("Generated daily order")
			} else {
				result.Skipped++
			}
		}
	}
	return result, nil
}

func (g *DailyOrderGenerator) ensureOrder(db *gorm.DB, sub *models.UserSubscription, date datatypes.Date, mealTypeID uint) (bool, error) {
	var existing models.DailyOrder
	err := db.Where("user_id = ? AND order_date = ? AND meal_type_id = ?", sub.UserID, date, mealTypeID).
		First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	if g.DryRun {
		return true, nil
	}

	order := models.DailyOrder{
		UserID:             sub.UserID,
		UserSubscriptionID: &sub.ID,
		OrderDate:          date,
		MealTypeID:         mealTypeID,
		Status:             models.OrderPending,
	}
	if err := db.Omit(clause.Associations).Create(&order).Error; err != nil {
		if isDuplicateKey(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
