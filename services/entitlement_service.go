package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/yeremiapane/hostel-meals/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Entitlement is what a resident may order on one date.
type Entitlement struct {
	Date              datatypes.Date            `json:"date"`
	EligibleMealTypes []models.MealType         `json:"eligible_meal_types"`
	SelectedMealType  *models.MealType          `json:"selected_meal_type"`
	Menu              *models.DailyMenu         `json:"menu,omitempty"`
	EligibleItems     []models.VendorMenuItem   `json:"eligible_items"`
	Subscriptions     []models.UserSubscription `json:"-"`
	MenuPublished     bool                      `json:"menu_published"`
}

// CoveringSubscription returns the first qualifying subscription whose plan
// includes the meal type.
func (e *Entitlement) CoveringSubscription(mealTypeID uint) *models.UserSubscription {
	for i := range e.Subscriptions {
		if e.Subscriptions[i].Plan.IncludesMealType(mealTypeID) {
			return &e.Subscriptions[i]
		}
	}
	return nil
}

type EntitlementService struct {
	DB  *gorm.DB
	Now Clock
}

func NewEntitlementService(db *gorm.DB) *EntitlementService {
	return &EntitlementService{DB: db}
}

// Resolve computes the meal types and menu items a resident may order on
// date. A zero date means today. With no meal type requested the
// alphabetically first eligible one is selected.
func (s *EntitlementService) Resolve(ctx context.Context, residentID uint, date datatypes.Date, mealTypeID *uint) (*Entitlement, error) {
	return s.resolve(s.DB.WithContext(ctx), residentID, date, mealTypeID)
}

func (s *EntitlementService) resolve(tx *gorm.DB, residentID uint, date datatypes.Date, mealTypeID *uint) (*Entitlement, error) {
	if time.Time(date).IsZero() {
		date = models.DateOf(s.Now.now())
	} else {
		date = models.DateOf(time.Time(date))
	}

	subs, err := qualifyingSubscriptions(tx, residentID, date)
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, ErrNoEntitlement
	}

	ent := &Entitlement{Date: date, Subscriptions: subs}
	planIDs := make(map[uint]bool, len(subs))
	seen := make(map[uint]bool)
	for _, sub := range subs {
		planIDs[sub.SubscriptionPlanID] = true
		for _, mt := range sub.Plan.MealTypes {
			if !seen[mt.ID] {
				seen[mt.ID] = true
				ent.EligibleMealTypes = append(ent.EligibleMealTypes, mt)
			}
		}
	}
	sort.Slice(ent.EligibleMealTypes, func(i, j int) bool {
		return ent.EligibleMealTypes[i].Name < ent.EligibleMealTypes[j].Name
	})

	if mealTypeID != nil {
		var mt models.MealType
		if err := tx.First(&mt, *mealTypeID).Error; err != nil {
			return nil, notFound(err, "meal type")
		}
		if !seen[mt.ID] {
			return nil, Errorf(ErrUnauthorized, fmt.Sprintf("you are not subscribed to %s", mt.Name))
		}
		ent.SelectedMealType = &mt
	} else if len(ent.EligibleMealTypes) > 0 {
		mt := ent.EligibleMealTypes[0]
		ent.SelectedMealType = &mt
	}
	if ent.SelectedMealType == nil {
		return ent, nil
	}

	var menus []models.DailyMenu
	err = tx.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("vendor_menu_items.id")
	}).Preload("Items.SubscriptionPlans").
		Where("menu_date = ? AND meal_type_id = ?", date, ent.SelectedMealType.ID).
		Order("id").Limit(1).Find(&menus).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load daily menu: %w", err)
	}
	if len(menus) == 0 {
		return ent, nil
	}

	ent.Menu = &menus[0]
	ent.MenuPublished = true
	for _, item := range ent.Menu.Items {
		if item.IsAvailableGlobally || item.LinkedToAny(planIDs) {
			ent.EligibleItems = append(ent.EligibleItems, item)
		}
	}
	return ent, nil
}

func qualifyingSubscriptions(tx *gorm.DB, residentID uint, date datatypes.Date) ([]models.UserSubscription, error) {
	var subs []models.UserSubscription
	err := activeOn(tx, date).Where("user_id = ?", residentID).Order("id").Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load subscriptions: %w", err)
	}
	return subs, nil
}

// activeOn scopes to subscriptions that are active, paid and cover date.
func activeOn(tx *gorm.DB, date datatypes.Date) *gorm.DB {
	return tx.Preload("Plan.MealTypes").
		Where("status = ? AND is_paid = ? AND start_date <= ? AND end_date >= ?",
			models.SubscriptionActive, true, date, date)
}
