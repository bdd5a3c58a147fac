package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/hostel-meals/models"
	"github.com/yeremiapane/hostel-meals/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// VendorCatalogService manages what a vendor offers: plan opt-ins, menu
// items and published daily menus.
type VendorCatalogService struct {
	DB *gorm.DB
}

func NewVendorCatalogService(db *gorm.DB) *VendorCatalogService {
	return &VendorCatalogService{DB: db}
}

// SetPlanOfferings reconciles the vendor's opt-ins with planIDs: missing
// ones are created and the rest are removed. Submitting the same set again
// changes nothing.
func (s *VendorCatalogService) SetPlanOfferings(ctx context.Context, vendorID uint, planIDs []uint) error {
	wanted := make(map[uint]bool, len(planIDs))
	ids := make([]uint, 0, len(planIDs))
	for _, id := range planIDs {
		if !wanted[id] {
			wanted[id] = true
			ids = append(ids, id)
		}
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(ids) > 0 {
			var count int64
			if err := tx.Model(&models.SubscriptionPlan{}).
				Where("id IN ? AND is_active = ?", ids, true).Count(&count).Error; err != nil {
				return err
			}
			if int(count) != len(ids) {
				return Errorf(ErrNotFound, "one or more plans do not exist")
			}
		}

		var existing []models.VendorSubscription
		if err := tx.Where("vendor_id = ?", vendorID).Find(&existing).Error; err != nil {
			return err
		}
		have := make(map[uint]models.VendorSubscription, len(existing))
		var stale []uint
		for _, vs := range existing {
			have[vs.SubscriptionPlanID] = vs
			if !wanted[vs.SubscriptionPlanID] {
				stale = append(stale, vs.ID)
			}
		}

		if len(stale) > 0 {
			if err := tx.Delete(&models.VendorSubscription{}, stale).Error; err != nil {
				return fmt.Errorf("failed to remove plan opt-ins: %w", err)
			}
		}
		for _, id := range ids {
			vs, ok := have[id]
			if !ok {
				row := models.VendorSubscription{VendorID: vendorID, SubscriptionPlanID: id, IsActive: true}
				if err := tx.Omit("Vendor", "SubscriptionPlan").Create(&row).Error; err != nil {
					return err
				}
				continue
			}
			if !vs.IsActive {
				if err := tx.Model(&models.VendorSubscription{}).Where("id = ?", vs.ID).
					Update("is_active", true).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		if isDuplicateKey(err) {
			return Errorf(ErrDuplicate, "plan opt-ins changed concurrently, reload and try again")
		}
		return err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"vendor_id": vendorID,
		"plans":     ids,
	}).Info("Vendor plan offerings updated")
	return nil
}

// PlanOfferings lists the vendor's opt-ins with their plans.
func (s *VendorCatalogService) PlanOfferings(ctx context.Context, vendorID uint) ([]models.VendorSubscription, error) {
	var rows []models.VendorSubscription
	err := s.DB.WithContext(ctx).Preload("SubscriptionPlan.MealTypes").
		Where("vendor_id = ?", vendorID).Order("subscription_plan_id").Find(&rows).Error
	return rows, err
}

// MenuItemInput describes a menu item to create.
type MenuItemInput struct {
	Name                string          `json:"name" binding:"required"`
	Description         string          `json:"description"`
	Price               decimal.Decimal `json:"price" binding:"required"`
	MealTypeID          uint            `json:"meal_type_id" binding:"required"`
	IsAvailableGlobally bool            `json:"is_available_globally"`
	PlanIDs             []uint          `json:"plan_ids"`
}

// MenuItemUpdate changes only the fields that are set. A non-nil PlanIDs
// replaces the item's plans.
type MenuItemUpdate struct {
	Name                *string          `json:"name"`
	Description         *string          `json:"description"`
	Price               *decimal.Decimal `json:"price"`
	MealTypeID          *uint            `json:"meal_type_id"`
	IsAvailableGlobally *bool            `json:"is_available_globally"`
	PlanIDs             *[]uint          `json:"plan_ids"`
}

func (s *VendorCatalogService) CreateMenuItem(ctx context.Context, vendorID uint, in MenuItemInput) (*models.VendorMenuItem, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, Errorf(ErrValidation, "name is required")
	}
	if !in.Price.IsPositive() {
		return nil, Errorf(ErrValidation, "price must be greater than zero")
	}

	item := models.VendorMenuItem{
		VendorID:            vendorID,
		Name:                name,
		Description:         in.Description,
		Price:               in.Price.Round(2),
		MealTypeID:          in.MealTypeID,
		IsAvailableGlobally: in.IsAvailableGlobally,
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&models.MealType{}, in.MealTypeID).Error; err != nil {
			return notFound(err, "meal type")
		}
		plans, err := optedInPlans(tx, vendorID, in.PlanIDs)
		if err != nil {
			return err
		}
		item.SubscriptionPlans = plans
		if err := tx.Omit("Vendor", "MealType", "SubscriptionPlans.*").Create(&item).Error; err != nil {
			return fmt.Errorf("failed to create menu item: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.menuItem(ctx, item.ID)
}

func (s *VendorCatalogService) UpdateMenuItem(ctx context.Context, vendorID, itemID uint, in MenuItemUpdate) (*models.VendorMenuItem, error) {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.VendorMenuItem
		if err := tx.First(&item, itemID).Error; err != nil {
			return notFound(err, "menu item")
		}
		if item.VendorID != vendorID {
			return Errorf(ErrUnauthorized, "menu item belongs to another vendor")
		}

		updates := map[string]interface{}{}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return Errorf(ErrValidation, "name is required")
			}
			updates["name"] = name
		}
		if in.Description != nil {
			updates["description"] = *in.Description
		}
		if in.Price != nil {
			if !in.Price.IsPositive() {
				return Errorf(ErrValidation, "price must be greater than zero")
			}
			updates["price"] = in.Price.Round(2)
		}
		if in.MealTypeID != nil {
			if err := tx.First(&models.MealType{}, *in.MealTypeID).Error; err != nil {
				return notFound(err, "meal type")
			}
			updates["meal_type_id"] = *in.MealTypeID
		}
		if in.IsAvailableGlobally != nil {
			updates["is_available_globally"] = *in.IsAvailableGlobally
		}
		if len(updates) > 0 {
			if err := tx.Model(&item).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update menu item: %w", err)
			}
		}

		if in.PlanIDs != nil {
			plans, err := optedInPlans(tx, vendorID, *in.PlanIDs)
			if err != nil {
				return err
			}
			if err := tx.Model(&item).Association("SubscriptionPlans").Replace(plans); err != nil {
				return fmt.Errorf("failed to update menu item plans: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.menuItem(ctx, itemID)
}

// optedInPlans loads planIDs and fails unless the vendor has an active
// opt-in for every one of them.
func optedInPlans(tx *gorm.DB, vendorID uint, planIDs []uint) ([]models.SubscriptionPlan, error) {
	if len(planIDs) == 0 {
		return []models.SubscriptionPlan{}, nil
	}
	var plans []models.SubscriptionPlan
	err := tx.Where("id IN ?", planIDs).
		Where("id IN (?)", tx.Session(&gorm.Session{NewDB: true}).Model(&models.VendorSubscription{}).
			Select("subscription_plan_id").
			Where("vendor_id = ? AND is_active = ?", vendorID, true)).
		Find(&plans).Error
	if err != nil {
		return nil, err
	}
	unique := make(map[uint]bool, len(planIDs))
	for _, id := range planIDs {
		unique[id] = true
	}
	if len(plans) != len(unique) {
		return nil, Errorf(ErrUnauthorized, "you can only tag plans you have opted in to")
	}
	return plans, nil
}

func (s *VendorCatalogService) menuItem(ctx context.Context, itemID uint) (*models.VendorMenuItem, error) {
	var item models.VendorMenuItem
	err := s.DB.WithContext(ctx).Preload("MealType").Preload("SubscriptionPlans").First(&item, itemID).Error
	if err != nil {
		return nil, notFound(err, "menu item")
	}
	return &item, nil
}

func (s *VendorCatalogService) MenuItems(ctx context.Context, vendorID uint) ([]models.VendorMenuItem, error) {
	var items []models.VendorMenuItem
	err := s.DB.WithContext(ctx).Preload("MealType").Preload("SubscriptionPlans").
		Where("vendor_id = ?", vendorID).Order("name, id").Find(&items).Error
	return items, err
}

// PublishDailyMenu creates or replaces the vendor's menu for a date and
// meal type. Every item must belong to the vendor.
func (s *VendorCatalogService) PublishDailyMenu(ctx context.Context, vendorID uint, date datatypes.Date, mealTypeID uint, itemIDs []uint) (*models.DailyMenu, error) {
	if len(itemIDs) == 0 {
		return nil, Errorf(ErrValidation, "a menu needs at least one item")
	}
	date = models.DateOf(time.Time(date))

	var menu models.DailyMenu
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&models.MealType{}, mealTypeID).Error; err != nil {
			return notFound(err, "meal type")
		}
		var items []models.VendorMenuItem
		if err := tx.Where("id IN ?", itemIDs).Find(&items).Error; err != nil {
			return err
		}
		found := make(map[uint]bool, len(items))
		for _, item := range items {
			if item.VendorID != vendorID {
				return Errorf(ErrUnauthorized, fmt.Sprintf("menu item %d belongs to another vendor", item.ID))
			}
			found[item.ID] = true
		}
		for _, id := range itemIDs {
			if !found[id] {
				return Errorf(ErrNotFound, fmt.Sprintf("menu item %d not found", id))
			}
		}

		err := tx.Where("vendor_id = ? AND menu_date = ? AND meal_type_id = ?", vendorID, date, mealTypeID).
			First(&menu).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			menu = models.DailyMenu{VendorID: vendorID, MenuDate: date, MealTypeID: mealTypeID}
			if err := tx.Omit("Vendor", "MealType", "Items").Create(&menu).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
		if err := tx.Model(&menu).Association("Items").Replace(items); err != nil {
			return fmt.Errorf("failed to set menu items: %w", err)
		}
		return nil
	})
	if err != nil {
		if isDuplicateKey(err) {
			return nil, Errorf(ErrDuplicate, "menu already exists, reload and try again")
		}
		return nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"vendor_id": vendorID,
		"date":      models.FormatDate(date),
		"meal_type": mealTypeID,
		"items":     len(itemIDs),
	}).Info("Daily menu published")

	var out models.DailyMenu
	err = s.DB.WithContext(ctx).Preload("MealType").Preload("Items").First(&out, menu.ID).Error
	return &out, err
}
