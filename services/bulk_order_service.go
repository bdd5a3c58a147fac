package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yeremiapane/hostel-meals/models"
	"github.com/yeremiapane/hostel-meals/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BulkOrderService handles orders placed by wardens for their residents.
type BulkOrderService struct {
	DB  *gorm.DB
	Now Clock
}

func NewBulkOrderService(db *gorm.DB) *BulkOrderService {
	return &BulkOrderService{DB: db}
}

type BulkOrderInput struct {
	Date                datatypes.Date
	MealTypeID          uint
	SpecialRequirements string
	Items               map[uint]int
}

// Place snapshots item prices and stores the total with the order.
func (s *BulkOrderService) Place(ctx context.Context, actor *Actor, in BulkOrderInput) (*models.BulkOrder, error) {
	if err := Authorize(actor, CapBulkOrder); err != nil {
		return nil, err
	}
	date := models.DateOf(time.Time(in.Date))
	if time.Time(in.Date).IsZero() || time.Time(date).Before(time.Time(models.DateOf(s.Now.now()))) {
		return nil, Errorf(ErrValidation, "order date must be today or later")
	}

	ids := make([]uint, 0, len(in.Items))
	for id, qty := range in.Items {
		if qty < 0 {
			return nil, ErrInvalidQuantity
		}
		if qty > 0 {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, ErrEmptySelection
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	order := models.BulkOrder{
		WardenID:            actor.ID,
		OrderDate:           date,
		MealTypeID:          in.MealTypeID,
		Status:              models.OrderSubmitted,
		SpecialRequirements: strings.TrimSpace(in.SpecialRequirements),
		TotalCost:           decimal.Zero,
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&models.MealType{}, in.MealTypeID).Error; err != nil {
			return notFound(err, "meal type")
		}
		var items []models.VendorMenuItem
		if err := tx.Where("id IN ?", ids).Find(&items).Error; err != nil {
			return err
		}
		if len(items) != len(ids) {
			return Errorf(ErrNotFound, "one or more menu items do not exist")
		}
		for _, item := range items {
			qty := in.Items[item.ID]
			order.Items = append(order.Items, models.BulkOrderItem{
				MenuItemID:       item.ID,
				Quantity:         qty,
				PriceAtOrderTime: item.Price,
			})
			order.TotalCost = order.TotalCost.Add(item.Price.Mul(decimal.NewFromInt(int64(qty))))
		}
		if err := tx.Omit("Warden", "MealType", "Items.MenuItem").Create(&order).Error; err != nil {
			return fmt.Errorf("failed to create bulk order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	utils.InfoLogger.Printf("Bulk order %d placed by warden %d (total %s)", order.ID, actor.ID, utils.FormatCurrency(order.TotalCost))
	return s.get(ctx, order.ID)
}

func (s *BulkOrderService) get(ctx context.Context, id uint) (*models.BulkOrder, error) {
	var order models.BulkOrder
	err := s.DB.WithContext(ctx).Preload("MealType").Preload("Items.MenuItem").First(&order, id).Error
	if err != nil {
		return nil, notFound(err, "bulk order")
	}
	return &order, nil
}

// List returns the warden's bulk orders, newest first.
func (s *BulkOrderService) List(ctx context.Context, wardenID uint) ([]models.BulkOrder, error) {
	var orders []models.BulkOrder
	err := s.DB.WithContext(ctx).Preload("MealType").Preload("Items.MenuItem").
		Where("warden_id = ?", wardenID).
		Order("order_date DESC, id DESC").Find(&orders).Error
	return orders, err
}
