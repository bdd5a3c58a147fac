package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/hostel-meals/models"
	"gorm.io/gorm"
)

func TestPlaceThaliLunchOrder(t *testing.T) {
	w := newLunchWorld(t)

	order := w.placeThali(t, 2)

	assert.Equal(t, models.OrderSubmitted, order.Status)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 2, order.Items[0].Quantity)
	assert.True(t, order.Items[0].PriceAtOrderTime.Equal(money("120.00")))
	assert.Equal(t, "240.00", w.orders.Total(order).StringFixed(2))
	require.NotNil(t, order.UserSubscriptionID)
	assert.Equal(t, w.sub.ID, *order.UserSubscriptionID)

	require.Len(t, w.events.events, 1)
	assert.Equal(t, models.OrderSubmitted, w.events.events[0].Status)
}

func TestPlaceOrUpdateKeepsOneOrderPerMeal(t *testing.T) {
	w := newLunchWorld(t)
	raita := createItem(t, w.db, w.vendor.ID, "Raita", "30.00", w.lunch, true)
	require.NoError(t, w.db.Model(&w.menu).Association("Items").Append(&raita))

	first := w.placeThali(t, 1)
	second, err := w.orders.PlaceOrUpdate(ctx(), w.resident.ID, date("2024-01-15"), w.lunch.ID,
		map[uint]int{w.thali.ID: 0, raita.ID: 3})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	require.Len(t, second.Items, 1)
	assert.Equal(t, raita.ID, second.Items[0].MenuItemID)
	assert.Equal(t, "90.00", second.Total().StringFixed(2))

	var count int64
	w.db.Model(&models.DailyOrder{}).Where("user_id = ?", w.resident.ID).Count(&count)
	assert.Equal(t, int64(1), count)
	w.db.Model(&models.DailyOrderItem{}).Where("daily_order_id = ?", first.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestConcurrentFirstOrderReportsDuplicate(t *testing.T) {
	w := newLunchWorld(t)
	raceOnCreate(t, w.db, "daily_orders", func(tx *gorm.DB) error {
		return tx.Create(&models.DailyOrder{
			UserID:     w.resident.ID,
			OrderDate:  date("2024-01-15"),
			MealTypeID: w.lunch.ID,
			Status:     models.OrderSubmitted,
		}).Error
	})

	_, err := w.orders.PlaceOrUpdate(ctx(), w.resident.ID, date("2024-01-15"), w.lunch.ID,
		map[uint]int{w.thali.ID: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicate)

	var count int64
	w.db.Model(&models.DailyOrder{}).Count(&count)
	assert.Zero(t, count)
	assert.Empty(t, w.events.events)

	// the losing request can simply retry and update the order
	order := w.placeThali(t, 2)
	assert.Equal(t, 2, order.Items[0].Quantity)
}

func TestPlaceOrUpdateFillsGeneratedPendingOrder(t *testing.T) {
	w := newLunchWorld(t)
	pending := models.DailyOrder{
		UserID:     w.resident.ID,
		OrderDate:  date("2024-01-15"),
		MealTypeID: w.lunch.ID,
		Status:     models.OrderPending,
	}
	require.NoError(t, w.db.Omit("User", "MealType", "DeliveryAgent", "UserSubscription").Create(&pending).Error)

	order := w.placeThali(t, 1)
	assert.Equal(t, pending.ID, order.ID)
	assert.Equal(t, models.OrderSubmitted, order.Status)
	require.NotNil(t, order.UserSubscriptionID)
	assert.Equal(t, w.sub.ID, *order.UserSubscriptionID)
}

func TestPriceSnapshotSurvivesPriceChange(t *testing.T) {
	w := newLunchWorld(t)
	order := w.placeThali(t, 2)

	require.NoError(t, w.db.Model(&w.thali).Update("price", money("150.00")).Error)

	reloaded, err := w.orders.ResidentOrder(ctx(), w.resident.ID, order.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.Items[0].PriceAtOrderTime.Equal(money("120.00")))
	assert.Equal(t, "240.00", reloaded.Total().StringFixed(2))
}

func TestPlaceOrUpdateValidatesSelections(t *testing.T) {
	w := newLunchWorld(t)
	on := date("2024-01-15")

	tests := []struct {
		name       string
		selections map[uint]int
		want       error
	}{
		{"empty", map[uint]int{}, ErrEmptySelection},
		{"all zero", map[uint]int{w.thali.ID: 0}, ErrEmptySelection},
		{"negative", map[uint]int{w.thali.ID: -1}, ErrInvalidQuantity},
		{"too many", map[uint]int{w.thali.ID: DefaultMaxItemQuantity + 1}, ErrInvalidQuantity},
		{"not on menu", map[uint]int{9999: 1}, ErrItemNotEligible},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := w.orders.PlaceOrUpdate(ctx(), w.resident.ID, on, w.lunch.ID, tt.selections)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	var count int64
	w.db.Model(&models.DailyOrder{}).Count(&count)
	assert.Zero(t, count)
}

func TestPlaceOrUpdateRejectsItemOutsidePlan(t *testing.T) {
	w := newLunchWorld(t)
	otherPlan := createPlan(t, w.db, "Staff Lunch", "2500.00", 30, w.lunch)
	biryani := createItem(t, w.db, w.vendor.ID, "Biryani", "150.00", w.lunch, false, otherPlan)
	require.NoError(t, w.db.Model(&w.menu).Association("Items").Append(&biryani))

	_, err := w.orders.PlaceOrUpdate(ctx(), w.resident.ID, date("2024-01-15"), w.lunch.ID, map[uint]int{biryani.ID: 1})
	assert.ErrorIs(t, err, ErrItemNotEligible)
}

func TestPlaceOrUpdateWithoutMenu(t *testing.T) {
	w := newLunchWorld(t)

	_, err := w.orders.PlaceOrUpdate(ctx(), w.resident.ID, date("2024-01-16"), w.lunch.ID, map[uint]int{w.thali.ID: 1})
	assert.ErrorIs(t, err, ErrMenuNotPublished)
}

func TestOrderingMealTypeOutsidePlanCreatesNothing(t *testing.T) {
	w := newLunchWorld(t)
	soup := createItem(t, w.db, w.vendor.ID, "Soup", "50.00", w.dinner, true)
	publishMenu(t, w.db, w.vendor.ID, "2024-01-15", w.dinner, soup)

	_, err := w.entitlements.Resolve(ctx(), w.resident.ID, date("2024-01-15"), &w.dinner.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = w.orders.PlaceOrUpdate(ctx(), w.resident.ID, date("2024-01-15"), w.dinner.ID, map[uint]int{soup.ID: 1})
	assert.ErrorIs(t, err, ErrUnauthorized)

	var count int64
	w.db.Model(&models.DailyOrder{}).Count(&count)
	assert.Zero(t, count)
}

func TestPlaceOrUpdateRespectsConfiguredMaximum(t *testing.T) {
	w := newLunchWorld(t)
	w.orders.MaxItemQuantity = 3

	_, err := w.orders.PlaceOrUpdate(ctx(), w.resident.ID, date("2024-01-15"), w.lunch.ID, map[uint]int{w.thali.ID: 4})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	order := w.placeThali(t, 3)
	assert.Equal(t, 3, order.Items[0].Quantity)
}

func TestStatusLogRecordsPlacement(t *testing.T) {
	w := newLunchWorld(t)
	order := w.placeThali(t, 1)
	w.placeThali(t, 2)

	logs, err := w.status.StatusLog(ctx(), order.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, models.OrderStatus(""), logs[0].FromStatus)
	assert.Equal(t, "placed", logs[0].Note)
	assert.Equal(t, models.OrderSubmitted, logs[1].FromStatus)
	assert.Equal(t, models.RoleResident, logs[1].ActorRole)
}

func TestResidentOrderHidesOtherResidents(t *testing.T) {
	w := newLunchWorld(t)
	order := w.placeThali(t, 1)
	other := createUser(t, w.db, models.RoleResident, "Someone Else", nil)

	_, err := w.orders.ResidentOrder(ctx(), other.ID, order.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	found, err := w.orders.ResidentOrderFor(ctx(), w.resident.ID, date("2024-01-15"), w.lunch.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, order.ID, found.ID)

	missing, err := w.orders.ResidentOrderFor(ctx(), w.resident.ID, date("2024-01-16"), w.lunch.ID)
	require.NoError(t, err)
	assert.Nil(t, missing)
}
