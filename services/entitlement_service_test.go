package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/hostel-meals/models"
	"gorm.io/datatypes"
)

func TestResolveWithoutSubscriptionReturnsNoEntitlement(t *testing.T) {
	w := newLunchWorld(t)
	stranger := createUser(t, w.db, models.RoleResident, "No Plan", nil)

	_, err := w.entitlements.Resolve(ctx(), stranger.ID, date("2024-01-15"), nil)
	assert.ErrorIs(t, err, ErrNoEntitlement)

	// outside the subscription window
	_, err = w.entitlements.Resolve(ctx(), w.resident.ID, date("2024-02-01"), nil)
	assert.ErrorIs(t, err, ErrNoEntitlement)
}

func TestResolveIgnoresUnpaidAndInactiveSubscriptions(t *testing.T) {
	w := newLunchWorld(t)
	other := createUser(t, w.db, models.RoleResident, "Other Resident", nil)

	unpaid := subscribe(t, w.db, other.ID, w.plan, "2024-01-01", "2024-01-31")
	require.NoError(t, w.db.Model(&unpaid).Update("is_paid", false).Error)
	paused := subscribe(t, w.db, other.ID, w.plan, "2024-01-01", "2024-01-31")
	require.NoError(t, w.db.Model(&paused).Update("status", models.SubscriptionPaused).Error)

	_, err := w.entitlements.Resolve(ctx(), other.ID, date("2024-01-15"), nil)
	assert.ErrorIs(t, err, ErrNoEntitlement)
}

func TestResolveSelectsFirstEligibleMealTypeByName(t *testing.T) {
	w := newLunchWorld(t)
	breakfast := createMealType(t, w.db, "Breakfast")
	full := createPlan(t, w.db, "Full Board", "6000.00", 30, w.lunch, w.dinner, breakfast)
	subscribe(t, w.db, w.resident.ID, full, "2024-01-10", "2024-01-20")

	ent, err := w.entitlements.Resolve(ctx(), w.resident.ID, date("2024-01-15"), nil)
	require.NoError(t, err)

	var names []string
	for _, mt := range ent.EligibleMealTypes {
		names = append(names, mt.Name)
	}
	assert.Equal(t, []string{"Breakfast", "Dinner", "Lunch"}, names)
	require.NotNil(t, ent.SelectedMealType)
	assert.Equal(t, "Breakfast", ent.SelectedMealType.Name)
	assert.False(t, ent.MenuPublished)
	assert.Empty(t, ent.EligibleItems)
}

func TestResolveRejectsMealTypeOutsidePlan(t *testing.T) {
	w := newLunchWorld(t)

	_, err := w.entitlements.Resolve(ctx(), w.resident.ID, date("2024-01-15"), &w.dinner.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = w.entitlements.Resolve(ctx(), w.resident.ID, date("2024-01-15"), uintPtr(9999))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolveAppliesGlobalOrPlanLinkedPolicy(t *testing.T) {
	w := newLunchWorld(t)
	otherPlan := createPlan(t, w.db, "Staff Lunch", "2500.00", 30, w.lunch)

	linked := createItem(t, w.db, w.vendor.ID, "Curd Rice", "60.00", w.lunch, false, w.plan)
	foreign := createItem(t, w.db, w.vendor.ID, "Biryani", "150.00", w.lunch, false, otherPlan)
	unlinked := createItem(t, w.db, w.vendor.ID, "Salad", "40.00", w.lunch, false)
	require.NoError(t, w.db.Model(&w.menu).Association("Items").Append(&linked, &foreign, &unlinked))

	ent, err := w.entitlements.Resolve(ctx(), w.resident.ID, date("2024-01-15"), &w.lunch.ID)
	require.NoError(t, err)
	require.True(t, ent.MenuPublished)
	assert.Equal(t, w.menu.ID, ent.Menu.ID)

	var ids []uint
	for _, item := range ent.EligibleItems {
		ids = append(ids, item.ID)
	}
	assert.ElementsMatch(t, []uint{w.thali.ID, linked.ID}, ids)
}

func TestResolveDefaultsToToday(t *testing.T) {
	w := newLunchWorld(t)

	ent, err := w.entitlements.Resolve(ctx(), w.resident.ID, datatypes.Date{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-10", models.FormatDate(ent.Date))
}

func TestCoveringSubscriptionPicksFirstPlanWithMealType(t *testing.T) {
	w := newLunchWorld(t)
	dinnerPlan := createPlan(t, w.db, "Dinner Only", "2000.00", 31, w.dinner)
	dinnerSub := subscribe(t, w.db, w.resident.ID, dinnerPlan, "2024-01-01", "2024-01-31")

	ent, err := w.entitlements.Resolve(ctx(), w.resident.ID, date("2024-01-15"), &w.dinner.ID)
	require.NoError(t, err)

	covering := ent.CoveringSubscription(w.dinner.ID)
	require.NotNil(t, covering)
	assert.Equal(t, dinnerSub.ID, covering.ID)
	assert.Equal(t, w.sub.ID, ent.CoveringSubscription(w.lunch.ID).ID)
	assert.Nil(t, ent.CoveringSubscription(9999))
}
