package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/hostel-meals/models"
	"github.com/yeremiapane/hostel-meals/utils"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var fixedNow = time.Date(2024, time.January, 10, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// setupTestDB opens a private in-memory sqlite database for one test.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	utils.InitLogger()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

// raceOnCreate lets insert claim a unique key just before gorm writes the
// next row into table, inside the same transaction, the way a concurrent
// request would.
func raceOnCreate(t *testing.T, db *gorm.DB, table string, insert func(tx *gorm.DB) error) {
	t.Helper()
	fired := false
	err := db.Callback().Create().Before("gorm:create").Register("test:race_"+table, func(tx *gorm.DB) {
		if fired || tx.Statement.Table != table {
			return
		}
		fired = true
		if err := insert(tx.Session(&gorm.Session{NewDB: true})); err != nil {
			tx.AddError(err)
		}
	})
	require.NoError(t, err)
}

func date(s string) datatypes.Date {
	d, err := models.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func uintPtr(v uint) *uint { return &v }

func createUser(t *testing.T, db *gorm.DB, role models.Role, name string, wardenID *uint) models.User {
	t.Helper()
	u := models.User{
		Name:       name,
		Email:      strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@campus.test",
		Password:   "x",
		Role:       role,
		IsApproved: true,
		IsActive:   true,
		WardenID:   wardenID,
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func createMealType(t *testing.T, db *gorm.DB, name string) models.MealType {
	t.Helper()
	mt := models.MealType{Name: name}
	require.NoError(t, db.Create(&mt).Error)
	return mt
}

func createPlan(t *testing.T, db *gorm.DB, name, price string, days int, mealTypes ...models.MealType) models.SubscriptionPlan {
	t.Helper()
	p := models.SubscriptionPlan{
		Name:         name,
		BasePrice:    money(price),
		DurationDays: days,
		MealTypes:    mealTypes,
		IsActive:     true,
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func subscribe(t *testing.T, db *gorm.DB, userID uint, plan models.SubscriptionPlan, start, end string) models.UserSubscription {
	t.Helper()
	s := models.UserSubscription{
		UserID:             userID,
		SubscriptionPlanID: plan.ID,
		StartDate:          date(start),
		EndDate:            date(end),
		TotalAmountPaid:    plan.BasePrice,
		Status:             models.SubscriptionActive,
		IsPaid:             true,
	}
	require.NoError(t, db.Omit("Plan", "User").Create(&s).Error)
	return s
}

func optIn(t *testing.T, db *gorm.DB, vendorID uint, plans ...models.SubscriptionPlan) {
	t.Helper()
	for _, p := range plans {
		vs := models.VendorSubscription{VendorID: vendorID, SubscriptionPlanID: p.ID, IsActive: true}
		require.NoError(t, db.Omit("Vendor", "SubscriptionPlan").Create(&vs).Error)
	}
}

func createItem(t *testing.T, db *gorm.DB, vendorID uint, name, price string, mealType models.MealType, global bool, plans ...models.SubscriptionPlan) models.VendorMenuItem {
	t.Helper()
	item := models.VendorMenuItem{
		VendorID:            vendorID,
		Name:                name,
		Price:               money(price),
		MealTypeID:          mealType.ID,
		IsAvailableGlobally: global,
		SubscriptionPlans:   plans,
	}
	require.NoError(t, db.Omit("Vendor", "MealType", "SubscriptionPlans.*").Create(&item).Error)
	return item
}

func publishMenu(t *testing.T, db *gorm.DB, vendorID uint, on string, mealType models.MealType, items ...models.VendorMenuItem) models.DailyMenu {
	t.Helper()
	menu := models.DailyMenu{VendorID: vendorID, MenuDate: date(on), MealTypeID: mealType.ID, Items: items}
	require.NoError(t, db.Omit("Vendor", "MealType", "Items.*").Create(&menu).Error)
	return menu
}

// lunchWorld is the campus used by most tests: one resident on a lunch
// plan for January 2024, one vendor serving a globally available Thali.
type lunchWorld struct {
	db       *gorm.DB
	lunch    models.MealType
	dinner   models.MealType
	plan     models.SubscriptionPlan
	sub      models.UserSubscription
	warden   models.User
	resident models.User
	vendor   models.User
	other    models.User
	agent    models.User
	admin    models.User
	thali    models.VendorMenuItem
	menu     models.DailyMenu

	entitlements *EntitlementService
	orders       *OrderService
	status       *OrderStatusService
	events       *recordingNotifier
}

func newLunchWorld(t *testing.T) *lunchWorld {
	t.Helper()
	db := setupTestDB(t)
	w := &lunchWorld{db: db}

	w.lunch = createMealType(t, db, "Lunch")
	w.dinner = createMealType(t, db, "Dinner")
	w.plan = createPlan(t, db, "Lunch Monthly", "3000.00", 31, w.lunch)

	w.warden = createUser(t, db, models.RoleWarden, "Warden One", nil)
	w.resident = createUser(t, db, models.RoleResident, "Resident R", &w.warden.ID)
	w.vendor = createUser(t, db, models.RoleVendor, "Vendor V", nil)
	w.other = createUser(t, db, models.RoleVendor, "Vendor W", nil)
	w.agent = createUser(t, db, models.RoleDeliveryAgent, "Agent A", nil)
	w.admin = createUser(t, db, models.RoleAdmin, "Admin", nil)

	w.sub = subscribe(t, db, w.resident.ID, w.plan, "2024-01-01", "2024-01-31")
	w.thali = createItem(t, db, w.vendor.ID, "Thali", "120.00", w.lunch, true)
	w.menu = publishMenu(t, db, w.vendor.ID, "2024-01-15", w.lunch, w.thali)

	w.events = &recordingNotifier{}
	w.entitlements = NewEntitlementService(db)
	w.entitlements.Now = fixedClock
	w.orders = NewOrderService(db, w.entitlements, w.events)
	w.status = NewOrderStatusService(db, w.events)
	w.status.Now = fixedClock
	return w
}

func (w *lunchWorld) actor(u models.User) *Actor {
	return ActorFromUser(&u)
}

// placeThali places the resident's 2024-01-15 lunch order.
func (w *lunchWorld) placeThali(t *testing.T, qty int) *models.DailyOrder {
	t.Helper()
	order, err := w.orders.PlaceOrUpdate(ctx(), w.resident.ID, date("2024-01-15"), w.lunch.ID, map[uint]int{w.thali.ID: qty})
	require.NoError(t, err)
	return order
}

type recordingNotifier struct {
	events []OrderEvent
}

func (r *recordingNotifier) PublishOrderEvent(e OrderEvent) {
	r.events = append(r.events, e)
}

func ctx() context.Context { return context.Background() }
