package services

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/hostel-meals/models"
	"gorm.io/gorm"
)

func TestSQLPurchaseStoreRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	store := NewSQLPurchaseStore(db)

	_, err := store.Get(ctx(), 1)
	assert.ErrorIs(t, err, ErrNotFound)

	p := &models.PendingPurchase{
		Token: "tok-1", UserID: 1, SubscriptionPlanID: 3, PlanName: "Lunch Monthly",
		Amount: money("3000.00"), DurationDays: 30, ExpiresAt: fixedNow.Add(time.Minute),
	}
	require.NoError(t, store.Save(ctx(), p, time.Minute))

	got, err := store.Get(ctx(), 1)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", got.Token)
	assert.True(t, got.Amount.Equal(money("3000")))

	require.NoError(t, store.Delete(ctx(), 1))
	_, err = store.Get(ctx(), 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLPurchaseStoreConsumesOnce(t *testing.T) {
	db := setupTestDB(t)
	store := NewSQLPurchaseStore(db)
	p := &models.PendingPurchase{
		Token: "tok-1", UserID: 1, SubscriptionPlanID: 3, PlanName: "Lunch Monthly",
		Amount: money("3000.00"), DurationDays: 30, ExpiresAt: fixedNow.Add(time.Minute),
	}
	require.NoError(t, store.Save(ctx(), p, time.Minute))

	assert.ErrorIs(t, store.Consume(ctx(), db, 1, "tok-other"), ErrExpiredSession)
	require.NoError(t, store.Consume(ctx(), db, 1, "tok-1"))
	assert.ErrorIs(t, store.Consume(ctx(), db, 1, "tok-1"), ErrExpiredSession)

	// a rolled back consume leaves the staging in place
	require.NoError(t, store.Save(ctx(), p, time.Minute))
	err := db.Transaction(func(tx *gorm.DB) error {
		require.NoError(t, store.Consume(ctx(), tx, 1, "tok-1"))
		return errors.New("payment failed")
	})
	require.Error(t, err)
	_, err = store.Get(ctx(), 1)
	assert.NoError(t, err)
}

// Needs a disposable Redis, e.g. REDIS_URL=redis://localhost:6379/15.
func TestRedisPurchaseStore(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	store, err := NewRedisPurchaseStore(url)
	require.NoError(t, err)
	defer store.Close()
	store.prefix = "test_pending_purchase:"

	residentID := uint(time.Now().UnixNano() % 1000000)
	defer store.Delete(ctx(), residentID)

	p := &models.PendingPurchase{
		Token: "tok-redis", UserID: residentID, SubscriptionPlanID: 3, PlanName: "Lunch Monthly",
		Amount: money("3000.00"), DurationDays: 30, ExpiresAt: fixedNow.Add(time.Minute),
	}
	require.NoError(t, store.Save(ctx(), p, time.Minute))

	ttl, err := store.client.TTL(ctx(), store.key(residentID)).Result()
	require.NoError(t, err)
	assert.InDelta(t, time.Minute.Seconds(), ttl.Seconds(), 2)

	got, err := store.Get(ctx(), residentID)
	require.NoError(t, err)
	assert.Equal(t, "tok-redis", got.Token)
	assert.Equal(t, uint(3), got.SubscriptionPlanID)

	assert.ErrorIs(t, store.Consume(ctx(), nil, residentID, "tok-other"), ErrExpiredSession)
	require.NoError(t, store.Consume(ctx(), nil, residentID, "tok-redis"))
	assert.ErrorIs(t, store.Consume(ctx(), nil, residentID, "tok-redis"), ErrExpiredSession)
	_, err = store.Get(ctx(), residentID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Save(ctx(), p, time.Minute))
	require.NoError(t, store.Delete(ctx(), residentID))
	_, err = store.Get(ctx(), residentID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, store.Save(ctx(), p, 0), ErrExpiredSession)
}
