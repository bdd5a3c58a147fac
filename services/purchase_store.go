package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yeremiapane/hostel-meals/models"
	"gorm.io/gorm"
)

// PurchaseStore holds at most one staged plan selection per resident
// between choosing a plan and confirming payment.
type PurchaseStore interface {
	// Save replaces the resident's staged purchase. It is dropped after ttl.
	Save(ctx context.Context, p *models.PendingPurchase, ttl time.Duration) error
	// Get returns ErrNotFound when nothing is staged.
	Get(ctx context.Context, residentID uint) (*models.PendingPurchase, error)
	Delete(ctx context.Context, residentID uint) error
	// Consume removes the staged purchase carrying token as part of tx.
	// Only one caller can consume a given staging; the others get
	// ErrExpiredSession.
	Consume(ctx context.Context, tx *gorm.DB, residentID uint, token string) error
}

// SQLPurchaseStore keeps staged purchases in the pending_purchases table.
// Expiry is checked by the caller.
type SQLPurchaseStore struct {
	DB *gorm.DB
}

func NewSQLPurchaseStore(db *gorm.DB) *SQLPurchaseStore {
	return &SQLPurchaseStore{DB: db}
}

func (s *SQLPurchaseStore) Save(ctx context.Context, p *models.PendingPurchase, _ time.Duration) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", p.UserID).Delete(&models.PendingPurchase{}).Error; err != nil {
			return fmt.Errorf("failed to clear staged purchase: %w", err)
		}
		p.ID = 0
		if err := tx.Create(p).Error; err != nil {
			return fmt.Errorf("failed to stage purchase: %w", err)
		}
		return nil
	})
}

func (s *SQLPurchaseStore) Get(ctx context.Context, residentID uint) (*models.PendingPurchase, error) {
	var p models.PendingPurchase
	if err := s.DB.WithContext(ctx).Where("user_id = ?", residentID).First(&p).Error; err != nil {
		return nil, notFound(err, "staged purchase")
	}
	return &p, nil
}

func (s *SQLPurchaseStore) Delete(ctx context.Context, residentID uint) error {
	return s.DB.WithContext(ctx).Where("user_id = ?", residentID).Delete(&models.PendingPurchase{}).Error
}

func (s *SQLPurchaseStore) Consume(ctx context.Context, tx *gorm.DB, residentID uint, token string) error {
	res := tx.WithContext(ctx).Where("user_id = ? AND token = ?", residentID, token).Delete(&models.PendingPurchase{})
	if res.Error != nil {
		return fmt.Errorf("failed to consume staged purchase: %w", res.Error)
	}
	if res.RowsAffected != 1 {
		return ErrExpiredSession
	}
	return nil
}

// PurgeExpired removes staged purchases that can no longer be confirmed.
func (s *SQLPurchaseStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res := s.DB.WithContext(ctx).Where("expires_at <= ?", now).Delete(&models.PendingPurchase{})
	return res.RowsAffected, res.Error
}

// RedisPurchaseStore keeps staged purchases as JSON values whose Redis TTL
// matches the purchase expiry.
type RedisPurchaseStore struct {
	client *redis.Client
	prefix string
}

// consumeScript deletes the key only while it still holds the given token.
var consumeScript = redis.NewScript(`
local v = redis.call("GET", KEYS[1])
if not v then
	return 0
end
if cjson.decode(v)["token"] ~= ARGV[1] then
	return 0
end
return redis.call("DEL", KEYS[1])
`)

// NewRedisPurchaseStore connects to redisURL and verifies the connection.
func NewRedisPurchaseStore(redisURL string) (*RedisPurchaseStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &RedisPurchaseStore{client: client, prefix: "pending_purchase:"}, nil
}

func (s *RedisPurchaseStore) key(residentID uint) string {
	return fmt.Sprintf("%s%d", s.prefix, residentID)
}

func (s *RedisPurchaseStore) Save(ctx context.Context, p *models.PendingPurchase, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrExpiredSession
	}
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(p.UserID), data, ttl).Err()
}

func (s *RedisPurchaseStore) Get(ctx context.Context, residentID uint) (*models.PendingPurchase, error) {
	data, err := s.client.Get(ctx, s.key(residentID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, Errorf(ErrNotFound, "staged purchase not found")
	}
	if err != nil {
		return nil, err
	}
	var p models.PendingPurchase
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *RedisPurchaseStore) Delete(ctx context.Context, residentID uint) error {
	return s.client.Del(ctx, s.key(residentID)).Err()
}

// Consume is atomic on the Redis side only. tx is not used, so a failed
// transaction after a successful Consume leaves nothing staged.
func (s *RedisPurchaseStore) Consume(ctx context.Context, _ *gorm.DB, residentID uint, token string) error {
	n, err := consumeScript.Run(ctx, s.client, []string{s.key(residentID)}, token).Int()
	if err != nil {
		return fmt.Errorf("failed to consume staged purchase: %w", err)
	}
	if n != 1 {
		return ErrExpiredSession
	}
	return nil
}

func (s *RedisPurchaseStore) Close() error {
	return s.client.Close()
}
