package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"ridepay/internal/domain"
)

const (
	tariffCachePrefix    = "cache:tariff:"
	promotionCachePrefix = "cache:promotions:"
)

// SnapshotCache caches configuration snapshots read on every tap.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSnapshotCache creates a new SnapshotCache. Entries expire after ttl.
func NewSnapshotCache(client *redis.Client, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{client: client, ttl: ttl}
}

// GetTariff retrieves a tariff from cache. A miss returns nil.
func (s *SnapshotCache) GetTariff(ctx context.Context, kind domain.FareBasis) (*domain.TariffRecord, error) {
	var rec domain.TariffRecord
	ok, err := s.get(ctx, tariffCachePrefix+string(kind), &rec)
	if err != nil || !ok {
		return nil, err
	}
	return &rec, nil
}

// SetTariff stores a tariff in cache.
func (s *SnapshotCache) SetTariff(ctx context.Context, rec *domain.TariffRecord) error {
	return s.set(ctx, tariffCachePrefix+string(rec.Kind), rec)
}

// GetPromotions retrieves the promotion list for a scope. A miss returns ok=false.
func (s *SnapshotCache) GetPromotions(ctx context.Context, scope string) ([]domain.Promotion, bool, error) {
	var promotions []domain.Promotion
	ok, err := s.get(ctx, promotionCachePrefix+scope, &promotions)
	if err != nil || !ok {
		return nil, false, err
	}
	return promotions, true, nil
}

// SetPromotions stores the promotion list for a scope.
func (s *SnapshotCache) SetPromotions(ctx context.Context, scope string, promotions []domain.Promotion) error {
	if promotions == nil {
		promotions = []domain.Promotion{}
	}
	return s.set(ctx, promotionCachePrefix+scope, promotions)
}

func (s *SnapshotCache) get(ctx context.Context, key string, dst any) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil // Cache miss
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (s *SnapshotCache) set(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, s.ttl).Err()
}
