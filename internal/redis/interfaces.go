package redis

import (
	"context"
	"time"

	"ridepay/internal/domain"
)

// SessionStoreInterface defines the interface for tap session operations.
type SessionStoreInterface interface {
	Get(ctx context.Context, passengerID string) (*domain.TapSession, error)
	Open(ctx context.Context, session *domain.TapSession) (bool, error)
	Claim(ctx context.Context, session *domain.TapSession) (bool, error)
}

// SnapshotCacheInterface defines the interface for configuration snapshot caching.
type SnapshotCacheInterface interface {
	GetTariff(ctx context.Context, kind domain.FareBasis) (*domain.TariffRecord, error)
	SetTariff(ctx context.Context, rec *domain.TariffRecord) error
	GetPromotions(ctx context.Context, scope string) ([]domain.Promotion, bool, error)
	SetPromotions(ctx context.Context, scope string, promotions []domain.Promotion) error
}

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireJobLock(ctx context.Context, job string, ttl time.Duration) (string, error)
	ReleaseJobLock(ctx context.Context, job, token string) error
}

// ReconcileQueueInterface defines the interface for parked ledger records.
type ReconcileQueueInterface interface {
	Park(ctx context.Context, txn *domain.Transaction) error
	Peek(ctx context.Context, n int64) ([]ParkedTransaction, error)
	Ack(ctx context.Context, p ParkedTransaction) error
}

// Ensure concrete types implement interfaces.
var (
	_ SessionStoreInterface   = (*SessionStore)(nil)
	_ SnapshotCacheInterface  = (*SnapshotCache)(nil)
	_ LockStoreInterface      = (*LockStore)(nil)
	_ ReconcileQueueInterface = (*ReconcileQueue)(nil)
)
