package redis

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"ridepay/internal/domain"
)

const reconcileQueueKey = "ledger:reconcile"

// ParkedTransaction is a ledger record waiting to be re-appended.
// Raw is the stored payload and identifies the entry for Ack.
type ParkedTransaction struct {
	Transaction *domain.Transaction
	Raw         string
}

// ReconcileQueue holds transactions whose balance change succeeded but whose
// ledger append failed.
type ReconcileQueue struct {
	client *redis.Client
}

// NewReconcileQueue creates a new ReconcileQueue.
func NewReconcileQueue(client *redis.Client) *ReconcileQueue {
	return &ReconcileQueue{client: client}
}

// Park appends txn to the queue.
func (q *ReconcileQueue) Park(ctx context.Context, txn *domain.Transaction) error {
	data, err := json.Marshal(txn)
	if err != nil {
		return err
	}
	return q.client.RPush(ctx, reconcileQueueKey, data).Err()
}

// Peek returns up to n parked transactions, oldest first, without removing them.
// Entries that cannot be decoded are skipped.
func (q *ReconcileQueue) Peek(ctx context.Context, n int64) ([]ParkedTransaction, error) {
	if n <= 0 {
		return nil, nil
	}

	raws, err := q.client.LRange(ctx, reconcileQueueKey, 0, n-1).Result()
	if err != nil {
		return nil, err
	}

	parked := make([]ParkedTransaction, 0, len(raws))
	for _, raw := range raws {
		var txn domain.Transaction
		if err := json.Unmarshal([]byte(raw), &txn); err != nil {
			continue
		}
		parked = append(parked, ParkedTransaction{Transaction: &txn, Raw: raw})
	}
	return parked, nil
}

// Ack removes a parked entry once it has been appended.
func (q *ReconcileQueue) Ack(ctx context.Context, p ParkedTransaction) error {
	return q.client.LRem(ctx, reconcileQueueKey, 1, p.Raw).Err()
}

// Len returns the number of parked entries.
func (q *ReconcileQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, reconcileQueueKey).Result()
}
