package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	internalRedis "ridepay/internal/redis"
	"ridepay/internal/repository"
)

const (
	reconcileJobName = "reconcile"
	reconcileBatch   = 100
	reconcileLockTTL = 5 * time.Minute
)

// ReconcileJob re-appends ledger records parked after a failed append.
// A Redis lock keeps one instance sweeping at a time.
type ReconcileJob struct {
	queue   internalRedis.ReconcileQueueInterface
	txnRepo repository.TransactionRepository
	locks   internalRedis.LockStoreInterface
	logger  *slog.Logger
}

// NewReconcileJob creates a new ReconcileJob.
func NewReconcileJob(
	queue internalRedis.ReconcileQueueInterface,
	txnRepo repository.TransactionRepository,
	locks internalRedis.LockStoreInterface,
	logger *slog.Logger,
) *ReconcileJob {
	return &ReconcileJob{
		queue:   queue,
		txnRepo: txnRepo,
		locks:   locks,
		logger:  logger,
	}
}

// Name implements Job.
func (j *ReconcileJob) Name() string { return reconcileJobName }

// Run implements Job.
func (j *ReconcileJob) Run(ctx context.Context) error {
	_, err := j.Sweep(ctx)
	return err
}

// Sweep appends one batch of parked records and returns how many were written.
// Records that fail again stay parked for the next sweep.
func (j *ReconcileJob) Sweep(ctx context.Context) (int, error) {
	token, err := j.locks.AcquireJobLock(ctx, reconcileJobName, reconcileLockTTL)
	if err != nil {
		return 0, fmt.Errorf("acquire reconcile lock: %w", err)
	}
	if token == "" {
		return 0, nil
	}
	defer func() {
		if err := j.locks.ReleaseJobLock(context.WithoutCancel(ctx), reconcileJobName, token); err != nil {
			j.logger.Warn("failed to release reconcile lock", "error", err)
		}
	}()

	parked, err := j.queue.Peek(ctx, reconcileBatch)
	if err != nil {
		return 0, fmt.Errorf("peek reconcile queue: %w", err)
	}

	appended := 0
	for _, p := range parked {
		if err := j.txnRepo.Append(ctx, p.Transaction); err != nil {
			j.logger.Error("reconciliation required", "transaction_id", p.Transaction.ID, "error", err)
			continue
		}
		if err := j.queue.Ack(ctx, p); err != nil {
			j.logger.Warn("failed to ack reconciled transaction", "transaction_id", p.Transaction.ID, "error", err)
			continue
		}
		appended++
		j.logger.Info("transaction reconciled", "transaction_id", p.Transaction.ID)
	}

	return appended, nil
}
