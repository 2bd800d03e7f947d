package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/newrelic/go-agent/v3/newrelic"

	"ridepay/internal/domain"
	internalRedis "ridepay/internal/redis"
	"ridepay/internal/repository"
)

const transactionIDPrefix = "RP-"

// TransactionRecorder assigns transaction IDs and appends records to the ledger.
type TransactionRecorder struct {
	txnRepo   repository.TransactionRepository
	node      *snowflake.Node
	reconcile internalRedis.ReconcileQueueInterface
	events    *EventService
	logger    *slog.Logger
	clock     func() time.Time
}

// NewTransactionRecorder creates a new TransactionRecorder generating IDs on nodeID.
func NewTransactionRecorder(
	txnRepo repository.TransactionRepository,
	nodeID int64,
	reconcile internalRedis.ReconcileQueueInterface,
	events *EventService,
	logger *slog.Logger,
) (*TransactionRecorder, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("create snowflake node %d: %w", nodeID, err)
	}

	return &TransactionRecorder{
		txnRepo:   txnRepo,
		node:      node,
		reconcile: reconcile,
		events:    events,
		logger:    logger,
		clock:     time.Now,
	}, nil
}

// NewID returns a new transaction ID. IDs increase in issuance order.
func (r *TransactionRecorder) NewID() string {
	return transactionIDPrefix + r.node.Generate().String()
}

// Create validates and appends a transaction that has no balance side effect.
func (r *TransactionRecorder) Create(ctx context.Context, txn *domain.Transaction) (*domain.Transaction, error) {
	r.stamp(txn)
	if err := ValidateTransaction(txn); err != nil {
		return nil, err
	}

	if err := r.txnRepo.Append(ctx, txn); err != nil {
		return nil, fmt.Errorf("append transaction %s: %w", txn.ID, err)
	}

	return txn, nil
}

// RecordSettled appends the record of a balance change that already happened.
// It reports pending=true when the append failed and the record was handed to
// reconciliation instead. It never returns an error: the money has moved.
func (r *TransactionRecorder) RecordSettled(ctx context.Context, txn *domain.Transaction) (pending bool) {
	r.stamp(txn)

	// The balance change is committed; the record must be written even if the client hung up.
	ctx = context.WithoutCancel(ctx)

	err := ValidateTransaction(txn)
	if err == nil {
		err = r.txnRepo.Append(ctx, txn)
	}
	if err == nil {
		return false
	}

	r.logger.ErrorContext(ctx, "reconciliation required",
		"transaction_id", txn.ID,
		"type", txn.Type,
		"passenger_id", txn.FromPassenger,
		"amount", txn.Amount,
		"error", err,
	)
	newrelic.FromContext(ctx).NoticeError(fmt.Errorf("ledger append %s: %w", txn.ID, err))

	parked := false
	if r.reconcile != nil {
		if perr := r.reconcile.Park(ctx, txn); perr != nil {
			r.logger.ErrorContext(ctx, "failed to park transaction for reconciliation",
				"transaction_id", txn.ID,
				"error", perr,
			)
		} else {
			parked = true
		}
	}

	r.events.ReconciliationRequired(ctx, txn, err, parked)
	return true
}

// Get retrieves a transaction by ID.
func (r *TransactionRecorder) Get(ctx context.Context, id string) (*domain.Transaction, error) {
	if id == "" {
		return nil, ErrInvalidTransactionID
	}
	return r.txnRepo.GetByID(ctx, id)
}

// List returns transactions matching filter, newest first.
func (r *TransactionRecorder) List(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	if !filter.Start.IsZero() && !filter.End.IsZero() && filter.End.Before(filter.Start) {
		return nil, fmt.Errorf("%w: end before start", ErrInvalidTransaction)
	}
	return r.txnRepo.List(ctx, filter)
}

func (r *TransactionRecorder) stamp(txn *domain.Transaction) {
	if txn.ID == "" {
		txn.ID = r.NewID()
	}
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = r.clock()
	}
	txn.Amount = domain.RoundCents(txn.Amount)
}

// ValidateTransaction checks the common fields and the details matching the type.
func ValidateTransaction(txn *domain.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: missing record", ErrInvalidTransaction)
	}
	if txn.FromPassenger == "" {
		return fmt.Errorf("%w: from_passenger is required", ErrInvalidTransaction)
	}
	if txn.Amount < 0 {
		return fmt.Errorf("%w: amount must not be negative", ErrInvalidTransaction)
	}

	var errs []error
	require := func(ok bool, field string) {
		if !ok {
			errs = append(errs, fmt.Errorf("%s is required", field))
		}
	}

	switch txn.Type {
	case domain.TransactionTypeBus:
		d := txn.Bus
		if d == nil || txn.TopUp != nil || txn.Card != nil {
			return fmt.Errorf("%w: bus transaction needs bus details only", ErrInvalidTransaction)
		}
		require(d.BusID != "", "bus_id")
		require(d.DeviceID != "", "device_id")
		require(d.DriverID != "", "driver_id")
		require(d.FareBasis == domain.FareBasisFixed || d.FareBasis == domain.FareBasisDistanceBased, "fare_basis")
		require(d.FareAmount >= 0, "fare_amount")

	case domain.TransactionTypeTopUp:
		d := txn.TopUp
		if d == nil || txn.Bus != nil || txn.Card != nil {
			return fmt.Errorf("%w: topup transaction needs topup details only", ErrInvalidTransaction)
		}
		require(d.Method != "", "method")
		require(d.TopUpAmount > 0, "topup_amount")
		require(d.Fee >= 0, "fee")

	case domain.TransactionTypeCard:
		d := txn.Card
		if d == nil || txn.Bus != nil || txn.TopUp != nil {
			return fmt.Errorf("%w: card transaction needs card details only", ErrInvalidTransaction)
		}
		require(d.IssuedCardID != "", "issued_card_id")
		require(d.Price >= 0, "price")
		require(d.Fee >= 0, "fee")
		require(d.Location != "", "location")

	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidTransaction, txn.Type)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidTransaction, errors.Join(errs...))
	}
	return nil
}
