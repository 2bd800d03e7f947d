package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"ridepay/internal/domain"
	"ridepay/internal/repository"
)

const defaultListLimit = 100

// transactionDetails is the JSONB payload holding the type-specific fields.
type transactionDetails struct {
	Bus   *domain.BusDetails   `json:"bus,omitempty"`
	TopUp *domain.TopUpDetails `json:"topup,omitempty"`
	Card  *domain.CardDetails  `json:"card,omitempty"`
}

// TransactionRepository is a PostgreSQL implementation of repository.TransactionRepository.
type TransactionRepository struct {
	q Querier
}

// NewTransactionRepository creates a new PostgreSQL transaction repository.
func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{q: db}
}

// Append inserts a transaction. An existing ID is left untouched.
func (r *TransactionRepository) Append(ctx context.Context, txn *domain.Transaction) error {
	details, err := json.Marshal(transactionDetails{Bus: txn.Bus, TopUp: txn.TopUp, Card: txn.Card})
	if err != nil {
		return fmt.Errorf("marshal transaction details: %w", err)
	}

	var busID, driverID string
	if txn.Bus != nil {
		busID = txn.Bus.BusID
		driverID = txn.Bus.DriverID
	}

	query := `
		INSERT INTO transactions (id, type, amount, from_passenger, organization, bus_id, driver_id, created_at, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`

	_, err = r.q.ExecContext(ctx, query,
		txn.ID,
		txn.Type,
		txn.Amount,
		txn.FromPassenger,
		nullString(txn.Organization),
		nullString(busID),
		nullString(driverID),
		txn.CreatedAt,
		details,
	)
	return err
}

// GetByID retrieves a transaction.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	query := `
		SELECT id, type, amount, from_passenger, COALESCE(organization, ''), created_at, details
		FROM transactions WHERE id = $1
	`

	txn, err := scanTransaction(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return txn, nil
}

// List returns transactions matching filter, newest first.
func (r *TransactionRepository) List(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	var conditions []string
	var args []any

	add := func(cond string, v any) {
		args = append(args, v)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if filter.Type != "" {
		add("type = $%d", filter.Type)
	}
	if filter.PassengerID != "" {
		add("from_passenger = $%d", filter.PassengerID)
	}
	if filter.DriverID != "" {
		add("driver_id = $%d", filter.DriverID)
	}
	if filter.BusID != "" {
		add("bus_id = $%d", filter.BusID)
	}
	if !filter.Start.IsZero() {
		add("created_at >= $%d", filter.Start)
	}
	if !filter.End.IsZero() {
		add("created_at <= $%d", filter.End)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := `SELECT id, type, amount, from_passenger, COALESCE(organization, ''), created_at, details FROM transactions`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", len(args))

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []*domain.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}

	return txns, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var txn domain.Transaction
	var raw []byte

	if err := row.Scan(
		&txn.ID,
		&txn.Type,
		&txn.Amount,
		&txn.FromPassenger,
		&txn.Organization,
		&txn.CreatedAt,
		&raw,
	); err != nil {
		return nil, err
	}

	var details transactionDetails
	if err := json.Unmarshal(raw, &details); err != nil {
		return nil, fmt.Errorf("unmarshal transaction %s details: %w", txn.ID, err)
	}
	txn.Bus = details.Bus
	txn.TopUp = details.TopUp
	txn.Card = details.Card

	return &txn, nil
}

var _ repository.TransactionRepository = (*TransactionRepository)(nil)
