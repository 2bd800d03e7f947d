package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ridepay/internal/domain"
	"ridepay/internal/repository"
)

// PassengerRepository is a PostgreSQL implementation of repository.PassengerRepository.
type PassengerRepository struct {
	q Querier
}

// NewPassengerRepository creates a new PostgreSQL passenger repository.
func NewPassengerRepository(db *sql.DB) *PassengerRepository {
	return &PassengerRepository{q: db}
}

// GetByID retrieves a passenger account.
func (r *PassengerRepository) GetByID(ctx context.Context, id string) (*domain.Passenger, error) {
	query := `
		SELECT id, balance, version, discount_active, COALESCE(discount_type, ''), discount_expires_at
		FROM passengers WHERE id = $1
	`

	var p domain.Passenger
	var discountType string
	var expiresAt sql.NullTime

	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&p.ID,
		&p.Balance,
		&p.Version,
		&p.Discount.Active,
		&discountType,
		&expiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	p.Discount.Type = domain.DiscountType(discountType)
	if expiresAt.Valid {
		p.Discount.ExpiresAt = expiresAt.Time
	}

	return &p, nil
}

// CompareAndSetBalance writes balance only if the stored version still equals expectedVersion.
func (r *PassengerRepository) CompareAndSetBalance(ctx context.Context, id string, balance float64, expectedVersion int64) (int64, error) {
	query := `
		UPDATE passengers
		SET balance = $1, version = version + 1, updated_at = now()
		WHERE id = $2 AND version = $3
		RETURNING version
	`

	var version int64
	err := r.q.QueryRowContext(ctx, query, balance, id, expectedVersion).Scan(&version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, repository.ErrConflict
		}
		return 0, err
	}

	return version, nil
}

// AddBalance atomically adds amount and returns the resulting balance.
func (r *PassengerRepository) AddBalance(ctx context.Context, id string, amount float64) (float64, error) {
	query := `
		UPDATE passengers
		SET balance = balance + $1, version = version + 1, updated_at = now()
		WHERE id = $2
		RETURNING balance
	`

	var balance float64
	err := r.q.QueryRowContext(ctx, query, amount, id).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, repository.ErrNotFound
		}
		return 0, err
	}

	return balance, nil
}

// ExpireDiscounts deactivates discounts whose expiry is before now.
func (r *PassengerRepository) ExpireDiscounts(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE passengers
		SET discount_active = FALSE, updated_at = now()
		WHERE discount_active AND discount_expires_at IS NOT NULL AND discount_expires_at < $1
	`

	result, err := r.q.ExecContext(ctx, query, now)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

var _ repository.PassengerRepository = (*PassengerRepository)(nil)
