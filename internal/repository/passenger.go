package repository

import (
	"context"
	"time"

	"ridepay/internal/domain"
)

// PassengerRepository is the passenger account store.
type PassengerRepository interface {
	// GetByID retrieves a passenger account.
	GetByID(ctx context.Context, id string) (*domain.Passenger, error)

	// CompareAndSetBalance writes balance only if the stored version still
	// equals expectedVersion. Returns ErrConflict when it does not.
	CompareAndSetBalance(ctx context.Context, id string, balance float64, expectedVersion int64) (newVersion int64, err error)

	// AddBalance atomically adds amount and returns the resulting balance.
	AddBalance(ctx context.Context, id string, amount float64) (float64, error)

	// ExpireDiscounts deactivates discounts whose expiry is before now.
	// Returns the number of accounts changed.
	ExpireDiscounts(ctx context.Context, now time.Time) (int64, error)
}
