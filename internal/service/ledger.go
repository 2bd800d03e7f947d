package service

import (
	"context"
	"errors"
	"fmt"

	"ridepay/internal/domain"
	"ridepay/internal/repository"
)

// BalanceLedger is the only writer of passenger balances.
type BalanceLedger struct {
	passengerRepo repository.PassengerRepository
	maxAttempts   int
}

// NewBalanceLedger creates a new BalanceLedger. A debit that loses the
// version check maxAttempts times fails with ErrBalanceConflict.
func NewBalanceLedger(passengerRepo repository.PassengerRepository, maxAttempts int) *BalanceLedger {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &BalanceLedger{
		passengerRepo: passengerRepo,
		maxAttempts:   maxAttempts,
	}
}

// Debit subtracts amount if the balance covers it and returns the new balance.
func (l *BalanceLedger) Debit(ctx context.Context, passengerID string, amount float64) (float64, error) {
	if amount < 0 {
		return 0, ErrInvalidAmount
	}
	amount = domain.RoundCents(amount)

	for attempt := 0; attempt < l.maxAttempts; attempt++ {
		passenger, err := l.passengerRepo.GetByID(ctx, passengerID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return 0, ErrPassengerNotFound
			}
			return 0, fmt.Errorf("get passenger %s: %w", passengerID, err)
		}

		balance := domain.RoundCents(passenger.Balance)
		if balance < amount {
			return balance, ErrInsufficientBalance
		}
		if amount == 0 {
			return balance, nil
		}

		remaining := domain.RoundCents(balance - amount)
		_, err = l.passengerRepo.CompareAndSetBalance(ctx, passengerID, remaining, passenger.Version)
		if err == nil {
			return remaining, nil
		}
		if !errors.Is(err, repository.ErrConflict) {
			return 0, fmt.Errorf("debit passenger %s: %w", passengerID, err)
		}
	}

	return 0, ErrBalanceConflict
}

// Credit adds amount to the balance and returns the new balance.
func (l *BalanceLedger) Credit(ctx context.Context, passengerID string, amount float64) (float64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	balance, err := l.passengerRepo.AddBalance(ctx, passengerID, domain.RoundCents(amount))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrPassengerNotFound
		}
		return 0, fmt.Errorf("credit passenger %s: %w", passengerID, err)
	}

	return domain.RoundCents(balance), nil
}
