package repository

import (
	"context"

	"ridepay/internal/domain"
)

// CardRepository is the card directory.
type CardRepository interface {
	// GetByID retrieves a card by its card ID.
	GetByID(ctx context.Context, cardID string) (*domain.Card, error)
}
