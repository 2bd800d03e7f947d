package service

import (
	"context"
	"errors"
	"fmt"

	"ridepay/internal/domain"
	"ridepay/internal/repository"
)

// IdentityResolver maps a tap presentation to a passenger.
type IdentityResolver struct {
	cardRepo      repository.CardRepository
	passengerRepo repository.PassengerRepository
}

// NewIdentityResolver creates a new IdentityResolver.
func NewIdentityResolver(cardRepo repository.CardRepository, passengerRepo repository.PassengerRepository) *IdentityResolver {
	return &IdentityResolver{
		cardRepo:      cardRepo,
		passengerRepo: passengerRepo,
	}
}

// ResolveCard verifies the tag/card binding and returns the bound passenger ID.
func (r *IdentityResolver) ResolveCard(ctx context.Context, cardID, tagID string) (string, error) {
	if cardID == "" {
		return "", ErrInvalidCardID
	}
	if tagID == "" {
		return "", ErrInvalidTagID
	}

	card, err := r.cardRepo.GetByID(ctx, cardID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrCardNotFound
		}
		return "", fmt.Errorf("get card %s: %w", cardID, err)
	}

	if card.TagID != tagID {
		return "", ErrTagMismatch
	}

	if card.PassengerID == "" || card.Status != domain.CardStatusActive {
		return "", ErrCardNotLinked
	}

	return card.PassengerID, nil
}

// ResolveAsserted accepts a client-asserted passenger ID after checking it exists.
// No tag binding is verified on this path.
func (r *IdentityResolver) ResolveAsserted(ctx context.Context, passengerID string) (string, error) {
	if passengerID == "" {
		return "", ErrInvalidPassengerID
	}

	if _, err := r.passengerRepo.GetByID(ctx, passengerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrPassengerNotFound
		}
		return "", fmt.Errorf("get passenger %s: %w", passengerID, err)
	}

	return passengerID, nil
}
