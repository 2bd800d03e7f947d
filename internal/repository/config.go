package repository

import (
	"context"

	"ridepay/internal/domain"
)

// TariffRepository reads externally configured tariffs.
type TariffRepository interface {
	// Get returns the raw tariff for kind, or ErrNotFound.
	Get(ctx context.Context, kind domain.FareBasis) (*domain.TariffRecord, error)
}

// DiscountRepository reads configured discount rates.
type DiscountRepository interface {
	// GetRate returns the rate for a discount type, or ErrNotFound.
	GetRate(ctx context.Context, discountType domain.DiscountType) (*domain.DiscountRate, error)
}

// PromotionRepository reads the promotion set.
type PromotionRepository interface {
	// ListByScope returns promotions for an effect scope ordered by ID.
	ListByScope(ctx context.Context, scope string) ([]domain.Promotion, error)
}
