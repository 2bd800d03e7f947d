package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"ridepay/internal/domain"
	internalRedis "ridepay/internal/redis"
	"ridepay/internal/repository"
)

// PricingEngine turns a base fare into a final fare using the passenger's
// standing discount and the promotions eligible on the tap day.
type PricingEngine struct {
	discountRepo  repository.DiscountRepository
	promotionRepo repository.PromotionRepository
	cache         internalRedis.SnapshotCacheInterface
	location      *time.Location
	logger        *slog.Logger
}

// NewPricingEngine creates a new PricingEngine. Promotion days are evaluated in loc.
func NewPricingEngine(
	discountRepo repository.DiscountRepository,
	promotionRepo repository.PromotionRepository,
	cache internalRedis.SnapshotCacheInterface,
	loc *time.Location,
	logger *slog.Logger,
) *PricingEngine {
	if loc == nil {
		loc = time.UTC
	}
	return &PricingEngine{
		discountRepo:  discountRepo,
		promotionRepo: promotionRepo,
		cache:         cache,
		location:      loc,
		logger:        logger,
	}
}

// Quote prices baseFare for passenger at the tap instant now.
func (e *PricingEngine) Quote(ctx context.Context, baseFare float64, passenger *domain.Passenger, now time.Time) (*domain.FareQuote, error) {
	var rate *domain.DiscountRate
	if passenger.Discount.InEffect(now) {
		r, err := e.discountRepo.GetRate(ctx, passenger.Discount.Type)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			e.logger.WarnContext(ctx, "no rate configured for discount", "discount_type", passenger.Discount.Type)
		case err != nil:
			return nil, fmt.Errorf("get %s discount rate: %w", passenger.Discount.Type, err)
		default:
			rate = r
		}
	}

	promotions, err := e.promotions(ctx)
	if err != nil {
		return nil, err
	}

	quote := ApplyReductions(baseFare, rate, promotions, now.In(e.location))
	return &quote, nil
}

func (e *PricingEngine) promotions(ctx context.Context) ([]domain.Promotion, error) {
	if e.cache != nil {
		promotions, ok, err := e.cache.GetPromotions(ctx, domain.PromotionScopeBus)
		if err != nil {
			e.logger.WarnContext(ctx, "promotion cache read failed", "error", err)
		} else if ok {
			return promotions, nil
		}
	}

	promotions, err := e.promotionRepo.ListByScope(ctx, domain.PromotionScopeBus)
	if err != nil {
		return nil, fmt.Errorf("list promotions: %w", err)
	}

	if e.cache != nil {
		if err := e.cache.SetPromotions(ctx, domain.PromotionScopeBus, promotions); err != nil {
			e.logger.WarnContext(ctx, "promotion cache write failed", "error", err)
		}
	}

	return promotions, nil
}

// ApplyReductions applies the standing discount first, then every bus promotion
// eligible on day in the order given. Each step is rounded to cents and never
// reduces the fare below zero; recorded amounts are the reductions actually taken.
// rate may be nil when no discount applies.
func ApplyReductions(baseFare float64, rate *domain.DiscountRate, promotions []domain.Promotion, day time.Time) domain.FareQuote {
	base := domain.RoundCents(baseFare)
	quote := domain.FareQuote{BaseFare: base}
	running := base

	if rate != nil && rate.Rate > 0 {
		amount := math.Min(domain.RoundCents(base*rate.Rate/100), running)
		running = domain.RoundCents(running - amount)
		quote.Discount = &domain.AppliedDiscount{
			Type:   rate.Type,
			Rate:   rate.Rate,
			Amount: amount,
		}
	}

	for _, p := range promotions {
		if p.EffectScope != domain.PromotionScopeBus || !p.EligibleOn(day) {
			continue
		}

		var amount float64
		if p.IsPercentage {
			amount = domain.RoundCents(running * p.Value / 100)
		} else {
			amount = domain.RoundCents(p.Value)
		}
		amount = clampZero(math.Min(amount, running))
		running = domain.RoundCents(running - amount)

		quote.Promotions = append(quote.Promotions, domain.AppliedPromotion{
			ID:           p.ID,
			Name:         p.Name,
			IsPercentage: p.IsPercentage,
			Value:        p.Value,
			Amount:       amount,
		})
	}

	quote.FinalFare = running
	return quote
}

func clampZero(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
