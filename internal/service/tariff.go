package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"ridepay/internal/domain"
	internalRedis "ridepay/internal/redis"
	"ridepay/internal/repository"
)

// TariffResolver loads and validates the configured fare policy.
type TariffResolver struct {
	tariffRepo repository.TariffRepository
	cache      internalRedis.SnapshotCacheInterface
	logger     *slog.Logger
}

// NewTariffResolver creates a new TariffResolver. cache may be nil.
func NewTariffResolver(tariffRepo repository.TariffRepository, cache internalRedis.SnapshotCacheInterface, logger *slog.Logger) *TariffResolver {
	return &TariffResolver{
		tariffRepo: tariffRepo,
		cache:      cache,
		logger:     logger,
	}
}

// Fixed returns the flat fare tariff.
func (r *TariffResolver) Fixed(ctx context.Context) (domain.FixedTariff, error) {
	rec, err := r.load(ctx, domain.FareBasisFixed)
	if err != nil {
		return domain.FixedTariff{}, err
	}

	fee, ok := parseAmount(rec.Fee)
	if !ok || fee <= 0 {
		return domain.FixedTariff{}, fmt.Errorf("%w: fixed fee %s", ErrTariffUnset, describe(rec.Fee))
	}

	return domain.FixedTariff{Fee: fee}, nil
}

// DistanceBased returns the tiered distance tariff.
func (r *TariffResolver) DistanceBased(ctx context.Context) (domain.DistanceTariff, error) {
	rec, err := r.load(ctx, domain.FareBasisDistanceBased)
	if err != nil {
		return domain.DistanceTariff{}, err
	}

	baseFare, ok := parseAmount(rec.BaseFare)
	if !ok || baseFare < 0 {
		return domain.DistanceTariff{}, fmt.Errorf("%w: base fare %s", ErrTariffUnset, describe(rec.BaseFare))
	}
	tierDistance, ok := parseAmount(rec.TierDistance)
	if !ok || tierDistance <= 0 {
		return domain.DistanceTariff{}, fmt.Errorf("%w: tier distance %s", ErrTariffUnset, describe(rec.TierDistance))
	}
	tierFare, ok := parseAmount(rec.TierFare)
	if !ok || tierFare < 0 {
		return domain.DistanceTariff{}, fmt.Errorf("%w: tier fare %s", ErrTariffUnset, describe(rec.TierFare))
	}

	return domain.DistanceTariff{
		BaseFare:     baseFare,
		TierDistance: tierDistance,
		TierFare:     tierFare,
	}, nil
}

func (r *TariffResolver) load(ctx context.Context, kind domain.FareBasis) (*domain.TariffRecord, error) {
	if r.cache != nil {
		rec, err := r.cache.GetTariff(ctx, kind)
		if err != nil {
			r.logger.WarnContext(ctx, "tariff cache read failed", "kind", kind, "error", err)
		} else if rec != nil {
			return rec, nil
		}
	}

	rec, err := r.tariffRepo.Get(ctx, kind)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: no %s tariff", ErrTariffUnset, kind)
		}
		return nil, fmt.Errorf("get %s tariff: %w", kind, err)
	}

	if r.cache != nil {
		if err := r.cache.SetTariff(ctx, rec); err != nil {
			r.logger.WarnContext(ctx, "tariff cache write failed", "kind", kind, "error", err)
		}
	}

	return rec, nil
}

func parseAmount(s *string) (float64, bool) {
	if s == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(*s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func describe(s *string) string {
	if s == nil {
		return "missing"
	}
	return strconv.Quote(*s)
}
