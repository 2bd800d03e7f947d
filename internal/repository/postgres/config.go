package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"ridepay/internal/domain"
	"ridepay/internal/repository"
)

const dateLayout = "2006-01-02"

// TariffRepository is a PostgreSQL implementation of repository.TariffRepository.
type TariffRepository struct {
	q Querier
}

// NewTariffRepository creates a new PostgreSQL tariff repository.
func NewTariffRepository(db *sql.DB) *TariffRepository {
	return &TariffRepository{q: db}
}

// Get returns the raw tariff for kind.
func (r *TariffRepository) Get(ctx context.Context, kind domain.FareBasis) (*domain.TariffRecord, error) {
	query := `SELECT kind, fee, base_fare, tier_distance, tier_fare FROM tariffs WHERE kind = $1`

	var rec domain.TariffRecord
	var fee, baseFare, tierDistance, tierFare sql.NullString

	err := r.q.QueryRowContext(ctx, query, kind).Scan(&rec.Kind, &fee, &baseFare, &tierDistance, &tierFare)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	rec.Fee = stringPtr(fee)
	rec.BaseFare = stringPtr(baseFare)
	rec.TierDistance = stringPtr(tierDistance)
	rec.TierFare = stringPtr(tierFare)

	return &rec, nil
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

// DiscountRepository is a PostgreSQL implementation of repository.DiscountRepository.
type DiscountRepository struct {
	q Querier
}

// NewDiscountRepository creates a new PostgreSQL discount repository.
func NewDiscountRepository(db *sql.DB) *DiscountRepository {
	return &DiscountRepository{q: db}
}

// GetRate returns the rate for a discount type.
func (r *DiscountRepository) GetRate(ctx context.Context, discountType domain.DiscountType) (*domain.DiscountRate, error) {
	query := `SELECT type, rate, validity_years FROM discount_rates WHERE type = $1`

	var rate domain.DiscountRate
	err := r.q.QueryRowContext(ctx, query, discountType).Scan(&rate.Type, &rate.Rate, &rate.ValidityYears)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &rate, nil
}

// PromotionRepository is a PostgreSQL implementation of repository.PromotionRepository.
type PromotionRepository struct {
	q Querier
}

// NewPromotionRepository creates a new PostgreSQL promotion repository.
func NewPromotionRepository(db *sql.DB) *PromotionRepository {
	return &PromotionRepository{q: db}
}

// ListByScope returns promotions for an effect scope ordered by ID.
func (r *PromotionRepository) ListByScope(ctx context.Context, scope string) ([]domain.Promotion, error) {
	query := `
		SELECT id, name, effect_scope, date_range, start_date, end_date, weekdays, is_percentage, value
		FROM promotions WHERE effect_scope = $1 ORDER BY id
	`

	rows, err := r.q.QueryContext(ctx, query, scope)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var promotions []domain.Promotion
	for rows.Next() {
		var p domain.Promotion
		var startDate, endDate sql.NullTime

		if err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.EffectScope,
			&p.DateRange,
			&startDate,
			&endDate,
			pq.Array(&p.Weekdays),
			&p.IsPercentage,
			&p.Value,
		); err != nil {
			return nil, err
		}

		if startDate.Valid {
			p.StartDate = startDate.Time.Format(dateLayout)
		}
		if endDate.Valid {
			p.EndDate = endDate.Time.Format(dateLayout)
		}

		promotions = append(promotions, p)
	}

	return promotions, rows.Err()
}

var (
	_ repository.TariffRepository    = (*TariffRepository)(nil)
	_ repository.DiscountRepository  = (*DiscountRepository)(nil)
	_ repository.PromotionRepository = (*PromotionRepository)(nil)
)
