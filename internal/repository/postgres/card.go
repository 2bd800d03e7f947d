package postgres

import (
	"context"
	"database/sql"
	"errors"

	"ridepay/internal/domain"
	"ridepay/internal/repository"
)

// CardRepository is a PostgreSQL implementation of repository.CardRepository.
type CardRepository struct {
	q Querier
}

// NewCardRepository creates a new PostgreSQL card repository.
func NewCardRepository(db *sql.DB) *CardRepository {
	return &CardRepository{q: db}
}

// GetByID retrieves a card by its card ID.
func (r *CardRepository) GetByID(ctx context.Context, cardID string) (*domain.Card, error) {
	query := `
		SELECT id, tag_id, COALESCE(passenger_id, ''), status, issued_at
		FROM cards WHERE id = $1
	`

	var card domain.Card
	err := r.q.QueryRowContext(ctx, query, cardID).Scan(
		&card.ID,
		&card.TagID,
		&card.PassengerID,
		&card.Status,
		&card.IssuedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &card, nil
}

var _ repository.CardRepository = (*CardRepository)(nil)
