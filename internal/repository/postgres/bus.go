package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ridepay/internal/domain"
	"ridepay/internal/repository"
)

// BusRepository is a PostgreSQL implementation of repository.BusRepository.
type BusRepository struct {
	db *sql.DB
}

// NewBusRepository creates a new PostgreSQL bus repository.
func NewBusRepository(db *sql.DB) *BusRepository {
	return &BusRepository{db: db}
}

// GetByID retrieves a bus and its current driver assignment.
func (r *BusRepository) GetByID(ctx context.Context, busID string) (*domain.Bus, error) {
	query := `SELECT id, COALESCE(driver_id, '') FROM buses WHERE id = $1`

	var bus domain.Bus
	err := r.db.QueryRowContext(ctx, query, busID).Scan(&bus.ID, &bus.DriverID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &bus, nil
}

// Login assigns driverID to an unassigned bus and appends a login entry.
func (r *BusRepository) Login(ctx context.Context, busID, driverID string, entry domain.DriverLogEntry) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE buses SET driver_id = $1, updated_at = now() WHERE id = $2 AND driver_id IS NULL`,
			driverID, busID,
		)
		if err != nil {
			return err
		}
		if err := expectOneRow(result); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO driver_logs (id, driver_id, bus_id, login_at) VALUES ($1, $2, $3, $4)`,
			entry.ID, entry.DriverID, entry.BusID, entry.LoginAt,
		)
		return err
	})
}

// Logout clears driverID from the bus and closes the driver's most recent open log entry.
// When no open entry exists, fallback is appended as a logout-only entry.
func (r *BusRepository) Logout(ctx context.Context, busID, driverID string, at time.Time, fallback domain.DriverLogEntry) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE buses SET driver_id = NULL, updated_at = now() WHERE id = $1 AND driver_id = $2`,
			busID, driverID,
		)
		if err != nil {
			return err
		}
		if err := expectOneRow(result); err != nil {
			return err
		}

		result, err = tx.ExecContext(ctx, `
			UPDATE driver_logs SET logout_at = $1
			WHERE id = (
				SELECT id FROM driver_logs
				WHERE driver_id = $2 AND logout_at IS NULL
				ORDER BY login_at DESC NULLS LAST
				LIMIT 1
			)`,
			at, driverID,
		)
		if err != nil {
			return err
		}
		closed, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if closed > 0 {
			return nil
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO driver_logs (id, driver_id, bus_id, logout_at) VALUES ($1, $2, $3, $4)`,
			fallback.ID, fallback.DriverID, fallback.BusID, fallback.LogoutAt,
		)
		return err
	})
}

func expectOneRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrConflict
	}
	return nil
}

var _ repository.BusRepository = (*BusRepository)(nil)
