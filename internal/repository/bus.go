package repository

import (
	"context"
	"time"

	"ridepay/internal/domain"
)

// BusRepository is the driver/bus directory.
type BusRepository interface {
	// GetByID retrieves a bus and its current driver assignment.
	GetByID(ctx context.Context, busID string) (*domain.Bus, error)

	// Login assigns driverID to an unassigned bus and appends a login entry,
	// atomically. Returns ErrConflict if the bus is no longer unassigned.
	Login(ctx context.Context, busID, driverID string, entry domain.DriverLogEntry) error

	// Logout clears driverID from the bus and closes the driver's most recent
	// open log entry (or appends a logout-only entry), atomically.
	// Returns ErrConflict if the bus is no longer assigned to driverID.
	Logout(ctx context.Context, busID, driverID string, at time.Time, fallback domain.DriverLogEntry) error
}
