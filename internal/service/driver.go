package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"ridepay/internal/domain"
	"ridepay/internal/repository"
)

// DriverService runs the bus driver assignment state machine.
type DriverService struct {
	busRepo repository.BusRepository
	events  *EventService
	logger  *slog.Logger
	clock   func() time.Time
}

// NewDriverService creates a new DriverService.
func NewDriverService(busRepo repository.BusRepository, events *EventService, logger *slog.Logger) *DriverService {
	return &DriverService{
		busRepo: busRepo,
		events:  events,
		logger:  logger,
		clock:   time.Now,
	}
}

// DriverTapRequest contains the parameters of a driver tap.
type DriverTapRequest struct {
	DriverID string
	BusID    string
}

// DriverTapResult is the outcome of a driver tap.
type DriverTapResult struct {
	Action   domain.AssignmentAction
	DriverID string
	BusID    string
	At       time.Time
}

// Tap signs the driver into an unassigned bus, or out of the bus they hold.
func (s *DriverService) Tap(ctx context.Context, req DriverTapRequest) (*DriverTapResult, error) {
	if req.DriverID == "" {
		return nil, ErrInvalidDriverID
	}
	if req.BusID == "" {
		return nil, ErrInvalidBusID
	}

	bus, err := s.Assignment(ctx, req.BusID)
	if err != nil {
		return nil, err
	}

	now := s.clock()

	switch {
	case !bus.Assigned():
		entry := domain.DriverLogEntry{
			ID:       uuid.New().String(),
			DriverID: req.DriverID,
			BusID:    req.BusID,
			LoginAt:  now,
		}
		if err := s.busRepo.Login(ctx, req.BusID, req.DriverID, entry); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return nil, ErrBusOccupied
			}
			return nil, fmt.Errorf("login driver %s to bus %s: %w", req.DriverID, req.BusID, err)
		}

		s.logger.InfoContext(ctx, "driver logged in", "driver_id", req.DriverID, "bus_id", req.BusID)
		s.events.DriverLoggedIn(ctx, req.DriverID, req.BusID, now)
		return &DriverTapResult{Action: domain.AssignmentLogin, DriverID: req.DriverID, BusID: req.BusID, At: now}, nil

	case bus.DriverID == req.DriverID:
		fallback := domain.DriverLogEntry{
			ID:       uuid.New().String(),
			DriverID: req.DriverID,
			BusID:    req.BusID,
			LogoutAt: now,
		}
		if err := s.busRepo.Logout(ctx, req.BusID, req.DriverID, now, fallback); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return nil, ErrAssignmentChanged
			}
			return nil, fmt.Errorf("logout driver %s from bus %s: %w", req.DriverID, req.BusID, err)
		}

		s.logger.InfoContext(ctx, "driver logged out", "driver_id", req.DriverID, "bus_id", req.BusID)
		s.events.DriverLoggedOut(ctx, req.DriverID, req.BusID, now)
		return &DriverTapResult{Action: domain.AssignmentLogout, DriverID: req.DriverID, BusID: req.BusID, At: now}, nil

	default:
		return nil, ErrBusOccupied
	}
}

// Assignment returns the bus with its current driver.
func (s *DriverService) Assignment(ctx context.Context, busID string) (*domain.Bus, error) {
	if busID == "" {
		return nil, ErrInvalidBusID
	}

	bus, err := s.busRepo.GetByID(ctx, busID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBusNotFound
		}
		return nil, fmt.Errorf("get bus %s: %w", busID, err)
	}

	return bus, nil
}
