package service

import (
	"context"
	"log/slog"
	"time"

	"ridepay/internal/broker"
	"ridepay/internal/domain"
)

// FareEvent is the payload of fare and top-up events.
type FareEvent struct {
	TransactionID string                 `json:"transaction_id,omitempty"`
	Type          domain.TransactionType `json:"type,omitempty"`
	PassengerID   string                 `json:"passenger_id"`
	Amount        float64                `json:"amount"`
	Balance       float64                `json:"balance"`
	BusID         string                 `json:"bus_id,omitempty"`
	DeviceID      string                 `json:"device_id,omitempty"`
	Reason        string                 `json:"reason,omitempty"`
	OccurredAt    time.Time              `json:"occurred_at"`
}

// TapOpenedEvent is the payload of a tap-in.
type TapOpenedEvent struct {
	SessionID   string    `json:"session_id"`
	PassengerID string    `json:"passenger_id"`
	BusID       string    `json:"bus_id"`
	DeviceID    string    `json:"device_id"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// DriverEvent is the payload of driver login and logout.
type DriverEvent struct {
	DriverID   string    `json:"driver_id"`
	BusID      string    `json:"bus_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ReconciliationEvent announces a debit whose ledger record is not yet durable.
type ReconciliationEvent struct {
	Transaction *domain.Transaction `json:"transaction"`
	Error       string              `json:"error"`
	Parked      bool                `json:"parked"`
}

// EventService publishes settlement events. Delivery is best effort:
// publish failures are logged and never fail the caller.
type EventService struct {
	publisher broker.Publisher
	logger    *slog.Logger
}

// NewEventService creates a new EventService.
func NewEventService(publisher broker.Publisher, logger *slog.Logger) *EventService {
	return &EventService{
		publisher: publisher,
		logger:    logger,
	}
}

// FareCharged publishes a successful fare.
func (s *EventService) FareCharged(ctx context.Context, txn *domain.Transaction, balance float64) {
	event := FareEvent{
		TransactionID: txn.ID,
		Type:          txn.Type,
		PassengerID:   txn.FromPassenger,
		Amount:        txn.Amount,
		Balance:       balance,
		OccurredAt:    txn.CreatedAt,
	}
	if txn.Bus != nil {
		event.BusID = txn.Bus.BusID
		event.DeviceID = txn.Bus.DeviceID
	}
	s.send(ctx, broker.EventFareCharged, event)
}

// FareDeclined publishes a fare that could not be debited.
func (s *EventService) FareDeclined(ctx context.Context, passengerID, busID, deviceID string, amount float64, reason error, at time.Time) {
	s.send(ctx, broker.EventFareDeclined, FareEvent{
		PassengerID: passengerID,
		Amount:      amount,
		BusID:       busID,
		DeviceID:    deviceID,
		Reason:      reason.Error(),
		OccurredAt:  at,
	})
}

// TapOpened publishes a distance-based tap-in.
func (s *EventService) TapOpened(ctx context.Context, session *domain.TapSession) {
	s.send(ctx, broker.EventTapOpened, TapOpenedEvent{
		SessionID:   session.ID,
		PassengerID: session.PassengerID,
		BusID:       session.BusID,
		DeviceID:    session.DeviceID,
		Lat:         session.OriginLat,
		Lng:         session.OriginLng,
		OccurredAt:  session.OpenedAt,
	})
}

// TopUpCredited publishes a balance top-up.
func (s *EventService) TopUpCredited(ctx context.Context, txn *domain.Transaction, balance float64) {
	s.send(ctx, broker.EventTopUpCredited, FareEvent{
		TransactionID: txn.ID,
		Type:          txn.Type,
		PassengerID:   txn.FromPassenger,
		Amount:        txn.Amount,
		Balance:       balance,
		OccurredAt:    txn.CreatedAt,
	})
}

// DriverLoggedIn publishes a driver login.
func (s *EventService) DriverLoggedIn(ctx context.Context, driverID, busID string, at time.Time) {
	s.send(ctx, broker.EventDriverLoggedIn, DriverEvent{DriverID: driverID, BusID: busID, OccurredAt: at})
}

// DriverLoggedOut publishes a driver logout.
func (s *EventService) DriverLoggedOut(ctx context.Context, driverID, busID string, at time.Time) {
	s.send(ctx, broker.EventDriverLoggedOut, DriverEvent{DriverID: driverID, BusID: busID, OccurredAt: at})
}

// ReconciliationRequired publishes a debited transaction whose append failed.
func (s *EventService) ReconciliationRequired(ctx context.Context, txn *domain.Transaction, cause error, parked bool) {
	s.send(ctx, broker.EventReconciliationRequired, ReconciliationEvent{
		Transaction: txn,
		Error:       cause.Error(),
		Parked:      parked,
	})
}

func (s *EventService) send(ctx context.Context, routingKey string, payload any) {
	if s == nil || s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, routingKey, payload); err != nil {
		s.logger.WarnContext(ctx, "event publish failed", "routing_key", routingKey, "error", err)
	}
}
