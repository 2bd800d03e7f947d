package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/newrelic/go-agent/v3/newrelic"

	"ridepay/internal/domain"
	internalRedis "ridepay/internal/redis"
	"ridepay/internal/repository"
)

// TapAction describes what a passenger tap did.
type TapAction string

const (
	TapActionCharged TapAction = "charged"
	TapActionTapIn   TapAction = "tap_in"
)

// FixedTapRequest is a card tap on a fixed-fare bus.
type FixedTapRequest struct {
	TagID        string
	CardID       string
	BusID        string
	DeviceID     string
	Organization string
}

// Validate checks the request before any side effect.
func (r FixedTapRequest) Validate() error {
	if r.TagID == "" {
		return ErrInvalidTagID
	}
	if r.CardID == "" {
		return ErrInvalidCardID
	}
	return validateVehicle(r.BusID, r.DeviceID)
}

// DistanceTapRequest is a geo-stamped card tap on a distance-fare bus.
type DistanceTapRequest struct {
	TagID        string
	CardID       string
	BusID        string
	DeviceID     string
	Lat          float64
	Lng          float64
	Organization string
}

// Validate checks the request before any side effect.
func (r DistanceTapRequest) Validate() error {
	if r.TagID == "" {
		return ErrInvalidTagID
	}
	if r.CardID == "" {
		return ErrInvalidCardID
	}
	if !validCoordinates(r.Lat, r.Lng) {
		return ErrInvalidLocation
	}
	return validateVehicle(r.BusID, r.DeviceID)
}

// QRTapRequest is a fixed-fare tap where the passenger identity is asserted by the client.
type QRTapRequest struct {
	PassengerID  string
	BusID        string
	DeviceID     string
	Organization string
}

// Validate checks the request before any side effect.
func (r QRTapRequest) Validate() error {
	if r.PassengerID == "" {
		return ErrInvalidPassengerID
	}
	return validateVehicle(r.BusID, r.DeviceID)
}

func validateVehicle(busID, deviceID string) error {
	if busID == "" {
		return ErrInvalidBusID
	}
	if deviceID == "" {
		return ErrInvalidDeviceID
	}
	return nil
}

// TapResult is the outcome of a passenger tap.
type TapResult struct {
	Action        TapAction
	Transaction   *domain.Transaction // set when charged
	Session       *domain.TapSession  // set on tap-in
	Balance       float64
	LedgerPending bool
}

// TapService sequences identity, pricing, debit and recording for each tap kind.
type TapService struct {
	identity      *IdentityResolver
	tariffs       *TariffResolver
	pricing       *PricingEngine
	ledger        *BalanceLedger
	recorder      *TransactionRecorder
	sessions      internalRedis.SessionStoreInterface
	busRepo       repository.BusRepository
	passengerRepo repository.PassengerRepository
	events        *EventService
	logger        *slog.Logger
	organization  string
	clock         func() time.Time
}

// TapServiceDeps contains the collaborators of a TapService.
type TapServiceDeps struct {
	Identity      *IdentityResolver
	Tariffs       *TariffResolver
	Pricing       *PricingEngine
	Ledger        *BalanceLedger
	Recorder      *TransactionRecorder
	Sessions      internalRedis.SessionStoreInterface
	BusRepo       repository.BusRepository
	PassengerRepo repository.PassengerRepository
	Events        *EventService
	Logger        *slog.Logger
	Organization  string // stamped when a request carries none
}

// NewTapService creates a new TapService.
func NewTapService(deps TapServiceDeps) *TapService {
	return &TapService{
		identity:      deps.Identity,
		tariffs:       deps.Tariffs,
		pricing:       deps.Pricing,
		ledger:        deps.Ledger,
		recorder:      deps.Recorder,
		sessions:      deps.Sessions,
		busRepo:       deps.BusRepo,
		passengerRepo: deps.PassengerRepo,
		events:        deps.Events,
		logger:        deps.Logger,
		organization:  deps.Organization,
		clock:         time.Now,
	}
}

// TapFixed charges the fixed fare for a card tap.
func (s *TapService) TapFixed(ctx context.Context, req FixedTapRequest) (*TapResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	seg := newrelic.FromContext(ctx).StartSegment("tap/identity")
	passengerID, err := s.identity.ResolveCard(ctx, req.CardID, req.TagID)
	seg.End()
	if err != nil {
		return nil, err
	}

	return s.chargeFixed(ctx, passengerID, domain.IdentityMethodTag, req.BusID, req.DeviceID, req.Organization)
}

// TapQR charges the fixed fare for a QR presentation.
func (s *TapService) TapQR(ctx context.Context, req QRTapRequest) (*TapResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	seg := newrelic.FromContext(ctx).StartSegment("tap/identity")
	passengerID, err := s.identity.ResolveAsserted(ctx, req.PassengerID)
	seg.End()
	if err != nil {
		return nil, err
	}

	return s.chargeFixed(ctx, passengerID, domain.IdentityMethodQR, req.BusID, req.DeviceID, req.Organization)
}

func (s *TapService) chargeFixed(ctx context.Context, passengerID string, method domain.IdentityMethod, busID, deviceID, organization string) (*TapResult, error) {
	now := s.clock()

	seg := newrelic.FromContext(ctx).StartSegment("tap/price")
	tariff, err := s.tariffs.Fixed(ctx)
	if err != nil {
		seg.End()
		return nil, err
	}
	driverID, err := s.driverOf(ctx, busID)
	if err != nil {
		seg.End()
		return nil, err
	}
	passenger, err := s.passenger(ctx, passengerID)
	if err != nil {
		seg.End()
		return nil, err
	}
	quote, err := s.pricing.Quote(ctx, tariff.Fee, passenger, now)
	seg.End()
	if err != nil {
		return nil, err
	}

	balance, err := s.debit(ctx, passengerID, busID, deviceID, quote.FinalFare, now)
	if err != nil {
		return nil, err
	}

	txn := &domain.Transaction{
		Type:          domain.TransactionTypeBus,
		Amount:        quote.FinalFare,
		FromPassenger: passengerID,
		Organization:  s.orgOr(organization),
		CreatedAt:     now,
		Bus: &domain.BusDetails{
			BusID:          busID,
			DeviceID:       deviceID,
			DriverID:       driverID,
			FareBasis:      domain.FareBasisFixed,
			FareAmount:     quote.FinalFare,
			BaseFare:       quote.BaseFare,
			IdentityMethod: method,
			Discount:       quote.Discount,
			Promotions:     quote.Promotions,
		},
	}

	return s.settle(ctx, txn, balance), nil
}

// TapDistance opens a trip on tap-in and charges the distance fare on tap-out.
func (s *TapService) TapDistance(ctx context.Context, req DistanceTapRequest) (*TapResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	seg := newrelic.FromContext(ctx).StartSegment("tap/identity")
	passengerID, err := s.identity.ResolveCard(ctx, req.CardID, req.TagID)
	seg.End()
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.Get(ctx, passengerID)
	if err != nil {
		return nil, fmt.Errorf("get tap session for %s: %w", passengerID, err)
	}

	if session == nil {
		return s.tapIn(ctx, passengerID, req)
	}
	return s.tapOut(ctx, session, req)
}

func (s *TapService) tapIn(ctx context.Context, passengerID string, req DistanceTapRequest) (*TapResult, error) {
	if _, err := s.bus(ctx, req.BusID); err != nil {
		return nil, err
	}

	session := &domain.TapSession{
		ID:          uuid.New().String(),
		PassengerID: passengerID,
		OpenedAt:    s.clock().UTC(),
		OriginLat:   req.Lat,
		OriginLng:   req.Lng,
		BusID:       req.BusID,
		DeviceID:    req.DeviceID,
	}

	opened, err := s.sessions.Open(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("open tap session for %s: %w", passengerID, err)
	}
	if !opened {
		return nil, ErrTapInProgress
	}

	s.logger.InfoContext(ctx, "tap-in recorded", "passenger_id", passengerID, "bus_id", req.BusID, "session_id", session.ID)
	s.events.TapOpened(ctx, session)

	return &TapResult{Action: TapActionTapIn, Session: session}, nil
}

func (s *TapService) tapOut(ctx context.Context, session *domain.TapSession, req DistanceTapRequest) (*TapResult, error) {
	now := s.clock()
	passengerID := session.PassengerID

	seg := newrelic.FromContext(ctx).StartSegment("tap/price")
	distance := Haversine(session.OriginLat, session.OriginLng, req.Lat, req.Lng)
	tariff, err := s.tariffs.DistanceBased(ctx)
	if err != nil {
		seg.End()
		return nil, err
	}
	driverID, err := s.driverOf(ctx, req.BusID)
	if err != nil {
		seg.End()
		return nil, err
	}
	passenger, err := s.passenger(ctx, passengerID)
	if err != nil {
		seg.End()
		return nil, err
	}
	baseFare := DistanceFare(tariff, distance)
	quote, err := s.pricing.Quote(ctx, baseFare, passenger, now)
	seg.End()
	if err != nil {
		return nil, err
	}

	claimed, err := s.sessions.Claim(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("claim tap session %s: %w", session.ID, err)
	}
	if !claimed {
		return nil, ErrTapSessionClosed
	}

	// The trip is closed from here on, whether or not the debit succeeds.
	balance, err := s.debit(ctx, passengerID, req.BusID, req.DeviceID, quote.FinalFare, now)
	if err != nil {
		return nil, err
	}

	txn := &domain.Transaction{
		Type:          domain.TransactionTypeBus,
		Amount:        quote.FinalFare,
		FromPassenger: passengerID,
		Organization:  s.orgOr(req.Organization),
		CreatedAt:     now,
		Bus: &domain.BusDetails{
			BusID:          req.BusID,
			DeviceID:       req.DeviceID,
			DriverID:       driverID,
			FareBasis:      domain.FareBasisDistanceBased,
			FareAmount:     quote.FinalFare,
			BaseFare:       quote.BaseFare,
			IdentityMethod: domain.IdentityMethodTag,
			Discount:       quote.Discount,
			Promotions:     quote.Promotions,
			TapIn:          &domain.TapPoint{Lat: session.OriginLat, Lng: session.OriginLng, At: session.OpenedAt},
			TapOut:         &domain.TapPoint{Lat: req.Lat, Lng: req.Lng, At: now},
			DistanceKm:     RoundKm(distance),
			TierDistance:   tariff.TierDistance,
			TierFare:       tariff.TierFare,
		},
	}

	return s.settle(ctx, txn, balance), nil
}

func (s *TapService) debit(ctx context.Context, passengerID, busID, deviceID string, fare float64, now time.Time) (float64, error) {
	seg := newrelic.FromContext(ctx).StartSegment("tap/debit")
	defer seg.End()

	balance, err := s.ledger.Debit(ctx, passengerID, fare)
	if err != nil {
		if errors.Is(err, ErrInsufficientBalance) || errors.Is(err, ErrBalanceConflict) {
			s.logger.InfoContext(ctx, "fare declined", "passenger_id", passengerID, "bus_id", busID, "fare", fare, "reason", err)
			s.events.FareDeclined(ctx, passengerID, busID, deviceID, fare, err, now)
		}
		return 0, err
	}
	return balance, nil
}

func (s *TapService) settle(ctx context.Context, txn *domain.Transaction, balance float64) *TapResult {
	seg := newrelic.FromContext(ctx).StartSegment("tap/record")
	pending := s.recorder.RecordSettled(ctx, txn)
	seg.End()

	s.logger.InfoContext(ctx, "fare charged",
		"transaction_id", txn.ID,
		"passenger_id", txn.FromPassenger,
		"fare_basis", txn.Bus.FareBasis,
		"amount", txn.Amount,
		"ledger_pending", pending,
	)
	s.events.FareCharged(ctx, txn, balance)

	return &TapResult{
		Action:        TapActionCharged,
		Transaction:   txn,
		Balance:       balance,
		LedgerPending: pending,
	}
}

func (s *TapService) bus(ctx context.Context, busID string) (*domain.Bus, error) {
	bus, err := s.busRepo.GetByID(ctx, busID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBusNotFound
		}
		return nil, fmt.Errorf("get bus %s: %w", busID, err)
	}
	return bus, nil
}

func (s *TapService) driverOf(ctx context.Context, busID string) (string, error) {
	bus, err := s.bus(ctx, busID)
	if err != nil {
		return "", err
	}
	if !bus.Assigned() {
		return "", ErrDriverNotFound
	}
	return bus.DriverID, nil
}

func (s *TapService) passenger(ctx context.Context, passengerID string) (*domain.Passenger, error) {
	passenger, err := s.passengerRepo.GetByID(ctx, passengerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPassengerNotFound
		}
		return nil, fmt.Errorf("get passenger %s: %w", passengerID, err)
	}
	return passenger, nil
}

func (s *TapService) orgOr(organization string) string {
	if organization != "" {
		return organization
	}
	return s.organization
}
