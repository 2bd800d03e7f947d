package tests

import (
	"testing"
	"time"

	"ridepay/internal/domain"
	"ridepay/internal/service"
)

const testOrganization = "Coop 1"

// fixture wires real services over mocks.
type fixture struct {
	cards      *MockCardRepository
	passengers *MockPassengerRepository
	buses      *MockBusRepository
	tariffs    *MockTariffRepository
	discounts  *MockDiscountRepository
	promotions *MockPromotionRepository
	txns       *MockTransactionRepository
	sessions   *MockSessionStore
	reconcile  *MockReconcileQueue
	publisher  *MockPublisher

	recorder *service.TransactionRecorder
	ledger   *service.BalanceLedger
	drivers  *service.DriverService
	taps     *service.TapService
	topups   *service.TopUpService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		cards:      NewMockCardRepository(),
		passengers: NewMockPassengerRepository(),
		buses:      NewMockBusRepository(),
		tariffs:    NewMockTariffRepository(),
		discounts:  NewMockDiscountRepository(),
		promotions: NewMockPromotionRepository(),
		txns:       NewMockTransactionRepository(),
		sessions:   NewMockSessionStore(),
		reconcile:  NewMockReconcileQueue(),
		publisher:  NewMockPublisher(),
	}

	logger := NewTestLogger()
	events := service.NewEventService(f.publisher, logger)

	recorder, err := service.NewTransactionRecorder(f.txns, 1, f.reconcile, events, logger)
	if err != nil {
		t.Fatalf("failed to create recorder: %v", err)
	}
	f.recorder = recorder
	f.ledger = service.NewBalanceLedger(f.passengers, 5)
	f.drivers = service.NewDriverService(f.buses, events, logger)
	f.topups = service.NewTopUpService(f.ledger, recorder, events, testOrganization)
	f.taps = service.NewTapService(service.TapServiceDeps{
		Identity:      service.NewIdentityResolver(f.cards, f.passengers),
		Tariffs:       service.NewTariffResolver(f.tariffs, nil, logger),
		Pricing:       service.NewPricingEngine(f.discounts, f.promotions, nil, time.UTC, logger),
		Ledger:        f.ledger,
		Recorder:      recorder,
		Sessions:      f.sessions,
		BusRepo:       f.buses,
		PassengerRepo: f.passengers,
		Events:        events,
		Logger:        logger,
		Organization:  testOrganization,
	})

	return f
}

// seedRider adds passenger p1 with balance, bound to card c1/tag t1, and bus b1 driven by d1.
func (f *fixture) seedRider(balance float64) {
	f.passengers.AddPassenger(&domain.Passenger{ID: "p1", Balance: balance})
	f.cards.AddCard(&domain.Card{ID: "c1", TagID: "t1", PassengerID: "p1", Status: domain.CardStatusActive})
	f.buses.AddBus(&domain.Bus{ID: "b1", DriverID: "d1"})
}

func fixedTap() service.FixedTapRequest {
	return service.FixedTapRequest{TagID: "t1", CardID: "c1", BusID: "b1", DeviceID: "dev1"}
}

func distanceTap(lat, lng float64) service.DistanceTapRequest {
	return service.DistanceTapRequest{TagID: "t1", CardID: "c1", BusID: "b1", DeviceID: "dev1", Lat: lat, Lng: lng}
}

// everyDay is a weekday promotion set that is eligible on any date.
var everyDay = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
