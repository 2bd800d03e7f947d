package tests

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"ridepay/internal/broker"
	"ridepay/internal/domain"
	"ridepay/internal/redis"
	"ridepay/internal/repository"
)

// NewTestLogger returns a logger that discards output.
func NewTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ──────────────────────────────────────────────
// MOCK CARD REPOSITORY
// ──────────────────────────────────────────────

// MockCardRepository is a mock implementation of CardRepository.
type MockCardRepository struct {
	mu    sync.RWMutex
	cards map[string]*domain.Card

	// Error injection
	GetError error
}

// NewMockCardRepository creates a new mock card repository.
func NewMockCardRepository() *MockCardRepository {
	return &MockCardRepository{
		cards: make(map[string]*domain.Card),
	}
}

// AddCard adds a card to the mock repository.
func (m *MockCardRepository) AddCard(card *domain.Card) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cards[card.ID] = card
}

func (m *MockCardRepository) GetByID(ctx context.Context, cardID string) (*domain.Card, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	card, ok := m.cards[cardID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *card
	return &copy, nil
}

// ──────────────────────────────────────────────
// MOCK PASSENGER REPOSITORY
// ──────────────────────────────────────────────

// MockPassengerRepository is a mock implementation of PassengerRepository.
// CompareAndSetBalance is linearizable, like the conditional UPDATE it stands in for.
type MockPassengerRepository struct {
	mu         sync.RWMutex
	passengers map[string]*domain.Passenger

	// Counters for verification
	CASCallCount    int32
	CreditCallCount int32

	// Error injection
	GetError    error
	CASError    error
	CreditError error

	// ForcedConflicts makes the next N compare-and-set calls lose.
	ForcedConflicts int32

	// AfterCAS runs after a successful compare-and-set.
	AfterCAS func()
}

// NewMockPassengerRepository creates a new mock passenger repository.
func NewMockPassengerRepository() *MockPassengerRepository {
	return &MockPassengerRepository{
		passengers: make(map[string]*domain.Passenger),
	}
}

// AddPassenger adds a passenger to the mock repository.
func (m *MockPassengerRepository) AddPassenger(p *domain.Passenger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.passengers[p.ID] = p
}

func (m *MockPassengerRepository) GetByID(ctx context.Context, id string) (*domain.Passenger, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.passengers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *p
	return &copy, nil
}

func (m *MockPassengerRepository) CompareAndSetBalance(ctx context.Context, id string, balance float64, expectedVersion int64) (int64, error) {
	atomic.AddInt32(&m.CASCallCount, 1)
	if m.CASError != nil {
		return 0, m.CASError
	}
	if atomic.LoadInt32(&m.ForcedConflicts) > 0 {
		atomic.AddInt32(&m.ForcedConflicts, -1)
		return 0, repository.ErrConflict
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.passengers[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	if p.Version != expectedVersion {
		return 0, repository.ErrConflict
	}
	p.Balance = balance
	p.Version++
	if m.AfterCAS != nil {
		m.AfterCAS()
	}
	return p.Version, nil
}

func (m *MockPassengerRepository) AddBalance(ctx context.Context, id string, amount float64) (float64, error) {
	atomic.AddInt32(&m.CreditCallCount, 1)
	if m.CreditError != nil {
		return 0, m.CreditError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.passengers[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	p.Balance = domain.RoundCents(p.Balance + amount)
	p.Version++
	return p.Balance, nil
}

func (m *MockPassengerRepository) ExpireDiscounts(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, p := range m.passengers {
		if p.Discount.Active && !p.Discount.ExpiresAt.IsZero() && p.Discount.ExpiresAt.Before(now) {
			p.Discount.Active = false
			n++
		}
	}
	return n, nil
}

// Balance returns a passenger's balance for assertions.
func (m *MockPassengerRepository) Balance(id string) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.passengers[id].Balance
}

// Passenger returns a copy of a passenger for assertions.
func (m *MockPassengerRepository) Passenger(id string) domain.Passenger {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return *m.passengers[id]
}

// ──────────────────────────────────────────────
// MOCK BUS REPOSITORY
// ──────────────────────────────────────────────

// MockBusRepository is a mock implementation of BusRepository.
type MockBusRepository struct {
	mu    sync.RWMutex
	buses map[string]*domain.Bus
	logs  []domain.DriverLogEntry

	// Counters for verification
	LoginCallCount  int32
	LogoutCallCount int32

	// Error injection
	LoginError  error
	LogoutError error

	// BeforeWrite runs before the conditional update, to simulate a racing tap.
	BeforeWrite func()
}

// NewMockBusRepository creates a new mock bus repository.
func NewMockBusRepository() *MockBusRepository {
	return &MockBusRepository{
		buses: make(map[string]*domain.Bus),
	}
}

// AddBus adds a bus to the mock repository.
func (m *MockBusRepository) AddBus(bus *domain.Bus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buses[bus.ID] = bus
}

// SetDriver overwrites a bus assignment.
func (m *MockBusRepository) SetDriver(busID, driverID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buses[busID].DriverID = driverID
}

// AddLog appends a log entry directly.
func (m *MockBusRepository) AddLog(entry domain.DriverLogEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, entry)
}

func (m *MockBusRepository) GetByID(ctx context.Context, busID string) (*domain.Bus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	bus, ok := m.buses[busID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *bus
	return &copy, nil
}

func (m *MockBusRepository) Login(ctx context.Context, busID, driverID string, entry domain.DriverLogEntry) error {
	atomic.AddInt32(&m.LoginCallCount, 1)
	if m.LoginError != nil {
		return m.LoginError
	}
	if m.BeforeWrite != nil {
		m.BeforeWrite()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	bus, ok := m.buses[busID]
	if !ok || bus.DriverID != "" {
		return repository.ErrConflict
	}
	bus.DriverID = driverID
	m.logs = append(m.logs, entry)
	return nil
}

func (m *MockBusRepository) Logout(ctx context.Context, busID, driverID string, at time.Time, fallback domain.DriverLogEntry) error {
	atomic.AddInt32(&m.LogoutCallCount, 1)
	if m.LogoutError != nil {
		return m.LogoutError
	}
	if m.BeforeWrite != nil {
		m.BeforeWrite()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	bus, ok := m.buses[busID]
	if !ok || bus.DriverID != driverID {
		return repository.ErrConflict
	}
	bus.DriverID = ""

	latest := -1
	for i, e := range m.logs {
		if e.DriverID != driverID || !e.LogoutAt.IsZero() {
			continue
		}
		if latest == -1 || e.LoginAt.After(m.logs[latest].LoginAt) {
			latest = i
		}
	}
	if latest >= 0 {
		m.logs[latest].LogoutAt = at
		return nil
	}
	m.logs = append(m.logs, fallback)
	return nil
}

// Logs returns a copy of the driver log for assertions.
func (m *MockBusRepository) Logs() []domain.DriverLogEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.DriverLogEntry, len(m.logs))
	copy(out, m.logs)
	return out
}

// DriverOf returns the current assignment for assertions.
func (m *MockBusRepository) DriverOf(busID string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.buses[busID].DriverID
}

// ──────────────────────────────────────────────
// MOCK CONFIGURATION REPOSITORIES
// ──────────────────────────────────────────────

// MockTariffRepository is a mock implementation of TariffRepository.
type MockTariffRepository struct {
	mu      sync.RWMutex
	tariffs map[domain.FareBasis]*domain.TariffRecord

	// Counters
	GetCallCount int32
}

// NewMockTariffRepository creates a new mock tariff repository.
func NewMockTariffRepository() *MockTariffRepository {
	return &MockTariffRepository{
		tariffs: make(map[domain.FareBasis]*domain.TariffRecord),
	}
}

// SetFixed configures the fixed tariff fee text.
func (m *MockTariffRepository) SetFixed(fee string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tariffs[domain.FareBasisFixed] = &domain.TariffRecord{Kind: domain.FareBasisFixed, Fee: &fee}
}

// SetDistance configures the distance tariff texts.
func (m *MockTariffRepository) SetDistance(baseFare, tierDistance, tierFare string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tariffs[domain.FareBasisDistanceBased] = &domain.TariffRecord{
		Kind:         domain.FareBasisDistanceBased,
		BaseFare:     &baseFare,
		TierDistance: &tierDistance,
		TierFare:     &tierFare,
	}
}

// SetRecord configures a raw tariff record.
func (m *MockTariffRepository) SetRecord(rec *domain.TariffRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tariffs[rec.Kind] = rec
}

func (m *MockTariffRepository) Get(ctx context.Context, kind domain.FareBasis) (*domain.TariffRecord, error) {
	atomic.AddInt32(&m.GetCallCount, 1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.tariffs[kind]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *rec
	return &copy, nil
}

// MockDiscountRepository is a mock implementation of DiscountRepository.
type MockDiscountRepository struct {
	mu    sync.RWMutex
	rates map[domain.DiscountType]*domain.DiscountRate
}

// NewMockDiscountRepository creates a new mock discount repository.
func NewMockDiscountRepository() *MockDiscountRepository {
	return &MockDiscountRepository{
		rates: make(map[domain.DiscountType]*domain.DiscountRate),
	}
}

// SetRate configures a discount rate.
func (m *MockDiscountRepository) SetRate(discountType domain.DiscountType, rate float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rates[discountType] = &domain.DiscountRate{Type: discountType, Rate: rate, ValidityYears: 1}
}

func (m *MockDiscountRepository) GetRate(ctx context.Context, discountType domain.DiscountType) (*domain.DiscountRate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rate, ok := m.rates[discountType]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *rate
	return &copy, nil
}

// MockPromotionRepository is a mock implementation of PromotionRepository.
type MockPromotionRepository struct {
	mu         sync.RWMutex
	promotions []domain.Promotion
}

// NewMockPromotionRepository creates a new mock promotion repository.
func NewMockPromotionRepository() *MockPromotionRepository {
	return &MockPromotionRepository{}
}

// AddPromotion adds a promotion to the mock repository.
func (m *MockPromotionRepository) AddPromotion(p domain.Promotion) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.promotions = append(m.promotions, p)
}

func (m *MockPromotionRepository) ListByScope(ctx context.Context, scope string) ([]domain.Promotion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Promotion
	for _, p := range m.promotions {
		if p.EffectScope == scope {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ──────────────────────────────────────────────
// MOCK TRANSACTION REPOSITORY
// ──────────────────────────────────────────────

// MockTransactionRepository is a mock implementation of TransactionRepository.
type MockTransactionRepository struct {
	mu   sync.RWMutex
	txns map[string]*domain.Transaction

	// Counters
	AppendCallCount int32

	// Error injection
	AppendError error
}

// NewMockTransactionRepository creates a new mock transaction repository.
func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		txns: make(map[string]*domain.Transaction),
	}
}

// SetAppendError sets the error returned by Append.
func (m *MockTransactionRepository) SetAppendError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AppendError = err
}

func (m *MockTransactionRepository) Append(ctx context.Context, txn *domain.Transaction) error {
	atomic.AddInt32(&m.AppendCallCount, 1)
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AppendError != nil {
		return m.AppendError
	}
	if _, exists := m.txns[txn.ID]; exists {
		return nil
	}
	copy := *txn
	m.txns[txn.ID] = &copy
	return nil
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	txn, ok := m.txns[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *txn
	return &copy, nil
}

func (m *MockTransactionRepository) List(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Transaction
	for _, txn := range m.txns {
		if filter.Type != "" && txn.Type != filter.Type {
			continue
		}
		if filter.PassengerID != "" && txn.FromPassenger != filter.PassengerID {
			continue
		}
		if filter.BusID != "" && (txn.Bus == nil || txn.Bus.BusID != filter.BusID) {
			continue
		}
		if filter.DriverID != "" && (txn.Bus == nil || txn.Bus.DriverID != filter.DriverID) {
			continue
		}
		if !filter.Start.IsZero() && txn.CreatedAt.Before(filter.Start) {
			continue
		}
		if !filter.End.IsZero() && txn.CreatedAt.After(filter.End) {
			continue
		}
		copy := *txn
		out = append(out, &copy)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Count returns the number of stored transactions.
func (m *MockTransactionRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.txns)
}

// All returns every stored transaction.
func (m *MockTransactionRepository) All() []*domain.Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Transaction, 0, len(m.txns))
	for _, txn := range m.txns {
		out = append(out, txn)
	}
	return out
}

// ──────────────────────────────────────────────
// MOCK SESSION STORE
// ──────────────────────────────────────────────

// MockSessionStore is a mock implementation of SessionStore.
type MockSessionStore struct {
	mu       sync.Mutex
	sessions map[string]domain.TapSession

	// Counters
	OpenCallCount  int32
	ClaimCallCount int32

	// Error injection
	GetError   error
	OpenError  error
	ClaimError error

	// AfterGet runs after Get returns a session, to simulate a racing tap.
	AfterGet func()
}

// NewMockSessionStore creates a new mock session store.
func NewMockSessionStore() *MockSessionStore {
	return &MockSessionStore{
		sessions: make(map[string]domain.TapSession),
	}
}

func (m *MockSessionStore) Get(ctx context.Context, passengerID string) (*domain.TapSession, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.Lock()
	s, ok := m.sessions[passengerID]
	m.mu.Unlock()
	if m.AfterGet != nil {
		m.AfterGet()
	}
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *MockSessionStore) Open(ctx context.Context, session *domain.TapSession) (bool, error) {
	atomic.AddInt32(&m.OpenCallCount, 1)
	if m.OpenError != nil {
		return false, m.OpenError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[session.PassengerID]; exists {
		return false, nil
	}
	m.sessions[session.PassengerID] = *session
	return true, nil
}

func (m *MockSessionStore) Claim(ctx context.Context, session *domain.TapSession) (bool, error) {
	atomic.AddInt32(&m.ClaimCallCount, 1)
	if m.ClaimError != nil {
		return false, m.ClaimError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	current, exists := m.sessions[session.PassengerID]
	if !exists || current.ID != session.ID {
		return false, nil
	}
	delete(m.sessions, session.PassengerID)
	return true, nil
}

// Put stores a session directly.
func (m *MockSessionStore) Put(session domain.TapSession) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.PassengerID] = session
}

// HasSession reports whether a passenger has an open session.
func (m *MockSessionStore) HasSession(passengerID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[passengerID]
	return ok
}

// ──────────────────────────────────────────────
// MOCK RECONCILE QUEUE
// ──────────────────────────────────────────────

// MockReconcileQueue is a mock implementation of ReconcileQueue.
type MockReconcileQueue struct {
	mu     sync.Mutex
	parked []redis.ParkedTransaction

	// Error injection
	ParkError error
}

// NewMockReconcileQueue creates a new mock reconcile queue.
func NewMockReconcileQueue() *MockReconcileQueue {
	return &MockReconcileQueue{}
}

func (m *MockReconcileQueue) Park(ctx context.Context, txn *domain.Transaction) error {
	if m.ParkError != nil {
		return m.ParkError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *txn
	m.parked = append(m.parked, redis.ParkedTransaction{Transaction: &copy, Raw: txn.ID})
	return nil
}

func (m *MockReconcileQueue) Peek(ctx context.Context, n int64) ([]redis.ParkedTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if int64(len(m.parked)) < n {
		n = int64(len(m.parked))
	}
	out := make([]redis.ParkedTransaction, n)
	copy(out, m.parked[:n])
	return out, nil
}

func (m *MockReconcileQueue) Ack(ctx context.Context, p redis.ParkedTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, q := range m.parked {
		if q.Raw == p.Raw {
			m.parked = append(m.parked[:i], m.parked[i+1:]...)
			return nil
		}
	}
	return nil
}

// Len returns the number of parked entries.
func (m *MockReconcileQueue) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.parked)
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStore.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]mockLock
	seq   int

	// Counters
	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error

	// Force lock failure
	ForceAcquireFailure bool
}

type mockLock struct {
	token  string
	expiry time.Time
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]mockLock),
	}
}

func (m *MockLockStore) AcquireJobLock(ctx context.Context, job string, ttl time.Duration) (string, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return "", m.AcquireError
	}
	if m.ForceAcquireFailure {
		return "", nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if held, exists := m.locks[job]; exists && time.Now().Before(held.expiry) {
		return "", nil
	}
	m.seq++
	token := fmt.Sprintf("lock-%d", m.seq)
	m.locks[job] = mockLock{token: token, expiry: time.Now().Add(ttl)}
	return token, nil
}

func (m *MockLockStore) ReleaseJobLock(ctx context.Context, job, token string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if held, exists := m.locks[job]; exists && held.token == token {
		delete(m.locks, job)
	}
	return nil
}

// ──────────────────────────────────────────────
// MOCK PUBLISHER
// ──────────────────────────────────────────────

// PublishedEvent is an event captured by MockPublisher.
type PublishedEvent struct {
	RoutingKey string
	Payload    any
}

// MockPublisher is a mock implementation of broker.Publisher.
type MockPublisher struct {
	mu     sync.Mutex
	events []PublishedEvent

	// Error injection
	PublishError error
}

// NewMockPublisher creates a new mock publisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	if m.PublishError != nil {
		return m.PublishError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, PublishedEvent{RoutingKey: routingKey, Payload: payload})
	return nil
}

func (m *MockPublisher) Close() error { return nil }

// Count returns how many events were published under routingKey.
func (m *MockPublisher) Count(routingKey string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.events {
		if e.RoutingKey == routingKey {
			n++
		}
	}
	return n
}

// Ensure mocks implement interfaces.
var (
	_ repository.CardRepository        = (*MockCardRepository)(nil)
	_ repository.PassengerRepository   = (*MockPassengerRepository)(nil)
	_ repository.BusRepository         = (*MockBusRepository)(nil)
	_ repository.TariffRepository      = (*MockTariffRepository)(nil)
	_ repository.DiscountRepository    = (*MockDiscountRepository)(nil)
	_ repository.PromotionRepository   = (*MockPromotionRepository)(nil)
	_ repository.TransactionRepository = (*MockTransactionRepository)(nil)
	_ redis.SessionStoreInterface      = (*MockSessionStore)(nil)
	_ redis.ReconcileQueueInterface    = (*MockReconcileQueue)(nil)
	_ redis.LockStoreInterface         = (*MockLockStore)(nil)
	_ broker.Publisher                 = (*MockPublisher)(nil)
)
