package service

import (
	"context"
	"time"

	"ridepay/internal/domain"
)

// TopUpService credits passenger balances.
type TopUpService struct {
	ledger       *BalanceLedger
	recorder     *TransactionRecorder
	events       *EventService
	organization string
	clock        func() time.Time
}

// NewTopUpService creates a new TopUpService.
func NewTopUpService(ledger *BalanceLedger, recorder *TransactionRecorder, events *EventService, organization string) *TopUpService {
	return &TopUpService{
		ledger:       ledger,
		recorder:     recorder,
		events:       events,
		organization: organization,
		clock:        time.Now,
	}
}

// TopUpRequest contains the parameters of a balance top-up.
type TopUpRequest struct {
	PassengerID  string
	Amount       float64
	Fee          float64
	Method       string
	Organization string
}

// TopUpResult is the outcome of a top-up.
type TopUpResult struct {
	Transaction   *domain.Transaction
	Balance       float64
	LedgerPending bool
}

// TopUp credits Amount to the passenger. The ledger amount includes the fee.
func (s *TopUpService) TopUp(ctx context.Context, req TopUpRequest) (*TopUpResult, error) {
	if req.PassengerID == "" {
		return nil, ErrInvalidPassengerID
	}
	if req.Amount <= 0 || req.Fee < 0 {
		return nil, ErrInvalidAmount
	}
	if req.Method == "" {
		return nil, ErrInvalidTopUpMethod
	}

	balance, err := s.ledger.Credit(ctx, req.PassengerID, req.Amount)
	if err != nil {
		return nil, err
	}

	organization := req.Organization
	if organization == "" {
		organization = s.organization
	}

	txn := &domain.Transaction{
		Type:          domain.TransactionTypeTopUp,
		Amount:        domain.RoundCents(req.Amount + req.Fee),
		FromPassenger: req.PassengerID,
		Organization:  organization,
		CreatedAt:     s.clock(),
		TopUp: &domain.TopUpDetails{
			Method:      req.Method,
			TopUpAmount: domain.RoundCents(req.Amount),
			Fee:         domain.RoundCents(req.Fee),
		},
	}

	pending := s.recorder.RecordSettled(ctx, txn)
	s.events.TopUpCredited(ctx, txn, balance)

	return &TopUpResult{
		Transaction:   txn,
		Balance:       balance,
		LedgerPending: pending,
	}, nil
}
