package tests

import (
	"context"
	"errors"
	"testing"

	"ridepay/internal/broker"
	"ridepay/internal/domain"
	"ridepay/internal/service"
)

// ──────────────────────────────────────────────
// 6. TOP-UP
// ──────────────────────────────────────────────

func TestTopUp_CreditsAmountAndRecordsFee(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedRider(10)

	res, err := f.topups.TopUp(context.Background(), service.TopUpRequest{
		PassengerID: "p1",
		Amount:      100,
		Fee:         5,
		Method:      "cash",
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if res.Balance != 110 || f.passengers.Balance("p1") != 110 {
		t.Errorf("expected balance 110.00, got %.2f / %.2f", res.Balance, f.passengers.Balance("p1"))
	}
	txn := res.Transaction
	if txn.Type != domain.TransactionTypeTopUp || txn.Amount != 105 {
		t.Errorf("expected topup record of 105.00, got %s %.2f", txn.Type, txn.Amount)
	}
	if txn.TopUp.TopUpAmount != 100 || txn.TopUp.Fee != 5 || txn.TopUp.Method != "cash" {
		t.Errorf("unexpected topup details: %+v", txn.TopUp)
	}
	if txn.Organization != testOrganization {
		t.Errorf("expected default organization, got %q", txn.Organization)
	}
	if res.LedgerPending {
		t.Error("expected ledger record to be durable")
	}
	if f.txns.Count() != 1 {
		t.Errorf("expected 1 record, got %d", f.txns.Count())
	}
	if f.publisher.Count(broker.EventTopUpCredited) != 1 {
		t.Error("expected topup.credited event")
	}
}

func TestTopUp_OrganizationOverride(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedRider(0)

	res, err := f.topups.TopUp(context.Background(), service.TopUpRequest{
		PassengerID:  "p1",
		Amount:       50,
		Method:       "gcash",
		Organization: "Coop 2",
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if res.Transaction.Organization != "Coop 2" {
		t.Errorf("expected Coop 2, got %q", res.Transaction.Organization)
	}
}

func TestTopUp_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		req  service.TopUpRequest
		want error
	}{
		{"missing passenger id", service.TopUpRequest{Amount: 10, Method: "cash"}, service.ErrInvalidPassengerID},
		{"zero amount", service.TopUpRequest{PassengerID: "p1", Method: "cash"}, service.ErrInvalidAmount},
		{"negative fee", service.TopUpRequest{PassengerID: "p1", Amount: 10, Fee: -1, Method: "cash"}, service.ErrInvalidAmount},
		{"missing method", service.TopUpRequest{PassengerID: "p1", Amount: 10}, service.ErrInvalidTopUpMethod},
		{"unknown passenger", service.TopUpRequest{PassengerID: "ghost", Amount: 10, Method: "cash"}, service.ErrPassengerNotFound},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			f.seedRider(10)

			_, err := f.topups.TopUp(context.Background(), tt.req)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got: %v", tt.want, err)
			}
			if f.passengers.Balance("p1") != 10 {
				t.Error("expected balance unchanged")
			}
			if f.txns.Count() != 0 {
				t.Error("expected no record")
			}
		})
	}
}
