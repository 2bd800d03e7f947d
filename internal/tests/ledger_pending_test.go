package tests

import (
	"context"
	"errors"
	"testing"

	"ridepay/internal/broker"
	"ridepay/internal/service"
)

// ──────────────────────────────────────────────
// 8. LEDGER APPEND FAILURE AFTER DEBIT
// ──────────────────────────────────────────────

func TestTap_AppendFailsAfterDebit_ParksRecord(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedRider(20)
	f.tariffs.SetFixed("15")
	f.txns.SetAppendError(errors.New("ledger unavailable"))

	res, err := f.taps.TapFixed(context.Background(), fixedTap())
	if err != nil {
		t.Fatalf("expected charge to stand, got: %v", err)
	}

	if !res.LedgerPending {
		t.Error("expected LedgerPending")
	}
	if f.passengers.Balance("p1") != 5 {
		t.Errorf("expected balance debited to 5.00, got %.2f", f.passengers.Balance("p1"))
	}
	if f.reconcile.Len() != 1 {
		t.Errorf("expected 1 parked record, got %d", f.reconcile.Len())
	}
	if f.publisher.Count(broker.EventReconciliationRequired) != 1 {
		t.Error("expected reconciliation event")
	}
	if f.txns.Count() != 0 {
		t.Error("expected nothing in the ledger")
	}
}

func TestTap_AppendAndParkFail_StillReportsPending(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedRider(20)
	f.tariffs.SetFixed("15")
	f.txns.SetAppendError(errors.New("ledger unavailable"))
	f.reconcile.ParkError = errors.New("redis unavailable")

	res, err := f.taps.TapFixed(context.Background(), fixedTap())
	if err != nil {
		t.Fatalf("expected charge to stand, got: %v", err)
	}
	if !res.LedgerPending {
		t.Error("expected LedgerPending")
	}
	if f.publisher.Count(broker.EventReconciliationRequired) != 1 {
		t.Error("expected reconciliation event carrying the record")
	}
}

func TestTopUp_AppendFails_ReportsPending(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedRider(0)
	f.txns.SetAppendError(errors.New("ledger unavailable"))

	res, err := f.topups.TopUp(context.Background(), service.TopUpRequest{PassengerID: "p1", Amount: 20, Method: "cash"})
	if err != nil {
		t.Fatalf("expected credit to stand, got: %v", err)
	}
	if !res.LedgerPending || res.Balance != 20 {
		t.Errorf("expected pending credit of 20.00, got %+v", res)
	}
	if f.reconcile.Len() != 1 {
		t.Errorf("expected 1 parked record, got %d", f.reconcile.Len())
	}
}

func TestTap_ClientCancelAfterDebit_StillRecords(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedRider(20)
	f.tariffs.SetFixed("15")

	ctx, cancel := context.WithCancel(context.Background())
	f.passengers.AfterCAS = cancel

	res, err := f.taps.TapFixed(ctx, fixedTap())
	if err != nil {
		t.Fatalf("expected charge to stand, got: %v", err)
	}
	if res.LedgerPending || f.txns.Count() != 1 {
		t.Errorf("expected durable record, pending=%v count=%d", res.LedgerPending, f.txns.Count())
	}
}
