package tests

import (
	"context"
	"errors"
	"sync"
	"testing"

	"ridepay/internal/broker"
	"ridepay/internal/domain"
	"ridepay/internal/service"
)

// ──────────────────────────────────────────────
// 3. DISTANCE-FARE TAP-IN / TAP-OUT
// ──────────────────────────────────────────────

func TestDistanceTap_TapInThenTapOut_ChargesTieredFare(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedRider(100)
	f.tariffs.SetDistance("10", "2", "3")
	ctx := context.Background()

	in, err := f.taps.TapDistance(ctx, distanceTap(14.60, 121.00))
	if err != nil {
		t.Fatalf("tap-in: expected no error, got: %v", err)
	}
	if in.Action != service.TapActionTapIn || in.Transaction != nil {
		t.Fatalf("expected tap-in with no charge, got %+v", in)
	}
	if !f.sessions.HasSession("p1") {
		t.Fatal("expected an open session after tap-in")
	}
	if got := f.passengers.Balance("p1"); got != 100 {
		t.Errorf("expected no charge on tap-in, balance %.2f", got)
	}

	out, err := f.taps.TapDistance(ctx, distanceTap(14.70, 121.10))
	if err != nil {
		t.Fatalf("tap-out: expected no error, got: %v", err)
	}

	// ~15.47 km: base 10 + 7 started tiers of 2 km at 3.00.
	if out.Transaction.Amount != 31 {
		t.Errorf("expected fare 31.00, got %.2f", out.Transaction.Amount)
	}
	if got := f.passengers.Balance("p1"); got != 69 {
		t.Errorf("expected balance 69.00, got %.2f", got)
	}
	if f.sessions.HasSession("p1") {
		t.Error("expected session cleared after tap-out")
	}

	d := out.Transaction.Bus
	if d.FareBasis != domain.FareBasisDistanceBased {
		t.Errorf("expected distanceBased, got %s", d.FareBasis)
	}
	if d.DistanceKm != 15.5 {
		t.Errorf("expected recorded distance 15.5 km, got %.1f", d.DistanceKm)
	}
	if d.TapIn == nil || d.TapIn.Lat != 14.60 || d.TapOut == nil || d.TapOut.Lng != 121.10 {
		t.Errorf("expected tap-in/tap-out snapshots, got %+v / %+v", d.TapIn, d.TapOut)
	}
	if d.TierDistance != 2 || d.TierFare != 3 {
		t.Errorf("expected tariff snapshot 2/3, got %v/%v", d.TierDistance, d.TierFare)
	}
	if f.txns.Count() != 1 {
		t.Errorf("expected one ledger entry, got %d", f.txns.Count())
	}
	if f.publisher.Count(broker.EventTapOpened) != 1 || f.publisher.Count(broker.EventFareCharged) != 1 {
		t.Error("expected tap.opened and fare.charged events")
	}
}

func TestDistanceTap_SamePlace_ChargesBaseFare(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedRider(100)
	f.tariffs.SetDistance("10", "2", "3")
	ctx := context.Background()

	if _, err := f.taps.TapDistance(ctx, distanceTap(14.6, 121.0)); err != nil {
		t.Fatalf("tap-in: %v", err)
	}
	out, err := f.taps.TapDistance(ctx, distanceTap(14.6, 121.0))
	if err != nil {
		t.Fatalf("tap-out: %v", err)
	}
	if out.Transaction.Amount != 10 {
		t.Errorf("expected base fare 10.00, got %.2f", out.Transaction.Amount)
	}
}

func TestDistanceTap_ConcurrentTapIn_OneWins(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedRider(100)
	f.tariffs.SetDistance("10", "2", "3")

	var ready sync.WaitGroup
	ready.Add(2)
	f.sessions.AfterGet = func() {
		ready.Done()
		ready.Wait()
	}

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.taps.TapDistance(context.Background(), distanceTap(14.6, 121.0))
		}(i)
	}
	wg.Wait()

	successes, inProgress := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, service.ErrTapInProgress):
			inProgress++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if successes != 1 || inProgress != 1 {
		t.Errorf("expected one tap-in and one ErrTapInProgress, got %d/%d", successes, inProgress)
	}
}

func TestDistanceTap_ConcurrentTapOut_ChargesOnce(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedRider(100)
	f.tariffs.SetDistance("10", "2", "3")

	if _, err := f.taps.TapDistance(context.Background(), distanceTap(14.60, 121.00)); err != nil {
		t.Fatalf("tap-in: %v", err)
	}

	var ready sync.WaitGroup
	ready.Add(2)
	f.sessions.AfterGet = func() {
		ready.Done()
		ready.Wait()
	}

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.taps.TapDistance(context.Background(), distanceTap(14.70, 121.10))
		}(i)
	}
	wg.Wait()

	successes, closed := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, service.ErrTapSessionClosed):
			closed++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if successes != 1 || closed != 1 {
		t.Errorf("expected one charge and one ErrTapSessionClosed, got %d/%d", successes, closed)
	}
	if got := f.passengers.Balance("p1"); got != 69 {
		t.Errorf("expected a single debit to 69.00, got %.2f", got)
	}
	if f.txns.Count() != 1 {
		t.Errorf("expected one ledger entry, got %d", f.txns.Count())
	}
}

func TestDistanceTap_FailureBeforeClaim_LeavesSessionOpen(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedRider(100)
	f.tariffs.SetDistance("10", "2", "3")
	ctx := context.Background()

	if _, err := f.taps.TapDistance(ctx, distanceTap(14.60, 121.00)); err != nil {
		t.Fatalf("tap-in: %v", err)
	}

	f.tariffs.SetDistance("10", "0", "3")
	_, err := f.taps.TapDistance(ctx, distanceTap(14.70, 121.10))
	if !errors.Is(err, service.ErrTariffUnset) {
		t.Fatalf("expected ErrTariffUnset, got: %v", err)
	}
	if !f.sessions.HasSession("p1") {
		t.Fatal("expected session to stay open after a pre-claim failure")
	}

	f.buses.SetDriver("b1", "")
	f.tariffs.SetDistance("10", "2", "3")
	_, err = f.taps.TapDistance(ctx, distanceTap(14.70, 121.10))
	if !errors.Is(err, service.ErrDriverNotFound) {
		t.Fatalf("expected ErrDriverNotFound, got: %v", err)
	}
	if !f.sessions.HasSession("p1") {
		t.Fatal("expected session to stay open after a driver failure")
	}

	f.buses.SetDriver("b1", "d1")
	if _, err := f.taps.TapDistance(ctx, distanceTap(14.70, 121.10)); err != nil {
		t.Fatalf("expected retry to succeed, got: %v", err)
	}
	if f.sessions.HasSession("p1") {
		t.Error("expected session cleared after successful tap-out")
	}
}

func TestDistanceTap_DebitFailureAfterClaim_ClosesTrip(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedRider(5)
	f.tariffs.SetDistance("10", "2", "3")
	ctx := context.Background()

	if _, err := f.taps.TapDistance(ctx, distanceTap(14.60, 121.00)); err != nil {
		t.Fatalf("tap-in: %v", err)
	}

	_, err := f.taps.TapDistance(ctx, distanceTap(14.70, 121.10))
	if !errors.Is(err, service.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got: %v", err)
	}
	if f.sessions.HasSession("p1") {
		t.Error("expected session cleared even though the debit failed")
	}
	if got := f.passengers.Balance("p1"); got != 5 {
		t.Errorf("expected balance unchanged, got %.2f", got)
	}
	if f.txns.Count() != 0 {
		t.Errorf("expected no ledger entry, got %d", f.txns.Count())
	}
}

func TestDistanceTap_InvalidLocation(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		lat, lng float64
	}{
		{name: "latitude too high", lat: 91, lng: 121},
		{name: "latitude too low", lat: -91, lng: 121},
		{name: "longitude too high", lat: 14.6, lng: 181},
		{name: "longitude too low", lat: 14.6, lng: -181},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			f.seedRider(100)
			f.tariffs.SetDistance("10", "2", "3")

			_, err := f.taps.TapDistance(context.Background(), distanceTap(tc.lat, tc.lng))
			if !errors.Is(err, service.ErrInvalidLocation) {
				t.Fatalf("expected ErrInvalidLocation, got: %v", err)
			}
			if f.sessions.OpenCallCount != 0 {
				t.Error("expected no session write for invalid input")
			}
		})
	}
}
