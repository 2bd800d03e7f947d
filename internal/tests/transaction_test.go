package tests

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"ridepay/internal/domain"
	"ridepay/internal/service"
)

// ──────────────────────────────────────────────
// 7. TRANSACTION RECORDS
// ──────────────────────────────────────────────

func TestRecorder_IDsArePrefixedUniqueAndIncreasing(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	seen := make(map[string]bool)
	var last int64
	for i := 0; i < 1000; i++ {
		id := f.recorder.NewID()
		if !strings.HasPrefix(id, "RP-") {
			t.Fatalf("expected RP- prefix, got %q", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true

		n, err := strconv.ParseInt(strings.TrimPrefix(id, "RP-"), 10, 64)
		if err != nil {
			t.Fatalf("expected numeric suffix, got %q", id)
		}
		if n <= last {
			t.Fatalf("expected increasing ids, %d after %d", n, last)
		}
		last = n
	}
}

func TestRecorder_CreateCardSale(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	txn, err := f.recorder.Create(context.Background(), &domain.Transaction{
		Type:          domain.TransactionTypeCard,
		Amount:        150,
		FromPassenger: "p1",
		Card: &domain.CardDetails{
			IssuedCardID: "c9",
			Price:        140,
			Fee:          10,
			Location:     "Terminal 1",
		},
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if txn.ID == "" || txn.CreatedAt.IsZero() {
		t.Errorf("expected stamped record, got %+v", txn)
	}

	stored, err := f.recorder.Get(context.Background(), txn.ID)
	if err != nil {
		t.Fatalf("expected stored record, got: %v", err)
	}
	if stored.Card.IssuedCardID != "c9" {
		t.Errorf("unexpected stored record: %+v", stored)
	}
}

func TestRecorder_CreateRejectsMalformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		txn  *domain.Transaction
	}{
		{"unknown type", &domain.Transaction{Type: "refund", FromPassenger: "p1"}},
		{"missing passenger", &domain.Transaction{Type: domain.TransactionTypeTopUp, TopUp: &domain.TopUpDetails{Method: "cash", TopUpAmount: 1}}},
		{"negative amount", &domain.Transaction{Type: domain.TransactionTypeTopUp, FromPassenger: "p1", Amount: -1, TopUp: &domain.TopUpDetails{Method: "cash", TopUpAmount: 1}}},
		{"bus without details", &domain.Transaction{Type: domain.TransactionTypeBus, FromPassenger: "p1"}},
		{"bus missing driver", &domain.Transaction{Type: domain.TransactionTypeBus, FromPassenger: "p1", Bus: &domain.BusDetails{BusID: "b1", DeviceID: "dev1", FareBasis: domain.FareBasisFixed}}},
		{"topup with card details", &domain.Transaction{Type: domain.TransactionTypeTopUp, FromPassenger: "p1", TopUp: &domain.TopUpDetails{Method: "cash", TopUpAmount: 1}, Card: &domain.CardDetails{}}},
		{"topup zero amount", &domain.Transaction{Type: domain.TransactionTypeTopUp, FromPassenger: "p1", TopUp: &domain.TopUpDetails{Method: "cash"}}},
		{"card missing location", &domain.Transaction{Type: domain.TransactionTypeCard, FromPassenger: "p1", Card: &domain.CardDetails{IssuedCardID: "c9"}}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			_, err := f.recorder.Create(context.Background(), tt.txn)
			if !errors.Is(err, service.ErrInvalidTransaction) {
				t.Fatalf("expected ErrInvalidTransaction, got: %v", err)
			}
			if f.txns.Count() != 0 {
				t.Error("expected nothing appended")
			}
		})
	}
}

func TestRecorder_ListFiltersNewestFirst(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	for i, pid := range []string{"p1", "p2", "p1"} {
		_, err := f.recorder.Create(ctx, &domain.Transaction{
			Type:          domain.TransactionTypeTopUp,
			Amount:        10,
			FromPassenger: pid,
			CreatedAt:     base.Add(time.Duration(i) * time.Hour),
			TopUp:         &domain.TopUpDetails{Method: "cash", TopUpAmount: 10},
		})
		if err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}

	got, err := f.recorder.List(ctx, domain.TransactionFilter{PassengerID: "p1"})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if !got[0].CreatedAt.After(got[1].CreatedAt) {
		t.Error("expected newest first")
	}

	got, err = f.recorder.List(ctx, domain.TransactionFilter{Start: base.Add(30 * time.Minute), End: base.Add(90 * time.Minute)})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(got) != 1 || got[0].FromPassenger != "p2" {
		t.Errorf("expected only the p2 record in range, got %d", len(got))
	}

	_, err = f.recorder.List(ctx, domain.TransactionFilter{Start: base, End: base.Add(-time.Hour)})
	if !errors.Is(err, service.ErrInvalidTransaction) {
		t.Errorf("expected ErrInvalidTransaction for inverted range, got: %v", err)
	}
}

func TestRecorder_GetRequiresID(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	if _, err := f.recorder.Get(context.Background(), ""); !errors.Is(err, service.ErrInvalidTransactionID) {
		t.Errorf("expected ErrInvalidTransactionID, got: %v", err)
	}
}
