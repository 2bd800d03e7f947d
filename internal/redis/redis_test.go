package redis

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"ridepay/internal/domain"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func testSession(passengerID string) *domain.TapSession {
	return &domain.TapSession{
		ID:          "sess-1",
		PassengerID: passengerID,
		OpenedAt:    time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC),
		OriginLat:   14.6,
		OriginLng:   121.0,
		BusID:       "bus-1",
		DeviceID:    "dev-1",
	}
}

func TestSessionStore_OpenIsExclusive(t *testing.T) {
	_, client := newTestClient(t)
	store := NewSessionStore(client, time.Hour)
	ctx := context.Background()

	ok, err := store.Open(ctx, testSession("p1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected first open to succeed")
	}

	second := testSession("p1")
	second.ID = "sess-2"
	ok, err = store.Open(ctx, second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected second open to be rejected")
	}

	got, err := store.Get(ctx, "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.ID != "sess-1" {
		t.Errorf("expected stored session sess-1, got %+v", got)
	}
}

func TestSessionStore_GetMissing(t *testing.T) {
	_, client := newTestClient(t)
	store := NewSessionStore(client, time.Hour)

	got, err := store.Get(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil session, got %+v", got)
	}
}

func TestSessionStore_ClaimOnce(t *testing.T) {
	_, client := newTestClient(t)
	store := NewSessionStore(client, time.Hour)
	ctx := context.Background()

	if _, err := store.Open(ctx, testSession("p1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	session, err := store.Get(ctx, "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.Claim(ctx, session)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("expected exactly one claim to win, got %d", wins)
	}

	got, _ := store.Get(ctx, "p1")
	if got != nil {
		t.Errorf("expected session cleared after claim, got %+v", got)
	}
}

func TestSessionStore_ClaimStaleSession(t *testing.T) {
	_, client := newTestClient(t)
	store := NewSessionStore(client, time.Hour)
	ctx := context.Background()

	stale := testSession("p1")
	if _, err := store.Open(ctx, stale); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok, _ := store.Claim(ctx, stale); !ok {
		t.Fatal("expected first claim to win")
	}

	fresh := testSession("p1")
	fresh.ID = "sess-2"
	if _, err := store.Open(ctx, fresh); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ok, err := store.Claim(ctx, stale)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected stale claim to lose")
	}
	if got, _ := store.Get(ctx, "p1"); got == nil || got.ID != "sess-2" {
		t.Errorf("expected fresh session to survive, got %+v", got)
	}
}

func TestSessionStore_Expires(t *testing.T) {
	mr, client := newTestClient(t)
	store := NewSessionStore(client, time.Minute)
	ctx := context.Background()

	if _, err := store.Open(ctx, testSession("p1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	got, err := store.Get(ctx, "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected session to expire, got %+v", got)
	}
}

func TestSnapshotCache_Tariff(t *testing.T) {
	_, client := newTestClient(t)
	cache := NewSnapshotCache(client, time.Minute)
	ctx := context.Background()

	got, err := cache.GetTariff(ctx, domain.FareBasisFixed)
	if err != nil || got != nil {
		t.Fatalf("expected miss, got %+v, %v", got, err)
	}

	fee := "15"
	if err := cache.SetTariff(ctx, &domain.TariffRecord{Kind: domain.FareBasisFixed, Fee: &fee}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err = cache.GetTariff(ctx, domain.FareBasisFixed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.Fee == nil || *got.Fee != "15" {
		t.Errorf("expected cached fee 15, got %+v", got)
	}
}

func TestSnapshotCache_EmptyPromotionListIsAHit(t *testing.T) {
	_, client := newTestClient(t)
	cache := NewSnapshotCache(client, time.Minute)
	ctx := context.Background()

	if err := cache.SetPromotions(ctx, domain.PromotionScopeBus, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	promotions, ok, err := cache.GetPromotions(ctx, domain.PromotionScopeBus)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected cache hit")
	}
	if len(promotions) != 0 {
		t.Errorf("expected no promotions, got %d", len(promotions))
	}
}

func TestLockStore_AcquireRelease(t *testing.T) {
	_, client := newTestClient(t)
	locks := NewLockStore(client)
	ctx := context.Background()

	token, _ := locks.AcquireJobLock(ctx, "reconcile", time.Minute)
	if token == "" {
		t.Fatal("expected lock to be acquired")
	}
	if other, _ := locks.AcquireJobLock(ctx, "reconcile", time.Minute); other != "" {
		t.Fatal("expected lock to be held")
	}
	if err := locks.ReleaseJobLock(ctx, "reconcile", token); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token, _ = locks.AcquireJobLock(ctx, "reconcile", time.Minute); token == "" {
		t.Error("expected lock to be re-acquired after release")
	}
}

func TestLockStore_StaleReleaseKeepsNewHolder(t *testing.T) {
	mr, client := newTestClient(t)
	locks := NewLockStore(client)
	ctx := context.Background()

	first, _ := locks.AcquireJobLock(ctx, "reconcile", time.Minute)
	if first == "" {
		t.Fatal("expected lock to be acquired")
	}

	// The first holder overruns its TTL and a second instance takes over.
	mr.FastForward(2 * time.Minute)
	second, _ := locks.AcquireJobLock(ctx, "reconcile", time.Minute)
	if second == "" || second == first {
		t.Fatalf("expected a fresh token, got %q", second)
	}

	if err := locks.ReleaseJobLock(ctx, "reconcile", first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !mr.Exists("lock:job:reconcile") {
		t.Fatal("expected the second holder's lock to survive a stale release")
	}
	if other, _ := locks.AcquireJobLock(ctx, "reconcile", time.Minute); other != "" {
		t.Error("expected lock to still be held by the second instance")
	}

	if err := locks.ReleaseJobLock(ctx, "reconcile", second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mr.Exists("lock:job:reconcile") {
		t.Error("expected the holder's own release to delete the lock")
	}
}

func TestReconcileQueue_ParkPeekAck(t *testing.T) {
	_, client := newTestClient(t)
	queue := NewReconcileQueue(client)
	ctx := context.Background()

	for _, id := range []string{"RP-1", "RP-2"} {
		txn := &domain.Transaction{ID: id, Type: domain.TransactionTypeBus, Amount: 15, FromPassenger: "p1"}
		if err := queue.Park(ctx, txn); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	parked, err := queue.Peek(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(parked) != 2 || parked[0].Transaction.ID != "RP-1" {
		t.Fatalf("expected two entries oldest first, got %+v", parked)
	}

	if err := queue.Ack(ctx, parked[0]); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	n, _ := queue.Len(ctx)
	if n != 1 {
		t.Errorf("expected 1 entry left, got %d", n)
	}
}
