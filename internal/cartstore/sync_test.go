package cartstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeBackend records reconciliation calls and can be told to fail.
type fakeBackend struct {
	mu         sync.Mutex
	failing    bool
	calls      []string
	quantities map[string]int
	merged     []string
	mergeCalls int
	mergeErr   error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{quantities: map[string]int{}}
}

func (f *fakeBackend) setFailing(failing bool) {
	f.mu.Lock()
	f.failing = failing
	f.mu.Unlock()
}

func (f *fakeBackend) UpsertItem(ctx context.Context, productID string, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errors.New("backend unavailable")
	}
	f.calls = append(f.calls, "upsert:"+productID)
	f.quantities[productID] = quantity
	return nil
}

func (f *fakeBackend) RemoveItem(ctx context.Context, productID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errors.New("backend unavailable")
	}
	f.calls = append(f.calls, "remove:"+productID)
	delete(f.quantities, productID)
	return nil
}

func (f *fakeBackend) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errors.New("backend unavailable")
	}
	f.calls = append(f.calls, "clear")
	f.quantities = map[string]int{}
	return nil
}

func (f *fakeBackend) MergeItems(ctx context.Context, items []LineItem) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mergeCalls++
	if f.mergeErr != nil {
		return nil, f.mergeErr
	}
	if f.merged != nil {
		return f.merged, nil
	}
	migrated := make([]string, 0, len(items))
	for _, item := range items {
		migrated = append(migrated, item.ProductID)
	}
	return migrated, nil
}

func (f *fakeBackend) snapshotCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeBackend) quantity(productID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.quantities[productID]
}

func authenticatedStore(t *testing.T, backend Backend) *Store {
	t.Helper()
	store := NewStore(NewMemoryStorage())
	if err := store.SetIdentity(context.Background(), backend); err != nil {
		t.Fatalf("set identity failed: %v", err)
	}
	return store
}

func TestMutationsReconcileInOrder(t *testing.T) {
	backend := newFakeBackend()
	store := authenticatedStore(t, backend)
	defer store.Close()

	if err := store.AddItem(brasero(), 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := store.AddItem(brasero(), 2); err != nil {
		t.Fatalf("second add failed: %v", err)
	}
	if err := store.AddItem(rainCover(), 1); err != nil {
		t.Fatalf("third add failed: %v", err)
	}
	if err := store.Flush(context.Background()); err != nil {
		t.Fatalf("flush failed: %v", err)
	}

	calls := backend.snapshotCalls()
	want := []string{"upsert:brasero-80", "upsert:brasero-80", "upsert:rain-cover-80"}
	if len(calls) != len(want) {
		t.Fatalf("expected %d calls, got %v", len(want), calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("call %d: want %s got %s", i, want[i], calls[i])
		}
	}
	// Ops carry absolute desired quantities, so the last write wins cleanly.
	if got := backend.quantity("brasero-80"); got != 3 {
		t.Fatalf("expected server quantity 3, got %d", got)
	}
}

func TestSyncFailureIsSwallowedAndRetriedOnFlush(t *testing.T) {
	backend := newFakeBackend()
	backend.setFailing(true)
	store := authenticatedStore(t, backend)
	defer store.Close()

	// The local mutation succeeds even though the backend is down.
	if err := store.AddItem(brasero(), 2); err != nil {
		t.Fatalf("add during outage failed: %v", err)
	}
	if store.Items()[0].Quantity != 2 {
		t.Fatalf("local state must apply regardless of backend health")
	}

	// Give the worker a chance to hit the failure and stall.
	deadlineCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := store.Flush(deadlineCtx); err != nil {
		t.Fatalf("flush during outage failed: %v", err)
	}
	if got := backend.quantity("brasero-80"); got != 0 {
		t.Fatalf("stalled op must not have applied, got quantity %d", got)
	}

	backend.setFailing(false)
	if err := store.Flush(context.Background()); err != nil {
		t.Fatalf("flush after recovery failed: %v", err)
	}
	if got := backend.quantity("brasero-80"); got != 2 {
		t.Fatalf("expected retried op to apply, got quantity %d", got)
	}
}

func TestSetIdentityMergesGuestLines(t *testing.T) {
	backend := newFakeBackend()
	store := NewStore(NewMemoryStorage())
	defer store.Close()
	if err := store.AddItem(brasero(), 2); err != nil {
		t.Fatalf("guest add failed: %v", err)
	}
	if err := store.AddItem(rainCover(), 1); err != nil {
		t.Fatalf("second guest add failed: %v", err)
	}

	if err := store.SetIdentity(context.Background(), backend); err != nil {
		t.Fatalf("set identity failed: %v", err)
	}
	if backend.mergeCalls != 1 {
		t.Fatalf("expected one merge call, got %d", backend.mergeCalls)
	}
	if len(store.Items()) != 0 {
		t.Fatalf("migrated lines must leave local storage, got %+v", store.Items())
	}
}

func TestSetIdentityKeepsUnmigratedLines(t *testing.T) {
	backend := newFakeBackend()
	backend.merged = []string{"brasero-80"}
	store := NewStore(NewMemoryStorage())
	defer store.Close()
	if err := store.AddItem(brasero(), 2); err != nil {
		t.Fatalf("guest add failed: %v", err)
	}
	if err := store.AddItem(rainCover(), 1); err != nil {
		t.Fatalf("second guest add failed: %v", err)
	}

	if err := store.SetIdentity(context.Background(), backend); err != nil {
		t.Fatalf("set identity failed: %v", err)
	}
	items := store.Items()
	if len(items) != 1 || items[0].ProductID != "rain-cover-80" {
		t.Fatalf("only migrated lines may leave local storage, got %+v", items)
	}
}

func TestSetIdentityMergeFailureKeepsGuestLines(t *testing.T) {
	backend := newFakeBackend()
	backend.mergeErr = errors.New("merge unavailable")
	store := NewStore(NewMemoryStorage())
	defer store.Close()
	if err := store.AddItem(brasero(), 2); err != nil {
		t.Fatalf("guest add failed: %v", err)
	}

	if err := store.SetIdentity(context.Background(), backend); err != nil {
		t.Fatalf("set identity must swallow merge failures, got: %v", err)
	}
	if len(store.Items()) != 1 {
		t.Fatalf("guest lines must survive a failed merge, got %+v", store.Items())
	}
}

func TestSetIdentityEmptyGuestCartSkipsMerge(t *testing.T) {
	backend := newFakeBackend()
	store := NewStore(NewMemoryStorage())
	defer store.Close()

	if err := store.SetIdentity(context.Background(), backend); err != nil {
		t.Fatalf("set identity failed: %v", err)
	}
	if backend.mergeCalls != 0 {
		t.Fatalf("empty guest cart must not trigger a merge, got %d calls", backend.mergeCalls)
	}
}

func TestSetIdentityIsIdempotent(t *testing.T) {
	backend := newFakeBackend()
	store := NewStore(NewMemoryStorage())
	defer store.Close()
	if err := store.AddItem(brasero(), 1); err != nil {
		t.Fatalf("guest add failed: %v", err)
	}

	if err := store.SetIdentity(context.Background(), backend); err != nil {
		t.Fatalf("first set identity failed: %v", err)
	}
	if err := store.SetIdentity(context.Background(), backend); err != nil {
		t.Fatalf("second set identity failed: %v", err)
	}
	if backend.mergeCalls != 1 {
		t.Fatalf("expected exactly one merge, got %d", backend.mergeCalls)
	}
}
