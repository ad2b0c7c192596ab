package cartstore

import (
	"context"
	"sync"
	"time"

	"github.com/emberline/storefront/internal/logger"
)

// Backend is the server half of the cart as seen by the client store. All
// mutations express desired state (absolute quantities), so replaying one
// after a failure is always safe.
type Backend interface {
	UpsertItem(ctx context.Context, productID string, quantity int) error
	RemoveItem(ctx context.Context, productID string) error
	Clear(ctx context.Context) error
	// MergeItems offers guest lines for migration and returns the product ids
	// that were migrated (or discarded as invalid) server-side.
	MergeItems(ctx context.Context, items []LineItem) ([]string, error)
}

const syncOpTimeout = 5 * time.Second

// syncOp is one desired-state diff awaiting reconciliation.
type syncOp struct {
	name      string
	productID string
	apply     func(ctx context.Context, b Backend) error
}

// syncQueue applies ops to the backend strictly in order from a single
// worker goroutine. A failed op stays at the head and the queue stalls until
// the next mutation or an explicit flush kicks a retry; failures are logged,
// never surfaced to the caller.
type syncQueue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending []syncOp
	stalled bool
	closed  bool
	backend Backend
}

func newSyncQueue(backend Backend) *syncQueue {
	q := &syncQueue{backend: backend}
	q.cond = sync.NewCond(&q.mu)
	go q.run()
	return q
}

func (q *syncQueue) enqueue(op syncOp) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.pending = append(q.pending, op)
	q.stalled = false
	q.cond.Broadcast()
	q.mu.Unlock()
}

// flush kicks a retry of anything pending and waits for the queue to drain.
// A renewed failure stalls the queue again and flush returns without error;
// reconciliation problems are never the caller's problem.
func (q *syncQueue) flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		q.mu.Lock()
		q.stalled = false
		q.cond.Broadcast()
		for !q.closed && len(q.pending) > 0 && !q.stalled {
			q.cond.Wait()
		}
		q.mu.Unlock()
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *syncQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.cond.Broadcast()
	q.mu.Unlock()
}

func (q *syncQueue) run() {
	q.mu.Lock()
	for {
		for !q.closed && (len(q.pending) == 0 || q.stalled) {
			q.cond.Wait()
		}
		if q.closed {
			q.mu.Unlock()
			return
		}
		op := q.pending[0]
		q.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), syncOpTimeout)
		err := op.apply(ctx, q.backend)
		cancel()

		q.mu.Lock()
		if err != nil {
			logger.Warnw("cartstore_sync_failed",
				"op", op.name,
				"product_id", op.productID,
				"error", err,
			)
			q.stalled = true
			q.cond.Broadcast()
			continue
		}
		// Only the worker removes ops, so the head is still ours.
		q.pending = q.pending[1:]
		q.cond.Broadcast()
	}
}

// Flush forces pending write-throughs out before an operation that needs the
// server cart current, such as checkout.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	queue := s.queue
	s.mu.Unlock()
	if queue == nil {
		return nil
	}
	return queue.flush(ctx)
}

func (s *Store) enqueueUpsertLocked(productID string, quantity int) {
	if s.queue == nil {
		return
	}
	s.queue.enqueue(syncOp{
		name:      "upsert",
		productID: productID,
		apply: func(ctx context.Context, b Backend) error {
			return b.UpsertItem(ctx, productID, quantity)
		},
	})
}

func (s *Store) enqueueRemoveLocked(productID string) {
	if s.queue == nil {
		return
	}
	s.queue.enqueue(syncOp{
		name:      "remove",
		productID: productID,
		apply: func(ctx context.Context, b Backend) error {
			return b.RemoveItem(ctx, productID)
		},
	})
}

func (s *Store) enqueueClearLocked() {
	if s.queue == nil {
		return
	}
	s.queue.enqueue(syncOp{
		name: "clear",
		apply: func(ctx context.Context, b Backend) error {
			return b.Clear(ctx)
		},
	})
}
