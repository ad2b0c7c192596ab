package cartstore

import (
	"context"

	"github.com/emberline/storefront/internal/logger"
)

// SetIdentity attaches the authenticated backend after login or
// registration. The guest-to-authenticated transition triggers the merge
// exactly once: guest lines are offered to the backend, and only the lines
// the server reports as migrated leave local storage, so a line that failed
// to migrate is retried on the next transition. An empty guest cart makes
// the merge a no-op. Calling SetIdentity while already authenticated does
// nothing.
func (s *Store) SetIdentity(ctx context.Context, backend Backend) error {
	if backend == nil {
		return nil
	}
	s.mu.Lock()
	if s.backend != nil {
		s.mu.Unlock()
		return nil
	}
	s.backend = backend
	s.queue = newSyncQueue(backend)
	guestItems := append([]LineItem(nil), s.items...)
	s.mu.Unlock()

	if len(guestItems) == 0 {
		return nil
	}

	migrated, err := backend.MergeItems(ctx, guestItems)
	if err != nil {
		// Guest lines stay put; the next transition offers them again.
		logger.Warnw("cartstore_merge_failed", "items", len(guestItems), "error", err)
		return nil
	}

	migratedSet := make(map[string]struct{}, len(migrated))
	for _, id := range migrated {
		migratedSet[id] = struct{}{}
	}

	s.mu.Lock()
	kept := s.items[:0]
	for _, item := range s.items {
		if _, ok := migratedSet[item.ProductID]; !ok {
			kept = append(kept, item)
		}
	}
	s.items = kept
	s.persistLocked()
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	logger.Infow("cartstore_merge_applied",
		"offered", len(guestItems),
		"migrated", len(migrated),
		"kept_local", len(snapshot.Items),
	)
	s.notify(snapshot)
	return nil
}
