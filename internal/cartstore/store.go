// Package cartstore is the client half of the cart: a local-first store that
// answers reads instantly from its own state and reconciles mutations with
// the server cart through an in-order background queue. Guest sessions run
// with no backend at all; their lines live only in local storage until the
// identity transition merges them server-side.
package cartstore

import (
	"errors"
	"strings"
	"sync"

	"github.com/emberline/storefront/internal/constants"
	"github.com/emberline/storefront/internal/logger"
	"github.com/emberline/storefront/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidProduct means the product reference is unusable.
	ErrInvalidProduct = errors.New("product reference is invalid")
	// ErrInvalidQuantity means the quantity is not a positive integer.
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
)

// LineItem is one cart line. Guest lines carry a "local-" prefixed id; lines
// mirrored from the server keep their server identity.
type LineItem struct {
	ID          string       `json:"id"`
	ProductID   string       `json:"product_id"`
	ProductName string       `json:"product_name"`
	UnitPrice   models.Money `json:"unit_price"`
	ImageRef    string       `json:"image_ref"`
	Quantity    int          `json:"quantity"`
}

// Product is the catalog view AddItem snapshots from.
type Product struct {
	ID        string
	Name      string
	UnitPrice models.Money
	ImageRef  string
}

// Snapshot is an immutable read of the store handed to subscribers.
type Snapshot struct {
	Items      []LineItem
	ItemCount  int
	TotalPrice models.Money
}

// Store holds the client cart. Every mutation applies locally first and
// returns synchronously; with a backend attached the mutation also enqueues a
// desired-state diff for the reconciliation worker. Construct one Store per
// client session.
type Store struct {
	mu      sync.Mutex
	items   []LineItem
	storage Storage
	backend Backend
	queue   *syncQueue

	subMu sync.Mutex
	subs  map[int]func(Snapshot)
	nextSub int
}

// NewStore creates a store over guest storage. Previously persisted guest
// lines are loaded; a broken storage read starts empty rather than failing
// the session.
func NewStore(storage Storage) *Store {
	s := &Store{
		storage: storage,
		subs:    make(map[int]func(Snapshot)),
	}
	if storage != nil {
		items, err := storage.Load()
		if err != nil {
			logger.Warnw("cartstore_load_failed", "error", err)
		} else {
			s.items = items
		}
	}
	return s
}

// AddItem adds quantity of a product. An existing line for the same product
// is incremented; no duplicate line is ever created.
func (s *Store) AddItem(product Product, quantity int) error {
	if strings.TrimSpace(product.ID) == "" {
		return ErrInvalidProduct
	}
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	s.mu.Lock()
	absolute := quantity
	if idx := s.findByProduct(product.ID); idx >= 0 {
		s.items[idx].Quantity += quantity
		absolute = s.items[idx].Quantity
	} else {
		s.items = append(s.items, LineItem{
			ID:          constants.LocalItemIDPrefix + uuid.NewString(),
			ProductID:   product.ID,
			ProductName: product.Name,
			UnitPrice:   product.UnitPrice,
			ImageRef:    product.ImageRef,
			Quantity:    quantity,
		})
	}
	s.persistLocked()
	s.enqueueUpsertLocked(product.ID, absolute)
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snapshot)
	return nil
}

// UpdateQuantity sets the absolute quantity of a line. Zero or negative
// removes it.
func (s *Store) UpdateQuantity(itemID string, quantity int) error {
	s.mu.Lock()
	idx := s.findByID(itemID)
	if idx < 0 {
		s.mu.Unlock()
		return nil
	}
	productID := s.items[idx].ProductID
	if quantity <= 0 {
		s.items = append(s.items[:idx], s.items[idx+1:]...)
		s.persistLocked()
		s.enqueueRemoveLocked(productID)
	} else {
		s.items[idx].Quantity = quantity
		s.persistLocked()
		s.enqueueUpsertLocked(productID, quantity)
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snapshot)
	return nil
}

// RemoveItem deletes one line. Removing an absent line is a no-op.
func (s *Store) RemoveItem(itemID string) error {
	return s.UpdateQuantity(itemID, 0)
}

// ClearCart empties the cart.
func (s *Store) ClearCart() error {
	s.mu.Lock()
	s.items = nil
	s.persistLocked()
	s.enqueueClearLocked()
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snapshot)
	return nil
}

// Items returns a copy of the current lines.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]LineItem(nil), s.items...)
}

// ItemCount derives the total quantity across lines.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, item := range s.items {
		count += item.Quantity
	}
	return count
}

// TotalPrice derives the cart total. Always recomputed, never cached.
func (s *Store) TotalPrice() models.Money {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deriveTotal(s.items)
}

// Subscribe registers a listener called after every mutation with a fresh
// snapshot. The returned function unsubscribes.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// Close stops the reconciliation worker, flushing nothing.
func (s *Store) Close() {
	s.mu.Lock()
	queue := s.queue
	s.queue = nil
	s.backend = nil
	s.mu.Unlock()
	if queue != nil {
		queue.close()
	}
}

func (s *Store) findByProduct(productID string) int {
	for i, item := range s.items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

func (s *Store) findByID(itemID string) int {
	for i, item := range s.items {
		if item.ID == itemID {
			return i
		}
	}
	return -1
}

func (s *Store) persistLocked() {
	if s.storage == nil {
		return
	}
	if err := s.storage.Save(append([]LineItem(nil), s.items...)); err != nil {
		// Local persistence is best effort; the in-memory state stands.
		logger.Warnw("cartstore_persist_failed", "error", err)
	}
}

func (s *Store) snapshotLocked() Snapshot {
	items := append([]LineItem(nil), s.items...)
	count := 0
	for _, item := range items {
		count += item.Quantity
	}
	return Snapshot{
		Items:      items,
		ItemCount:  count,
		TotalPrice: deriveTotal(items),
	}
}

func (s *Store) notify(snapshot Snapshot) {
	s.subMu.Lock()
	listeners := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		listeners = append(listeners, fn)
	}
	s.subMu.Unlock()
	for _, fn := range listeners {
		fn(snapshot)
	}
}

func deriveTotal(items []LineItem) models.Money {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return models.NewMoneyFromDecimal(total)
}
