package cartstore

import (
	"context"

	"github.com/emberline/storefront/internal/service"
)

// ServiceBackend adapts the server-side cart service into a Backend bound to
// one authenticated user.
type ServiceBackend struct {
	cart   *service.CartService
	userID uint
}

// NewServiceBackend creates a backend for the given user.
func NewServiceBackend(cart *service.CartService, userID uint) *ServiceBackend {
	return &ServiceBackend{cart: cart, userID: userID}
}

// UpsertItem sets the absolute quantity for one product server-side.
func (b *ServiceBackend) UpsertItem(_ context.Context, productID string, quantity int) error {
	return b.cart.UpsertItem(service.UpsertCartItemInput{
		UserID:      b.userID,
		ProductSlug: productID,
		Quantity:    quantity,
	})
}

// RemoveItem deletes one product's line server-side.
func (b *ServiceBackend) RemoveItem(_ context.Context, productID string) error {
	return b.cart.RemoveItem(b.userID, productID)
}

// Clear empties the server cart.
func (b *ServiceBackend) Clear(_ context.Context) error {
	return b.cart.Clear(b.userID)
}

// MergeItems folds guest lines into the server cart and reports which
// product ids were migrated.
func (b *ServiceBackend) MergeItems(_ context.Context, items []LineItem) ([]string, error) {
	guest := make([]service.GuestCartItem, 0, len(items))
	for _, item := range items {
		guest = append(guest, service.GuestCartItem{
			ProductSlug: item.ProductID,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice,
			ImageRef:    item.ImageRef,
			Quantity:    item.Quantity,
		})
	}
	return b.cart.MergeGuestItems(b.userID, guest)
}
