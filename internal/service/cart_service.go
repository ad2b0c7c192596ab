package service

import (
	"strings"
	"time"

	"github.com/emberline/storefront/internal/logger"
	"github.com/emberline/storefront/internal/models"
	"github.com/emberline/storefront/internal/repository"

	"github.com/shopspring/decimal"
)

// CartView is a read snapshot of a server cart. ItemCount and TotalPrice are
// derived from the line items on every read, never stored.
type CartView struct {
	Items      []models.CartItem `json:"items"`
	ItemCount  int               `json:"item_count"`
	TotalPrice models.Money      `json:"total_price"`
}

// UpsertCartItemInput sets the absolute desired quantity for one product.
type UpsertCartItemInput struct {
	UserID      uint
	ProductSlug string
	Quantity    int
}

// GuestCartItem is a guest line item offered for merging, carrying the
// client-side snapshot fields.
type GuestCartItem struct {
	ProductSlug string       `json:"product_id"`
	ProductName string       `json:"product_name"`
	UnitPrice   models.Money `json:"unit_price"`
	ImageRef    string       `json:"image_ref"`
	Quantity    int          `json:"quantity"`
}

// CartService owns every mutation of server-persisted carts.
type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

// NewCartService creates the cart service.
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// GetByUser returns the user's cart view. A missing cart reads as empty.
func (s *CartService) GetByUser(userID uint) (*CartView, error) {
	if userID == 0 {
		return nil, ErrInvalidCartItem
	}
	cart, err := s.cartRepo.GetByUser(userID)
	if err != nil {
		return nil, err
	}
	view := &CartView{Items: []models.CartItem{}}
	if cart == nil {
		view.TotalPrice = models.NewMoneyFromDecimal(decimal.Zero)
		return view, nil
	}
	items, err := s.cartRepo.ListItems(cart.ID)
	if err != nil {
		return nil, err
	}
	view.Items = items
	view.ItemCount, view.TotalPrice = deriveTotals(items)
	return view, nil
}

// UpsertItem sets the absolute quantity for one product; quantity <= 0 removes
// the line item. The name/price/image snapshot is taken from the catalog at
// write time.
func (s *CartService) UpsertItem(input UpsertCartItemInput) error {
	if input.UserID == 0 || strings.TrimSpace(input.ProductSlug) == "" {
		return ErrInvalidCartItem
	}
	if input.Quantity <= 0 {
		return s.RemoveItem(input.UserID, input.ProductSlug)
	}
	product, err := s.productRepo.GetBySlug(input.ProductSlug)
	if err != nil {
		return err
	}
	if product == nil || !product.IsActive {
		return ErrProductNotAvailable
	}

	cart, err := s.cartRepo.GetOrCreateByUser(input.UserID)
	if err != nil {
		return err
	}
	existing, err := s.cartRepo.GetItemByProduct(cart.ID, input.ProductSlug)
	if err != nil {
		return err
	}
	if existing != nil {
		return s.cartRepo.UpdateItemQuantity(existing.ID, input.Quantity)
	}
	now := time.Now()
	return s.cartRepo.CreateItem(&models.CartItem{
		CartID:      cart.ID,
		ProductSlug: product.Slug,
		ProductName: product.Name,
		UnitPrice:   product.PriceAmount,
		ImageRef:    product.ImageRef(),
		Quantity:    input.Quantity,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

// RemoveItem deletes the line item for one product.
func (s *CartService) RemoveItem(userID uint, productSlug string) error {
	if userID == 0 || strings.TrimSpace(productSlug) == "" {
		return ErrInvalidCartItem
	}
	cart, err := s.cartRepo.GetByUser(userID)
	if err != nil {
		return err
	}
	if cart == nil {
		return nil
	}
	return s.cartRepo.DeleteItemByProduct(cart.ID, productSlug)
}

// Clear removes every line item of the user's cart.
func (s *CartService) Clear(userID uint) error {
	if userID == 0 {
		return ErrInvalidCartItem
	}
	return s.cartRepo.ClearByUser(userID)
}

// MergeGuestItems folds guest line items into the user's server cart. Same
// product: the server quantity is increased by the guest quantity, no
// duplicate row. New product: a row is inserted copying the guest snapshot.
// The returned slugs are the items that were migrated (or discarded as
// invalid); callers remove exactly those from guest storage, so a failed item
// stays client-side and is retried on the next merge trigger.
func (s *CartService) MergeGuestItems(userID uint, items []GuestCartItem) ([]string, error) {
	if userID == 0 {
		return nil, ErrInvalidCartItem
	}
	if len(items) == 0 {
		return nil, nil
	}
	cart, err := s.cartRepo.GetOrCreateByUser(userID)
	if err != nil {
		return nil, err
	}

	migrated := make([]string, 0, len(items))
	for _, guest := range items {
		slug := strings.TrimSpace(guest.ProductSlug)
		if slug == "" || guest.Quantity <= 0 {
			logger.Warnw("cart_merge_item_discarded",
				"user_id", userID,
				"product_id", guest.ProductSlug,
				"quantity", guest.Quantity,
			)
			migrated = append(migrated, guest.ProductSlug)
			continue
		}
		existing, err := s.cartRepo.GetItemByProduct(cart.ID, slug)
		if err != nil {
			logger.Warnw("cart_merge_item_lookup_failed", "user_id", userID, "product_id", slug, "error", err)
			continue
		}
		if existing != nil {
			if err := s.cartRepo.UpdateItemQuantity(existing.ID, existing.Quantity+guest.Quantity); err != nil {
				logger.Warnw("cart_merge_item_update_failed", "user_id", userID, "product_id", slug, "error", err)
				continue
			}
			migrated = append(migrated, slug)
			continue
		}
		now := time.Now()
		item := &models.CartItem{
			CartID:      cart.ID,
			ProductSlug: slug,
			ProductName: guest.ProductName,
			UnitPrice:   guest.UnitPrice,
			ImageRef:    guest.ImageRef,
			Quantity:    guest.Quantity,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.cartRepo.CreateItem(item); err != nil {
			logger.Warnw("cart_merge_item_insert_failed", "user_id", userID, "product_id", slug, "error", err)
			continue
		}
		migrated = append(migrated, slug)
	}
	logger.Infow("cart_merge_applied",
		"user_id", userID,
		"offered", len(items),
		"migrated", len(migrated),
	)
	return migrated, nil
}

func deriveTotals(items []models.CartItem) (int, models.Money) {
	count := 0
	total := decimal.Zero
	for _, item := range items {
		count += item.Quantity
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return count, models.NewMoneyFromDecimal(total)
}
