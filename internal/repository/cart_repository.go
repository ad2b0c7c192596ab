package repository

import (
	"errors"

	"github.com/emberline/storefront/internal/models"

	"gorm.io/gorm"
)

// CartRepository is the data access surface for server-persisted carts.
type CartRepository interface {
	GetByUser(userID uint) (*models.Cart, error)
	GetOrCreateByUser(userID uint) (*models.Cart, error)
	ListItems(cartID uint) ([]models.CartItem, error)
	GetItemByProduct(cartID uint, productSlug string) (*models.CartItem, error)
	CreateItem(item *models.CartItem) error
	UpdateItemQuantity(itemID uint, quantity int) error
	DeleteItemByProduct(cartID uint, productSlug string) error
	ClearByUser(userID uint) error
	WithTx(tx *gorm.DB) *GormCartRepository
}

// GormCartRepository is the GORM implementation.
type GormCartRepository struct {
	db *gorm.DB
}

// NewCartRepository creates a cart repository.
func NewCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormCartRepository) WithTx(tx *gorm.DB) *GormCartRepository {
	if tx == nil {
		return r
	}
	return &GormCartRepository{db: tx}
}

// GetByUser returns the user's cart, nil when it does not exist yet.
func (r *GormCartRepository) GetByUser(userID uint) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.Where("user_id = ?", userID).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// GetOrCreateByUser returns the user's cart, creating the row lazily on first
// write. A concurrent create loses the unique-index race and re-reads.
func (r *GormCartRepository) GetOrCreateByUser(userID uint) (*models.Cart, error) {
	cart, err := r.GetByUser(userID)
	if err != nil {
		return nil, err
	}
	if cart != nil {
		return cart, nil
	}
	created := models.Cart{UserID: userID}
	err = r.db.Create(&created).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return r.GetByUser(userID)
	}
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// ListItems returns the cart's line items, most recently touched first.
func (r *GormCartRepository) ListItems(cartID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.db.Where("cart_id = ?", cartID).Order("updated_at desc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// GetItemByProduct returns the line item for one product, nil when absent.
func (r *GormCartRepository) GetItemByProduct(cartID uint, productSlug string) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.Where("cart_id = ? AND product_slug = ?", cartID, productSlug).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateItem inserts a line item.
func (r *GormCartRepository) CreateItem(item *models.CartItem) error {
	if item == nil {
		return nil
	}
	return r.db.Create(item).Error
}

// UpdateItemQuantity sets the absolute quantity of a line item.
func (r *GormCartRepository) UpdateItemQuantity(itemID uint, quantity int) error {
	return r.db.Model(&models.CartItem{}).Where("id = ?", itemID).Update("quantity", quantity).Error
}

// DeleteItemByProduct removes the line item for one product.
func (r *GormCartRepository) DeleteItemByProduct(cartID uint, productSlug string) error {
	return r.db.Where("cart_id = ? AND product_slug = ?", cartID, productSlug).Delete(&models.CartItem{}).Error
}

// ClearByUser removes every line item of the user's cart. The cart row itself
// is kept; an empty cart and a missing cart are equivalent to callers.
func (r *GormCartRepository) ClearByUser(userID uint) error {
	cart, err := r.GetByUser(userID)
	if err != nil {
		return err
	}
	if cart == nil {
		return nil
	}
	return r.db.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error
}
