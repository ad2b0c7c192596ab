package repository

import (
	"errors"

	"github.com/emberline/storefront/internal/models"

	"gorm.io/gorm"
)

// OrderRepository is the data access surface for durable orders.
type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(id uint) (*models.Order, error)
	GetByPaymentRef(paymentRef string) (*models.Order, error)
	ListByUser(userID uint) ([]models.Order, error)
	UpdateStatus(id uint, status string) error
	WithTx(tx *gorm.DB) *GormOrderRepository
	DB() *gorm.DB
}

// GormOrderRepository is the GORM implementation.
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates an order repository.
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormOrderRepository) WithTx(tx *gorm.DB) *GormOrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

// DB exposes the underlying handle for transaction scoping.
func (r *GormOrderRepository) DB() *gorm.DB {
	return r.db
}

// Create inserts the order together with its line items. A duplicate
// payment_ref surfaces as gorm.ErrDuplicatedKey; callers treat that as an
// idempotent replay, never as data to fix up.
func (r *GormOrderRepository) Create(order *models.Order) error {
	if order == nil {
		return nil
	}
	return r.db.Create(order).Error
}

// GetByID returns one order with items, nil when absent.
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("Items").First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetByPaymentRef returns the order for one external payment reference.
func (r *GormOrderRepository) GetByPaymentRef(paymentRef string) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("Items").Where("payment_ref = ?", paymentRef).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByUser returns the user's orders, newest first.
func (r *GormOrderRepository) ListByUser(userID uint) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Preload("Items").Where("user_id = ?", userID).Order("created_at desc").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatus sets the order status.
func (r *GormOrderRepository) UpdateStatus(id uint, status string) error {
	return r.db.Model(&models.Order{}).Where("id = ?", id).Update("status", status).Error
}
