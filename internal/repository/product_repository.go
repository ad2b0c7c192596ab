package repository

import (
	"errors"

	"github.com/emberline/storefront/internal/models"

	"gorm.io/gorm"
)

// ProductRepository is the read side of the price catalog.
type ProductRepository interface {
	GetBySlug(slug string) (*models.Product, error)
	ListBySlugs(slugs []string) ([]models.Product, error)
	ListActive() ([]models.Product, error)
	Create(product *models.Product) error
	WithTx(tx *gorm.DB) *GormProductRepository
}

// GormProductRepository is the GORM implementation.
type GormProductRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a product repository.
func NewProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormProductRepository) WithTx(tx *gorm.DB) *GormProductRepository {
	if tx == nil {
		return r
	}
	return &GormProductRepository{db: tx}
}

// GetBySlug returns one catalog entry, nil when absent.
func (r *GormProductRepository) GetBySlug(slug string) (*models.Product, error) {
	var product models.Product
	err := r.db.Where("slug = ?", slug).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// ListBySlugs returns all catalog entries matching the given slugs.
func (r *GormProductRepository) ListBySlugs(slugs []string) ([]models.Product, error) {
	if len(slugs) == 0 {
		return nil, nil
	}
	var products []models.Product
	if err := r.db.Where("slug IN ?", slugs).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// ListActive returns the listed catalog ordered by sort weight.
func (r *GormProductRepository) ListActive() ([]models.Product, error) {
	var products []models.Product
	if err := r.db.Where("is_active = ?", true).Order("sort_order desc, id asc").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// Create inserts a catalog entry (seed tooling only).
func (r *GormProductRepository) Create(product *models.Product) error {
	if product == nil {
		return nil
	}
	return r.db.Create(product).Error
}
