package models

import (
	"time"

	"gorm.io/gorm"
)

// Product is the authoritative price catalog entry. Checkout never trusts a
// price that did not come from this table.
type Product struct {
	ID            uint           `gorm:"primarykey" json:"id"`                                      // primary key
	Slug          string         `gorm:"uniqueIndex;not null" json:"slug"`                          // public product identifier
	Name          string         `gorm:"not null" json:"name"`                                      // display name
	Description   string         `gorm:"type:text" json:"description"`                              // long description
	PriceAmount   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price_amount"` // authoritative unit price
	PriceCurrency string         `gorm:"type:varchar(3);not null;default:'EUR'" json:"price_currency"`
	Images        StringArray    `gorm:"type:json" json:"images"`             // image refs
	Tags          StringArray    `gorm:"type:json" json:"tags"`               // tags
	IsActive      bool           `gorm:"default:true;index" json:"is_active"` // listed or not
	SortOrder     int            `gorm:"default:0;index" json:"sort_order"`   // sort weight
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName sets the table name.
func (Product) TableName() string {
	return "products"
}

// ImageRef returns the primary image, empty when none is set.
func (p *Product) ImageRef() string {
	if p == nil || len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
