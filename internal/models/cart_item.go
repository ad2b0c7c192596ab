package models

import (
	"time"
)

// CartItem is one line of a server cart. The composite unique index enforces
// at most one row per product within a cart; merges increment the quantity
// instead of inserting duplicates. Deletes are hard: a soft-deleted row would
// keep its (cart_id, product_slug) key in the unique index and block the
// product from ever being re-added.
type CartItem struct {
	ID          uint      `gorm:"primarykey" json:"id"`                                         // server-assigned line id
	CartID      uint      `gorm:"not null;uniqueIndex:idx_cart_item_product" json:"cart_id"`    // owning cart
	ProductSlug string    `gorm:"not null;uniqueIndex:idx_cart_item_product" json:"product_id"` // catalog identifier
	ProductName string    `gorm:"not null" json:"product_name"`                                 // denormalized name snapshot
	UnitPrice   Money     `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`      // price snapshot
	ImageRef    string    `gorm:"type:varchar(500)" json:"image_ref"`                           // image snapshot
	Quantity    int       `gorm:"not null" json:"quantity"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `gorm:"index" json:"updated_at"`
}

// TableName sets the table name.
func (CartItem) TableName() string {
	return "cart_items"
}
