package models

import (
	"time"

	"gorm.io/gorm"
)

// Order is a durable record of a completed payment. PaymentRef carries the
// provider's unique reference for the payment; the unique index on it is the
// idempotency barrier against duplicate webhook deliveries.
type Order struct {
	ID                 uint           `gorm:"primarykey" json:"id"`
	OrderNo            string         `gorm:"uniqueIndex;not null" json:"order_no"`    // internal order number
	UserID             *uint          `gorm:"index" json:"user_id,omitempty"`          // nil for guest purchases
	PaymentRef         string         `gorm:"uniqueIndex;not null" json:"payment_ref"` // external payment reference
	Status             string         `gorm:"index;not null" json:"status"`
	Currency           string         `gorm:"type:varchar(3);not null" json:"currency"`
	TotalAmount        Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`
	CustomerEmail      string         `gorm:"index;not null" json:"customer_email"`
	CustomerFirstName  string         `gorm:"default:''" json:"customer_first_name"`
	CustomerLastName   string         `gorm:"default:''" json:"customer_last_name"`
	CustomerPhone      string         `gorm:"default:''" json:"customer_phone"`
	ShippingLine1      string         `gorm:"default:''" json:"shipping_line1"`
	ShippingLine2      string         `gorm:"default:''" json:"shipping_line2"`
	ShippingPostalCode string         `gorm:"default:''" json:"shipping_postal_code"`
	ShippingCity       string         `gorm:"default:''" json:"shipping_city"`
	ShippingCountry    string         `gorm:"default:''" json:"shipping_country"`
	DeliveryNote       string         `gorm:"type:text" json:"delivery_note"`
	PaidAt             *time.Time     `gorm:"index" json:"paid_at"`
	CreatedAt          time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"index" json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

// TableName sets the table name.
func (Order) TableName() string {
	return "orders"
}
