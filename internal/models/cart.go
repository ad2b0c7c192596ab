package models

import (
	"time"

	"gorm.io/gorm"
)

// Cart is the server-persisted cart of one authenticated identity. A user has
// at most one cart; it is created lazily on the first write.
type Cart struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	UserID    uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"index" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Items []CartItem `gorm:"foreignKey:CartID" json:"items,omitempty"`
}

// TableName sets the table name.
func (Cart) TableName() string {
	return "carts"
}
