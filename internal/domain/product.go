package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product Model
type Product struct {
	ID          uint            `gorm:"primaryKey" json:"id"`                  // Primary key
	Name        string          `gorm:"not null" json:"name"`                  // Product name
	Description string          `json:"description"`                          // Product description
	Price       decimal.Decimal `gorm:"type:decimal(10,2)" json:"price"`      // Unit price, non-negative
	Stock       int             `gorm:"not null;default:0" json:"stock"`      // Available-to-sell count, never negative
	ImageURL    string          `json:"imageUrl"`                             // Image reference
	CategoryID  *uint           `json:"categoryId"`                           // Optional foreign key to Category
	CreatedAt   time.Time       `json:"createdAt"`                            // Timestamp of creation
	UpdatedAt   time.Time       `json:"updatedAt"`                            // Timestamp of last update
}
