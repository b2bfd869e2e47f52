package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order Model
type Order struct {
	ID          uint            `gorm:"primaryKey" json:"id"`                   // Primary key
	UserID      uint            `gorm:"not null;index" json:"userId"`           // Foreign key to the owning User
	TotalAmount decimal.Decimal `gorm:"type:decimal(10,2)" json:"totalAmount"`  // Sum of item price x quantity at creation time
	Status      string          `gorm:"default:pending" json:"status"`          // Order status, only admin-mutable field post-creation
	CreatedAt   time.Time       `json:"createdAt"`                              // Timestamp of creation
	Items       []OrderItem     `gorm:"foreignKey:OrderID" json:"items"`        // Line items, immutable after creation
}

// OrderItem Model
type OrderItem struct {
	ID        uint            `gorm:"primaryKey" json:"id"`             // Primary key
	OrderID   uint            `gorm:"not null;index" json:"orderId"`    // Foreign key to Order
	ProductID uint            `gorm:"not null" json:"productId"`        // Foreign key to Product
	Quantity  int             `gorm:"not null" json:"quantity"`         // Purchased quantity, positive
	Price     decimal.Decimal `gorm:"type:decimal(10,2)" json:"price"`  // Unit price captured at purchase time
	Product   *Product        `json:"product,omitempty"`                // Loaded for order history display
}

// Order status values
const (
	OrderStatusPending    = "pending"    // Awaiting processing
	OrderStatusProcessing = "processing" // Being prepared
	OrderStatusShipped    = "shipped"    // Handed to carrier
	OrderStatusCompleted  = "completed"  // Fulfilled; checkout creates orders in this state
	OrderStatusCancelled  = "cancelled"  // Cancelled by an administrator
)

// ValidOrderStatus reports whether s is one of the known status values
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}
