package domain

import "time"

// User Model
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`         // Primary key
	Name      string    `gorm:"not null" json:"name"`         // Display name
	Email     string    `gorm:"unique;not null" json:"email"` // Unique email address
	Password  string    `gorm:"not null" json:"-"`            // Hashed password, never serialized
	Role      string    `gorm:"default:user" json:"role"`     // Role: user or admin
	CreatedAt time.Time `json:"createdAt"`                    // Timestamp of registration
	UpdatedAt time.Time `json:"updatedAt"`                    // Timestamp of last update
	Orders    []Order   `json:"orders,omitempty"`             // One-to-many relationship with Order
}

// Role values
const (
	RoleUser  = "user"  // Regular customer
	RoleAdmin = "admin" // Back-office administrator
)
