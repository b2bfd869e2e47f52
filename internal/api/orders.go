package api

import (
	"context"  // Context for Redis operations
	"errors"   // Error inspection
	"net/http" // HTTP status codes

	"shopstore/internal/checkout" // The checkout core
	"shopstore/internal/domain"   // Importing domain models
	"shopstore/internal/utils"    // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// CheckoutRequest represents a checkout submission: the client assembles the
// full cart and submits it as one line-item list
type CheckoutRequest struct {
	Items []checkout.LineItem `json:"items" binding:"required"` // Line items to purchase
}

// CheckoutHandler runs the checkout orchestrator and maps its error taxonomy
// onto the HTTP surface
func CheckoutHandler(svc *checkout.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req CheckoutRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "A valid item list is required"})
			return
		}
		// Execute the checkout; all stock and order writes happen atomically
		order, err := svc.Checkout(c.Request.Context(), checkout.Identity{UserID: userID.(uint)}, req.Items)
		if err != nil {
			var notFound *checkout.ProductNotFoundError
			var insufficient *checkout.InsufficientStockError
			switch {
			case errors.Is(err, checkout.ErrInvalidRequest):
				// Malformed item list or non-positive quantity
				c.JSON(http.StatusBadRequest, gin.H{"error": "A valid item list is required"})
			case errors.Is(err, checkout.ErrUnauthenticated):
				// Caller identity does not resolve to a user
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Login required"})
			case errors.As(err, &notFound):
				// Report every missing product id
				c.JSON(http.StatusNotFound, gin.H{"error": "Product not found", "productIds": notFound.IDs})
			case errors.As(err, &insufficient):
				// Report every shortfall so the caller can fix the cart at once
				c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient stock", "shortfalls": insufficient.Shortfalls})
			case errors.Is(err, checkout.ErrConcurrentModification):
				// Stock moved under the caller; the whole checkout may be retried
				c.JSON(http.StatusConflict, gin.H{"error": "Stock changed, please retry"})
			default:
				// Infrastructure failure; details were logged by the service
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Checkout failed"})
			}
			return
		}
		// Stock changed, so the cached catalog is stale
		if rdb != nil {
			_ = utils.DeleteCache(context.Background(), rdb, utils.ProductsCacheKey)
		}
		// Return the created order
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Order completed",
			"order":   order,
		})
	}
}

// ListOrdersHandler returns the authenticated user's order history,
// newest first, with line items and their products preloaded
func ListOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var orders []domain.Order // Fetch the user's orders
		if err := db.Where("user_id = ?", userID).
			Order("created_at desc").
			Preload("Items").
			Preload("Items.Product").
			Find(&orders).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order history"})
			return
		}
		c.JSON(http.StatusOK, orders) // Return the order history
	}
}
