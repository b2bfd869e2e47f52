package api

import (
	"context"                   // Context for Redis operations
	"net/http"                  // HTTP status codes
	"shopstore/internal/domain" // Importing domain models
	"shopstore/internal/utils"  // Utility functions
	"strconv"                   // String conversion

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Decimal arithmetic for prices
	"github.com/sirupsen/logrus"    // Logging library
	"gorm.io/gorm"                  // GORM ORM library
)

// CreateProductRequest represents a product creation request
type CreateProductRequest struct {
	Name        string          `json:"name" binding:"required"`  // Product name must be provided
	Description string          `json:"description"`              // Optional description
	Price       decimal.Decimal `json:"price" binding:"required"` // Price must be provided
	Stock       int             `json:"stock"`                    // Initial stock, defaults to zero
	ImageURL    string          `json:"imageUrl"`                 // Optional image reference
	CategoryID  *uint           `json:"categoryId"`               // Optional category reference
}

// UpdateProductRequest carries only the fields the caller wants to change
type UpdateProductRequest struct {
	Name        *string          `json:"name"`        // New name, when present
	Description *string          `json:"description"` // New description, when present
	Price       *decimal.Decimal `json:"price"`       // New price, when present
	Stock       *int             `json:"stock"`       // Absolute stock set, when present
	ImageURL    *string          `json:"imageUrl"`    // New image reference, when present
	CategoryID  *uint            `json:"categoryId"`  // New category reference, when present
}

// BatchRequest asks for a set of products by id
type BatchRequest struct {
	IDs []uint `json:"ids" binding:"required"` // Product ids to fetch
}

// invalidateProductsCache drops the cached product list after any mutation
func invalidateProductsCache(rdb *redis.Client) {
	if rdb != nil {
		_ = utils.DeleteCache(context.Background(), rdb, utils.ProductsCacheKey)
	}
}

// ListProductsHandler returns the full catalog, read through the cache
func ListProductsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background() // Context for Redis operations
		var products []domain.Product
		// Try the cache first; a redis failure falls through to the database
		found, err := utils.GetCache(ctx, rdb, utils.ProductsCacheKey, &products)
		if err == nil && found {
			c.JSON(http.StatusOK, products) // Return cached catalog
			return
		}
		// Fetch the catalog from the database
		if err := db.Find(&products).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
			return
		}
		_ = utils.SetCache(ctx, rdb, utils.ProductsCacheKey, products, utils.CacheTTL) // Cache the catalog
		c.JSON(http.StatusOK, products)                                                // Return the catalog
	}
}

// GetProductHandler returns a single product by id
func GetProductHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id")) // Parse the id parameter
		if err != nil {
			// If the id is not numeric, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
			return
		}
		var product domain.Product // Fetch product from database
		if err := db.First(&product, id).Error; err != nil {
			// If product not found, return not found
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusOK, product) // Return the product
	}
}

// BatchProductsHandler returns every product matching the submitted id set.
// Missing ids are not an error; the caller diffs the result itself.
func BatchProductsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req BatchRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil || len(req.IDs) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "A list of product ids is required"})
			return
		}
		var products []domain.Product // Fetch the matching products
		if err := db.Where("id IN ?", req.IDs).Find(&products).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
			return
		}
		c.JSON(http.StatusOK, products) // Return the products that exist
	}
}

// CreateProductHandler creates a new product (admin only)
func CreateProductHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateProductRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Product name and price are required"})
			return
		}
		// Prices and stock are never negative
		if req.Price.IsNegative() || req.Stock < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Price and stock must be non-negative"})
			return
		}
		product := domain.Product{
			Name:        req.Name,        // Product name
			Description: req.Description, // Description
			Price:       req.Price,       // Price
			Stock:       req.Stock,       // Initial stock
			ImageURL:    req.ImageURL,    // Image reference
			CategoryID:  req.CategoryID,  // Optional category
		}
		if err := db.Create(&product).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"name":  req.Name,     // Product name
				"error": err.Error(),  // Error message
			}).Error("Failed to create product")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
			return
		}
		invalidateProductsCache(rdb)           // The cached catalog is stale now
		c.JSON(http.StatusCreated, product)    // Return the created product
	}
}

// UpdateProductHandler updates the provided fields of a product (admin only)
func UpdateProductHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id")) // Parse the id parameter
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
			return
		}
		var product domain.Product // Confirm the product exists
		if err := db.First(&product, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		var req UpdateProductRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Apply only the fields the caller provided
		if req.Name != nil {
			product.Name = *req.Name
		}
		if req.Description != nil {
			product.Description = *req.Description
		}
		if req.Price != nil {
			if req.Price.IsNegative() {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Price must be non-negative"})
				return
			}
			product.Price = *req.Price
		}
		if req.Stock != nil {
			// Administrative edit sets stock absolutely, never below zero
			if *req.Stock < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Stock must be non-negative"})
				return
			}
			product.Stock = *req.Stock
		}
		if req.ImageURL != nil {
			product.ImageURL = *req.ImageURL
		}
		if req.CategoryID != nil {
			product.CategoryID = req.CategoryID
		}
		if err := db.Save(&product).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
			return
		}
		invalidateProductsCache(rdb)    // The cached catalog is stale now
		c.JSON(http.StatusOK, product)  // Return the updated product
	}
}

// DeleteProductHandler removes a product (admin only)
func DeleteProductHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id")) // Parse the id parameter
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
			return
		}
		var product domain.Product // Confirm the product exists
		if err := db.First(&product, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		if err := db.Delete(&product).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete product"})
			return
		}
		invalidateProductsCache(rdb)                                       // The cached catalog is stale now
		c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"}) // Confirm deletion
	}
}
