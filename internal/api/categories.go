package api

import (
	"context"                   // Context for Redis operations
	"net/http"                  // HTTP status codes
	"shopstore/internal/domain" // Importing domain models
	"shopstore/internal/utils"  // Utility functions
	"strconv"                   // String conversion

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// CategoryRequest represents a category create/update request
type CategoryRequest struct {
	Name string `json:"name" binding:"required"` // Category name must be provided
}

// invalidateCategoriesCache drops the cached category list after any mutation
func invalidateCategoriesCache(rdb *redis.Client) {
	if rdb != nil {
		_ = utils.DeleteCache(context.Background(), rdb, utils.CategoriesCacheKey)
	}
}

// ListCategoriesHandler returns all categories, read through the cache
func ListCategoriesHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background() // Context for Redis operations
		var categories []domain.Category
		// Try the cache first; a redis failure falls through to the database
		found, err := utils.GetCache(ctx, rdb, utils.CategoriesCacheKey, &categories)
		if err == nil && found {
			c.JSON(http.StatusOK, categories) // Return cached list
			return
		}
		if err := db.Find(&categories).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch categories"})
			return
		}
		_ = utils.SetCache(ctx, rdb, utils.CategoriesCacheKey, categories, utils.CacheTTL) // Cache the list
		c.JSON(http.StatusOK, categories)                                                  // Return the list
	}
}

// GetCategoryHandler returns a single category by id
func GetCategoryHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id")) // Parse the id parameter
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
			return
		}
		var category domain.Category // Fetch category from database
		if err := db.First(&category, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
			return
		}
		c.JSON(http.StatusOK, category) // Return the category
	}
}

// CreateCategoryHandler creates a new category (admin only)
func CreateCategoryHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CategoryRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Category name is required"})
			return
		}
		category := domain.Category{Name: req.Name}
		if err := db.Create(&category).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create category"})
			return
		}
		invalidateCategoriesCache(rdb)       // The cached list is stale now
		c.JSON(http.StatusCreated, category) // Return the created category
	}
}

// UpdateCategoryHandler renames a category (admin only)
func UpdateCategoryHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id")) // Parse the id parameter
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
			return
		}
		var category domain.Category // Confirm the category exists
		if err := db.First(&category, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
			return
		}
		var req CategoryRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Category name is required"})
			return
		}
		category.Name = req.Name // Apply the new name
		if err := db.Save(&category).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update category"})
			return
		}
		invalidateCategoriesCache(rdb)  // The cached list is stale now
		c.JSON(http.StatusOK, category) // Return the updated category
	}
}

// DeleteCategoryHandler removes a category (admin only). Deletion is refused
// while any product still references the category.
func DeleteCategoryHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id")) // Parse the id parameter
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
			return
		}
		var category domain.Category // Confirm the category exists
		if err := db.First(&category, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
			return
		}
		// Referential guard: refuse deletion while products reference it
		var productCount int64
		if err := db.Model(&domain.Product{}).Where("category_id = ?", category.ID).Count(&productCount).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check category products"})
			return
		}
		if productCount > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Category cannot be deleted while products reference it"})
			return
		}
		if err := db.Delete(&category).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete category"})
			return
		}
		invalidateCategoriesCache(rdb)                                           // The cached list is stale now
		c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"}) // Confirm deletion
	}
}
