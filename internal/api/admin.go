package api

import (
	"context"  // Context for Redis operations
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"time"     // Timestamps in responses

	"shopstore/internal/domain" // Importing domain models
	"shopstore/internal/utils"  // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"golang.org/x/crypto/bcrypt"   // Password hashing
	"gorm.io/gorm"                 // GORM ORM library
)

// UserAdminResponse represents the user data returned to admin
type UserAdminResponse struct {
	ID         uint      `json:"id"`         // User ID
	Name       string    `json:"name"`       // Display name
	Email      string    `json:"email"`      // Email address
	Role       string    `json:"role"`       // User role
	CreatedAt  time.Time `json:"createdAt"`  // Registration timestamp
	UpdatedAt  time.Time `json:"updatedAt"`  // Last update timestamp
	OrderCount int64     `json:"orderCount"` // Number of orders the user owns
}

// pageParams reads page/page_size query parameters with the usual bounds
func pageParams(c *gin.Context) (page, pageSize int) {
	page = 1      // Default page
	pageSize = 20 // Default page size
	if p := c.Query("page"); p != "" {
		// Convert page to integer
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v // Set page if valid
		}
	}
	if ps := c.Query("page_size"); ps != "" {
		// Convert page_size to integer
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v // Set page size if valid
		}
	}
	return page, pageSize
}

// ListUsersHandler returns all users with their order counts
func ListUsersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, pageSize := pageParams(c) // Pagination parameters
		offset := (page - 1) * pageSize // Calculate offset
		var total int64                 // Total user count
		if err := db.Model(&domain.User{}).Count(&total).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count users"})
			return
		}
		var users []domain.User // Slice to hold users
		// Fetch paginated users, newest first
		if err := db.Order("created_at desc").Offset(offset).Limit(pageSize).Find(&users).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
			return
		}
		// Count orders per user in one grouped query
		ids := make([]uint, len(users))
		for i, u := range users {
			ids[i] = u.ID
		}
		type orderCount struct {
			UserID uint  // Owning user
			Count  int64 // Orders owned
		}
		var counts []orderCount
		if len(ids) > 0 {
			if err := db.Model(&domain.Order{}).
				Select("user_id, COUNT(*) AS count").
				Where("user_id IN ?", ids).
				Group("user_id").
				Scan(&counts).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count orders"})
				return
			}
		}
		countByUser := make(map[uint]int64, len(counts))
		for _, oc := range counts {
			countByUser[oc.UserID] = oc.Count
		}
		// Map users to the admin response shape
		resp := make([]UserAdminResponse, len(users))
		for i, u := range users {
			resp[i] = UserAdminResponse{
				ID:         u.ID,               // User ID
				Name:       u.Name,             // Display name
				Email:      u.Email,            // Email address
				Role:       u.Role,             // User role
				CreatedAt:  u.CreatedAt,        // Registration timestamp
				UpdatedAt:  u.UpdatedAt,        // Last update timestamp
				OrderCount: countByUser[u.ID],  // Orders owned
			}
		}
		totalPages := (int(total) + pageSize - 1) / pageSize // Calculate total pages
		c.JSON(http.StatusOK, gin.H{
			"users":       resp,       // List of users
			"page":        page,       // Current page
			"page_size":   pageSize,   // Page size
			"total":       total,      // Total number of users
			"total_pages": totalPages, // Total pages
		})
	}
}

// AdminCreateUserRequest represents an administrative user creation request
type AdminCreateUserRequest struct {
	Name     string `json:"name" binding:"required"`     // Display name must be provided
	Email    string `json:"email" binding:"required"`    // Email must be provided
	Password string `json:"password" binding:"required"` // Password must be provided
	Role     string `json:"role"`                        // Optional role, defaults to user
}

// CreateUserHandler creates a user account with an explicit role
func CreateUserHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AdminCreateUserRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Name, email and password are required"})
			return
		}
		role := req.Role // Default the role when absent
		if role == "" {
			role = domain.RoleUser
		}
		if role != domain.RoleUser && role != domain.RoleAdmin {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Role must be user or admin"})
			return
		}
		// Reject duplicate email addresses
		var existing domain.User
		if err := db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "This email address is already in use"})
			return
		}
		// Hash the password and create the user
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
			return
		}
		user := domain.User{Name: req.Name, Email: req.Email, Password: string(hash), Role: role}
		if err := db.Create(&user).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
			return
		}
		c.JSON(http.StatusCreated, user) // Return the created user
	}
}

// AdminUpdateUserRequest carries only the fields the administrator wants to change
type AdminUpdateUserRequest struct {
	Name     *string `json:"name"`     // New display name, when present
	Email    *string `json:"email"`    // New email, when present
	Password *string `json:"password"` // New password, when present
	Role     *string `json:"role"`     // New role, when present
}

// UpdateUserHandler updates a user's profile or role (admin only)
func UpdateUserHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id")) // Parse the id parameter
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
			return
		}
		var user domain.User // Confirm the user exists
		if err := db.First(&user, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		var req AdminUpdateUserRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Apply only the fields the administrator provided
		if req.Name != nil {
			user.Name = *req.Name
		}
		if req.Email != nil {
			user.Email = *req.Email
		}
		if req.Password != nil {
			hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
				return
			}
			user.Password = string(hash)
		}
		if req.Role != nil {
			if *req.Role != domain.RoleUser && *req.Role != domain.RoleAdmin {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Role must be user or admin"})
				return
			}
			user.Role = *req.Role
		}
		if err := db.Save(&user).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
			return
		}
		c.JSON(http.StatusOK, user) // Return the updated user
	}
}

// DeleteUserHandler removes a user account (admin only). Deleting yourself
// is refused, and so is deleting a user that owns orders: orders reference
// their owner forever, mirroring the category-with-products guard.
func DeleteUserHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		callerID, exists := c.Get("userID") // Get the caller's userID from context
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		id, err := strconv.Atoi(c.Param("id")) // Parse the id parameter
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
			return
		}
		// Refuse self-deletion
		if uint(id) == callerID.(uint) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot delete yourself"})
			return
		}
		var user domain.User // Confirm the user exists
		if err := db.First(&user, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		// Referential guard: refuse deletion while the user owns orders
		var orderCount int64
		if err := db.Model(&domain.Order{}).Where("user_id = ?", user.ID).Count(&orderCount).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check user orders"})
			return
		}
		if orderCount > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "User cannot be deleted while orders reference them"})
			return
		}
		if err := db.Delete(&user).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
			return
		}
		logrus.WithFields(logrus.Fields{
			"deleted_user_id": user.ID,  // Removed account
			"admin_user_id":   callerID, // Acting administrator
		}).Info("User deleted")
		c.JSON(http.StatusOK, gin.H{"success": true}) // Confirm deletion
	}
}

// ListAllOrdersHandler returns every order, with optional status and user
// filters, for the admin back-office
func ListAllOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, pageSize := pageParams(c)       // Pagination parameters
		offset := (page - 1) * pageSize       // Calculate offset
		query := db.Model(&domain.Order{})    // Start building the query
		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status) // Filter by status
		}
		if userID := c.Query("user_id"); userID != "" {
			query = query.Where("user_id = ?", userID) // Filter by owning user
		}
		var total int64 // Total order count
		if err := query.Count(&total).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count orders"})
			return
		}
		var orders []domain.Order // Slice to hold orders
		// Fetch paginated orders with their items, newest first
		if err := query.Order("created_at desc").
			Offset(offset).
			Limit(pageSize).
			Preload("Items").
			Find(&orders).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
			return
		}
		totalPages := (int(total) + pageSize - 1) / pageSize // Calculate total pages
		c.JSON(http.StatusOK, gin.H{
			"orders":      orders,     // List of orders
			"page":        page,       // Current page
			"page_size":   pageSize,   // Page size
			"total":       total,      // Total number of orders
			"total_pages": totalPages, // Total pages
		})
	}
}

// OrderStatusRequest represents an order status change
type OrderStatusRequest struct {
	Status string `json:"status" binding:"required"` // New status must be provided
}

// UpdateOrderStatusHandler changes an order's status — the only field an
// administrator may mutate after creation
func UpdateOrderStatusHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id")) // Parse the id parameter
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
			return
		}
		var req OrderStatusRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil || !domain.ValidOrderStatus(req.Status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "A valid status is required"})
			return
		}
		var order domain.Order // Confirm the order exists
		if err := db.First(&order, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		if err := db.Model(&order).Update("status", req.Status).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update order status"})
			return
		}
		logrus.WithFields(logrus.Fields{
			"order_id": order.ID,   // Updated order
			"status":   req.Status, // New status
		}).Info("Order status updated")
		c.JSON(http.StatusOK, order) // Return the updated order
	}
}

// GetSettingsHandler returns all site settings as a key-value map
func GetSettingsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background() // Context for Redis operations
		settings := map[string]string{}
		// Try the cache first; a redis failure falls through to the database
		found, err := utils.GetCache(ctx, rdb, utils.SettingsCacheKey, &settings)
		if err == nil && found {
			c.JSON(http.StatusOK, gin.H{"settings": settings}) // Return cached settings
			return
		}
		var rows []domain.Setting // Fetch all settings
		if err := db.Find(&rows).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch settings"})
			return
		}
		for _, s := range rows {
			settings[s.Key] = s.Value // Flatten rows into the map
		}
		_ = utils.SetCache(ctx, rdb, utils.SettingsCacheKey, settings, utils.CacheTTL) // Cache the settings
		c.JSON(http.StatusOK, gin.H{"settings": settings})                             // Return the settings
	}
}

// UpdateSettingsHandler upserts the submitted key-value pairs
func UpdateSettingsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req map[string]string // Settings are free-form key-value pairs
		if err := c.ShouldBindJSON(&req); err != nil || len(req) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "A settings object is required"})
			return
		}
		// Upsert every pair in one transaction
		err := db.Transaction(func(tx *gorm.DB) error {
			for key, value := range req {
				setting := domain.Setting{Key: key, Value: value}
				if err := tx.Save(&setting).Error; err != nil {
					return err // Return error to rollback
				}
			}
			return nil // Commit transaction
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update settings"})
			return
		}
		// The cached settings are stale now
		if rdb != nil {
			_ = utils.DeleteCache(context.Background(), rdb, utils.SettingsCacheKey)
		}
		c.JSON(http.StatusOK, gin.H{"success": true}) // Confirm the update
	}
}
