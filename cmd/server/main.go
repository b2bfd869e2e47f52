package main

import (
	"context"                        // context package is needed for Redis operations
	"log"                            // log package is needed for logging
	"shopstore/internal/api"         // Custom package for API handlers
	"shopstore/internal/authz"       // Custom package for the admin capability check
	"shopstore/internal/checkout"    // Custom package for the checkout core
	"shopstore/internal/config"      // Custom package for configuration
	"shopstore/internal/middleware"  // Custom package for middleware

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
	"gorm.io/driver/mysql"         // MySQL driver for GORM
	"gorm.io/gorm"                 // GORM ORM library
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Connect to the database
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})

	// Test Redis connection
	_, err = redisClient.Ping(context.Background()).Result()
	if err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	// Wire the checkout core and the admin capability check
	checkoutService := checkout.NewService(checkout.NewGormDirectory(db), checkout.NewGormStore(db))
	authorizer := authz.New(authz.NewGormRoles(db))

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup Gin
	r := gin.Default() // Gin router instance

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	// Auth routes
	r.POST("/auth/register", api.RegisterHandler(db))            // Registration endpoint
	r.POST("/auth/login", api.LoginHandler(db, cfg.JWTSecret))   // Login endpoint
	r.GET("/auth/me", middleware.JWTAuthMiddleware(cfg.JWTSecret), api.MeHandler(db)) // Current user endpoint

	// Public catalog routes
	r.GET("/products", api.ListProductsHandler(db, redisClient))   // Product list endpoint
	r.GET("/products/:id", api.GetProductHandler(db))              // Single product endpoint
	r.POST("/products/batch", api.BatchProductsHandler(db))        // Batch product fetch endpoint
	r.GET("/categories", api.ListCategoriesHandler(db, redisClient)) // Category list endpoint
	r.GET("/categories/:id", api.GetCategoryHandler(db))           // Single category endpoint

	// Customer routes (protected by JWT)
	authGroup := r.Group("/")
	authGroup.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	authGroup.POST("/checkout", api.CheckoutHandler(checkoutService, redisClient)) // Checkout endpoint
	authGroup.GET("/orders", api.ListOrdersHandler(db))                            // Order history endpoint

	// Admin routes (protected, admin only)
	adminGroup := r.Group("/")
	adminGroup.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret), middleware.AdminOnlyMiddleware(authorizer))
	adminGroup.POST("/products", api.CreateProductHandler(db, redisClient))          // Create product endpoint
	adminGroup.PUT("/products/:id", api.UpdateProductHandler(db, redisClient))       // Update product endpoint
	adminGroup.DELETE("/products/:id", api.DeleteProductHandler(db, redisClient))    // Delete product endpoint
	adminGroup.POST("/categories", api.CreateCategoryHandler(db, redisClient))       // Create category endpoint
	adminGroup.PUT("/categories/:id", api.UpdateCategoryHandler(db, redisClient))    // Update category endpoint
	adminGroup.DELETE("/categories/:id", api.DeleteCategoryHandler(db, redisClient)) // Delete category endpoint
	adminGroup.GET("/admin/users", api.ListUsersHandler(db))                         // List users endpoint
	adminGroup.POST("/admin/users", api.CreateUserHandler(db))                       // Create user endpoint
	adminGroup.PATCH("/admin/users/:id", api.UpdateUserHandler(db))                  // Update user endpoint
	adminGroup.DELETE("/admin/users/:id", api.DeleteUserHandler(db))                 // Delete user endpoint
	adminGroup.GET("/admin/orders", api.ListAllOrdersHandler(db))                    // List all orders endpoint
	adminGroup.PATCH("/admin/orders/:id/status", api.UpdateOrderStatusHandler(db))   // Order status endpoint
	adminGroup.GET("/admin/settings", api.GetSettingsHandler(db, redisClient))       // Settings read endpoint
	adminGroup.PUT("/admin/settings", api.UpdateSettingsHandler(db, redisClient))    // Settings write endpoint

	log.Println("Server running on " + cfg.AppPort) // Log server start
	r.Run(":" + cfg.AppPort)                        // Start the server on port cfg.AppPort
}
