package db

import (
	"shopstore/internal/domain" // Importing domain models

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"gorm.io/driver/mysql" // MySQL driver for GORM
	"gorm.io/gorm"         // GORM ORM library
)

// Seed populates the database with demo catalog data and, when credentials
// are provided, an administrator account
func Seed(dsn, adminEmail, adminPassword string) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{}) // Open a connection to the database
	if err != nil {
		logrus.Fatalf("failed to connect database: %v", err)
	}

	// Demo categories
	categories := []domain.Category{
		{Name: "Category A"},
		{Name: "Category B"},
		{Name: "Category C"},
		{Name: "Category D"},
	}
	for i := range categories {
		// Upsert by name so reseeding is harmless
		if err := db.Where(domain.Category{Name: categories[i].Name}).FirstOrCreate(&categories[i]).Error; err != nil {
			logrus.Fatalf("failed to seed category %q: %v", categories[i].Name, err)
		}
	}

	// Demo products referencing the categories above
	products := []domain.Product{
		{Name: "Product 1", Description: "Description for product 1.", Price: decimal.NewFromInt(1000), Stock: 10, ImageURL: "https://placehold.jp/300x250.png", CategoryID: &categories[0].ID},
		{Name: "Product 2", Description: "Description for product 2.", Price: decimal.NewFromInt(2000), Stock: 5, ImageURL: "https://placehold.jp/3d4070/ffffff/300x250.png", CategoryID: &categories[1].ID},
		{Name: "Product 3", Description: "Description for product 3.", Price: decimal.NewFromInt(3000), Stock: 8, ImageURL: "https://placehold.jp/e83a3a/ffffff/300x250.png", CategoryID: &categories[2].ID},
		{Name: "Product 4", Description: "Description for product 4.", Price: decimal.NewFromInt(4000), Stock: 3, ImageURL: "https://placehold.jp/27ae60/ffffff/300x250.png", CategoryID: &categories[3].ID},
	}
	for i := range products {
		if err := db.Where(domain.Product{Name: products[i].Name}).FirstOrCreate(&products[i]).Error; err != nil {
			logrus.Fatalf("failed to seed product %q: %v", products[i].Name, err)
		}
	}

	// Administrator account, only when configured
	if adminEmail != "" && adminPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
		if err != nil {
			logrus.Fatalf("failed to hash admin password: %v", err)
		}
		admin := domain.User{Name: "Administrator", Email: adminEmail, Password: string(hash), Role: domain.RoleAdmin}
		if err := db.Where(domain.User{Email: adminEmail}).FirstOrCreate(&admin).Error; err != nil {
			logrus.Fatalf("failed to seed admin user: %v", err)
		}
	}

	logrus.Info("Seeding completed.")
}
