package main

import (
	"shopstore/internal/config" // Custom import path (Config)
	"shopstore/internal/db"     // Custom import path (Database)
)

// Main entry point for seeding demo data
func main() {
	cfg := config.LoadConfig()                              // Load configuration
	db.Seed(cfg.DSN(), cfg.AdminEmail, cfg.AdminPassword)   // Insert demo catalog and admin account
}
