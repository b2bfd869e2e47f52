package main

import (
	"shopstore/internal/config" // Custom import path (Config)
	"shopstore/internal/db"     // Custom import path (Database)
)

// Main entry point for migration
func main() {
	cfg := config.LoadConfig() // Load configuration
	db.Migrate(cfg.DSN())      // Apply the schema
}
