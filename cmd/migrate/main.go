package main

import (
	"address_book/internal/config" // Custom import path (Config)
	"address_book/internal/db"     // Custom import path (Database)
)

// Main entry point for migration
func main() {
	cfg := config.LoadConfig() // Load configuration
	db.Migrate(cfg.DSN())      // Create the user_account and address tables
}
