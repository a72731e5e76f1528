package main

import (
	"creditmanager/internal/config" // Custom import path (Config)
	"creditmanager/internal/db"     // Custom import path (Database)
)

// Main entry point for migration
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Database Source Name (DSN) for MySQL connection
	dsn := cfg.DBUser + ":" + cfg.DBPassword + "@tcp(" + cfg.DBHost + ":" + cfg.DBPort + ")/" + cfg.DBName + "?parseTime=true"
	db.Migrate(dsn)

	// Seed the bootstrap admin account when configured
	db.EnsureAdmin(dsn, cfg.AdminUsername, cfg.AdminPassword)
}
