package db

import (
	"creditmanager/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus"

	"golang.org/x/crypto/bcrypt" // Password hashing for the bootstrap admin
	"gorm.io/driver/mysql"       // MySQL driver for GORM
	"gorm.io/gorm"               // GORM ORM library
)

// Migrate performs automatic migration for the database schema
func Migrate(dsn string) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{}) // Open a connection to the database
	if err != nil {
		logrus.Fatalf("failed to connect database: %v", err) // Log fatal error if connection fails
	}
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	err = db.AutoMigrate(&domain.User{}, &domain.Card{}, &domain.Expense{}, &domain.Attachment{})
	if err != nil {
		logrus.Fatalf("migration failed: %v", err) // Log fatal error if migration fails
	}
	logrus.Info("Migration completed.") // Log successful migration
}

// EnsureAdmin creates the bootstrap admin account when it does not exist yet.
// Admins are created only here; the registration endpoint always makes
// non-admin users.
func EnsureAdmin(dsn, username, password string) {
	if username == "" || password == "" {
		logrus.Info("No bootstrap admin configured, skipping.") // Nothing to do
		return
	}
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		logrus.Fatalf("failed to connect database: %v", err)
	}
	var existing domain.User
	if err := db.Where("username = ?", username).First(&existing).Error; err == nil {
		logrus.Infof("Admin %q already exists, skipping.", username)
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logrus.Fatalf("failed to hash admin password: %v", err)
	}
	admin := domain.User{Username: username, Password: string(hash), IsAdmin: true}
	if err := db.Create(&admin).Error; err != nil {
		logrus.Fatalf("failed to create admin: %v", err)
	}
	logrus.Infof("Bootstrap admin %q created.", username)
}
