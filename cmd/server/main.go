package main

import (
	"context" // context package is needed for Redis operations
	"log"     // log package is needed for logging

	"creditmanager/internal/api"        // Custom package for API handlers
	"creditmanager/internal/balance"    // Custom package for balance aggregation
	"creditmanager/internal/config"     // Custom package for configuration
	"creditmanager/internal/middleware" // Custom package for middleware
	"creditmanager/internal/service"    // Custom package for expense lifecycle
	"creditmanager/internal/storage"    // Custom package for attachment storage

	// For loading .env files
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

	// Setup Data Source Name (DSN) and connect to the database
	dsn := cfg.DBUser + ":" + cfg.DBPassword + "@tcp(" + cfg.DBHost + ":" + cfg.DBPort + ")/" + cfg.DBName + "?parseTime=true"
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
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

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	store := storage.NewDiskStore(cfg.UploadDir) // Attachment files on local disk
	svc := service.New(db, store)                // Expense and attachment lifecycle
	agg := balance.New(db)                       // Balance aggregation

	// Setup Gin
	r := gin.Default() // Gin router instance

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	// Auth routes
	r.POST("/login", api.LoginHandler(db, cfg.JWTSecret)) // Login endpoint

	// Authenticated routes (protected by JWT)
	authGroup := r.Group("/")
	// Protect routes with JWT middleware, inject Redis client into context, and load the caller
	authGroup.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret, redisClient), func(c *gin.Context) {
		c.Set("redisClient", redisClient)
		c.Next()
	}, middleware.CurrentUserMiddleware(db))
	authGroup.POST("/logout", api.LogoutHandler(redisClient))                       // Logout endpoint
	authGroup.GET("/dashboard", api.DashboardHandler(agg, redisClient))             // Balance dashboard endpoint
	authGroup.GET("/expenses", api.ListExpensesHandler(svc, agg))                   // Expense listing endpoint
	authGroup.POST("/expenses", api.RegisterExpenseHandler(svc))                    // Expense registration endpoint
	authGroup.DELETE("/expenses/attachments/:id", api.DeleteAttachmentHandler(svc)) // Attachment removal endpoint

	// Admin routes (protected, admin only)
	adminGroup := authGroup.Group("/admin")
	// Admin routes additionally require the admin flag
	adminGroup.Use(middleware.AdminOnlyMiddleware(db))
	adminGroup.POST("/users", api.RegisterUserHandler(db, redisClient)) // User registration endpoint
	adminGroup.GET("/users", api.ListUsersHandler(db, redisClient))     // List users endpoint
	adminGroup.GET("/users/:id/cards", api.UserCardsHandler(db))        // Per-user cards endpoint
	adminGroup.POST("/cards", api.CreateCardHandler(db))                // Create card endpoint
	adminGroup.GET("/cards/:id", api.GetCardHandler(db))                // Get card endpoint
	adminGroup.PUT("/cards/:id", api.UpdateCardHandler(db))             // Update card endpoint
	adminGroup.DELETE("/cards/:id", api.DeleteCardHandler(svc, db))     // Delete card endpoint
	adminGroup.POST("/cards/:id/recharge", api.RechargeCardHandler(db)) // Balance recharge endpoint

	log.Println("Server running on " + cfg.AppPort) // Log server start
	r.Run(":" + cfg.AppPort)                        // Start the server on port cfg.AppPort
}
