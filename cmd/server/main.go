package main

import (
	"address_book/internal/api"        // Custom package for API handlers
	"address_book/internal/config"     // Custom package for configuration
	"address_book/internal/middleware" // Custom package for middleware
	"context"                          // context package is needed for Redis operations
	"log"                              // log package is needed for logging

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

	// Read routes
	r.GET("/users", api.ListUsersHandler(db, redisClient))              // Paginated user listing
	r.GET("/users/:id", api.GetUserHandler(db, redisClient))            // Single user with addresses
	r.GET("/users/:id/addresses", api.ListAddressesHandler(db, redisClient)) // A user's address collection

	// Write routes (protected by service tokens)
	writeGroup := r.Group("/")
	writeGroup.Use(middleware.AuthMiddleware(cfg.AppSecret))
	writeGroup.POST("/users", api.CreateUserHandler(db, redisClient))                  // Create user endpoint
	writeGroup.PUT("/users/:id", api.UpdateUserHandler(db, redisClient))               // Update user endpoint
	writeGroup.DELETE("/users/:id", api.DeleteUserHandler(db, redisClient))            // Delete user endpoint (cascades)
	writeGroup.POST("/users/:id/addresses", api.CreateAddressHandler(db, redisClient)) // Attach address endpoint
	writeGroup.PUT("/addresses/:id", api.UpdateAddressHandler(db, redisClient))        // Update or reassign address
	writeGroup.DELETE("/addresses/:id", api.DeleteAddressHandler(db, redisClient))     // Detach address endpoint (orphan removal)

	log.Println("Server running on " + cfg.AppPort) // Log server start
	r.Run(":" + cfg.AppPort)                        // Start the server on port cfg.AppPort
}
