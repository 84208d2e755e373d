package api

import (
	"context" // Context for Redis operations
	"errors"  // Error inspection
	"net/http"
	"strconv" // String conversion
	"time"    // Time durations

	"address_book/internal/domain" // Importing domain models
	"address_book/internal/utils"  // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
	"gorm.io/gorm/clause"          // GORM clause helpers
)

const cacheTTL = 60 * time.Second // TTL for cached read responses

// AddressPayload is an address embedded in a user creation request
type AddressPayload struct {
	EmailAddress string `json:"email_address" binding:"required,max=30"` // Email address, required
	Neighborhood string `json:"neighborhood" binding:"required,max=30"`  // Neighborhood, required
}

// CreateUserRequest represents a user creation request
type CreateUserRequest struct {
	Name      string           `json:"name" binding:"required,max=30"`     // Display name, required
	Fullname  *string          `json:"fullname" binding:"omitempty,max=30"` // Full name, optional
	Nickname  *string          `json:"nickname" binding:"omitempty,max=30"` // Nickname, optional
	Addresses []AddressPayload `json:"addresses" binding:"omitempty,dive"`  // Optional initial addresses
}

// UpdateUserRequest represents a user update request; omitted fields are untouched
type UpdateUserRequest struct {
	Name     *string `json:"name" binding:"omitempty,max=30"`     // New display name
	Fullname *string `json:"fullname" binding:"omitempty,max=30"` // New full name
	Nickname *string `json:"nickname" binding:"omitempty,max=30"` // New nickname
}

// CreateUserHandler creates a user, optionally with its initial addresses
func CreateUserHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateUserRequest // Bind JSON request to struct
		// Validate request; length limits mirror the varchar(30) columns
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
			return
		}
		// Build the user with any embedded addresses
		user := domain.User{Name: req.Name, Fullname: req.Fullname, Nickname: req.Nickname}
		for _, a := range req.Addresses {
			user.Addresses = append(user.Addresses, domain.Address{
				EmailAddress: a.EmailAddress, // Email address
				Neighborhood: a.Neighborhood, // Neighborhood
			})
		}
		// Create the user; nested addresses are inserted with the owner's id
		if err := db.Create(&user).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"name":  req.Name,    // Requested name
				"error": err.Error(), // Error message
			}).Error("Failed to create user") // Log failure
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
			return
		}
		invalidateUserCaches(rdb, user.ID) // Drop stale cached reads
		// Return the created user; the id was assigned by the store
		c.JSON(http.StatusCreated, gin.H{"user": user})
	}
}

// GetUserHandler returns a single user with its address collection
func GetUserHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id")) // Parse the user id
		if err != nil || id <= 0 {
			// If invalid, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
			return
		}
		ctx := context.Background()               // Context for Redis operations
		cacheKey := "user:" + strconv.Itoa(id)    // Cache key for this user
		var user domain.User                      // User struct to hold data
		found, err := utils.GetCache(ctx, rdb, cacheKey, &user) // Try to get from cache
		// If found in cache, return it
		if err == nil && found {
			c.JSON(http.StatusOK, gin.H{"user": user, "cached": true})
			return
		}
		// If not in cache, fetch from DB with the address collection preloaded
		if err := db.Preload("Addresses").First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "User not found"}) // Return not found
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
			return
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, user, cacheTTL)      // Cache the user
		c.JSON(http.StatusOK, gin.H{"user": user, "cached": false}) // Return user info
	}
}

// ListUsersHandler returns all users with their addresses, paginated
func ListUsersHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background() // Use background context for Redis
		// Create a cache key based on pagination parameters
		cacheKey := "users:list:page=" + c.DefaultQuery("page", "1") + ":size=" + c.DefaultQuery("page_size", "20")
		// Try to get cached response
		var cached struct {
			Users      []domain.User `json:"users"`       // List of users
			Page       int           `json:"page"`        // Current page
			PageSize   int           `json:"page_size"`   // Page size
			Total      int64         `json:"total"`       // Total number of users
			TotalPages int           `json:"total_pages"` // Total pages
		}
		// If cached data found, return it
		found, err := utils.GetCache(ctx, rdb, cacheKey, &cached)
		if err == nil && found {
			c.JSON(http.StatusOK, gin.H{
				"users":       cached.Users,      // List of users
				"page":        cached.Page,       // Current page
				"page_size":   cached.PageSize,   // Page size
				"total":       cached.Total,      // Total number of users
				"total_pages": cached.TotalPages, // Total pages
				"cached":      true,              // Indicate response is from cache
			})
			return
		}
		page, pageSize := pagination(c)  // Parse pagination parameters
		offset := (page - 1) * pageSize  // Calculate offset for pagination
		var total int64                  // Total user count
		// Fetch total user count
		if err := db.Model(&domain.User{}).Count(&total).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count users"}) // Return on error
			return
		}
		var users []domain.User // Slice to hold users
		// Preload the address collections, apply offset and limit for pagination
		if err := db.Preload("Addresses").Offset(offset).Limit(pageSize).Find(&users).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"}) // Return on error
			return
		}
		// The total number of pages
		totalPages := (int(total) + pageSize - 1) / pageSize // Calculate total pages
		// Prepare final response data
		respData := gin.H{
			"users":       users,      // List of users
			"page":        page,       // Current page
			"page_size":   pageSize,   // Page size
			"total":       total,      // Total number of users
			"total_pages": totalPages, // Total pages
			"cached":      false,      // Indicate response is not from cache
		}
		// Cache the response for future requests
		_ = utils.SetCache(ctx, rdb, cacheKey, respData, cacheTTL)
		c.JSON(http.StatusOK, respData) // Return the response
	}
}

// UpdateUserHandler updates a user's name, fullname or nickname; the id is immutable
func UpdateUserHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id")) // Parse the user id
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
			return
		}
		var req UpdateUserRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
			return
		}
		var user domain.User // Fetch the user to update
		if err := db.First(&user, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"}) // Return not found
			return
		}
		// Apply only the fields present in the request
		updates := map[string]any{}
		if req.Name != nil {
			updates["name"] = *req.Name // New display name
		}
		if req.Fullname != nil {
			updates["fullname"] = *req.Fullname // New full name
		}
		if req.Nickname != nil {
			updates["nickname"] = *req.Nickname // New nickname
		}
		if len(updates) > 0 {
			// Persist the update
			if err := db.Model(&user).Updates(updates).Error; err != nil {
				logrus.WithFields(logrus.Fields{
					"user_id": user.ID,     // User ID
					"error":   err.Error(), // Error message
				}).Error("Failed to update user") // Log failure
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
				return
			}
		}
		invalidateUserCaches(rdb, user.ID)             // Drop stale cached reads
		c.JSON(http.StatusOK, gin.H{"user": user}) // Return the updated user
	}
}

// DeleteUserHandler deletes a user together with every address it owns
func DeleteUserHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id")) // Parse the user id
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
			return
		}
		var user domain.User // Fetch the user to delete
		if err := db.First(&user, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"}) // Return not found
			return
		}
		// Delete the user and its address collection in one pass; the
		// ON DELETE CASCADE constraint backs this up at the storage layer
		if err := db.Select(clause.Associations).Delete(&user).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": user.ID,     // User ID
				"error":   err.Error(), // Error message
			}).Error("Failed to delete user") // Log failure
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
			return
		}
		// Log the cascading deletion
		logrus.WithFields(logrus.Fields{
			"user_id":   user.ID,                         // User ID
			"timestamp": time.Now().Format(time.RFC3339), // Current timestamp
		}).Info("User deleted with owned addresses") // Log deletion
		invalidateUserCaches(rdb, user.ID)                            // Drop stale cached reads
		c.JSON(http.StatusOK, gin.H{"message": "User deleted"}) // Return success response
	}
}

// pagination parses page and page_size query parameters with sane bounds
func pagination(c *gin.Context) (int, int) {
	page := 1      // Default page number
	pageSize := 20 // Default page size
	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v // Set page if valid
		}
	}
	// Check and set page size within limits
	if ps := c.Query("page_size"); ps != "" {
		// If valid, set page size
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v // Set page size
		}
	}
	return page, pageSize
}

// invalidateUserCaches drops every cached read touched by a write to userID
func invalidateUserCaches(rdb *redis.Client, userID uint) {
	ctx := context.Background()                                          // Context for Redis operations
	userKey := "user:" + strconv.Itoa(int(userID))                       // Single-user cache key
	addrKey := "addresses:user:" + strconv.Itoa(int(userID))             // Address collection cache key
	_ = utils.DeleteCache(ctx, rdb, userKey)                             // Invalidate the user cache
	_ = utils.DeleteCache(ctx, rdb, addrKey)                             // Invalidate the address list cache
	_ = utils.DeleteCacheByPrefix(ctx, rdb, "users:list:")               // Invalidate every cached listing page
}
