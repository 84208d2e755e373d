package api

import (
	"context" // Context for Redis operations
	"errors"  // Error inspection
	"net/http"
	"strconv" // String conversion

	"address_book/internal/domain" // Importing domain models
	"address_book/internal/utils"  // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// UpdateAddressRequest represents an address update request; a user_id
// reassigns the address to another existing user
type UpdateAddressRequest struct {
	EmailAddress *string `json:"email_address" binding:"omitempty,max=30"` // New email address
	Neighborhood *string `json:"neighborhood" binding:"omitempty,max=30"`  // New neighborhood
	UserID       *uint   `json:"user_id"`                                  // New owning user
}

// CreateAddressHandler attaches a new address to an existing user
func CreateAddressHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := strconv.Atoi(c.Param("id")) // Parse the owning user id
		if err != nil || userID <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
			return
		}
		var req AddressPayload // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
			return
		}
		var user domain.User // The owning user must exist
		if err := db.First(&user, userID).Error; err != nil {
			// An address cannot reference a user that does not exist
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		// Build and persist the address
		address := domain.Address{
			EmailAddress: req.EmailAddress, // Email address
			Neighborhood: req.Neighborhood, // Neighborhood
			UserID:       user.ID,          // Foreign key to the owner
		}
		if err := db.Create(&address).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": user.ID,     // Owning user ID
				"error":   err.Error(), // Error message
			}).Error("Failed to create address") // Log failure
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create address"})
			return
		}
		invalidateUserCaches(rdb, user.ID) // Drop stale cached reads
		// Return the created address
		c.JSON(http.StatusCreated, gin.H{"address": address})
	}
}

// ListAddressesHandler returns a user's address collection
func ListAddressesHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := strconv.Atoi(c.Param("id")) // Parse the owning user id
		if err != nil || userID <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
			return
		}
		ctx := context.Background()                            // Context for Redis operations
		cacheKey := "addresses:user:" + strconv.Itoa(userID)   // Cache key for this collection
		var addresses []domain.Address                         // Slice to hold addresses
		found, err := utils.GetCache(ctx, rdb, cacheKey, &addresses) // Try to get from cache
		// If found in cache, return it
		if err == nil && found {
			c.JSON(http.StatusOK, gin.H{"addresses": addresses, "cached": true})
			return
		}
		var user domain.User // The owning user must exist
		if err := db.First(&user, userID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"}) // Return not found
			return
		}
		// Fetch the collection from the DB
		if err := db.Where("user_id = ?", user.ID).Find(&addresses).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch addresses"})
			return
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, addresses, cacheTTL)           // Cache the collection
		c.JSON(http.StatusOK, gin.H{"addresses": addresses, "cached": false}) // Return the collection
	}
}

// UpdateAddressHandler updates an address, optionally reassigning it to
// another user; reassignment is the only way to detach an address without
// it being deleted
func UpdateAddressHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id")) // Parse the address id
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid address id"})
			return
		}
		var req UpdateAddressRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
			return
		}
		var address domain.Address // Fetch the address to update
		if err := db.First(&address, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Address not found"}) // Return not found
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch address"})
			return
		}
		oldOwner := address.UserID // Remember the current owner for cache invalidation
		// Apply only the fields present in the request
		updates := map[string]any{}
		if req.EmailAddress != nil {
			updates["email_address"] = *req.EmailAddress // New email address
		}
		if req.Neighborhood != nil {
			updates["neighborhood"] = *req.Neighborhood // New neighborhood
		}
		if req.UserID != nil {
			var newOwner domain.User // The new owner must exist
			if err := db.First(&newOwner, *req.UserID).Error; err != nil {
				// Reassignment to a nonexistent user would break referential integrity
				c.JSON(http.StatusNotFound, gin.H{"error": "Target user not found"})
				return
			}
			updates["user_id"] = newOwner.ID // Reassign to the new owner
		}
		if len(updates) > 0 {
			// Persist the update
			if err := db.Model(&address).Updates(updates).Error; err != nil {
				logrus.WithFields(logrus.Fields{
					"address_id": address.ID,  // Address ID
					"error":      err.Error(), // Error message
				}).Error("Failed to update address") // Log failure
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update address"})
				return
			}
		}
		invalidateUserCaches(rdb, oldOwner) // Drop the old owner's cached reads
		if address.UserID != oldOwner {
			invalidateUserCaches(rdb, address.UserID) // And the new owner's, if reassigned
		}
		c.JSON(http.StatusOK, gin.H{"address": address}) // Return the updated address
	}
}

// DeleteAddressHandler removes an address from its owner's collection;
// with no reassignment the orphaned row is deleted outright
func DeleteAddressHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id")) // Parse the address id
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid address id"})
			return
		}
		var address domain.Address // Fetch the address to delete
		if err := db.First(&address, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Address not found"}) // Return not found
			return
		}
		// Delete the orphaned row
		if err := db.Delete(&address).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"address_id": address.ID,  // Address ID
				"user_id":    address.UserID, // Owning user ID
				"error":      err.Error(),    // Error message
			}).Error("Failed to delete address") // Log failure
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete address"})
			return
		}
		invalidateUserCaches(rdb, address.UserID)                  // Drop the owner's cached reads
		c.JSON(http.StatusOK, gin.H{"message": "Address deleted"}) // Return success response
	}
}
