package api

import (
	"net/http" // HTTP status codes
	"regexp"   // Card number validation
	"strconv"  // String conversion
	"time"     // "Today" for expiry validation

	"creditmanager/internal/domain"  // Importing domain models
	"creditmanager/internal/service" // Cascade deletion

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Exact currency amounts
	"github.com/sirupsen/logrus"    // Logging library
	"gorm.io/gorm"                  // GORM ORM library
)

// CardRequest carries the admin card form: the owner is selected explicitly
// and may be reassigned on edit
type CardRequest struct {
	UserID      uint            `json:"user_id" binding:"required"`      // Owning non-admin user
	Name        string          `json:"name" binding:"required"`         // Display name
	Number      string          `json:"number" binding:"required"`       // Account number, digits only
	ExpiryMonth int             `json:"expiry_month" binding:"required"` // Expiry month 1..12
	ExpiryYear  int             `json:"expiry_year" binding:"required"`  // Expiry year within the window
	Limit       decimal.Decimal `json:"limit"`                           // Credit limit; zero is allowed
	Brand       string          `json:"brand" binding:"required"`        // Brand enum value
}

// CardResponse is the card view returned to clients; the number is only
// ever rendered masked
type CardResponse struct {
	ID             uint            `json:"id"`              // Card ID
	UserID         uint            `json:"user_id"`         // Owning user
	Name           string          `json:"name"`            // Display name
	MaskedNumber   string          `json:"masked_number"`   // **** **** **** 1234
	Expiry         string          `json:"expiry"`          // MM/YYYY
	Limit          decimal.Decimal `json:"limit"`           // Credit limit
	CurrentBalance decimal.Decimal `json:"current_balance"` // Rechargeable running balance
	Brand          string          `json:"brand"`           // Brand enum value
	BrandLabel     string          `json:"brand_label"`     // Human-readable brand
}

// cardResponse maps a card to its client view
func cardResponse(c *domain.Card) CardResponse {
	return CardResponse{
		ID:             c.ID,
		UserID:         c.UserID,
		Name:           c.Name,
		MaskedNumber:   c.Masked(),
		Expiry:         c.ExpiryFormatted(),
		Limit:          c.Limit,
		CurrentBalance: c.CurrentBalance,
		Brand:          c.Brand,
		BrandLabel:     c.BrandLabel(),
	}
}

// cardNumberPattern accepts plain digit strings of plausible card length
var cardNumberPattern = regexp.MustCompile(`^[0-9]{13,16}$`)

// bindCard validates a card request against a target owner and the card
// invariants, writing the error response itself. Returns nil on failure.
func bindCard(c *gin.Context, db *gorm.DB) *domain.Card {
	var req CardRequest // Bind JSON request to struct
	if err := c.ShouldBindJSON(&req); err != nil {
		// If binding fails, return bad request
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return nil
	}
	// The owner must exist and must not be an admin
	var owner domain.User
	if err := db.First(&owner, req.UserID).Error; err != nil || owner.IsAdmin {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Owner must be an existing non-admin user", "field": "user_id"})
		return nil
	}
	// Validate the number shape; the full number is stored but never rendered
	if !cardNumberPattern.MatchString(req.Number) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Card number must be 13-16 digits", "field": "number"})
		return nil
	}
	card := &domain.Card{
		UserID:      req.UserID,
		Name:        req.Name,
		Number:      req.Number,
		ExpiryMonth: req.ExpiryMonth,
		ExpiryYear:  req.ExpiryYear,
		Limit:       req.Limit,
		Brand:       req.Brand,
	}
	// Check the card invariants: brand enum, non-negative limit, expiry window
	if err := card.Validate(time.Now()); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil
	}
	return card
}

// CreateCardHandler lets an admin create a card bound to a non-admin owner
func CreateCardHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		card := bindCard(c, db) // Validate request and invariants
		if card == nil {
			return // Response already written
		}
		// Save the new card
		if err := db.Create(card).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": card.UserID, // Intended owner
				"error":   err.Error(), // Error message
			}).Error("Failed to create card") // Log failure
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create card"})
			return
		}
		// Log successful card creation
		logrus.WithFields(logrus.Fields{
			"card_id": card.ID,     // New card ID
			"user_id": card.UserID, // Owning user
			"brand":   card.Brand,  // Card brand
		}).Info("Card created")
		invalidateSummaries(c, card.UserID) // The owner's totals changed
		c.JSON(http.StatusCreated, gin.H{"message": "Card created", "card": cardResponse(card)})
	}
}

// GetCardHandler returns one card, admin-only, number masked
func GetCardHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id")) // Card ID from the path
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Card not found"})
			return
		}
		var card domain.Card // Fetch card from database
		if err := db.First(&card, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Card not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"card": cardResponse(&card)})
	}
}

// UpdateCardHandler lets an admin edit a card, including reassigning its owner
func UpdateCardHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id")) // Card ID from the path
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Card not found"})
			return
		}
		var existing domain.Card // Fetch card from database
		if err := db.First(&existing, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Card not found"})
			return
		}
		card := bindCard(c, db) // Validate request and invariants
		if card == nil {
			return // Response already written
		}
		previousOwner := existing.UserID // Remember the previous owner for cache invalidation
		// Apply the edit, keeping identity and running balance
		existing.UserID = card.UserID
		existing.Name = card.Name
		existing.Number = card.Number
		existing.ExpiryMonth = card.ExpiryMonth
		existing.ExpiryYear = card.ExpiryYear
		existing.Limit = card.Limit
		existing.Brand = card.Brand
		if err := db.Save(&existing).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update card"})
			return
		}
		// Log successful update
		logrus.WithFields(logrus.Fields{
			"card_id": existing.ID,     // Card ID
			"user_id": existing.UserID, // Current owner
		}).Info("Card updated")
		invalidateSummaries(c, previousOwner) // Old owner's totals changed
		if existing.UserID != previousOwner {
			invalidateSummaries(c, existing.UserID) // And the new owner's, when reassigned
		}
		c.JSON(http.StatusOK, gin.H{"message": "Card updated", "card": cardResponse(&existing)})
	}
}

// DeleteCardHandler removes a card and cascades over its expenses,
// attachment records, and attachment files
func DeleteCardHandler(svc *service.Service, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id")) // Card ID from the path
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Card not found"})
			return
		}
		var card domain.Card // Load first to learn the owner for cache invalidation
		if err := db.First(&card, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Card not found"})
			return
		}
		// Tear down the card tree: files first, then rows
		if err := svc.DeleteCard(card.ID); err != nil {
			if err == gorm.ErrRecordNotFound {
				c.JSON(http.StatusNotFound, gin.H{"error": "Card not found"})
				return
			}
			logrus.WithFields(logrus.Fields{
				"card_id": card.ID,     // Card ID
				"error":   err.Error(), // Error message
			}).Error("Failed to delete card") // Log failure
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete card"})
			return
		}
		invalidateSummaries(c, card.UserID) // The owner's totals changed
		c.JSON(http.StatusOK, gin.H{"message": "Card deleted"})
	}
}

// RechargeRequest carries the amount to add to a card's running balance
type RechargeRequest struct {
	Amount decimal.Decimal `json:"amount"` // Recharge amount, must be positive
}

// RechargeCardHandler adds an amount to a card's running balance. The
// increment happens in SQL so concurrent recharges never lose an update.
func RechargeCardHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id")) // Card ID from the path
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Card not found"})
			return
		}
		var card domain.Card // Fetch card from database
		if err := db.First(&card, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Card not found"})
			return
		}
		var req RechargeRequest // Bind JSON request to struct
		// Validate request: the amount must be strictly positive
		if err := c.ShouldBindJSON(&req); err != nil || !req.Amount.IsPositive() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amount"})
			return
		}
		// Atomic increment
		err = db.Transaction(func(tx *gorm.DB) error {
			// Increment the running balance in place
			return tx.Model(&card).Update("current_balance", gorm.Expr("current_balance + ?", req.Amount)).Error
		})
		// Handle transaction result
		if err != nil {
			// Log the error with context
			logrus.WithFields(logrus.Fields{
				"card_id": card.ID,                    // Card ID
				"amount":  req.Amount.StringFixed(2),  // Recharge amount
				"error":   err.Error(),                // Error message
			}).Error("Recharge failed") // Log recharge failure
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Recharge failed"})
			return
		}
		// Log successful recharge
		logrus.WithFields(logrus.Fields{
			"card_id": card.ID,                   // Card ID
			"user_id": card.UserID,               // Owning user
			"amount":  req.Amount.StringFixed(2), // Recharge amount
		}).Info("Card recharged")
		invalidateSummaries(c, card.UserID) // The owner's cached summaries are stale
		c.JSON(http.StatusOK, gin.H{"message": "Card recharged"})
	}
}
