package api

import (
	"errors"   // Error classification
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"time"     // Date parsing

	"creditmanager/internal/balance"    // Balance aggregation
	"creditmanager/internal/domain"     // Importing domain models
	"creditmanager/internal/middleware" // Current-user lookup
	"creditmanager/internal/service"    // Registration workflow and lifecycle

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Exact currency amounts
	"gorm.io/gorm"                  // GORM ORM library
)

// AttachmentResponse is one receipt in an expense listing
type AttachmentResponse struct {
	ID           uint      `json:"id"`            // Attachment ID
	OriginalName string    `json:"original_name"` // Filename as uploaded
	UploadedAt   time.Time `json:"uploaded_at"`   // Upload timestamp
}

// ExpenseResponse is one expense in a listing
type ExpenseResponse struct {
	ID          uint                 `json:"id"`          // Expense ID
	CardID      uint                 `json:"card_id"`     // Charged card
	CardName    string               `json:"card_name"`   // Card display name
	CardMasked  string               `json:"card_masked"` // Masked card number
	Description string               `json:"description"` // What the money went on
	Amount      decimal.Decimal      `json:"amount"`      // Charged amount
	Date        string               `json:"date"`        // Calendar date, YYYY-MM-DD
	Attachments []AttachmentResponse `json:"attachments"` // Receipts
}

// expenseResponses maps expenses to their client views
func expenseResponses(expenses []domain.Expense) []ExpenseResponse {
	out := make([]ExpenseResponse, 0, len(expenses))
	for _, e := range expenses {
		atts := make([]AttachmentResponse, 0, len(e.Attachments))
		for _, a := range e.Attachments {
			atts = append(atts, AttachmentResponse{ID: a.ID, OriginalName: a.OriginalName, UploadedAt: a.UploadedAt})
		}
		out = append(out, ExpenseResponse{
			ID:          e.ID,
			CardID:      e.CardID,
			CardName:    e.Card.Name,
			CardMasked:  e.Card.Masked(),
			Description: e.Description,
			Amount:      e.Amount,
			Date:        e.Date.Format("2006-01-02"),
			Attachments: atts,
		})
	}
	return out
}

// targetParam reads the admin's ?usuario= selection from the query string or
// the posted form; zero means "use the default target"
func targetParam(c *gin.Context) uint {
	raw := c.Query("usuario")
	if raw == "" {
		raw = c.PostForm("usuario")
	}
	if raw == "" {
		return 0
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id < 0 {
		return 0 // Invalid selections silently fall back to the default
	}
	return uint(id)
}

// ListExpensesHandler returns the target user's expense list plus the
// period summary with the per-card breakdown. Admins pick the target via
// ?usuario= (first non-admin user by default); everyone else sees their own.
func ListExpensesHandler(svc *service.Service, agg *balance.Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := middleware.CurrentUser(c) // Authenticated caller
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		// Resolve who this request is about
		target, err := svc.ResolveTargetUser(actor, targetParam(c))
		if err != nil {
			if errors.Is(err, service.ErrNoTargetUser) {
				// An admin with nobody to select gets an empty board
				c.JSON(http.StatusNotFound, gin.H{"error": "No non-admin users registered yet"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve target user"})
			return
		}
		selector, rng := periodParam(c) // Resolve the period once
		summary, err := agg.UserSummary(target.ID, rng)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build summary"})
			return
		}
		expenses, err := svc.ListExpenses(target.ID, rng)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch expenses"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"target_user": gin.H{"id": target.ID, "username": target.Username}, // Whose board this is
			"periodo":     selector,                                           // Period selector in effect
			"summary":     summary,                                            // Totals and per-card breakdown
			"expenses":    expenseResponses(expenses),                         // Most recent first
		})
	}
}

// RegisterExpenseHandler records a new expense from a multipart form: card
// selection, description, amount, date, and zero or more "anexos" files
func RegisterExpenseHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := middleware.CurrentUser(c) // Authenticated caller
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		cardID, err := strconv.Atoi(c.PostForm("card_id")) // Selected card
		if err != nil || cardID <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Select a card", "field": "card_id"})
			return
		}
		amount, err := decimal.NewFromString(c.PostForm("amount")) // Charged amount
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amount", "field": "amount"})
			return
		}
		var date time.Time // Zero means "today" downstream
		if raw := c.PostForm("date"); raw != "" {
			date, err = time.Parse("2006-01-02", raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD", "field": "date"})
				return
			}
		}
		// Collect the uploaded receipts, if any
		var uploads []service.AttachmentUpload
		form, err := c.MultipartForm()
		if err == nil && form != nil {
			files := form.File["anexos"]
			uploads = make([]service.AttachmentUpload, 0, len(files))
			for _, fh := range files {
				f, err := fh.Open() // multipart files are seekable
				if err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read attachment", "field": "anexos"})
					return
				}
				defer f.Close()
				uploads = append(uploads, service.AttachmentUpload{
					Filename:    fh.Filename,
					ContentType: fh.Header.Get("Content-Type"),
					Size:        fh.Size,
					Content:     f,
				})
			}
		}
		expense, err := svc.RegisterExpense(service.RegisterExpenseInput{
			Actor:        actor,
			TargetUserID: targetParam(c),
			CardID:       uint(cardID),
			Description:  c.PostForm("description"),
			Amount:       amount,
			Date:         date,
			Attachments:  uploads,
		})
		// Map workflow failures to field-level diagnostics
		if err != nil {
			switch {
			case errors.Is(err, service.ErrNoTargetUser):
				c.JSON(http.StatusNotFound, gin.H{"error": "No non-admin users registered yet"})
			case errors.Is(err, service.ErrCardOwnershipMismatch):
				c.JSON(http.StatusBadRequest, gin.H{"error": "This card does not belong to the selected user", "field": "card_id"})
			case errors.Is(err, service.ErrUnsupportedAttachmentType):
				c.JSON(http.StatusBadRequest, gin.H{"error": "Allowed types: PDF, PNG, JPG, GIF, WEBP", "field": "anexos"})
			case errors.Is(err, service.ErrAttachmentTooLarge):
				c.JSON(http.StatusBadRequest, gin.H{"error": "Each file may be at most 10 MiB", "field": "anexos"})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register expense"})
			}
			return
		}
		invalidateSummaries(c, expense.UserID) // The target user's totals changed
		c.JSON(http.StatusCreated, gin.H{"message": "Expense registered", "expense_id": expense.ID})
	}
}

// DeleteAttachmentHandler removes one receipt; allowed for admins and the
// expense's owner
func DeleteAttachmentHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := middleware.CurrentUser(c) // Authenticated caller
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		id, err := strconv.Atoi(c.Param("id")) // Attachment ID from the path
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Attachment not found"})
			return
		}
		ownerID, err := svc.DeleteAttachment(actor, uint(id))
		if err != nil {
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "Attachment not found"})
			case errors.Is(err, service.ErrForbidden):
				// HTTP-level denial, not a form error
				c.JSON(http.StatusForbidden, gin.H{"error": "You may not remove this attachment"})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete attachment"})
			}
			return
		}
		// Echo the owning user so admin clients can refresh the right board
		c.JSON(http.StatusOK, gin.H{"message": "Attachment removed", "usuario": ownerID})
	}
}
