package domain

import (
	"errors" // Sentinel validation errors
	"fmt"    // String formatting
	"time"   // Expiry window validation

	"github.com/shopspring/decimal" // Exact fixed-point currency amounts
)

// Card brands
const (
	BrandVisa       = "visa"       // Visa
	BrandMastercard = "mastercard" // Mastercard
	BrandAmex       = "amex"       // American Express
	BrandElo        = "elo"        // Elo
	BrandOther      = "outros"     // Anything else
)

// Human-readable labels per brand
var brandLabels = map[string]string{
	BrandVisa:       "Visa",
	BrandMastercard: "Mastercard",
	BrandAmex:       "American Express",
	BrandElo:        "Elo",
	BrandOther:      "Outros",
}

// ExpiryYearWindow is how many years past the current one a card may expire in
const ExpiryYearWindow = 14

// Card validation errors
var (
	ErrInvalidBrand      = errors.New("unknown card brand")
	ErrNegativeLimit     = errors.New("credit limit must not be negative")
	ErrInvalidExpiry     = errors.New("expiry month must be between 1 and 12")
	ErrExpiryOutOfWindow = errors.New("expiry year outside the allowed window")
)

// Card Model
type Card struct {
	ID             uint            `gorm:"primaryKey"`                      // Primary key
	UserID         uint            `gorm:"index;not null"`                  // Foreign key to the owning User
	Name           string          `gorm:"size:100;not null"`               // Display name
	Number         string          `gorm:"size:16;not null"`                // Account number; only last 4 digits ever rendered
	ExpiryMonth    int             `gorm:"not null"`                        // Expiry month 1..12
	ExpiryYear     int             `gorm:"not null"`                        // Expiry year within the forward window
	Limit          decimal.Decimal `gorm:"column:credit_limit;type:decimal(10,2);not null"` // Credit limit, 2 decimal places; column renamed to dodge the LIMIT keyword
	CurrentBalance decimal.Decimal `gorm:"type:decimal(10,2);default:0"`    // Rechargeable running balance
	Brand          string          `gorm:"size:20;not null"`                // Brand enum: visa/mastercard/amex/elo/outros
	Expenses       []Expense       `gorm:"constraint:OnDelete:CASCADE;"`    // Expenses charged against this card
}

// Masked returns the number as **** **** **** 1234; full numbers never leave the store.
func (c *Card) Masked() string {
	if len(c.Number) < 4 {
		return ""
	}
	return "**** **** **** " + c.Number[len(c.Number)-4:]
}

// ExpiryFormatted returns the expiry as MM/YYYY
func (c *Card) ExpiryFormatted() string {
	return fmt.Sprintf("%02d/%d", c.ExpiryMonth, c.ExpiryYear)
}

// BrandLabel returns the display label for the card's brand
func (c *Card) BrandLabel() string {
	if label, ok := brandLabels[c.Brand]; ok {
		return label // Known brand
	}
	return brandLabels[BrandOther] // Fall back to the generic label
}

// ValidBrand reports whether b is one of the accepted brand values
func ValidBrand(b string) bool {
	_, ok := brandLabels[b]
	return ok
}

// ExpiryYears returns the selectable expiry years for "today": the current
// year through current year + ExpiryYearWindow, keeping selection lists finite.
func ExpiryYears(today time.Time) []int {
	years := make([]int, 0, ExpiryYearWindow+1)
	for y := today.Year(); y <= today.Year()+ExpiryYearWindow; y++ {
		years = append(years, y)
	}
	return years
}

// Validate checks the card's invariants against "today"
func (c *Card) Validate(today time.Time) error {
	if !ValidBrand(c.Brand) {
		return ErrInvalidBrand
	}
	if c.Limit.IsNegative() {
		return ErrNegativeLimit
	}
	if c.ExpiryMonth < 1 || c.ExpiryMonth > 12 {
		return ErrInvalidExpiry
	}
	if c.ExpiryYear < today.Year() || c.ExpiryYear > today.Year()+ExpiryYearWindow {
		return ErrExpiryOutOfWindow
	}
	return nil
}
