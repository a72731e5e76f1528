package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func today() time.Time {
	return time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
}

func validCard() Card {
	return Card{
		Name:        "Daily",
		Number:      "4111111111111111",
		ExpiryMonth: 12,
		ExpiryYear:  2027,
		Limit:       decimal.RequireFromString("500.00"),
		Brand:       BrandVisa,
	}
}

func TestCardValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Card)
		wantErr error
	}{
		{"valid", func(c *Card) {}, nil},
		{"zero limit is fine", func(c *Card) { c.Limit = decimal.Zero }, nil},
		{"negative limit", func(c *Card) { c.Limit = decimal.RequireFromString("-0.01") }, ErrNegativeLimit},
		{"unknown brand", func(c *Card) { c.Brand = "diners" }, ErrInvalidBrand},
		{"month zero", func(c *Card) { c.ExpiryMonth = 0 }, ErrInvalidExpiry},
		{"month thirteen", func(c *Card) { c.ExpiryMonth = 13 }, ErrInvalidExpiry},
		{"year in the past", func(c *Card) { c.ExpiryYear = 2024 }, ErrExpiryOutOfWindow},
		{"year at window start", func(c *Card) { c.ExpiryYear = 2025 }, nil},
		{"year at window end", func(c *Card) { c.ExpiryYear = 2039 }, nil},
		{"year past the window", func(c *Card) { c.ExpiryYear = 2040 }, ErrExpiryOutOfWindow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCard()
			tt.mutate(&c)
			err := c.Validate(today())
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestCardMasked(t *testing.T) {
	c := validCard()
	assert.Equal(t, "**** **** **** 1111", c.Masked())

	c.Number = "123"
	assert.Equal(t, "", c.Masked(), "too-short numbers render nothing rather than leaking digits")
}

func TestCardExpiryFormatted(t *testing.T) {
	c := validCard()
	c.ExpiryMonth = 3
	c.ExpiryYear = 2030
	assert.Equal(t, "03/2030", c.ExpiryFormatted())
}

func TestCardBrandLabel(t *testing.T) {
	c := validCard()
	c.Brand = BrandAmex
	assert.Equal(t, "American Express", c.BrandLabel())

	c.Brand = "something-weird"
	assert.Equal(t, "Outros", c.BrandLabel())
}

func TestExpiryYears(t *testing.T) {
	years := ExpiryYears(today())
	assert.Len(t, years, ExpiryYearWindow+1, "selection list stays finite")
	assert.Equal(t, 2025, years[0])
	assert.Equal(t, 2039, years[len(years)-1])
}
