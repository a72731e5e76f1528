package domain

import (
	"time" // Expense date and creation timestamp

	"github.com/shopspring/decimal" // Exact fixed-point currency amounts
)

// Expense Model
type Expense struct {
	ID          uint            `gorm:"primaryKey"`                  // Primary key
	UserID      uint            `gorm:"index;not null"`              // Foreign key to the owning User
	CardID      uint            `gorm:"index;not null"`              // Foreign key to the charged Card
	Card        Card            `gorm:"foreignKey:CardID"`           // Charged card; owner must match UserID
	Description string          `gorm:"size:200;not null"`           // What the money went on
	Amount      decimal.Decimal `gorm:"type:decimal(10,2);not null"` // Charged amount, 2 decimal places, no sign constraint
	Date        time.Time       `gorm:"type:date;not null"`          // Calendar date of the charge, defaults to creation date
	CreatedAt   time.Time       `gorm:"autoCreateTime"`              // Timestamp of creation
	Attachments []Attachment    `gorm:"constraint:OnDelete:CASCADE;"` // Receipt files attached to this expense
}
