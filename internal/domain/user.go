package domain

// User Model
type User struct {
	ID       uint      `gorm:"primaryKey"`      // Primary key
	Username string    `gorm:"unique;not null"` // Unique username
	Password string    `gorm:"not null"`        // Hashed password
	IsAdmin  bool      `gorm:"default:false"`   // Staff flag: admins manage cards/users, non-admins own them
	Cards    []Card    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"` // Cards owned by this user
	Expenses []Expense `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"` // Expenses logged by this user
}
