package models

// Card is a payment card owned by exactly one user.
type Card struct {
	Base
	UserID      string `gorm:"type:uuid;not null;index" json:"user_id"`
	Title       string `gorm:"not null" json:"title"`
	Currency    string `gorm:"not null;default:'USD'" json:"currency"`
	Balance     int64  `gorm:"type:bigint;not null;default:0" json:"balance"`
	Description string `json:"description"`
}
