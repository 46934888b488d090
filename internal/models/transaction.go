package models

import (
	"time"

	"gorm.io/gorm"
)

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

// Transaction is an immutable record of a single posted payment.
type Transaction struct {
	Base
	UserID      string          `gorm:"type:uuid;not null;index" json:"user_id"`
	CardID      string          `gorm:"type:uuid;not null;index" json:"card_id"`
	Title       string          `gorm:"not null" json:"title"`
	Payee       string          `json:"payee,omitempty"`
	Files       []string        `gorm:"serializer:json" json:"files,omitempty"`
	Categories  []string        `gorm:"serializer:json;not null" json:"categories"`
	Type        TransactionType `gorm:"not null" json:"type"`
	Amount      int64           `gorm:"type:bigint;not null" json:"amount"`
	Description string          `json:"description,omitempty"`
	PaymentDate time.Time       `gorm:"not null;index" json:"payment_date"`

	// Set when the transaction was posted from a subscription or obligation.
	RecurringKind RecurringKind `json:"recurring_kind,omitempty"`
	RecurringID   *string       `gorm:"type:uuid;index" json:"recurring_id,omitempty"`
}

// BeforeSave stores dates in UTC.
func (t *Transaction) BeforeSave(tx *gorm.DB) error {
	t.PaymentDate = t.PaymentDate.UTC()
	return nil
}
