package models

import (
	"time"

	"gorm.io/gorm"
)

// RecurringKind tells subscriptions and obligations apart.
type RecurringKind string

const (
	RecurringKindSubscription RecurringKind = "subscription"
	RecurringKindObligation   RecurringKind = "obligation"
)

// Valid reports whether k is a known recurring payment kind.
func (k RecurringKind) Valid() bool {
	return k == RecurringKindSubscription || k == RecurringKindObligation
}

// RecurringPayment holds the columns shared by subscriptions and obligations.
// PaymentStartDate is the next due date; the poster advances it by one month
// after every successful posting.
type RecurringPayment struct {
	Base
	UserID           string          `gorm:"type:uuid;not null;index" json:"user_id"`
	CardID           string          `gorm:"type:uuid;not null" json:"card_id"`
	Title            string          `gorm:"not null" json:"title"`
	Amount           int64           `gorm:"type:bigint;not null" json:"amount"`
	Type             TransactionType `gorm:"not null;default:'expense'" json:"type"`
	PaymentStartDate time.Time       `gorm:"not null;index" json:"payment_start_date"`
	PaymentEndDate   time.Time       `gorm:"not null" json:"payment_end_date"`
	Description      string          `json:"description,omitempty"`
	LastPostedOn     *time.Time      `json:"last_posted_on,omitempty"`
	IsActive         bool            `gorm:"not null;default:true" json:"is_active"`
}

// BeforeSave stores dates in UTC.
func (r *RecurringPayment) BeforeSave(tx *gorm.DB) error {
	r.PaymentStartDate = r.PaymentStartDate.UTC()
	r.PaymentEndDate = r.PaymentEndDate.UTC()
	if r.LastPostedOn != nil {
		utc := r.LastPostedOn.UTC()
		r.LastPostedOn = &utc
	}
	return nil
}

// Recurring exposes the shared columns of subscriptions and obligations.
func (r *RecurringPayment) Recurring() *RecurringPayment {
	return r
}

// Subscription is a recurring payment tagged with spending categories.
type Subscription struct {
	RecurringPayment
	Categories []string `gorm:"serializer:json;not null" json:"categories"`
}

// Obligation is a recurring payment without categories; postings are
// categorized by the obligation title.
type Obligation struct {
	RecurringPayment
}
