package models

// NotificationKind classifies in-app notifications.
type NotificationKind string

const (
	NotificationKindPaymentPosted NotificationKind = "payment_posted"
	NotificationKindPaymentFailed NotificationKind = "payment_failed"
)

// Notification is an in-app message for a user, written by the recurring
// payment poster.
type Notification struct {
	Base
	UserID  string           `gorm:"type:uuid;not null;index" json:"user_id"`
	Kind    NotificationKind `gorm:"not null" json:"kind"`
	Title   string           `gorm:"not null" json:"title"`
	Message string           `gorm:"not null" json:"message"`
	IsRead  bool             `gorm:"not null;default:false" json:"is_read"`
}
