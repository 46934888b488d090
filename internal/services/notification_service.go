package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	apperrors "budgetify/internal/errors"
	"budgetify/internal/ledger"
	"budgetify/internal/models"
	"budgetify/internal/money"
	"budgetify/internal/pagination"
)

// notificationService handles in-app notifications.
type notificationService struct {
	db  *gorm.DB
	loc *time.Location
}

// NewNotificationService creates a new NotificationServicer. Dates in
// messages are printed in loc, or UTC when loc is nil.
func NewNotificationService(db *gorm.DB, loc *time.Location) NotificationServicer {
	if loc == nil {
		loc = time.UTC
	}
	return &notificationService{db: db, loc: loc}
}

// NotifyPosting tells the owner of a recurring payment how its posting went.
func (s *notificationService) NotifyPosting(ctx context.Context, result ledger.PostResult) error {
	def := result.Definition
	if def.UserID == "" {
		return nil
	}

	currency := ""
	var card models.Card
	if err := s.db.WithContext(ctx).Select("currency").Where("id = ?", def.CardID).First(&card).Error; err == nil {
		currency = card.Currency
	}
	amount := money.Format(def.Amount, currency)

	n := &models.Notification{UserID: def.UserID}
	switch result.Status {
	case ledger.PostStatusPosted:
		n.Kind = models.NotificationKindPaymentPosted
		n.Title = fmt.Sprintf("%s posted", def.Title)
		verb := "charged to"
		if def.Type == models.TransactionTypeIncome {
			verb = "credited to"
		}
		n.Message = fmt.Sprintf("%s was %s your piggy bank.", amount, verb)
		if result.Deactivated {
			n.Message += " This was the last payment."
		} else {
			n.Message += fmt.Sprintf(" Next payment is due on %s.", result.NextDueDate.In(s.loc).Format(time.DateOnly))
		}
	case ledger.PostStatusFailed:
		n.Kind = models.NotificationKindPaymentFailed
		n.Title = fmt.Sprintf("%s could not be posted", def.Title)
		reason := apperrors.ErrInternalServer.Message
		var appErr *apperrors.AppError
		if errors.As(result.Err, &appErr) {
			reason = appErr.Message
		}
		n.Message = fmt.Sprintf("Posting %s failed: %s.", amount, reason)
	default:
		return nil
	}

	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetUserNotifications retrieves a paginated list of notifications, newest first.
func (s *notificationService) GetUserNotifications(userID string, unreadOnly bool, page pagination.PageRequest) (*pagination.PageResponse[models.Notification], error) {
	q := s.db.Model(&models.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}

	result, err := pagination.Find[models.Notification](q, page, "created_at DESC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// MarkRead marks a notification as read.
func (s *notificationService) MarkRead(userID, notificationID string) (*models.Notification, error) {
	var n models.Notification
	if err := s.db.Where("id = ? AND user_id = ?", notificationID, userID).First(&n).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotificationNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if !n.IsRead {
		if err := s.db.Model(&n).Update("is_read", true).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		n.IsRead = true
	}
	return &n, nil
}
