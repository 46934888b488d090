package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "budgetify/internal/errors"
	"budgetify/internal/models"
	"budgetify/internal/pagination"
)

// recurringRecord is satisfied by *models.Subscription and *models.Obligation.
type recurringRecord[T any] interface {
	*T
	Recurring() *models.RecurringPayment
}

// recurringService handles subscriptions and obligations, which only differ
// in whether they carry categories.
type recurringService[T any, P recurringRecord[T]] struct {
	db    *gorm.DB
	guard CardVerifier
}

// NewSubscriptionService creates a new SubscriptionServicer.
func NewSubscriptionService(db *gorm.DB, guard CardVerifier) SubscriptionServicer {
	return &recurringService[models.Subscription, *models.Subscription]{db: db, guard: guard}
}

// NewObligationService creates a new ObligationServicer.
func NewObligationService(db *gorm.DB, guard CardVerifier) ObligationServicer {
	return &recurringService[models.Obligation, *models.Obligation]{db: db, guard: guard}
}

// Create stores a new recurring payment on one of the user's cards.
func (s *recurringService[T, P]) Create(ctx context.Context, userID string, in RecurringInput) (*T, error) {
	if in.Type == "" {
		in.Type = models.TransactionTypeExpense
	}
	if err := validateRecurringInput(in); err != nil {
		return nil, err
	}

	if _, err := s.guard.VerifyCard(ctx, userID, in.CardID); err != nil {
		return nil, err
	}

	var record T
	p := P(&record)
	*p.Recurring() = models.RecurringPayment{
		UserID:           userID,
		CardID:           in.CardID,
		Title:            strings.TrimSpace(in.Title),
		Amount:           in.Amount,
		Type:             in.Type,
		PaymentStartDate: in.PaymentStartDate,
		PaymentEndDate:   in.PaymentEndDate,
		Description:      in.Description,
		IsActive:         true,
	}
	setCategories(p, in.Categories)

	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &record, nil
}

// List retrieves a paginated list of the user's recurring payments, soonest
// due first.
func (s *recurringService[T, P]) List(userID string, page pagination.PageRequest) (*pagination.PageResponse[T], error) {
	result, err := pagination.Find[T](
		s.db.Model(P(new(T))).Where("user_id = ?", userID), page, "payment_start_date ASC, created_at ASC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// Get retrieves a recurring payment owned by the user.
func (s *recurringService[T, P]) Get(userID, id string) (*T, error) {
	var record T
	if err := s.db.Where("id = ? AND user_id = ?", id, userID).First(P(&record)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRecurringPaymentNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &record, nil
}

// Update changes a recurring payment. Moving it to another card re-checks
// ownership of that card.
func (s *recurringService[T, P]) Update(ctx context.Context, userID, id string, fields RecurringUpdateFields) (*T, error) {
	record, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}
	current := P(record).Recurring()

	// Validate the merged result, not just the changed fields.
	merged := RecurringInput{
		CardID:           current.CardID,
		Title:            current.Title,
		Amount:           current.Amount,
		Type:             current.Type,
		PaymentStartDate: current.PaymentStartDate,
		PaymentEndDate:   current.PaymentEndDate,
		Description:      current.Description,
	}
	updates := make(map[string]interface{})

	if fields.CardID != nil {
		merged.CardID = *fields.CardID
		updates["card_id"] = *fields.CardID
	}
	if fields.Title != nil {
		merged.Title = *fields.Title
		updates["title"] = strings.TrimSpace(*fields.Title)
	}
	if fields.Amount != nil {
		merged.Amount = *fields.Amount
		updates["amount"] = *fields.Amount
	}
	if fields.Type != nil {
		merged.Type = *fields.Type
		updates["type"] = *fields.Type
	}
	if fields.PaymentStartDate != nil {
		merged.PaymentStartDate = *fields.PaymentStartDate
		updates["payment_start_date"] = fields.PaymentStartDate.UTC()
	}
	if fields.PaymentEndDate != nil {
		merged.PaymentEndDate = *fields.PaymentEndDate
		updates["payment_end_date"] = fields.PaymentEndDate.UTC()
	}
	if fields.Description != nil {
		updates["description"] = *fields.Description
	}
	if fields.IsActive != nil {
		updates["is_active"] = *fields.IsActive
	}
	sub, hasCategories := any(P(record)).(*models.Subscription)
	updateCategories := fields.Categories != nil && hasCategories

	if err := validateRecurringInput(merged); err != nil {
		return nil, err
	}
	if _, err := s.guard.VerifyCard(ctx, userID, merged.CardID); err != nil {
		return nil, err
	}

	if len(updates) == 0 && !updateCategories {
		return record, nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(P(new(T))).Where("id = ?", current.ID).Updates(updates).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		if updateCategories {
			// Struct updates run the JSON serializer; map updates would not.
			setCategories(sub, *fields.Categories)
			if err := tx.Model(sub).Select("categories").Updates(sub).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Reload to get fresh data
	return s.Get(userID, id)
}

// Delete removes a recurring payment owned by the user.
func (s *recurringService[T, P]) Delete(userID, id string) error {
	res := s.db.Where("id = ? AND user_id = ?", id, userID).Delete(P(new(T)))
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrRecurringPaymentNotFound
	}
	return nil
}

func validateRecurringInput(in RecurringInput) error {
	switch {
	case in.CardID == "":
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "card ID is required")
	case strings.TrimSpace(in.Title) == "":
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "title is required")
	case in.Amount <= 0:
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	case !in.Type.Valid():
		return apperrors.ErrInvalidTransactionType
	case in.PaymentStartDate.IsZero():
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "payment start date is required")
	case !in.PaymentEndDate.IsZero() && in.PaymentEndDate.Before(in.PaymentStartDate):
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "payment end date must not be before the start date")
	}
	return nil
}

func setCategories(record any, categories []string) {
	if sub, ok := record.(*models.Subscription); ok {
		if categories == nil {
			categories = []string{}
		}
		sub.Categories = categories
	}
}
