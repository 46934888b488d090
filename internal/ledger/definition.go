package ledger

import (
	"time"

	apperrors "budgetify/internal/errors"
	"budgetify/internal/models"
)

// Definition is a recurring payment as seen by the poster. Subscriptions and
// obligations are structurally identical for posting purposes.
type Definition struct {
	Kind             models.RecurringKind
	ID               string
	UserID           string
	CardID           string
	Title            string
	Categories       []string
	Amount           int64
	Type             models.TransactionType
	PaymentStartDate time.Time
	PaymentEndDate   time.Time
	Description      string
	LastPostedOn     *time.Time
	IsActive         bool
}

// DefinitionFromSubscription adapts a stored subscription.
func DefinitionFromSubscription(s *models.Subscription) Definition {
	d := fromRecurring(models.RecurringKindSubscription, &s.RecurringPayment)
	d.Categories = s.Categories
	return d
}

// DefinitionFromObligation adapts a stored obligation.
func DefinitionFromObligation(o *models.Obligation) Definition {
	return fromRecurring(models.RecurringKindObligation, &o.RecurringPayment)
}

func fromRecurring(kind models.RecurringKind, r *models.RecurringPayment) Definition {
	t := r.Type
	if t == "" {
		t = models.TransactionTypeExpense
	}
	return Definition{
		Kind:             kind,
		ID:               r.ID,
		UserID:           r.UserID,
		CardID:           r.CardID,
		Title:            r.Title,
		Amount:           r.Amount,
		Type:             t,
		PaymentStartDate: r.PaymentStartDate,
		PaymentEndDate:   r.PaymentEndDate,
		Description:      r.Description,
		LastPostedOn:     r.LastPostedOn,
		IsActive:         r.IsActive,
	}
}

// Validate rejects definitions that cannot be posted at all.
func (d Definition) Validate() error {
	switch {
	case d.ID == "":
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "recurring payment has no id")
	case d.UserID == "" || d.CardID == "":
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "recurring payment must reference a user and a card")
	case d.Amount <= 0:
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "recurring payment amount must be greater than zero")
	case !d.Type.Valid():
		return apperrors.ErrInvalidTransactionType
	case d.PaymentStartDate.IsZero():
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "recurring payment has no due date")
	}
	return nil
}

// Transaction builds the transaction posted for the current due date.
func (d Definition) Transaction() *models.Transaction {
	categories := d.Categories
	if d.Kind == models.RecurringKindObligation || len(categories) == 0 {
		categories = []string{d.Title}
	}
	id := d.ID
	return &models.Transaction{
		UserID:        d.UserID,
		CardID:        d.CardID,
		Title:         d.Title,
		Categories:    append([]string(nil), categories...),
		Type:          d.Type,
		Amount:        d.Amount,
		Description:   d.Description,
		PaymentDate:   d.PaymentStartDate,
		RecurringKind: d.Kind,
		RecurringID:   &id,
	}
}
