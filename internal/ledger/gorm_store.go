package ledger

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "budgetify/internal/errors"
	"budgetify/internal/models"
)

// gormStore implements Store on top of GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a Store backed by db.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) FindCardByID(ctx context.Context, id string) (*models.Card, error) {
	var card models.Card
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&card).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCardNotFound
		}
		return nil, storeError(err)
	}
	return &card, nil
}

func (s *gormStore) FindPiggyBankByID(ctx context.Context, id string) (*models.PiggyBank, error) {
	var pb models.PiggyBank
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&pb).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPiggyBankNotFound
		}
		return nil, storeError(err)
	}
	return &pb, nil
}

func (s *gormStore) FindPiggyBankByCardAndUser(ctx context.Context, cardID, userID string) (*models.PiggyBank, error) {
	var pb models.PiggyBank
	err := s.db.WithContext(ctx).
		Where("card_id = ? AND user_id = ?", cardID, userID).
		First(&pb).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPiggyBankNotFound
		}
		return nil, storeError(err)
	}
	return &pb, nil
}

func (s *gormStore) UpdatePiggyBankBalance(ctx context.Context, pb *models.PiggyBank, newBalance, newSavedAmount int64) error {
	res := s.db.WithContext(ctx).
		Model(&models.PiggyBank{}).
		Where("id = ? AND version = ?", pb.ID, pb.Version).
		Updates(map[string]interface{}{
			"balance":      newBalance,
			"saved_amount": newSavedAmount,
			"version":      pb.Version + 1,
		})
	if res.Error != nil {
		return storeError(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrConflict
	}

	pb.Balance = newBalance
	pb.SavedAmount = newSavedAmount
	pb.Version++
	return nil
}

func (s *gormStore) SaveTransaction(ctx context.Context, tx *models.Transaction) error {
	if err := s.db.WithContext(ctx).Create(tx).Error; err != nil {
		return storeError(err)
	}
	return nil
}

func (s *gormStore) DeleteTransaction(ctx context.Context, tx *models.Transaction) error {
	res := s.db.WithContext(ctx).Delete(tx)
	if res.Error != nil {
		return storeError(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrTransactionNotFound
	}
	return nil
}

func (s *gormStore) FindDefinitionsDueOn(ctx context.Context, start, end time.Time) ([]Definition, error) {
	db := s.db.WithContext(ctx)
	window := "payment_start_date >= ? AND payment_start_date <= ? AND is_active = ?"

	var subscriptions []models.Subscription
	if err := db.Where(window, start.UTC(), end.UTC(), true).Find(&subscriptions).Error; err != nil {
		return nil, storeError(err)
	}

	var obligations []models.Obligation
	if err := db.Where(window, start.UTC(), end.UTC(), true).Find(&obligations).Error; err != nil {
		return nil, storeError(err)
	}

	defs := make([]Definition, 0, len(subscriptions)+len(obligations))
	for i := range subscriptions {
		defs = append(defs, DefinitionFromSubscription(&subscriptions[i]))
	}
	for i := range obligations {
		defs = append(defs, DefinitionFromObligation(&obligations[i]))
	}
	return defs, nil
}

func (s *gormStore) UpdateDefinitionNextDueDate(ctx context.Context, def Definition, next, postedOn time.Time, active bool) error {
	var model interface{}
	switch def.Kind {
	case models.RecurringKindSubscription:
		model = &models.Subscription{}
	case models.RecurringKindObligation:
		model = &models.Obligation{}
	default:
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown recurring payment kind")
	}

	res := s.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND payment_start_date = ?", def.ID, def.PaymentStartDate.UTC()).
		Updates(map[string]interface{}{
			"payment_start_date": next.UTC(),
			"last_posted_on":     postedOn.UTC(),
			"is_active":          active,
		})
	if res.Error != nil {
		return storeError(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrAlreadyPosted
	}
	return nil
}

func (s *gormStore) WithinTx(ctx context.Context, fn func(Store) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
	return storeError(err)
}
