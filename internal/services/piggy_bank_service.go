package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "budgetify/internal/errors"
	"budgetify/internal/models"
	"budgetify/internal/pagination"
)

// piggyBankService handles piggy-bank-related business logic.
type piggyBankService struct {
	db    *gorm.DB
	guard CardVerifier
}

// NewPiggyBankService creates a new PiggyBankServicer.
func NewPiggyBankService(db *gorm.DB, guard CardVerifier) PiggyBankServicer {
	return &piggyBankService{db: db, guard: guard}
}

// CreatePiggyBank opens a piggy bank on one of the user's cards. The initial
// saved amount is moved off the card balance.
func (s *piggyBankService) CreatePiggyBank(ctx context.Context, userID string, in PiggyBankInput) (*models.PiggyBank, error) {
	if strings.TrimSpace(in.Goal) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "goal is required")
	}
	if in.GoalAmount < 0 || in.SavedAmount < 0 || in.Balance < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amounts cannot be negative")
	}
	if in.Date.IsZero() {
		in.Date = time.Now()
	}

	card, err := s.guard.VerifyCard(ctx, userID, in.CardID)
	if err != nil {
		return nil, err
	}

	pb := &models.PiggyBank{
		UserID:      userID,
		CardID:      card.ID,
		Goal:        strings.TrimSpace(in.Goal),
		GoalAmount:  in.GoalAmount,
		SavedAmount: in.SavedAmount,
		Balance:     in.Balance,
		Date:        in.Date,
		Version:     1,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.PiggyBank{}).
			Where("card_id = ? AND user_id = ?", card.ID, userID).
			Count(&existing).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if existing > 0 {
			return apperrors.ErrPiggyBankExists
		}

		if err := tx.Create(pb).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if in.SavedAmount > 0 {
			if err := tx.Model(&models.Card{}).Where("id = ?", card.ID).
				Update("balance", gorm.Expr("balance - ?", in.SavedAmount)).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return pb, nil
}

// GetUserPiggyBanks retrieves a paginated list of piggy banks on cards the
// user owns.
func (s *piggyBankService) GetUserPiggyBanks(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.PiggyBank], error) {
	q := s.db.Model(&models.PiggyBank{}).
		Where("user_id = ? AND card_id IN (?)", userID,
			s.db.Model(&models.Card{}).Select("id").Where("user_id = ?", userID))

	result, err := pagination.Find[models.PiggyBank](q, page, "created_at DESC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// GetPiggyBankByID retrieves a piggy bank after re-checking that its card
// belongs to the user.
func (s *piggyBankService) GetPiggyBankByID(ctx context.Context, userID, piggyBankID string) (*models.PiggyBank, error) {
	var pb models.PiggyBank
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", piggyBankID, userID).First(&pb).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPiggyBankNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if _, err := s.guard.VerifyCard(ctx, userID, pb.CardID); err != nil {
		if errors.Is(err, apperrors.ErrCardNotFound) {
			return nil, apperrors.ErrPiggyBankNotFound
		}
		return nil, err
	}
	return &pb, nil
}

// UpdatePiggyBank updates the goal fields of a piggy bank.
func (s *piggyBankService) UpdatePiggyBank(ctx context.Context, userID, piggyBankID string, fields PiggyBankUpdateFields) (*models.PiggyBank, error) {
	pb, err := s.GetPiggyBankByID(ctx, userID, piggyBankID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if fields.Goal != nil {
		goal := strings.TrimSpace(*fields.Goal)
		if goal == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "goal cannot be empty")
		}
		updates["goal"] = goal
	}
	if fields.GoalAmount != nil {
		if *fields.GoalAmount < 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "goal amount cannot be negative")
		}
		updates["goal_amount"] = *fields.GoalAmount
	}
	if fields.Date != nil {
		updates["date"] = fields.Date.UTC()
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&models.PiggyBank{}).Where("id = ?", pb.ID).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := s.db.WithContext(ctx).Where("id = ?", pb.ID).First(pb).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return pb, nil
}

// DeletePiggyBank removes a piggy bank and returns its saved amount to the
// card balance.
func (s *piggyBankService) DeletePiggyBank(ctx context.Context, userID, piggyBankID string) error {
	pb, err := s.GetPiggyBankByID(ctx, userID, piggyBankID)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Hard delete frees the (card, user) slot for a new piggy bank.
		res := tx.Unscoped().Where("id = ? AND version = ?", pb.ID, pb.Version).Delete(&models.PiggyBank{})
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrConflict
		}

		if pb.SavedAmount > 0 {
			if err := tx.Model(&models.Card{}).Where("id = ?", pb.CardID).
				Update("balance", gorm.Expr("balance + ?", pb.SavedAmount)).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return nil
	})
}
