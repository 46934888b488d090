package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	apperrors "budgetify/internal/errors"
	"budgetify/internal/models"
	"budgetify/internal/money"
	"budgetify/internal/pagination"
)

// cardService handles card-related business logic.
type cardService struct {
	db    *gorm.DB
	guard CardVerifier
}

// NewCardService creates a new CardServicer.
func NewCardService(db *gorm.DB, guard CardVerifier) CardServicer {
	return &cardService{db: db, guard: guard}
}

// CreateCard creates a new card for a user
func (s *cardService) CreateCard(userID, title, currency, description string, balance int64) (*models.Card, error) {
	if strings.TrimSpace(title) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "card title is required")
	}
	if balance < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "balance cannot be negative")
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = money.DefaultCurrency
	}
	if !money.IsCurrency(currency) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unsupported currency "+currency)
	}

	card := &models.Card{
		UserID:      userID,
		Title:       strings.TrimSpace(title),
		Currency:    currency,
		Balance:     balance,
		Description: description,
	}
	if err := s.db.Create(card).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return card, nil
}

// GetUserCards retrieves a paginated list of cards for a user.
func (s *cardService) GetUserCards(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Card], error) {
	result, err := pagination.Find[models.Card](
		s.db.Model(&models.Card{}).Where("user_id = ?", userID), page, "created_at DESC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// GetCardByID retrieves a card owned by the user. Cards of other users are
// reported as not found.
func (s *cardService) GetCardByID(ctx context.Context, userID, cardID string) (*models.Card, error) {
	return s.guard.VerifyCard(ctx, userID, cardID)
}

// UpdateCard updates the descriptive fields of a card. The balance is never
// edited directly.
func (s *cardService) UpdateCard(ctx context.Context, userID, cardID string, fields CardUpdateFields) (*models.Card, error) {
	card, err := s.guard.VerifyCard(ctx, userID, cardID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if fields.Title != nil {
		title := strings.TrimSpace(*fields.Title)
		if title == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "card title cannot be empty")
		}
		updates["title"] = title
	}
	if fields.Currency != nil && *fields.Currency != "" {
		currency := strings.ToUpper(*fields.Currency)
		if !money.IsCurrency(currency) {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unsupported currency "+currency)
		}
		updates["currency"] = currency
	}
	if fields.Description != nil {
		updates["description"] = *fields.Description
	}

	if len(updates) > 0 {
		if err := s.db.Model(card).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		// Reload to get fresh data
		if err := s.db.Where("id = ?", card.ID).First(card).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return card, nil
}

// DeleteCard removes a card. Cards that still carry a piggy bank cannot be
// deleted; the piggy bank has to go first so its savings return to the card.
func (s *cardService) DeleteCard(ctx context.Context, userID, cardID string) error {
	card, err := s.guard.VerifyCard(ctx, userID, cardID)
	if err != nil {
		return err
	}

	var piggyBanks int64
	if err := s.db.Model(&models.PiggyBank{}).Where("card_id = ?", card.ID).Count(&piggyBanks).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if piggyBanks > 0 {
		return apperrors.WithMessage(apperrors.ErrConflict, "delete the card's piggy bank first")
	}

	if err := s.db.Delete(card).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
