package ledger

import (
	"context"
	"errors"

	apperrors "budgetify/internal/errors"
	"budgetify/internal/models"
)

// verifyCard resolves cardID and checks that userID owns it. A foreign card is
// reported exactly like a missing one.
func verifyCard(ctx context.Context, s Store, userID, cardID string) (*models.Card, error) {
	if userID == "" || cardID == "" {
		return nil, apperrors.ErrCardNotFound
	}
	card, err := s.FindCardByID(ctx, cardID)
	if err != nil {
		if errors.Is(err, apperrors.ErrCardNotFound) {
			return nil, apperrors.ErrCardNotFound
		}
		return nil, err
	}
	if card.UserID != userID {
		return nil, apperrors.ErrCardNotFound
	}
	return card, nil
}

// verifyOwnership walks the ownership chain user -> card -> piggy bank and
// returns the piggy bank postings for cardID should be applied to.
func verifyOwnership(ctx context.Context, s Store, userID, cardID string) (*models.PiggyBank, error) {
	if _, err := verifyCard(ctx, s, userID, cardID); err != nil {
		return nil, err
	}
	pb, err := s.FindPiggyBankByCardAndUser(ctx, cardID, userID)
	if err != nil {
		return nil, err
	}
	return pb, nil
}
