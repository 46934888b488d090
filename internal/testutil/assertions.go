package testutil

import (
	"testing"

	"gorm.io/gorm"

	apperrors "budgetify/internal/errors"
	"budgetify/internal/models"
)

// AssertAppError fails unless err carries the given AppError code.
func AssertAppError(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error %s, got nil", code)
	}
	if got := apperrors.CodeOf(err); got != code {
		t.Fatalf("expected error %s, got %q (%v)", code, got, err)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertCardBalance reloads the card and compares its stored balance.
func AssertCardBalance(t *testing.T, db *gorm.DB, cardID string, want int64) {
	t.Helper()
	var card models.Card
	if err := db.First(&card, "id = ?", cardID).Error; err != nil {
		t.Fatalf("load card %s: %v", cardID, err)
	}
	if card.Balance != want {
		t.Errorf("card %s: expected balance %d, got %d", cardID, want, card.Balance)
	}
}

// AssertPiggyBankBalance reloads the piggy bank and compares its stored balance.
func AssertPiggyBankBalance(t *testing.T, db *gorm.DB, piggyBankID string, want int64) {
	t.Helper()
	var pb models.PiggyBank
	if err := db.First(&pb, "id = ?", piggyBankID).Error; err != nil {
		t.Fatalf("load piggy bank %s: %v", piggyBankID, err)
	}
	if pb.Balance != want {
		t.Errorf("piggy bank %s: expected balance %d, got %d", piggyBankID, want, pb.Balance)
	}
}
