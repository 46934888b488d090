package services

import (
	"gorm.io/gorm"

	"budgetify/internal/ledger"
	"budgetify/internal/logger"
)

// newTestLedger builds the ledger that services use as their ownership guard.
func newTestLedger(db *gorm.DB) *ledger.Ledger {
	return ledger.New(ledger.NewGormStore(db), logger.Nop())
}
