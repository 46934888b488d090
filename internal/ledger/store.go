// Package ledger posts transactions against piggy banks and turns due
// subscriptions and obligations into transactions.
//
// The store contract is deliberately small: everything that must stay
// consistent (balance writes, due date advancement) is expressed as a
// conditional update that fails with a conflict instead of overwriting a
// concurrent change.
package ledger

import (
	"context"
	"time"

	"budgetify/internal/models"
)

// Store is the persistence the ledger core depends on.
//
// Lookups answer with the matching *AppError not-found sentinel when the
// record does not exist. Connectivity failures are reported as
// ErrStoreUnavailable so callers can tell them apart from per-record problems.
type Store interface {
	FindCardByID(ctx context.Context, id string) (*models.Card, error)
	FindPiggyBankByID(ctx context.Context, id string) (*models.PiggyBank, error)
	FindPiggyBankByCardAndUser(ctx context.Context, cardID, userID string) (*models.PiggyBank, error)

	// UpdatePiggyBankBalance writes the new balances if pb.Version is still
	// current and bumps the version; otherwise it fails with ErrConflict.
	UpdatePiggyBankBalance(ctx context.Context, pb *models.PiggyBank, newBalance, newSavedAmount int64) error

	SaveTransaction(ctx context.Context, tx *models.Transaction) error
	DeleteTransaction(ctx context.Context, tx *models.Transaction) error

	// FindDefinitionsDueOn returns active subscriptions and obligations whose
	// next due date lies in [start, end].
	FindDefinitionsDueOn(ctx context.Context, start, end time.Time) ([]Definition, error)

	// UpdateDefinitionNextDueDate moves def to its next due date, provided the
	// stored due date still equals def.PaymentStartDate. A mismatch means the
	// definition was already posted and yields ErrAlreadyPosted.
	UpdateDefinitionNextDueDate(ctx context.Context, def Definition, next, postedOn time.Time, active bool) error

	// WithinTx runs fn against a store bound to a single database transaction.
	WithinTx(ctx context.Context, fn func(Store) error) error
}
