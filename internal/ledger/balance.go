package ledger

import (
	"context"
	"errors"

	"go.uber.org/zap"

	apperrors "budgetify/internal/errors"
	"budgetify/internal/models"
)

// defaultMaxAttempts bounds compare-and-swap retries for one balance write.
const defaultMaxAttempts = 3

// ComputePosting returns the piggy bank balances after posting amount.
// Income raises both the balance and the saved amount. Expense lowers the
// balance and fails with ErrInsufficientFunds if it would go negative.
func ComputePosting(balance, saved, amount int64, t models.TransactionType) (newBalance, newSaved int64, err error) {
	switch t {
	case models.TransactionTypeIncome:
		return balance + amount, saved + amount, nil
	case models.TransactionTypeExpense:
		if balance < amount {
			return balance, saved, apperrors.ErrInsufficientFunds
		}
		return balance - amount, saved, nil
	default:
		return balance, saved, apperrors.ErrInvalidTransactionType
	}
}

// ComputeReversal undoes a previous posting of amount.
func ComputeReversal(balance, saved, amount int64, t models.TransactionType) (newBalance, newSaved int64, err error) {
	switch t {
	case models.TransactionTypeIncome:
		if balance < amount {
			return balance, saved, apperrors.ErrInsufficientFunds
		}
		newSaved = saved - amount
		if newSaved < 0 {
			newSaved = 0
		}
		return balance - amount, newSaved, nil
	case models.TransactionTypeExpense:
		return balance + amount, saved, nil
	default:
		return balance, saved, apperrors.ErrInvalidTransactionType
	}
}

// Mutator persists piggy bank balance changes with optimistic concurrency.
type Mutator struct {
	maxAttempts int
	log         *zap.SugaredLogger
}

// NewMutator creates a Mutator that retries conflicting writes a bounded
// number of times.
func NewMutator(log *zap.SugaredLogger) *Mutator {
	return &Mutator{maxAttempts: defaultMaxAttempts, log: log}
}

// ApplyPosting applies amount of type t to pb and persists the result.
// On success pb reflects the stored state.
func (m *Mutator) ApplyPosting(ctx context.Context, s Store, pb *models.PiggyBank, amount int64, t models.TransactionType) (*models.PiggyBank, error) {
	return m.apply(ctx, s, pb, func(balance, saved int64) (int64, int64, error) {
		return ComputePosting(balance, saved, amount, t)
	})
}

// ReversePosting undoes a posting of amount of type t on pb.
func (m *Mutator) ReversePosting(ctx context.Context, s Store, pb *models.PiggyBank, amount int64, t models.TransactionType) (*models.PiggyBank, error) {
	return m.apply(ctx, s, pb, func(balance, saved int64) (int64, int64, error) {
		return ComputeReversal(balance, saved, amount, t)
	})
}

func (m *Mutator) apply(ctx context.Context, s Store, pb *models.PiggyBank, compute func(balance, saved int64) (int64, int64, error)) (*models.PiggyBank, error) {
	current := pb
	for attempt := 1; ; attempt++ {
		balance, saved, err := compute(current.Balance, current.SavedAmount)
		if err != nil {
			return nil, err
		}

		err = s.UpdatePiggyBankBalance(ctx, current, balance, saved)
		if err == nil {
			return current, nil
		}
		if !errors.Is(err, apperrors.ErrConflict) || attempt >= m.maxAttempts {
			return nil, err
		}

		m.log.Debugw("piggy bank balance changed concurrently, retrying",
			"piggy_bank_id", current.ID,
			"attempt", attempt,
		)
		current, err = s.FindPiggyBankByID(ctx, current.ID)
		if err != nil {
			return nil, err
		}
	}
}
