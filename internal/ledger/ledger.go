package ledger

import (
	"context"

	"go.uber.org/zap"

	apperrors "budgetify/internal/errors"
	"budgetify/internal/models"
)

// Ledger posts and reverses transactions while keeping piggy bank balances
// consistent. Every operation re-verifies the ownership chain.
type Ledger struct {
	store   Store
	mutator *Mutator
	log     *zap.SugaredLogger
}

// New creates a Ledger over store.
func New(store Store, log *zap.SugaredLogger) *Ledger {
	return &Ledger{
		store:   store,
		mutator: NewMutator(log),
		log:     log,
	}
}

// Store returns the underlying store.
func (l *Ledger) Store() Store {
	return l.store
}

// VerifyCard checks that userID owns cardID.
func (l *Ledger) VerifyCard(ctx context.Context, userID, cardID string) (*models.Card, error) {
	return verifyCard(ctx, l.store, userID, cardID)
}

// VerifyOwnership checks the user -> card -> piggy bank chain and returns the
// piggy bank linked to cardID.
func (l *Ledger) VerifyOwnership(ctx context.Context, userID, cardID string) (*models.PiggyBank, error) {
	return verifyOwnership(ctx, l.store, userID, cardID)
}

// PostTransaction applies tx to the owner's piggy bank and stores it, all in
// one database transaction.
func (l *Ledger) PostTransaction(ctx context.Context, tx *models.Transaction) (*models.PiggyBank, error) {
	var pb *models.PiggyBank
	err := l.store.WithinTx(ctx, func(s Store) error {
		var err error
		pb, err = l.post(ctx, s, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pb, nil
}

// ReverseTransaction deletes tx and undoes its balance effect.
func (l *Ledger) ReverseTransaction(ctx context.Context, tx *models.Transaction) (*models.PiggyBank, error) {
	var pb *models.PiggyBank
	err := l.store.WithinTx(ctx, func(s Store) error {
		owned, err := verifyOwnership(ctx, s, tx.UserID, tx.CardID)
		if err != nil {
			return err
		}
		if err := s.DeleteTransaction(ctx, tx); err != nil {
			return err
		}
		pb, err = l.mutator.ReversePosting(ctx, s, owned, tx.Amount, tx.Type)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pb, nil
}

// post runs the posting steps against s, which must already be
// transaction-bound.
func (l *Ledger) post(ctx context.Context, s Store, tx *models.Transaction) (*models.PiggyBank, error) {
	if tx.Amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if !tx.Type.Valid() {
		return nil, apperrors.ErrInvalidTransactionType
	}

	pb, err := verifyOwnership(ctx, s, tx.UserID, tx.CardID)
	if err != nil {
		return nil, err
	}

	pb, err = l.mutator.ApplyPosting(ctx, s, pb, tx.Amount, tx.Type)
	if err != nil {
		return nil, err
	}

	if err := s.SaveTransaction(ctx, tx); err != nil {
		return nil, err
	}
	return pb, nil
}
