package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "budgetify/internal/errors"
	"budgetify/internal/ledger"
	"budgetify/internal/models"
	"budgetify/internal/pagination"
)

// transactionService handles transaction-related business logic. Every
// balance change goes through the ledger.
type transactionService struct {
	db     *gorm.DB
	ledger *ledger.Ledger
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, l *ledger.Ledger) TransactionServicer {
	return &transactionService{db: db, ledger: l}
}

// CreateTransaction posts a transaction against the piggy bank of the given card
func (s *transactionService) CreateTransaction(ctx context.Context, userID string, in TransactionInput) (*models.Transaction, error) {
	// Validate input
	if in.Amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if in.CardID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "card ID is required")
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "title is required")
	}
	if !in.Type.Valid() {
		return nil, apperrors.ErrInvalidTransactionType
	}

	// Default date to now if not provided
	if in.PaymentDate.IsZero() {
		in.PaymentDate = time.Now()
	}
	categories := in.Categories
	if len(categories) == 0 {
		categories = []string{strings.TrimSpace(in.Title)}
	}

	tx := &models.Transaction{
		UserID:      userID,
		CardID:      in.CardID,
		Title:       strings.TrimSpace(in.Title),
		Payee:       in.Payee,
		Files:       in.Files,
		Categories:  categories,
		Type:        in.Type,
		Amount:      in.Amount,
		Description: in.Description,
		PaymentDate: in.PaymentDate,
	}

	if _, err := s.ledger.PostTransaction(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// GetUserTransactions retrieves a paginated, filtered and sorted list of the
// user's transactions.
func (s *transactionService) GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter, sort TransactionSort) (*pagination.PageResponse[models.Transaction], error) {
	q, err := applyTransactionFilters(s.db.Model(&models.Transaction{}).Where("user_id = ?", userID), filter)
	if err != nil {
		return nil, err
	}

	result, err := pagination.Find[models.Transaction](q, page, sort.Clause(transactionSortColumns, "payment_date"))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) (*gorm.DB, error) {
	if f.FromDate != nil {
		q = q.Where("payment_date >= ?", f.FromDate.UTC())
	}
	if f.ToDate != nil {
		q = q.Where("payment_date <= ?", f.ToDate.UTC())
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.CardID != nil {
		q = q.Where("card_id = ?", *f.CardID)
	}
	if f.Category != nil {
		// Categories are stored as a JSON array; match the encoded element.
		encoded, err := json.Marshal(*f.Category)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInvalidInput, err)
		}
		q = q.Where(`categories LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(string(encoded))+"%")
	}
	return q, nil
}

// likeEscaper makes LIKE wildcards in a pattern match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// transactionSortColumns lists the columns listings may be sorted by.
var transactionSortColumns = []string{"payment_date"}

// GetTransactionByID retrieves a transaction by ID for a specific user
func (s *transactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.Where("id = ? AND user_id = ?", transactionID, userID).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// DeleteTransaction deletes a transaction and reverses its effect on the
// piggy bank balance
func (s *transactionService) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	transaction, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return err
	}

	_, err = s.ledger.ReverseTransaction(ctx, transaction)
	return err
}
