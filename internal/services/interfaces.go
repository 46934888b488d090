package services

import (
	"context"
	"time"

	"budgetify/internal/ledger"
	"budgetify/internal/models"
	"budgetify/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string, role models.UserRole) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID string, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
	UpdateProfile(userID string, fields UserUpdateFields) (*models.User, error)
	ListUsers(page pagination.PageRequest) (*pagination.PageResponse[models.User], error)
	DeleteUser(actorID, userID string) error
	ListEmails() ([]string, error)
}

// UserUpdateFields holds the optional profile fields a user may change.
type UserUpdateFields struct {
	FirstName *string
	LastName  *string
}

// CardVerifier checks that a user owns a card. *ledger.Ledger implements it.
type CardVerifier interface {
	VerifyCard(ctx context.Context, userID, cardID string) (*models.Card, error)
}

// CardUpdateFields holds the optional fields of a card update.
type CardUpdateFields struct {
	Title       *string
	Currency    *string
	Description *string
}

// CardServicer defines the contract for card-related business logic.
type CardServicer interface {
	CreateCard(userID, title, currency, description string, balance int64) (*models.Card, error)
	GetUserCards(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Card], error)
	GetCardByID(ctx context.Context, userID, cardID string) (*models.Card, error)
	UpdateCard(ctx context.Context, userID, cardID string, fields CardUpdateFields) (*models.Card, error)
	DeleteCard(ctx context.Context, userID, cardID string) error
}

// PiggyBankInput holds the fields of a new piggy bank.
type PiggyBankInput struct {
	CardID      string
	Goal        string
	GoalAmount  int64
	SavedAmount int64
	Balance     int64
	Date        time.Time
}

// PiggyBankUpdateFields holds the optional fields of a piggy bank update.
// Balances only change through postings.
type PiggyBankUpdateFields struct {
	Goal       *string
	GoalAmount *int64
	Date       *time.Time
}

// PiggyBankServicer defines the contract for piggy-bank-related business logic.
type PiggyBankServicer interface {
	CreatePiggyBank(ctx context.Context, userID string, in PiggyBankInput) (*models.PiggyBank, error)
	GetUserPiggyBanks(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.PiggyBank], error)
	GetPiggyBankByID(ctx context.Context, userID, piggyBankID string) (*models.PiggyBank, error)
	UpdatePiggyBank(ctx context.Context, userID, piggyBankID string, fields PiggyBankUpdateFields) (*models.PiggyBank, error)
	DeletePiggyBank(ctx context.Context, userID, piggyBankID string) error
}

// TransactionInput holds the fields of a transaction posted by a user.
type TransactionInput struct {
	CardID      string
	Title       string
	Payee       string
	Files       []string
	Categories  []string
	Type        models.TransactionType
	Amount      int64
	Description string
	PaymentDate time.Time
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate *time.Time
	ToDate   *time.Time
	Type     *models.TransactionType
	CardID   *string
	Category *string
}

// TransactionSort orders transaction listings. Only payment_date is sortable.
type TransactionSort = pagination.Sort

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(ctx context.Context, userID string, in TransactionInput) (*models.Transaction, error)
	GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter, sort TransactionSort) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(userID, transactionID string) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, transactionID string) error
}

// RecurringInput holds the fields of a new subscription or obligation.
// Categories are ignored for obligations.
type RecurringInput struct {
	CardID           string
	Title            string
	Categories       []string
	Amount           int64
	Type             models.TransactionType
	PaymentStartDate time.Time
	PaymentEndDate   time.Time
	Description      string
}

// RecurringUpdateFields holds the optional fields of a recurring payment update.
type RecurringUpdateFields struct {
	CardID           *string
	Title            *string
	Categories       *[]string
	Amount           *int64
	Type             *models.TransactionType
	PaymentStartDate *time.Time
	PaymentEndDate   *time.Time
	Description      *string
	IsActive         *bool
}

// RecurringServicer defines the contract shared by subscriptions and obligations.
type RecurringServicer[T any] interface {
	Create(ctx context.Context, userID string, in RecurringInput) (*T, error)
	List(userID string, page pagination.PageRequest) (*pagination.PageResponse[T], error)
	Get(userID, id string) (*T, error)
	Update(ctx context.Context, userID, id string, fields RecurringUpdateFields) (*T, error)
	Delete(userID, id string) error
}

// SubscriptionServicer manages subscriptions.
type SubscriptionServicer = RecurringServicer[models.Subscription]

// ObligationServicer manages obligations.
type ObligationServicer = RecurringServicer[models.Obligation]

// NotificationServicer defines the contract for in-app notifications. It also
// receives posting results from the recurring payment poster.
type NotificationServicer interface {
	ledger.Notifier
	GetUserNotifications(userID string, unreadOnly bool, page pagination.PageRequest) (*pagination.PageResponse[models.Notification], error)
	MarkRead(userID, notificationID string) (*models.Notification, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID string, action, resourceType string, resourceID string, ipAddress string, changes map[string]interface{})
}
