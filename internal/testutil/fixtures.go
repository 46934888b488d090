package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"budgetify/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TestPassword is the plain-text password of every fixture user.
const TestPassword = "password123"

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestAdmin creates a user with the admin role.
func CreateTestAdmin(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	user := CreateTestUser(t, db)
	if err := db.Model(user).Update("role", models.UserRoleAdmin).Error; err != nil {
		t.Fatalf("failed to promote test user: %v", err)
	}
	user.Role = models.UserRoleAdmin
	return user
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		Role:     models.UserRoleUser,
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestCard creates a USD card with zero balance.
func CreateTestCard(t *testing.T, db *gorm.DB, userID string) *models.Card {
	t.Helper()
	return CreateTestCardWithBalance(t, db, userID, 0)
}

// CreateTestCardWithBalance creates a USD card with the given balance (in cents).
func CreateTestCardWithBalance(t *testing.T, db *gorm.DB, userID string, balance int64) *models.Card {
	t.Helper()

	card := &models.Card{
		UserID:   userID,
		Title:    fmt.Sprintf("Test Card %d", nextID()),
		Currency: "USD",
		Balance:  balance,
	}
	if err := db.Create(card).Error; err != nil {
		t.Fatalf("failed to create test card: %v", err)
	}
	return card
}

// CreateTestPiggyBank creates a piggy bank on cardID with the given balances (in cents).
func CreateTestPiggyBank(t *testing.T, db *gorm.DB, userID, cardID string, balance, saved int64) *models.PiggyBank {
	t.Helper()

	pb := &models.PiggyBank{
		UserID:      userID,
		CardID:      cardID,
		Goal:        fmt.Sprintf("Test Goal %d", nextID()),
		GoalAmount:  100000, // $1000.00
		SavedAmount: saved,
		Balance:     balance,
		Date:        time.Now().AddDate(1, 0, 0),
		Version:     1,
	}
	if err := db.Create(pb).Error; err != nil {
		t.Fatalf("failed to create test piggy bank: %v", err)
	}
	return pb
}

// CreateTestSubscription creates an active expense subscription due at due
// and running for a year.
func CreateTestSubscription(t *testing.T, db *gorm.DB, userID, cardID string, amount int64, due time.Time) *models.Subscription {
	t.Helper()

	sub := &models.Subscription{
		RecurringPayment: testRecurring(userID, cardID, "Subscription", amount, due),
		Categories:       []string{"entertainment"},
	}
	if err := db.Create(sub).Error; err != nil {
		t.Fatalf("failed to create test subscription: %v", err)
	}
	return sub
}

// CreateTestObligation creates an active expense obligation due at due and
// running for a year.
func CreateTestObligation(t *testing.T, db *gorm.DB, userID, cardID string, amount int64, due time.Time) *models.Obligation {
	t.Helper()

	ob := &models.Obligation{
		RecurringPayment: testRecurring(userID, cardID, "Obligation", amount, due),
	}
	if err := db.Create(ob).Error; err != nil {
		t.Fatalf("failed to create test obligation: %v", err)
	}
	return ob
}

func testRecurring(userID, cardID, prefix string, amount int64, due time.Time) models.RecurringPayment {
	return models.RecurringPayment{
		UserID:           userID,
		CardID:           cardID,
		Title:            fmt.Sprintf("Test %s %d", prefix, nextID()),
		Amount:           amount,
		Type:             models.TransactionTypeExpense,
		PaymentStartDate: due,
		PaymentEndDate:   due.AddDate(1, 0, 0),
		IsActive:         true,
	}
}

// CreateTestTransaction stores a transaction of the given type and amount (in
// cents) without touching any balance.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID, cardID string, txType models.TransactionType, amount int64) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID:      userID,
		CardID:      cardID,
		Title:       fmt.Sprintf("Test Transaction %d", nextID()),
		Categories:  []string{"general"},
		Type:        txType,
		Amount:      amount,
		PaymentDate: time.Now(),
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}
