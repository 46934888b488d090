package services

import (
	"context"
	"testing"
	"time"

	"budgetify/internal/models"
	"budgetify/internal/pagination"
	"budgetify/internal/testutil"
)

func TestCreateTransaction(t *testing.T) {
	t.Run("expense_debits_piggy_bank", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, newTestLedger(db))

		user := testutil.CreateTestUser(t, db)
		card := testutil.CreateTestCard(t, db, user.ID)
		pb := testutil.CreateTestPiggyBank(t, db, user.ID, card.ID, 5000, 0)

		tx, err := svc.CreateTransaction(context.Background(), user.ID, TransactionInput{
			CardID: card.ID,
			Title:  "Groceries",
			Type:   models.TransactionTypeExpense,
			Amount: 1250,
		})
		testutil.AssertNoError(t, err)

		if tx.ID == "" {
			t.Error("expected transaction to be stored")
		}
		if len(tx.Categories) != 1 || tx.Categories[0] != "Groceries" {
			t.Errorf("expected title as default category, got %v", tx.Categories)
		}

		testutil.AssertPiggyBankBalance(t, db, pb.ID, 3750)
	})

	t.Run("insufficient_funds", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, newTestLedger(db))

		user := testutil.CreateTestUser(t, db)
		card := testutil.CreateTestCard(t, db, user.ID)
		testutil.CreateTestPiggyBank(t, db, user.ID, card.ID, 100, 0)

		_, err := svc.CreateTransaction(context.Background(), user.ID, TransactionInput{
			CardID: card.ID, Title: "Rent", Type: models.TransactionTypeExpense, Amount: 101,
		})
		testutil.AssertAppError(t, err, "INSUFFICIENT_FUNDS")

		var count int64
		db.Model(&models.Transaction{}).Count(&count)
		if count != 0 {
			t.Errorf("expected no stored transaction, got %d", count)
		}
	})

	t.Run("no_piggy_bank", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, newTestLedger(db))

		user := testutil.CreateTestUser(t, db)
		card := testutil.CreateTestCard(t, db, user.ID)

		_, err := svc.CreateTransaction(context.Background(), user.ID, TransactionInput{
			CardID: card.ID, Title: "Salary", Type: models.TransactionTypeIncome, Amount: 100,
		})
		testutil.AssertAppError(t, err, "PIGGY_BANK_NOT_FOUND")
	})

	t.Run("validation", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, newTestLedger(db))
		ctx := context.Background()

		_, err := svc.CreateTransaction(ctx, "user", TransactionInput{CardID: "c", Title: "x", Type: models.TransactionTypeIncome, Amount: 0})
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		_, err = svc.CreateTransaction(ctx, "user", TransactionInput{CardID: "c", Title: "x", Type: "transfer", Amount: 10})
		testutil.AssertAppError(t, err, "INVALID_TRANSACTION_TYPE")

		_, err = svc.CreateTransaction(ctx, "user", TransactionInput{Title: "x", Type: models.TransactionTypeIncome, Amount: 10})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestGetUserTransactions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewTransactionService(db, newTestLedger(db))
	ctx := context.Background()

	user := testutil.CreateTestUser(t, db)
	card := testutil.CreateTestCard(t, db, user.ID)
	other := testutil.CreateTestCard(t, db, user.ID)
	testutil.CreateTestPiggyBank(t, db, user.ID, card.ID, 100000, 0)
	testutil.CreateTestPiggyBank(t, db, user.ID, other.ID, 100000, 0)

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	inputs := []TransactionInput{
		{CardID: card.ID, Title: "Salary", Type: models.TransactionTypeIncome, Amount: 5000, PaymentDate: base, Categories: []string{"work"}},
		{CardID: card.ID, Title: "Coffee", Type: models.TransactionTypeExpense, Amount: 300, PaymentDate: base.AddDate(0, 0, 1), Categories: []string{"food", "treats"}},
		{CardID: other.ID, Title: "Lunch", Type: models.TransactionTypeExpense, Amount: 900, PaymentDate: base.AddDate(0, 0, 2), Categories: []string{"food"}},
	}
	for _, in := range inputs {
		if _, err := svc.CreateTransaction(ctx, user.ID, in); err != nil {
			t.Fatalf("failed to create transaction: %v", err)
		}
	}
	page := pagination.PageRequest{Page: 1, PageSize: 20}

	t.Run("default_newest_first", func(t *testing.T) {
		res, err := svc.GetUserTransactions(user.ID, page, TransactionFilter{}, TransactionSort{})
		testutil.AssertNoError(t, err)
		if res.TotalItems != 3 || res.Data[0].Title != "Lunch" {
			t.Errorf("expected 3 transactions newest first, got %d starting with %q", res.TotalItems, res.Data[0].Title)
		}
	})

	t.Run("ascending", func(t *testing.T) {
		res, err := svc.GetUserTransactions(user.ID, page, TransactionFilter{}, TransactionSort{By: "payment_date", Order: "asc"})
		testutil.AssertNoError(t, err)
		if res.Data[0].Title != "Salary" {
			t.Errorf("expected Salary first, got %q", res.Data[0].Title)
		}
	})

	t.Run("type", func(t *testing.T) {
		expense := models.TransactionTypeExpense
		res, err := svc.GetUserTransactions(user.ID, page, TransactionFilter{Type: &expense}, TransactionSort{})
		testutil.AssertNoError(t, err)
		if res.TotalItems != 2 {
			t.Errorf("expected 2 expenses, got %d", res.TotalItems)
		}
	})

	t.Run("card", func(t *testing.T) {
		res, err := svc.GetUserTransactions(user.ID, page, TransactionFilter{CardID: &other.ID}, TransactionSort{})
		testutil.AssertNoError(t, err)
		if res.TotalItems != 1 || res.Data[0].Title != "Lunch" {
			t.Errorf("expected only Lunch, got %+v", res.Data)
		}
	})

	t.Run("category", func(t *testing.T) {
		food := "food"
		res, err := svc.GetUserTransactions(user.ID, page, TransactionFilter{Category: &food}, TransactionSort{})
		testutil.AssertNoError(t, err)
		if res.TotalItems != 2 {
			t.Errorf("expected 2 food transactions, got %d", res.TotalItems)
		}
	})

	t.Run("date_range", func(t *testing.T) {
		from := base.Add(time.Hour)
		to := base.AddDate(0, 0, 1).Add(time.Hour)
		res, err := svc.GetUserTransactions(user.ID, page, TransactionFilter{FromDate: &from, ToDate: &to}, TransactionSort{})
		testutil.AssertNoError(t, err)
		if res.TotalItems != 1 || res.Data[0].Title != "Coffee" {
			t.Errorf("expected only Coffee, got %+v", res.Data)
		}
	})

	t.Run("pagination", func(t *testing.T) {
		res, err := svc.GetUserTransactions(user.ID, pagination.PageRequest{Page: 2, PageSize: 2}, TransactionFilter{}, TransactionSort{})
		testutil.AssertNoError(t, err)
		if res.TotalItems != 3 || len(res.Data) != 1 {
			t.Errorf("expected 1 item on page 2 of 3 total, got %d of %d", len(res.Data), res.TotalItems)
		}
	})

	t.Run("other_user", func(t *testing.T) {
		stranger := testutil.CreateTestUser(t, db)
		res, err := svc.GetUserTransactions(stranger.ID, page, TransactionFilter{}, TransactionSort{})
		testutil.AssertNoError(t, err)
		if res.TotalItems != 0 {
			t.Errorf("expected no transactions, got %d", res.TotalItems)
		}
	})
}

func TestDeleteTransaction(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewTransactionService(db, newTestLedger(db))
	ctx := context.Background()

	user := testutil.CreateTestUser(t, db)
	card := testutil.CreateTestCard(t, db, user.ID)
	pb := testutil.CreateTestPiggyBank(t, db, user.ID, card.ID, 1000, 0)

	tx, err := svc.CreateTransaction(ctx, user.ID, TransactionInput{
		CardID: card.ID, Title: "Book", Type: models.TransactionTypeExpense, Amount: 400,
	})
	testutil.AssertNoError(t, err)

	testutil.AssertNoError(t, svc.DeleteTransaction(ctx, user.ID, tx.ID))

	testutil.AssertPiggyBankBalance(t, db, pb.ID, 1000)

	_, err = svc.GetTransactionByID(user.ID, tx.ID)
	testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")

	stranger := testutil.CreateTestUser(t, db)
	err = svc.DeleteTransaction(ctx, stranger.ID, tx.ID)
	testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
}

func TestGetUserTransactions_CategoryIsLiteral(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewTransactionService(db, newTestLedger(db))
	ctx := context.Background()

	user := testutil.CreateTestUser(t, db)
	card := testutil.CreateTestCard(t, db, user.ID)
	testutil.CreateTestPiggyBank(t, db, user.ID, card.ID, 100000, 0)

	for _, category := range []string{"a_b", "axb", "50%", "500", `back\slash`} {
		_, err := svc.CreateTransaction(ctx, user.ID, TransactionInput{
			CardID: card.ID, Title: category, Type: models.TransactionTypeExpense, Amount: 100,
			PaymentDate: time.Now(), Categories: []string{category},
		})
		testutil.AssertNoError(t, err)
	}
	page := pagination.PageRequest{Page: 1, PageSize: 20}

	for _, category := range []string{"a_b", "50%", `back\slash`} {
		t.Run(category, func(t *testing.T) {
			c := category
			res, err := svc.GetUserTransactions(user.ID, page, TransactionFilter{Category: &c}, TransactionSort{})
			testutil.AssertNoError(t, err)
			if res.TotalItems != 1 || res.Data[0].Title != category {
				t.Errorf("expected only %q, got %d results", category, res.TotalItems)
			}
		})
	}
}
