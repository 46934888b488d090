package ledger_test

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	apperrors "budgetify/internal/errors"
	"budgetify/internal/ledger"
	"budgetify/internal/logger"
	"budgetify/internal/models"
	"budgetify/internal/testutil"
)

// runDay is the calendar day every poster test runs on.
var runDay = time.Date(2024, 1, 31, 10, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	results []ledger.PostResult
}

func (n *recordingNotifier) NotifyPosting(ctx context.Context, result ledger.PostResult) error {
	n.results = append(n.results, result)
	return nil
}

func newPoster(l *ledger.Ledger, opts ...ledger.PosterOption) *ledger.Poster {
	return ledger.NewPoster(l, time.UTC, logger.Nop(), opts...)
}

func resultFor(t *testing.T, results []ledger.PostResult, id string) ledger.PostResult {
	t.Helper()
	for _, r := range results {
		if r.Definition.ID == id {
			return r
		}
	}
	t.Fatalf("no result for definition %s", id)
	return ledger.PostResult{}
}

func reloadSubscription(t *testing.T, db *gorm.DB, id string) *models.Subscription {
	t.Helper()
	var sub models.Subscription
	require.NoError(t, db.First(&sub, "id = ?", id).Error)
	return &sub
}

func TestPostDueDefinitions_InsufficientFunds(t *testing.T) {
	db, l := setupLedger(t)
	user := testutil.CreateTestUser(t, db)
	card := testutil.CreateTestCard(t, db, user.ID)
	pb := testutil.CreateTestPiggyBank(t, db, user.ID, card.ID, 100, 0)
	sub := testutil.CreateTestSubscription(t, db, user.ID, card.ID, 150, runDay.Add(-time.Hour))

	results, err := newPoster(l).PostDueDefinitions(context.Background(), runDay)
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, ledger.PostStatusFailed, results[0].Status)
	testutil.AssertAppError(t, results[0].Err, "INSUFFICIENT_FUNDS")
	assert.Equal(t, int64(100), reloadPiggyBank(t, db, pb.ID).Balance)
	assert.Equal(t, int64(0), countTransactions(t, db))

	// The due date stays put, so only another run on the same day retries it.
	stored := reloadSubscription(t, db, sub.ID)
	assert.True(t, stored.PaymentStartDate.Equal(sub.PaymentStartDate))
	assert.Nil(t, stored.LastPostedOn)

	// A missed day is not picked up later.
	results, err = newPoster(l).PostDueDefinitions(context.Background(), runDay.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestPostDueDefinitions_Income(t *testing.T) {
	db, l := setupLedger(t)
	user := testutil.CreateTestUser(t, db)
	card := testutil.CreateTestCard(t, db, user.ID)
	pb := testutil.CreateTestPiggyBank(t, db, user.ID, card.ID, 100, 50)
	ob := testutil.CreateTestObligation(t, db, user.ID, card.ID, 30, runDay)
	require.NoError(t, db.Model(ob).Update("type", models.TransactionTypeIncome).Error)

	results, err := newPoster(l).PostDueDefinitions(context.Background(), runDay)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, ledger.PostStatusPosted, results[0].Status)

	stored := reloadPiggyBank(t, db, pb.ID)
	assert.Equal(t, int64(130), stored.Balance)
	assert.Equal(t, int64(80), stored.SavedAmount)

	var txs []models.Transaction
	require.NoError(t, db.Find(&txs).Error)
	require.Len(t, txs, 1)
	assert.Equal(t, models.TransactionTypeIncome, txs[0].Type)
	assert.Equal(t, int64(30), txs[0].Amount)
	assert.Equal(t, []string{ob.Title}, txs[0].Categories)
	assert.Equal(t, models.RecurringKindObligation, txs[0].RecurringKind)
	require.NotNil(t, txs[0].RecurringID)
	assert.Equal(t, ob.ID, *txs[0].RecurringID)
	assert.True(t, txs[0].PaymentDate.Equal(runDay))
}

func TestPostDueDefinitions_AdvancesDueDateWithClamp(t *testing.T) {
	db, l := setupLedger(t)
	user := testutil.CreateTestUser(t, db)
	card := testutil.CreateTestCard(t, db, user.ID)
	testutil.CreateTestPiggyBank(t, db, user.ID, card.ID, 1000, 0)
	sub := testutil.CreateTestSubscription(t, db, user.ID, card.ID, 10, runDay)

	results, err := newPoster(l).PostDueDefinitions(context.Background(), runDay)
	require.NoError(t, err)
	require.Len(t, results, 1)

	want := time.Date(2024, 2, 29, 10, 0, 0, 0, time.UTC)
	assert.True(t, results[0].NextDueDate.Equal(want), "next due %s", results[0].NextDueDate)

	stored := reloadSubscription(t, db, sub.ID)
	assert.True(t, stored.PaymentStartDate.Equal(want), "stored due %s", stored.PaymentStartDate)
	require.NotNil(t, stored.LastPostedOn)
	assert.True(t, stored.LastPostedOn.Equal(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)))
	assert.True(t, stored.IsActive)
}

func TestPostDueDefinitions_SameDayRunPostsOnce(t *testing.T) {
	db, l := setupLedger(t)
	user := testutil.CreateTestUser(t, db)
	card := testutil.CreateTestCard(t, db, user.ID)
	pb := testutil.CreateTestPiggyBank(t, db, user.ID, card.ID, 1000, 0)
	testutil.CreateTestSubscription(t, db, user.ID, card.ID, 100, runDay)
	testutil.CreateTestObligation(t, db, user.ID, card.ID, 200, runDay)
	poster := newPoster(l)
	ctx := context.Background()

	first, err := poster.PostDueDefinitions(ctx, runDay)
	require.NoError(t, err)
	assert.Len(t, first, 2)

	second, err := poster.PostDueDefinitions(ctx, runDay.Add(5*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, second)

	assert.Equal(t, int64(2), countTransactions(t, db))
	assert.Equal(t, int64(700), reloadPiggyBank(t, db, pb.ID).Balance)
}

func TestPostDueDefinitions_StaleDefinitionIsSkipped(t *testing.T) {
	db, _ := setupLedger(t)
	user := testutil.CreateTestUser(t, db)
	card := testutil.CreateTestCard(t, db, user.ID)
	testutil.CreateTestPiggyBank(t, db, user.ID, card.ID, 1000, 0)
	sub := testutil.CreateTestSubscription(t, db, user.ID, card.ID, 100, runDay)
	store := ledger.NewGormStore(db)
	ctx := context.Background()

	def := ledger.DefinitionFromSubscription(sub)
	next := ledger.AddMonthClamped(def.PaymentStartDate, time.UTC)
	require.NoError(t, store.UpdateDefinitionNextDueDate(ctx, def, next, runDay, true))

	err := store.UpdateDefinitionNextDueDate(ctx, def, next, runDay, true)
	testutil.AssertAppError(t, err, "ALREADY_POSTED")
}

func TestPostDueDefinitions_FailureIsolation(t *testing.T) {
	db, l := setupLedger(t)
	user := testutil.CreateTestUser(t, db)
	funded := testutil.CreateTestCard(t, db, user.ID)
	orphan := testutil.CreateTestCard(t, db, user.ID)
	pb := testutil.CreateTestPiggyBank(t, db, user.ID, funded.ID, 1000, 0)

	first := testutil.CreateTestSubscription(t, db, user.ID, funded.ID, 100, runDay.Add(-2*time.Hour))
	second := testutil.CreateTestSubscription(t, db, user.ID, orphan.ID, 100, runDay.Add(-time.Hour))
	third := testutil.CreateTestObligation(t, db, user.ID, funded.ID, 200, runDay)

	notifier := &recordingNotifier{}
	results, err := newPoster(l, ledger.WithNotifier(notifier)).PostDueDefinitions(context.Background(), runDay)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, ledger.PostStatusPosted, resultFor(t, results, first.ID).Status)
	assert.Equal(t, ledger.PostStatusPosted, resultFor(t, results, third.ID).Status)

	failed := resultFor(t, results, second.ID)
	assert.Equal(t, ledger.PostStatusFailed, failed.Status)
	testutil.AssertAppError(t, failed.Err, "PIGGY_BANK_NOT_FOUND")

	assert.Equal(t, int64(2), countTransactions(t, db))
	assert.Equal(t, int64(700), reloadPiggyBank(t, db, pb.ID).Balance)
	assert.Len(t, notifier.results, 3)
}

func TestPostDueDefinitions_InvalidDefinitionIsRecorded(t *testing.T) {
	db, l := setupLedger(t)
	user := testutil.CreateTestUser(t, db)
	card := testutil.CreateTestCard(t, db, user.ID)
	testutil.CreateTestPiggyBank(t, db, user.ID, card.ID, 1000, 0)
	bad := testutil.CreateTestSubscription(t, db, user.ID, card.ID, 100, runDay)
	require.NoError(t, db.Model(bad).Update("amount", 0).Error)
	good := testutil.CreateTestSubscription(t, db, user.ID, card.ID, 100, runDay)

	results, err := newPoster(l).PostDueDefinitions(context.Background(), runDay)
	require.NoError(t, err)

	testutil.AssertAppError(t, resultFor(t, results, bad.ID).Err, "INVALID_INPUT")
	assert.Equal(t, ledger.PostStatusPosted, resultFor(t, results, good.ID).Status)
}

func TestPostDueDefinitions_DeactivatesAfterEndDate(t *testing.T) {
	db, l := setupLedger(t)
	user := testutil.CreateTestUser(t, db)
	card := testutil.CreateTestCard(t, db, user.ID)
	testutil.CreateTestPiggyBank(t, db, user.ID, card.ID, 1000, 0)
	sub := testutil.CreateTestSubscription(t, db, user.ID, card.ID, 100, runDay)
	require.NoError(t, db.Model(sub).Update("payment_end_date", runDay.AddDate(0, 0, 10).UTC()).Error)

	results, err := newPoster(l).PostDueDefinitions(context.Background(), runDay)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, ledger.PostStatusPosted, results[0].Status)
	assert.True(t, results[0].Deactivated)

	stored := reloadSubscription(t, db, sub.ID)
	assert.False(t, stored.IsActive)

	// Nothing is posted on the next due date.
	later, err := newPoster(l).PostDueDefinitions(context.Background(), stored.PaymentStartDate)
	require.NoError(t, err)
	assert.Empty(t, later)
}

// unreachableStore reports a dropped connection whenever the given card is
// looked up.
type unreachableStore struct {
	ledger.Store
	cardID string
}

func (s *unreachableStore) FindCardByID(ctx context.Context, id string) (*models.Card, error) {
	if id == s.cardID {
		return nil, apperrors.Wrap(apperrors.ErrStoreUnavailable, driver.ErrBadConn)
	}
	return s.Store.FindCardByID(ctx, id)
}

func (s *unreachableStore) WithinTx(ctx context.Context, fn func(ledger.Store) error) error {
	return s.Store.WithinTx(ctx, func(tx ledger.Store) error {
		return fn(&unreachableStore{Store: tx, cardID: s.cardID})
	})
}

func TestPostDueDefinitions_StoreUnavailableAbortsRun(t *testing.T) {
	db, _ := setupLedger(t)
	user := testutil.CreateTestUser(t, db)
	card := testutil.CreateTestCard(t, db, user.ID)
	testutil.CreateTestPiggyBank(t, db, user.ID, card.ID, 1000, 0)
	sub := testutil.CreateTestSubscription(t, db, user.ID, card.ID, 100, runDay)

	store := &unreachableStore{Store: ledger.NewGormStore(db), cardID: card.ID}
	l := ledger.New(store, logger.Nop())

	results, err := newPoster(l).PostDueDefinitions(context.Background(), runDay)
	require.Error(t, err)
	assert.True(t, ledger.IsStoreUnavailable(err))
	require.Len(t, results, 1)
	assert.Equal(t, sub.ID, results[0].Definition.ID)
	assert.Equal(t, ledger.PostStatusFailed, results[0].Status)
}

func TestPostDueDefinitions_ClosedDatabase(t *testing.T) {
	db, l := setupLedger(t)
	testutil.TeardownTestDB(t, db)

	results, err := newPoster(l).PostDueDefinitions(context.Background(), runDay)
	assert.Nil(t, results)
	require.Error(t, err)
	assert.True(t, ledger.IsStoreUnavailable(err), "got %v", err)
}
