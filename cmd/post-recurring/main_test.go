package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetify/internal/logger"
	"budgetify/internal/models"
	"budgetify/internal/testutil"
)

func TestParseFlags(t *testing.T) {
	t.Setenv("BUDGETIFY_API_URL", "")
	t.Setenv("POSTING_API_KEY", "")

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"defaults", nil, ""},
		{"local date", []string{"-date", "2024-01-31"}, ""},
		{"remote with key", []string{"-remote", "http://api:8080", "-api-key", "k"}, ""},
		{"remote without key", []string{"-remote", "http://api:8080"}, "api-key"},
		{"remote with date", []string{"-remote", "http://api:8080", "-api-key", "k", "-date", "2024-01-31"}, "cannot be combined"},
		{"bad timeout", []string{"-timeout", "0s"}, "must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseFlags(tt.args, new(bytes.Buffer))
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRunTime(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	now := time.Date(2024, 1, 30, 20, 0, 0, 0, time.UTC)

	got, err := runTime("", loc, now)
	require.NoError(t, err)
	assert.Equal(t, 31, got.Day(), "20:00 UTC is already the 31st in Tokyo")

	got, err = runTime("2024-02-29", loc, now)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29 12:00", got.Format("2006-01-02 15:04"))
	assert.Equal(t, loc, got.Location())

	_, err = runTime("29/02/2024", loc, now)
	assert.Error(t, err)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitOK, exitCode(0, nil))
	assert.Equal(t, exitPartial, exitCode(2, nil))
	assert.Equal(t, exitFatal, exitCode(0, errors.New("store unavailable")))
	assert.Equal(t, exitFatal, exitCode(3, errors.New("store unavailable")))
}

func TestTickOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	at := time.Date(2024, 1, 31, 9, 0, 0, 0, time.UTC)
	user := testutil.CreateTestUser(t, db)
	funded := testutil.CreateTestCardWithBalance(t, db, user.ID, 0)
	testutil.CreateTestPiggyBank(t, db, user.ID, funded.ID, 10000, 10000)
	testutil.CreateTestSubscription(t, db, user.ID, funded.ID, 1599, at)
	empty := testutil.CreateTestCardWithBalance(t, db, user.ID, 0)
	testutil.CreateTestPiggyBank(t, db, user.ID, empty.ID, 100, 100)
	testutil.CreateTestObligation(t, db, user.ID, empty.ID, 90000, at)

	summary, err := tickOnce(context.Background(), db, time.UTC, at, nil, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Posted)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, exitPartial, exitCode(summary.Failed, err))

	var count int64
	require.NoError(t, db.Model(&models.Transaction{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// A second pass the same day finds nothing left to post.
	summary, err = tickOnce(context.Background(), db, time.UTC, at, nil, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Posted)
}
