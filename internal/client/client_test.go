package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunPostings_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/internal/postings/run", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-API-Key"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"run_at":      "2024-01-31T06:00:00Z",
			"posted":      1,
			"failed":      1,
			"skipped":     0,
			"duration_ms": 12,
			"results": []map[string]any{
				{"kind": "subscription", "id": "sub-1", "title": "Streaming", "status": "posted", "amount": "15.99", "transaction_id": "tx-1", "next_due_date": "2024-02-29T06:00:00Z"},
				{"kind": "obligation", "id": "ob-1", "title": "Rent", "status": "failed", "amount": "900.00", "error_code": "INSUFFICIENT_FUNDS"},
			},
		})
	}))
	defer server.Close()

	c := NewPostingClient(server.URL+"/", "test-key", server.Client())
	result, err := c.RunPostings(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Posted)
	assert.Equal(t, 1, result.Failed)
	assert.True(t, result.RunAt.Equal(time.Date(2024, 1, 31, 6, 0, 0, 0, time.UTC)))
	require.Len(t, result.Results, 2)
	assert.Equal(t, "tx-1", result.Results[0].TransactionID)
	require.NotNil(t, result.Results[0].NextDueDate)
	assert.Equal(t, 29, result.Results[0].NextDueDate.Day())
	assert.Equal(t, "INSUFFICIENT_FUNDS", result.Results[1].ErrorCode)

	total, err := result.PostedTotal()
	require.NoError(t, err)
	assert.Equal(t, int64(1599), total, "failed items are not counted")
}

func TestRunResult_PostedTotalRejectsBadAmounts(t *testing.T) {
	result := &RunResult{Results: []RunItem{
		{Kind: "subscription", ID: "sub-1", Status: "posted", Amount: "1.999"},
	}}
	_, err := result.PostedTotal()
	assert.Error(t, err)
}

func TestRunPostings_ErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"code": "CONFLICT", "message": "A posting run is already in progress"},
		})
	}))
	defer server.Close()

	c := NewPostingClient(server.URL, "test-key", server.Client())
	_, err := c.RunPostings(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, "CONFLICT", apiErr.Code)
}

func TestRunPostings_PlainError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c := NewPostingClient(server.URL, "test-key", server.Client())
	_, err := c.RunPostings(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 502")
}

func TestRunPostings_BadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	c := NewPostingClient(server.URL, "test-key", server.Client())
	_, err := c.RunPostings(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding run response")
}
