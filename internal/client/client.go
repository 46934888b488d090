// Package client calls the budgetify machine-to-machine API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"budgetify/internal/money"
)

// RunItem is the outcome of one recurring payment in a remote run.
type RunItem struct {
	Kind          string     `json:"kind"`
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Status        string     `json:"status"`
	Amount        string     `json:"amount"`
	TransactionID string     `json:"transaction_id,omitempty"`
	NextDueDate   *time.Time `json:"next_due_date,omitempty"`
	Deactivated   bool       `json:"deactivated,omitempty"`
	ErrorCode     string     `json:"error_code,omitempty"`
}

// RunResult is the summary returned by a remote posting run.
type RunResult struct {
	RunAt      time.Time `json:"run_at"`
	Posted     int       `json:"posted"`
	Failed     int       `json:"failed"`
	Skipped    int       `json:"skipped"`
	DurationMS int64     `json:"duration_ms"`
	Results    []RunItem `json:"results"`
}

// PostedTotal sums the amounts of the posted items in minor units.
func (r *RunResult) PostedTotal() (int64, error) {
	var total int64
	for _, item := range r.Results {
		if item.Status != "posted" {
			continue
		}
		amount, err := money.Parse(item.Amount)
		if err != nil {
			return 0, fmt.Errorf("%s %s: %w", item.Kind, item.ID, err)
		}
		total += amount
	}
	return total, nil
}

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s: %s", e.StatusCode, e.Code, e.Message)
}

// PostingClient triggers posting runs on a remote budgetify API.
type PostingClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewPostingClient creates a client for the API at baseURL.
func NewPostingClient(baseURL, apiKey string, httpClient *http.Client) *PostingClient {
	return &PostingClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// RunPostings asks the API to post everything due today.
func (c *PostingClient) RunPostings(ctx context.Context) (*RunResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/internal/postings/run", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("running postings: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var body struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&body) == nil {
			apiErr.Code = body.Error.Code
			apiErr.Message = body.Error.Message
		}
		return nil, fmt.Errorf("running postings: %w", apiErr)
	}

	var result RunResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding run response: %w", err)
	}
	return &result, nil
}
