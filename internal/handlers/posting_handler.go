package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "budgetify/internal/errors"
	"budgetify/internal/ledger"
	"budgetify/internal/models"
	"budgetify/internal/money"
	"budgetify/internal/scheduler"
	"budgetify/internal/services"
)

// PostingRunner triggers a posting run. *scheduler.Scheduler implements it.
type PostingRunner interface {
	Now() time.Time
	Tick(ctx context.Context, now time.Time) (*scheduler.Summary, error)
}

// PostingHandler lets operators trigger recurring payment posting on demand.
type PostingHandler struct {
	runner       PostingRunner
	auditService services.AuditServicer
}

// NewPostingHandler creates a new PostingHandler.
func NewPostingHandler(runner PostingRunner, auditService services.AuditServicer) *PostingHandler {
	return &PostingHandler{runner: runner, auditService: auditService}
}

// PostingResultResponse describes the outcome for one recurring payment.
type PostingResultResponse struct {
	Kind          models.RecurringKind `json:"kind"`
	ID            string               `json:"id"`
	Title         string               `json:"title"`
	Status        ledger.PostStatus    `json:"status"`
	Amount        string               `json:"amount"`
	TransactionID string               `json:"transaction_id,omitempty"`
	NextDueDate   *time.Time           `json:"next_due_date,omitempty"`
	Deactivated   bool                 `json:"deactivated,omitempty"`
	ErrorCode     string               `json:"error_code,omitempty"`
}

// PostingRunResponse summarizes a posting run.
type PostingRunResponse struct {
	RunAt      time.Time               `json:"run_at"`
	Posted     int                     `json:"posted"`
	Failed     int                     `json:"failed"`
	Skipped    int                     `json:"skipped"`
	DurationMS int64                   `json:"duration_ms"`
	Results    []PostingResultResponse `json:"results"`
}

func toPostingRunResponse(s *scheduler.Summary) PostingRunResponse {
	resp := PostingRunResponse{
		RunAt:      s.RunAt,
		Posted:     s.Posted,
		Failed:     s.Failed,
		Skipped:    s.Skipped,
		DurationMS: s.Duration.Milliseconds(),
		Results:    make([]PostingResultResponse, 0, len(s.Results)),
	}
	for _, r := range s.Results {
		item := PostingResultResponse{
			Kind:   r.Definition.Kind,
			ID:     r.Definition.ID,
			Title:  r.Definition.Title,
			Status: r.Status,
			Amount: money.Format(r.Definition.Amount, ""),
		}
		if r.Transaction != nil {
			item.TransactionID = r.Transaction.ID
		}
		if !r.NextDueDate.IsZero() {
			next := r.NextDueDate
			item.NextDueDate = &next
		}
		item.Deactivated = r.Deactivated
		if r.Err != nil {
			item.ErrorCode = apperrors.CodeOf(r.Err)
			if item.ErrorCode == "" {
				item.ErrorCode = apperrors.ErrInternalServer.Code
			}
		}
		resp.Results = append(resp.Results, item)
	}
	return resp
}

// RunPostings triggers a posting run for today
// @Summary     Run recurring payment posting
// @Description Post every subscription and obligation due today. Safe to repeat: a payment is posted at most once per day.
// @Tags        admin
// @Produce     json
// @Security    BearerAuth
// @Security    APIKeyAuth
// @Success     200 {object} PostingRunResponse "Run summary"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Admin role required"
// @Failure     409 {object} ErrorResponse "Another run is in progress"
// @Failure     503 {object} ErrorResponse "Storage unavailable, run aborted"
// @Router      /admin/postings/run [post]
// @Router      /internal/postings/run [post]
func (h *PostingHandler) RunPostings(c *gin.Context) {
	summary, err := h.runner.Tick(c.Request.Context(), h.runner.Now())
	if err != nil {
		switch {
		case errors.Is(err, scheduler.ErrRunInProgress):
			respondWithError(c, apperrors.WithMessage(apperrors.ErrConflict, "A posting run is already in progress"))
		case ledger.IsStoreUnavailable(err):
			respondWithError(c, err)
		default:
			respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		}
		return
	}

	if userID := c.GetString("userID"); userID != "" {
		h.auditService.Log(userID, "RUN_POSTINGS", "posting_run", "", c.ClientIP(),
			map[string]interface{}{"posted": summary.Posted, "failed": summary.Failed, "skipped": summary.Skipped})
	}

	c.JSON(http.StatusOK, toPostingRunResponse(summary))
}
