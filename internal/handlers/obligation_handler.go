package handlers

import (
	"github.com/gin-gonic/gin"

	"budgetify/internal/models"
	"budgetify/internal/services"
)

// ObligationHandler handles obligation requests.
type ObligationHandler struct {
	recurringHandler[models.Obligation]
}

// NewObligationHandler creates a new ObligationHandler.
func NewObligationHandler(service services.ObligationServicer, auditService services.AuditServicer) *ObligationHandler {
	return &ObligationHandler{recurringHandler[models.Obligation]{
		service:      service,
		auditService: auditService,
		key:          "obligation",
		resource:     "OBLIGATION",
		idOf:         func(s *models.Obligation) string { return s.ID },
	}}
}

// CreateObligation handles the creation of a obligation
// @Summary     Create a obligation
// @Description Create a monthly obligation such as rent or a loan repayment. Postings are categorized by the obligation title.
// @Tags        obligations
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateRecurringRequest true "Obligation details"
// @Success     201 {object} models.Obligation "Obligation created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Card not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /obligations [post]
func (h *ObligationHandler) CreateObligation(c *gin.Context) { h.create(c) }

// GetUserObligations handles listing obligations
// @Summary     Get user obligations
// @Tags        obligations
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Obligation] "Paginated obligations"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /obligations [get]
func (h *ObligationHandler) GetUserObligations(c *gin.Context) { h.list(c) }

// GetObligationByID handles the retrieval of a obligation
// @Summary     Get obligation by ID
// @Tags        obligations
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Obligation ID"
// @Success     200 {object} models.Obligation "Obligation details"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     404 {object} ErrorResponse "Obligation not found"
// @Router      /obligations/{id} [get]
func (h *ObligationHandler) GetObligationByID(c *gin.Context) { h.get(c) }

// UpdateObligation handles updating a obligation
// @Summary     Update obligation
// @Tags        obligations
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                 true "Obligation ID"
// @Param       request body UpdateRecurringRequest true "Fields to update"
// @Success     200 {object} models.Obligation "Updated obligation"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Obligation or card not found"
// @Router      /obligations/{id} [put]
func (h *ObligationHandler) UpdateObligation(c *gin.Context) { h.update(c) }

// DeleteObligation handles deleting a obligation
// @Summary     Delete obligation
// @Tags        obligations
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Obligation ID"
// @Success     200 {object} map[string]string "Obligation deleted"
// @Failure     404 {object} ErrorResponse "Obligation not found"
// @Router      /obligations/{id} [delete]
func (h *ObligationHandler) DeleteObligation(c *gin.Context) { h.delete(c) }
