package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "budgetify/internal/errors"
	"budgetify/internal/models"
	"budgetify/internal/pagination"
	"budgetify/internal/services"
)

// CreateRecurringRequest represents the request payload for creating a
// subscription or obligation. Categories are ignored for obligations.
type CreateRecurringRequest struct {
	CardID           string                 `json:"card_id" binding:"required,uuid"`
	Title            string                 `json:"title" binding:"required,max=200"`
	Categories       []string               `json:"categories" binding:"max=20"`
	Amount           int64                  `json:"amount" binding:"required,gt=0"`
	Type             models.TransactionType `json:"type" binding:"omitempty,transaction_type"`
	PaymentStartDate string                 `json:"payment_start_date" binding:"required,flexible_date"`
	PaymentEndDate   *string                `json:"payment_end_date" binding:"omitempty,flexible_date"`
	Description      string                 `json:"description" binding:"max=500"`
}

// UpdateRecurringRequest represents the request payload for updating a
// subscription or obligation.
type UpdateRecurringRequest struct {
	CardID           *string                 `json:"card_id" binding:"omitempty,uuid"`
	Title            *string                 `json:"title" binding:"omitempty,max=200"`
	Categories       *[]string               `json:"categories" binding:"omitempty,max=20"`
	Amount           *int64                  `json:"amount" binding:"omitempty,gt=0"`
	Type             *models.TransactionType `json:"type" binding:"omitempty,transaction_type"`
	PaymentStartDate *string                 `json:"payment_start_date" binding:"omitempty,flexible_date"`
	PaymentEndDate   *string                 `json:"payment_end_date" binding:"omitempty,flexible_date"`
	Description      *string                 `json:"description" binding:"omitempty,max=500"`
	IsActive         *bool                   `json:"is_active"`
}

// recurringHandler holds the request handling shared by subscriptions and
// obligations. key names the JSON envelope and resource names the audit type.
type recurringHandler[T any] struct {
	service      services.RecurringServicer[T]
	auditService services.AuditServicer
	key          string
	resource     string
	idOf         func(*T) string
}

func (h *recurringHandler[T]) create(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateRecurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	start, err := parseFlexibleTime(req.PaymentStartDate)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid payment_start_date: "+err.Error()))
		return
	}
	end, err := parseOptionalTime(req.PaymentEndDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	in := services.RecurringInput{
		CardID:           req.CardID,
		Title:            req.Title,
		Categories:       req.Categories,
		Amount:           req.Amount,
		Type:             req.Type,
		PaymentStartDate: start,
		Description:      req.Description,
	}
	if end != nil {
		in.PaymentEndDate = *end
	}

	record, err := h.service.Create(c.Request.Context(), userID, in)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_"+h.resource, h.key, h.idOf(record), c.ClientIP(),
		map[string]interface{}{"card_id": req.CardID, "amount": req.Amount})

	c.JSON(http.StatusCreated, gin.H{h.key: record})
}

func (h *recurringHandler[T]) list(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.service.List(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *recurringHandler[T]) get(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	record, err := h.service.Get(userID, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{h.key: record})
}

func (h *recurringHandler[T]) update(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateRecurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	start, err := parseOptionalTime(req.PaymentStartDate)
	if err != nil {
		respondWithError(c, err)
		return
	}
	end, err := parseOptionalTime(req.PaymentEndDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	record, err := h.service.Update(c.Request.Context(), userID, id, services.RecurringUpdateFields{
		CardID:           req.CardID,
		Title:            req.Title,
		Categories:       req.Categories,
		Amount:           req.Amount,
		Type:             req.Type,
		PaymentStartDate: start,
		PaymentEndDate:   end,
		Description:      req.Description,
		IsActive:         req.IsActive,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_"+h.resource, h.key, id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{h.key: record})
}

func (h *recurringHandler[T]) delete(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.service.Delete(userID, id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_"+h.resource, h.key, id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Deleted successfully"})
}
