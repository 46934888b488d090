package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "budgetify/internal/errors"
	"budgetify/internal/pagination"
	"budgetify/internal/services"
)

// PiggyBankHandler handles piggy-bank-related requests.
type PiggyBankHandler struct {
	piggyBankService services.PiggyBankServicer
	auditService     services.AuditServicer
}

// NewPiggyBankHandler creates a new PiggyBankHandler.
func NewPiggyBankHandler(piggyBankService services.PiggyBankServicer, auditService services.AuditServicer) *PiggyBankHandler {
	return &PiggyBankHandler{piggyBankService: piggyBankService, auditService: auditService}
}

// CreatePiggyBankRequest represents the request payload for creating a piggy bank
type CreatePiggyBankRequest struct {
	CardID      string  `json:"card_id" binding:"required,uuid"`
	Goal        string  `json:"goal" binding:"required,max=200"`
	GoalAmount  int64   `json:"goal_amount" binding:"gte=0"`
	SavedAmount int64   `json:"saved_amount" binding:"gte=0"`
	Balance     int64   `json:"balance" binding:"gte=0"`
	Date        *string `json:"date" binding:"omitempty,flexible_date"`
}

// UpdatePiggyBankRequest represents the request payload for updating a piggy bank
type UpdatePiggyBankRequest struct {
	Goal       *string `json:"goal" binding:"omitempty,max=200"`
	GoalAmount *int64  `json:"goal_amount" binding:"omitempty,gte=0"`
	Date       *string `json:"date" binding:"omitempty,flexible_date"`
}

// CreatePiggyBank handles the creation of a piggy bank
// @Summary     Create a piggy bank
// @Description Open a piggy bank on one of the user's cards. The saved amount is moved off the card balance. Amounts are in cents.
// @Tags        piggy-banks
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreatePiggyBankRequest true "Piggy bank details"
// @Success     201 {object} models.PiggyBank "Piggy bank created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Card not found"
// @Failure     409 {object} ErrorResponse "Card already has a piggy bank"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /piggy-banks [post]
func (h *PiggyBankHandler) CreatePiggyBank(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreatePiggyBankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	date, err := parseOptionalTime(req.Date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	in := services.PiggyBankInput{
		CardID:      req.CardID,
		Goal:        req.Goal,
		GoalAmount:  req.GoalAmount,
		SavedAmount: req.SavedAmount,
		Balance:     req.Balance,
	}
	if date != nil {
		in.Date = *date
	}

	pb, err := h.piggyBankService.CreatePiggyBank(c.Request.Context(), userID, in)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_PIGGY_BANK", "piggy_bank", pb.ID, c.ClientIP(),
		map[string]interface{}{"card_id": pb.CardID, "saved_amount": pb.SavedAmount, "balance": pb.Balance})

	c.JSON(http.StatusCreated, gin.H{"piggy_bank": pb})
}

// GetUserPiggyBanks handles listing the user's piggy banks
// @Summary     Get user piggy banks
// @Tags        piggy-banks
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.PiggyBank] "Paginated piggy banks"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /piggy-banks [get]
func (h *PiggyBankHandler) GetUserPiggyBanks(c *gin.Context) {
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

	result, err := h.piggyBankService.GetUserPiggyBanks(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetPiggyBankByID handles the retrieval of a piggy bank
// @Summary     Get piggy bank by ID
// @Tags        piggy-banks
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Piggy bank ID"
// @Success     200 {object} models.PiggyBank "Piggy bank details"
// @Failure     400 {object} ErrorResponse "Invalid piggy bank ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Piggy bank not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /piggy-banks/{id} [get]
func (h *PiggyBankHandler) GetPiggyBankByID(c *gin.Context) {
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

	pb, err := h.piggyBankService.GetPiggyBankByID(c.Request.Context(), userID, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"piggy_bank": pb})
}

// UpdatePiggyBank handles updating the goal of a piggy bank
// @Summary     Update piggy bank
// @Description Update goal, goal amount or target date. Balances only change through transactions.
// @Tags        piggy-banks
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                 true "Piggy bank ID"
// @Param       request body UpdatePiggyBankRequest true "Fields to update"
// @Success     200 {object} models.PiggyBank "Updated piggy bank"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Piggy bank not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /piggy-banks/{id} [put]
func (h *PiggyBankHandler) UpdatePiggyBank(c *gin.Context) {
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

	var req UpdatePiggyBankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	date, err := parseOptionalTime(req.Date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	pb, err := h.piggyBankService.UpdatePiggyBank(c.Request.Context(), userID, id, services.PiggyBankUpdateFields{
		Goal:       req.Goal,
		GoalAmount: req.GoalAmount,
		Date:       date,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_PIGGY_BANK", "piggy_bank", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"piggy_bank": pb})
}

// DeletePiggyBank handles deleting a piggy bank
// @Summary     Delete piggy bank
// @Description Delete a piggy bank and return its saved amount to the card.
// @Tags        piggy-banks
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Piggy bank ID"
// @Success     200 {object} map[string]string "Piggy bank deleted"
// @Failure     400 {object} ErrorResponse "Invalid piggy bank ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Piggy bank not found"
// @Failure     409 {object} ErrorResponse "Piggy bank changed concurrently"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /piggy-banks/{id} [delete]
func (h *PiggyBankHandler) DeletePiggyBank(c *gin.Context) {
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

	if err := h.piggyBankService.DeletePiggyBank(c.Request.Context(), userID, id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_PIGGY_BANK", "piggy_bank", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Piggy bank deleted successfully"})
}
