package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "budgetify/internal/errors"
	"budgetify/internal/pagination"
	"budgetify/internal/services"
)

// CardHandler handles card-related requests.
type CardHandler struct {
	cardService  services.CardServicer
	auditService services.AuditServicer
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(cardService services.CardServicer, auditService services.AuditServicer) *CardHandler {
	return &CardHandler{cardService: cardService, auditService: auditService}
}

// CreateCardRequest represents the request payload for creating a card
type CreateCardRequest struct {
	Title       string `json:"title" binding:"required,max=100"`
	Currency    string `json:"currency" binding:"omitempty,iso4217"`
	Description string `json:"description" binding:"max=500"`
	Balance     int64  `json:"balance" binding:"gte=0"`
}

// UpdateCardRequest represents the request payload for updating a card
type UpdateCardRequest struct {
	Title       *string `json:"title" binding:"omitempty,max=100"`
	Currency    *string `json:"currency" binding:"omitempty,iso4217"`
	Description *string `json:"description" binding:"omitempty,max=500"`
}

// CreateCard handles the creation of a new card
// @Summary     Create a card
// @Description Create a new card for the authenticated user. Balance is in cents.
// @Tags        cards
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateCardRequest true "Card details"
// @Success     201 {object} models.Card "Card created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /cards [post]
func (h *CardHandler) CreateCard(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	card, err := h.cardService.CreateCard(userID, req.Title, req.Currency, req.Description, req.Balance)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_CARD", "card", card.ID, c.ClientIP(),
		map[string]interface{}{"title": card.Title, "currency": card.Currency, "balance": card.Balance})

	c.JSON(http.StatusCreated, gin.H{"card": card})
}

// GetUserCards handles the retrieval of all cards for the authenticated user
// @Summary     Get user cards
// @Description Get a paginated list of the authenticated user's cards
// @Tags        cards
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Card] "Paginated cards"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /cards [get]
func (h *CardHandler) GetUserCards(c *gin.Context) {
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

	result, err := h.cardService.GetUserCards(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetCardByID handles the retrieval of a specific card
// @Summary     Get card by ID
// @Tags        cards
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Card ID"
// @Success     200 {object} models.Card "Card details"
// @Failure     400 {object} ErrorResponse "Invalid card ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Card not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /cards/{id} [get]
func (h *CardHandler) GetCardByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	cardID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	card, err := h.cardService.GetCardByID(c.Request.Context(), userID, cardID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"card": card})
}

// UpdateCard handles updating a card
// @Summary     Update card
// @Description Update the title, currency or description of a card. The balance cannot be edited.
// @Tags        cards
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string            true "Card ID"
// @Param       request body UpdateCardRequest true "Fields to update"
// @Success     200 {object} models.Card "Updated card"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Card not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /cards/{id} [put]
func (h *CardHandler) UpdateCard(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	cardID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	card, err := h.cardService.UpdateCard(c.Request.Context(), userID, cardID, services.CardUpdateFields{
		Title:       req.Title,
		Currency:    req.Currency,
		Description: req.Description,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_CARD", "card", cardID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"card": card})
}

// DeleteCard handles deleting a card
// @Summary     Delete card
// @Description Delete a card. Cards that still hold a piggy bank cannot be deleted.
// @Tags        cards
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Card ID"
// @Success     200 {object} map[string]string "Card deleted"
// @Failure     400 {object} ErrorResponse "Invalid card ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Card not found"
// @Failure     409 {object} ErrorResponse "Card still has a piggy bank"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /cards/{id} [delete]
func (h *CardHandler) DeleteCard(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	cardID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.cardService.DeleteCard(c.Request.Context(), userID, cardID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_CARD", "card", cardID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Card deleted successfully"})
}
