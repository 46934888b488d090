package handlers

import (
	"github.com/gin-gonic/gin"

	"budgetify/internal/models"
	"budgetify/internal/services"
)

// SubscriptionHandler handles subscription requests.
type SubscriptionHandler struct {
	recurringHandler[models.Subscription]
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(service services.SubscriptionServicer, auditService services.AuditServicer) *SubscriptionHandler {
	return &SubscriptionHandler{recurringHandler[models.Subscription]{
		service:      service,
		auditService: auditService,
		key:          "subscription",
		resource:     "SUBSCRIPTION",
		idOf:         func(s *models.Subscription) string { return s.ID },
	}}
}

// CreateSubscription handles the creation of a subscription
// @Summary     Create a subscription
// @Description Create a monthly subscription on one of the user's cards. The start date is the first due date.
// @Tags        subscriptions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateRecurringRequest true "Subscription details"
// @Success     201 {object} models.Subscription "Subscription created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Card not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /subscriptions [post]
func (h *SubscriptionHandler) CreateSubscription(c *gin.Context) { h.create(c) }

// GetUserSubscriptions handles listing subscriptions
// @Summary     Get user subscriptions
// @Tags        subscriptions
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Subscription] "Paginated subscriptions"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /subscriptions [get]
func (h *SubscriptionHandler) GetUserSubscriptions(c *gin.Context) { h.list(c) }

// GetSubscriptionByID handles the retrieval of a subscription
// @Summary     Get subscription by ID
// @Tags        subscriptions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Subscription ID"
// @Success     200 {object} models.Subscription "Subscription details"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     404 {object} ErrorResponse "Subscription not found"
// @Router      /subscriptions/{id} [get]
func (h *SubscriptionHandler) GetSubscriptionByID(c *gin.Context) { h.get(c) }

// UpdateSubscription handles updating a subscription
// @Summary     Update subscription
// @Tags        subscriptions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                 true "Subscription ID"
// @Param       request body UpdateRecurringRequest true "Fields to update"
// @Success     200 {object} models.Subscription "Updated subscription"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Subscription or card not found"
// @Router      /subscriptions/{id} [put]
func (h *SubscriptionHandler) UpdateSubscription(c *gin.Context) { h.update(c) }

// DeleteSubscription handles deleting a subscription
// @Summary     Delete subscription
// @Tags        subscriptions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Subscription ID"
// @Success     200 {object} map[string]string "Subscription deleted"
// @Failure     404 {object} ErrorResponse "Subscription not found"
// @Router      /subscriptions/{id} [delete]
func (h *SubscriptionHandler) DeleteSubscription(c *gin.Context) { h.delete(c) }
