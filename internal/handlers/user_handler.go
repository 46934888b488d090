package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "budgetify/internal/errors"
	"budgetify/internal/pagination"
	"budgetify/internal/services"
)

// UserHandler serves the admin user-management routes.
type UserHandler struct {
	userService  services.UserServicer
	auditService services.AuditServicer
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService services.UserServicer, auditService services.AuditServicer) *UserHandler {
	return &UserHandler{userService: userService, auditService: auditService}
}

// ListUsers returns every user
// @Summary     List users
// @Tags        admin
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number"
// @Param       page_size query int false "Items per page"
// @Success     200 {object} pagination.PageResponse[models.User] "Users"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Admin role required"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /admin/users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.userService.ListUsers(page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetUser returns one user
// @Summary     Get user by ID
// @Tags        admin
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "User ID"
// @Success     200 {object} UserResponse "User"
// @Failure     400 {object} ErrorResponse "Invalid user ID"
// @Failure     403 {object} ErrorResponse "Admin role required"
// @Failure     404 {object} ErrorResponse "User not found"
// @Router      /admin/users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.userService.GetUserByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
}

// DeleteUser deactivates and removes a user
// @Summary     Delete user
// @Description Deactivate and remove a user. Their refresh token is revoked. Admins cannot delete themselves.
// @Tags        admin
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "User ID"
// @Success     200 {object} map[string]string "User deleted"
// @Failure     400 {object} ErrorResponse "Invalid user ID or own account"
// @Failure     403 {object} ErrorResponse "Admin role required"
// @Failure     404 {object} ErrorResponse "User not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /admin/users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	actorID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.userService.DeleteUser(actorID, id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actorID, "DELETE_USER", "user", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// ListEmails returns the email address of every active user
// @Summary     List user emails
// @Tags        admin
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string][]string "Emails"
// @Failure     403 {object} ErrorResponse "Admin role required"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /admin/notifications/emails [get]
func (h *UserHandler) ListEmails(c *gin.Context) {
	emails, err := h.userService.ListEmails()
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"emails": emails})
}
