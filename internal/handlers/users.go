package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/visadesk-io/visadesk/internal/middleware"
	"github.com/visadesk-io/visadesk/internal/services"
	"github.com/visadesk-io/visadesk/pkg/response"
)

// UserHandler exposes the approval workflow for administrator use.
type UserHandler struct {
	users *services.UserService
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(db *gorm.DB, notifications *services.NotificationService) (*UserHandler, error) {
	users, err := services.NewUserService(db, notifications)
	if err != nil {
		return nil, err
	}
	return &UserHandler{users: users}, nil
}

// ListPending returns accounts waiting for approval.
func (h *UserHandler) ListPending(c *gin.Context) {
	users, err := h.users.ListPending(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, users)
}

// Approve marks the account approved.
func (h *UserHandler) Approve(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	approver := c.GetString(middleware.CtxUserIDKey)

	user, err := h.users.Approve(c.Request.Context(), id, approver)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

// Reject removes an unapproved account.
func (h *UserHandler) Reject(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := h.users.Reject(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"rejected": true})
}
