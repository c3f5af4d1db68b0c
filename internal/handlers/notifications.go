package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/visadesk-io/visadesk/internal/middleware"
	"github.com/visadesk-io/visadesk/internal/services"
	"github.com/visadesk-io/visadesk/pkg/errors"
	"github.com/visadesk-io/visadesk/pkg/response"
)

// NotificationHandler exposes HTTP endpoints for in-app notifications.
type NotificationHandler struct {
	service *services.NotificationService
}

// NewNotificationHandler constructs a notification handler.
func NewNotificationHandler(db *gorm.DB) (*NotificationHandler, error) {
	service, err := services.NewNotificationService(db)
	if err != nil {
		return nil, err
	}
	return &NotificationHandler{service: service}, nil
}

// Service exposes the underlying notification service for wiring other
// producers (user approval events, the sweep's in-app channel).
func (h *NotificationHandler) Service() *services.NotificationService {
	return h.service
}

// List returns notifications visible to the current user.
func (h *NotificationHandler) List(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	unreadOnly := false
	if v := parseBoolQuery(c, "unread"); v != nil {
		unreadOnly = *v
	}

	items, err := h.service.ListForUser(c.Request.Context(), services.ListNotificationsInput{
		UserID:     userID,
		UnreadOnly: unreadOnly,
		Limit:      parseIntQuery(c, "limit", 25),
		Offset:     parseIntQuery(c, "offset", 0),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, items)
}

// MarkRead toggles a notification to read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	dto, err := h.service.MarkRead(c.Request.Context(), userID, strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, dto)
}

// MarkAllRead marks all visible notifications read.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	if err := h.service.MarkAllRead(c.Request.Context(), userID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"updated": true})
}

// Delete removes a notification.
func (h *NotificationHandler) Delete(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, strings.TrimSpace(c.Param("id"))); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
