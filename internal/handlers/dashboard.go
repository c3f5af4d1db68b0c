package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/visadesk-io/visadesk/internal/middleware"
	"github.com/visadesk-io/visadesk/internal/models"
	"github.com/visadesk-io/visadesk/internal/services"
	"github.com/visadesk-io/visadesk/internal/sweep"
	"github.com/visadesk-io/visadesk/pkg/response"
)

// DashboardHandler aggregates the landing-page summary.
type DashboardHandler struct {
	db            *gorm.DB
	notifications *services.NotificationService
	now           func() time.Time
}

// NewDashboardHandler constructs a DashboardHandler.
func NewDashboardHandler(db *gorm.DB) (*DashboardHandler, error) {
	notifications, err := services.NewNotificationService(db)
	if err != nil {
		return nil, err
	}
	return &DashboardHandler{
		db:            db,
		notifications: notifications,
		now:           time.Now,
	}, nil
}

// Summary returns employee totals, visa statistics, and notification state in
// one payload.
func (h *DashboardHandler) Summary(c *gin.Context) {
	ctx := c.Request.Context()

	var totalEmployees, activeEmployees int64
	if err := h.db.WithContext(ctx).Model(&models.Employee{}).Count(&totalEmployees).Error; err != nil {
		response.Error(c, err)
		return
	}
	if err := h.db.WithContext(ctx).Model(&models.Employee{}).
		Where("is_active = ?", true).Count(&activeEmployees).Error; err != nil {
		response.Error(c, err)
		return
	}

	visaStats, err := sweep.ComputeStats(ctx, h.db, h.now())
	if err != nil {
		response.Error(c, err)
		return
	}

	userID := c.GetString(middleware.CtxUserIDKey)
	unread, err := h.notifications.UnreadCount(ctx, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	recent, err := h.notifications.ListForUser(ctx, services.ListNotificationsInput{
		UserID: userID,
		Limit:  5,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"employees": gin.H{
			"total":  totalEmployees,
			"active": activeEmployees,
		},
		"visa":                 visaStats,
		"unread_notifications": unread,
		"recent_notifications": recent,
	})
}
