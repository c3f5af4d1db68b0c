package api

import (
	"github.com/gin-gonic/gin"

	"github.com/visadesk-io/visadesk/internal/handlers"
)

func registerNotificationRoutes(api *gin.RouterGroup, handler *handlers.NotificationHandler) {
	group := api.Group("/notifications")
	{
		group.GET("", handler.List)
		group.POST("/read-all", handler.MarkAllRead)
		group.POST("/:id/read", handler.MarkRead)
		group.DELETE("/:id", handler.Delete)
	}
}
