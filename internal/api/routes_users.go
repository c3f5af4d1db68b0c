package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/visadesk-io/visadesk/internal/handlers"
	"github.com/visadesk-io/visadesk/internal/services"
)

func registerUserRoutes(api *gin.RouterGroup, db *gorm.DB, notifications *services.NotificationService, requireAdmin gin.HandlerFunc) error {
	userHandler, err := handlers.NewUserHandler(db, notifications)
	if err != nil {
		return err
	}

	users := api.Group("/users")
	users.Use(requireAdmin)
	{
		users.GET("/pending", userHandler.ListPending)
		users.POST("/:id/approve", userHandler.Approve)
		users.POST("/:id/reject", userHandler.Reject)
	}

	return nil
}
