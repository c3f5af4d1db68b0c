package api

import (
	"github.com/gin-gonic/gin"

	"github.com/visadesk-io/visadesk/internal/handlers"
)

func registerSweepRoutes(api *gin.RouterGroup, handler *handlers.SweepHandler, requireAdmin gin.HandlerFunc) {
	group := api.Group("/visa-sweep")
	{
		group.POST("/run", requireAdmin, handler.RunManual)
		group.GET("/stats", handler.Stats)
	}
}
