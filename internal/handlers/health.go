package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/visadesk-io/visadesk/internal/database"
	"github.com/visadesk-io/visadesk/pkg/response"
)

// Health returns a status payload useful for readiness checks, including a
// database ping.
func Health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := database.Healthcheck(db); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"success": false,
				"status":  "degraded",
			})
			return
		}
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	}
}
