package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/visadesk-io/visadesk/internal/handlers"
	"github.com/visadesk-io/visadesk/internal/storage"
)

func registerEmployeeRoutes(api *gin.RouterGroup, db *gorm.DB, blobs storage.BlobStore, requireAdmin gin.HandlerFunc) error {
	employeeHandler, err := handlers.NewEmployeeHandler(db)
	if err != nil {
		return err
	}

	employees := api.Group("/employees")
	{
		employees.GET("", employeeHandler.List)
		employees.GET("/:id", employeeHandler.Get)
		employees.POST("", requireAdmin, employeeHandler.Create)
		employees.PATCH("/:id", requireAdmin, employeeHandler.Update)
		employees.DELETE("/:id", requireAdmin, employeeHandler.Delete)
	}

	if blobs != nil {
		documentHandler, err := handlers.NewDocumentHandler(db, blobs)
		if err != nil {
			return err
		}

		employees.GET("/:id/documents", documentHandler.List)
		employees.POST("/:id/documents", requireAdmin, documentHandler.Upload)
		api.GET("/documents/:docID/download", documentHandler.Download)
		api.DELETE("/documents/:docID", requireAdmin, documentHandler.Delete)
	}

	return nil
}
