package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/visadesk-io/visadesk/internal/middleware"
	"github.com/visadesk-io/visadesk/internal/services"
	"github.com/visadesk-io/visadesk/internal/storage"
	appErrors "github.com/visadesk-io/visadesk/pkg/errors"
	"github.com/visadesk-io/visadesk/pkg/response"
)

// maxDocumentSize caps uploads at 25 MiB.
const maxDocumentSize = 25 << 20

// DocumentHandler exposes upload/download endpoints for employee documents.
type DocumentHandler struct {
	documents *services.DocumentService
}

// NewDocumentHandler constructs a DocumentHandler.
func NewDocumentHandler(db *gorm.DB, blobs storage.BlobStore) (*DocumentHandler, error) {
	documents, err := services.NewDocumentService(db, blobs)
	if err != nil {
		return nil, err
	}
	return &DocumentHandler{documents: documents}, nil
}

// Upload accepts a multipart form with a "file" part and optional metadata fields.
func (h *DocumentHandler) Upload(c *gin.Context) {
	employeeID := strings.TrimSpace(c.Param("id"))

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.NewBadRequest("file is required"))
		return
	}
	if fileHeader.Size > maxDocumentSize {
		response.Error(c, appErrors.NewBadRequest("file exceeds the 25MB limit"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, "failed to read upload"))
		return
	}
	defer file.Close()

	expiry, err := parseDate(c.PostForm("expiry_date"))
	if err != nil {
		response.Error(c, appErrors.NewBadRequest("expiry_date must use YYYY-MM-DD"))
		return
	}

	document, err := h.documents.Upload(c.Request.Context(), services.UploadDocumentInput{
		EmployeeID:  employeeID,
		Title:       c.PostForm("title"),
		Kind:        c.PostForm("kind"),
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		ExpiryDate:  expiry,
		UploadedBy:  c.GetString(middleware.CtxUserIDKey),
		Content:     io.LimitReader(file, maxDocumentSize),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, document)
}

// List returns all documents for an employee.
func (h *DocumentHandler) List(c *gin.Context) {
	documents, err := h.documents.ListForEmployee(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, documents)
}

// Download streams the stored document content.
func (h *DocumentHandler) Download(c *gin.Context) {
	document, content, err := h.documents.OpenContent(c.Request.Context(), strings.TrimSpace(c.Param("docID")))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer content.Close()

	contentType := document.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", document.FileName))
	c.DataFromReader(http.StatusOK, document.SizeBytes, contentType, content, nil)
}

// Delete removes a document and its content.
func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.documents.Delete(c.Request.Context(), strings.TrimSpace(c.Param("docID"))); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
