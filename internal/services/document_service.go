package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/visadesk-io/visadesk/internal/models"
	"github.com/visadesk-io/visadesk/internal/storage"
	apperrors "github.com/visadesk-io/visadesk/pkg/errors"
)

// ErrDocumentNotFound indicates the requested document does not exist.
var ErrDocumentNotFound = apperrors.New("DOCUMENT_NOT_FOUND", "Document not found", http.StatusNotFound)

// UploadDocumentInput describes an incoming document upload.
type UploadDocumentInput struct {
	EmployeeID  string
	Title       string
	Kind        string
	FileName    string
	ContentType string
	ExpiryDate  *time.Time
	UploadedBy  string
	Content     io.Reader
}

// DocumentService manages document metadata rows and their blob content.
type DocumentService struct {
	db    *gorm.DB
	blobs storage.BlobStore
}

// NewDocumentService constructs a DocumentService.
func NewDocumentService(db *gorm.DB, blobs storage.BlobStore) (*DocumentService, error) {
	if db == nil {
		return nil, errors.New("document service: db is required")
	}
	if blobs == nil {
		return nil, errors.New("document service: blob store is required")
	}
	return &DocumentService{db: db, blobs: blobs}, nil
}

// Upload stores the content and records document metadata. The blob is written
// first; if the metadata insert fails the orphaned blob is removed.
func (s *DocumentService) Upload(ctx context.Context, input UploadDocumentInput) (*models.Document, error) {
	ctx = ensureContext(ctx)

	employeeID := strings.TrimSpace(input.EmployeeID)
	if employeeID == "" {
		return nil, apperrors.NewBadRequest("employee_id is required")
	}
	fileName := strings.TrimSpace(input.FileName)
	if fileName == "" {
		return nil, apperrors.NewBadRequest("file name is required")
	}
	if input.Content == nil {
		return nil, apperrors.NewBadRequest("file content is required")
	}

	var exists int64
	if err := s.db.WithContext(ctx).Model(&models.Employee{}).
		Where("id = ?", employeeID).Count(&exists).Error; err != nil {
		return nil, fmt.Errorf("document service: check employee: %w", err)
	}
	if exists == 0 {
		return nil, ErrEmployeeNotFound
	}

	key, size, err := s.blobs.Save(input.Content)
	if err != nil {
		return nil, fmt.Errorf("document service: store content: %w", err)
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = fileName
	}

	document := &models.Document{
		EmployeeID:  employeeID,
		Title:       title,
		Kind:        strings.TrimSpace(input.Kind),
		FileName:    fileName,
		ContentType: strings.TrimSpace(input.ContentType),
		SizeBytes:   size,
		StorageKey:  key,
		ExpiryDate:  normalizeDate(input.ExpiryDate),
		UploadedBy:  strings.TrimSpace(input.UploadedBy),
	}

	if err := s.db.WithContext(ctx).Create(document).Error; err != nil {
		_ = s.blobs.Delete(key)
		return nil, fmt.Errorf("document service: create document: %w", err)
	}

	return document, nil
}

// Get loads document metadata by id.
func (s *DocumentService) Get(ctx context.Context, id string) (*models.Document, error) {
	ctx = ensureContext(ctx)

	var document models.Document
	if err := s.db.WithContext(ctx).First(&document, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("document service: load document: %w", err)
	}
	return &document, nil
}

// ListForEmployee returns all documents attached to an employee, newest first.
func (s *DocumentService) ListForEmployee(ctx context.Context, employeeID string) ([]models.Document, error) {
	ctx = ensureContext(ctx)

	var documents []models.Document
	err := s.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("created_at DESC").
		Find(&documents).Error
	if err != nil {
		return nil, fmt.Errorf("document service: list documents: %w", err)
	}
	return documents, nil
}

// OpenContent resolves the document row and returns a reader over its content.
// The caller owns closing the reader.
func (s *DocumentService) OpenContent(ctx context.Context, id string) (*models.Document, io.ReadCloser, error) {
	document, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	rc, err := s.blobs.Open(document.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, nil, ErrDocumentNotFound
		}
		return nil, nil, fmt.Errorf("document service: open content: %w", err)
	}
	return document, rc, nil
}

// Delete removes the metadata row and its blob.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	document, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(&models.Document{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("document service: delete document: %w", err)
	}

	if err := s.blobs.Delete(document.StorageKey); err != nil {
		// Metadata is gone; an orphaned blob is only wasted disk.
		return fmt.Errorf("document service: delete content: %w", err)
	}
	return nil
}
