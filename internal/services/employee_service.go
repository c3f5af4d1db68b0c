package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/visadesk-io/visadesk/internal/models"
	apperrors "github.com/visadesk-io/visadesk/pkg/errors"
)

var (
	// ErrEmployeeNotFound indicates the requested employee does not exist.
	ErrEmployeeNotFound = apperrors.New("EMPLOYEE_NOT_FOUND", "Employee not found", http.StatusNotFound)
	// ErrEmployeeEmailTaken indicates the email address is already registered.
	ErrEmployeeEmailTaken = apperrors.New("EMPLOYEE_EMAIL_TAKEN", "An employee with this email already exists", http.StatusConflict)
)

// CreateEmployeeInput describes the fields accepted when creating an employee.
type CreateEmployeeInput struct {
	Name           string
	Email          string
	CompanyName    string
	Nationality    string
	Position       string
	VisaExpiryDate *time.Time
	TelegramChatID int64
	IsActive       *bool
}

// UpdateEmployeeInput enumerates mutable employee attributes. Nil fields are
// left untouched; VisaExpiryDate uses a double pointer so callers can clear it.
type UpdateEmployeeInput struct {
	Name           *string
	Email          *string
	CompanyName    *string
	Nationality    *string
	Position       *string
	VisaExpiryDate **time.Time
	TelegramChatID *int64
	IsActive       *bool
}

// EmployeeFilters captures listing filters.
type EmployeeFilters struct {
	IsActive *bool
	Query    string
	Company  string
}

// ListEmployeesOptions controls pagination for employee listing.
type ListEmployeesOptions struct {
	Page     int
	PageSize int
	Filters  EmployeeFilters
}

// EmployeeService manages the employee directory.
type EmployeeService struct {
	db *gorm.DB
}

// NewEmployeeService constructs an EmployeeService instance.
func NewEmployeeService(db *gorm.DB) (*EmployeeService, error) {
	if db == nil {
		return nil, errors.New("employee service: db is required")
	}
	return &EmployeeService{db: db}, nil
}

// Create provisions a new employee record.
func (s *EmployeeService) Create(ctx context.Context, input CreateEmployeeInput) (*models.Employee, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if name == "" {
		return nil, apperrors.NewBadRequest("name is required")
	}
	if email == "" {
		return nil, apperrors.NewBadRequest("email is required")
	}

	employee := &models.Employee{
		Name:           name,
		Email:          email,
		CompanyName:    strings.TrimSpace(input.CompanyName),
		Nationality:    strings.TrimSpace(input.Nationality),
		Position:       strings.TrimSpace(input.Position),
		VisaExpiryDate: normalizeDate(input.VisaExpiryDate),
		TelegramChatID: input.TelegramChatID,
		IsActive:       true,
	}
	if input.IsActive != nil {
		employee.IsActive = *input.IsActive
	}

	if err := s.db.WithContext(ctx).Create(employee).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmployeeEmailTaken
		}
		return nil, fmt.Errorf("employee service: create employee: %w", err)
	}
	return employee, nil
}

// Get loads a single employee by id.
func (s *EmployeeService) Get(ctx context.Context, id string) (*models.Employee, error) {
	ctx = ensureContext(ctx)

	var employee models.Employee
	if err := s.db.WithContext(ctx).First(&employee, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("employee service: load employee: %w", err)
	}
	return &employee, nil
}

// List returns a page of employees plus the total matching count.
func (s *EmployeeService) List(ctx context.Context, opts ListEmployeesOptions) ([]models.Employee, int64, error) {
	ctx = ensureContext(ctx)

	page := opts.Page
	if page < 1 {
		page = 1
	}
	pageSize := opts.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 25
	}

	query := s.db.WithContext(ctx).Model(&models.Employee{})
	if opts.Filters.IsActive != nil {
		query = query.Where("is_active = ?", *opts.Filters.IsActive)
	}
	if company := strings.TrimSpace(opts.Filters.Company); company != "" {
		query = query.Where("company_name = ?", company)
	}
	if q := strings.TrimSpace(opts.Filters.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("employee service: count employees: %w", err)
	}

	var employees []models.Employee
	if err := query.
		Order("name ASC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&employees).Error; err != nil {
		return nil, 0, fmt.Errorf("employee service: list employees: %w", err)
	}

	return employees, total, nil
}

// Update applies the supplied changes. Moving the visa expiry date to a later
// date is a renewal: all reminder rows for the employee are removed in the
// same transaction so the new cycle notifies again.
func (s *EmployeeService) Update(ctx context.Context, id string, input UpdateEmployeeInput) (*models.Employee, error) {
	ctx = ensureContext(ctx)

	var employee models.Employee
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&employee, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEmployeeNotFound
			}
			return fmt.Errorf("load employee: %w", err)
		}

		renewed := false
		updates := map[string]any{}

		if input.Name != nil {
			if strings.TrimSpace(*input.Name) == "" {
				return apperrors.NewBadRequest("name cannot be empty")
			}
			updates["name"] = strings.TrimSpace(*input.Name)
		}
		if input.Email != nil {
			email := strings.ToLower(strings.TrimSpace(*input.Email))
			if email == "" {
				return apperrors.NewBadRequest("email cannot be empty")
			}
			updates["email"] = email
		}
		if input.CompanyName != nil {
			updates["company_name"] = strings.TrimSpace(*input.CompanyName)
		}
		if input.Nationality != nil {
			updates["nationality"] = strings.TrimSpace(*input.Nationality)
		}
		if input.Position != nil {
			updates["position"] = strings.TrimSpace(*input.Position)
		}
		if input.TelegramChatID != nil {
			updates["telegram_chat_id"] = *input.TelegramChatID
		}
		if input.IsActive != nil {
			updates["is_active"] = *input.IsActive
		}
		if input.VisaExpiryDate != nil {
			next := normalizeDate(*input.VisaExpiryDate)
			renewed = isRenewal(employee.VisaExpiryDate, next)
			updates["visa_expiry_date"] = next
		}

		if len(updates) == 0 {
			return nil
		}

		if err := tx.Model(&employee).Updates(updates).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrEmployeeEmailTaken
			}
			return fmt.Errorf("update employee: %w", err)
		}

		if renewed {
			if err := tx.Where("employee_id = ?", employee.ID).
				Delete(&models.VisaReminder{}).Error; err != nil {
				return fmt.Errorf("reset reminders: %w", err)
			}
		}

		return tx.First(&employee, "id = ?", id).Error
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, fmt.Errorf("employee service: %w", err)
	}

	return &employee, nil
}

// Delete removes an employee along with reminders and document rows.
func (s *EmployeeService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.Employee{}, "id = ?", id)
		if result.Error != nil {
			return fmt.Errorf("delete employee: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrEmployeeNotFound
		}

		if err := tx.Where("employee_id = ?", id).Delete(&models.VisaReminder{}).Error; err != nil {
			return fmt.Errorf("delete reminders: %w", err)
		}
		return nil
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		return fmt.Errorf("employee service: %w", err)
	}
	return nil
}

// normalizeDate truncates a timestamp to a UTC calendar date. The instant is
// converted to UTC first so the stored date matches the sweep's day arithmetic
// regardless of the client's zone.
func normalizeDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	d := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}

// isRenewal reports whether the expiry date moved strictly later. Setting a
// date on a previously untracked employee is not a renewal: there is nothing
// to reset.
func isRenewal(current, next *time.Time) bool {
	if current == nil || next == nil {
		return false
	}
	return next.After(*current)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
