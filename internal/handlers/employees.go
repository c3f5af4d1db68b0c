package handlers

import (
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/visadesk-io/visadesk/internal/services"
	appErrors "github.com/visadesk-io/visadesk/pkg/errors"
	"github.com/visadesk-io/visadesk/pkg/response"
)

// EmployeeHandler exposes CRUD endpoints for the employee directory.
type EmployeeHandler struct {
	employees *services.EmployeeService
}

// NewEmployeeHandler constructs an EmployeeHandler.
func NewEmployeeHandler(db *gorm.DB) (*EmployeeHandler, error) {
	employees, err := services.NewEmployeeService(db)
	if err != nil {
		return nil, err
	}
	return &EmployeeHandler{employees: employees}, nil
}

type employeePayload struct {
	Name           string `json:"name" validate:"required,max=255"`
	Email          string `json:"email" validate:"required,email"`
	CompanyName    string `json:"company_name" validate:"max=255"`
	Nationality    string `json:"nationality" validate:"max=64"`
	Position       string `json:"position" validate:"max=128"`
	VisaExpiryDate string `json:"visa_expiry_date" validate:"omitempty,datetime=2006-01-02"`
	TelegramChatID int64  `json:"telegram_chat_id"`
	IsActive       *bool  `json:"is_active"`
}

// Create registers a new employee.
func (h *EmployeeHandler) Create(c *gin.Context) {
	var payload employeePayload
	if !bindAndValidate(c, &payload) {
		return
	}

	expiry, err := parseDate(payload.VisaExpiryDate)
	if err != nil {
		response.Error(c, appErrors.NewBadRequest("visa_expiry_date must use YYYY-MM-DD"))
		return
	}

	employee, err := h.employees.Create(c.Request.Context(), services.CreateEmployeeInput{
		Name:           payload.Name,
		Email:          payload.Email,
		CompanyName:    payload.CompanyName,
		Nationality:    payload.Nationality,
		Position:       payload.Position,
		VisaExpiryDate: expiry,
		TelegramChatID: payload.TelegramChatID,
		IsActive:       payload.IsActive,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, employee)
}

// Get returns a single employee.
func (h *EmployeeHandler) Get(c *gin.Context) {
	employee, err := h.employees.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, employee)
}

// List returns a page of employees.
func (h *EmployeeHandler) List(c *gin.Context) {
	page := parseIntQuery(c, "page", 1)
	pageSize := parseIntQuery(c, "page_size", 25)

	employees, total, err := h.employees.List(c.Request.Context(), services.ListEmployeesOptions{
		Page:     page,
		PageSize: pageSize,
		Filters: services.EmployeeFilters{
			IsActive: parseBoolQuery(c, "is_active"),
			Query:    c.Query("q"),
			Company:  c.Query("company"),
		},
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	if pageSize <= 0 || pageSize > 100 {
		pageSize = 25
	}
	response.SuccessWithMeta(c, http.StatusOK, employees, &response.Meta{
		Page:       page,
		PerPage:    pageSize,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
	})
}

type employeeUpdatePayload struct {
	Name           *string `json:"name" validate:"omitempty,max=255"`
	Email          *string `json:"email" validate:"omitempty,email"`
	CompanyName    *string `json:"company_name" validate:"omitempty,max=255"`
	Nationality    *string `json:"nationality" validate:"omitempty,max=64"`
	Position       *string `json:"position" validate:"omitempty,max=128"`
	VisaExpiryDate *string `json:"visa_expiry_date" validate:"omitempty,datetime=2006-01-02"`
	TelegramChatID *int64  `json:"telegram_chat_id"`
	IsActive       *bool   `json:"is_active"`
}

// Update applies partial changes to an employee. Changing the visa expiry to a
// later date resets the reminder cycle.
func (h *EmployeeHandler) Update(c *gin.Context) {
	var payload employeeUpdatePayload
	if !bindAndValidate(c, &payload) {
		return
	}

	input := services.UpdateEmployeeInput{
		Name:           payload.Name,
		Email:          payload.Email,
		CompanyName:    payload.CompanyName,
		Nationality:    payload.Nationality,
		Position:       payload.Position,
		TelegramChatID: payload.TelegramChatID,
		IsActive:       payload.IsActive,
	}

	if payload.VisaExpiryDate != nil {
		expiry, err := parseDate(*payload.VisaExpiryDate)
		if err != nil {
			response.Error(c, appErrors.NewBadRequest("visa_expiry_date must use YYYY-MM-DD"))
			return
		}
		input.VisaExpiryDate = &expiry
	}

	employee, err := h.employees.Update(c.Request.Context(), strings.TrimSpace(c.Param("id")), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, employee)
}

// Delete removes an employee and its attached records.
func (h *EmployeeHandler) Delete(c *gin.Context) {
	if err := h.employees.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// parseDate converts an optional YYYY-MM-DD string. Empty input maps to nil.
func parseDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	parsed, err := time.ParseInLocation("2006-01-02", value, time.UTC)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
