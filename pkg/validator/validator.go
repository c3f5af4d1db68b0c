package validator

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Param string `json:"param"`
}

// Message renders a client-facing description of the failure. Field names
// come from json tags, so the text matches the payload the caller sent.
func (v ValidationError) Message() string {
	switch v.Tag {
	case "required":
		return fmt.Sprintf("%s is required", v.Field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", v.Field)
	case "datetime":
		return fmt.Sprintf("%s must match the format %s", v.Field, v.Param)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", v.Field, v.Param)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", v.Field, v.Param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", v.Field, v.Param)
	default:
		return fmt.Sprintf("%s is invalid", v.Field)
	}
}

// ValidationErrors collects multiple validation failures.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}

	parts := make([]string, len(v))
	for i, err := range v {
		parts[i] = err.Message()
	}
	return strings.Join(parts, "; ")
}

// ValidateStruct validates a struct using registered rules.
func ValidateStruct(s interface{}) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	if ve, ok := err.(validator.ValidationErrors); ok {
		failures := make(ValidationErrors, 0, len(ve))
		for _, fe := range ve {
			failures = append(failures, ValidationError{
				Field: fe.Field(),
				Tag:   fe.Tag(),
				Param: fe.Param(),
			})
		}
		return failures
	}

	return err
}

func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := fld.Tag.Get("json")
			if name == "" {
				return fld.Name
			}

			if comma := strings.Index(name, ","); comma != -1 {
				name = name[:comma]
			}

			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}
