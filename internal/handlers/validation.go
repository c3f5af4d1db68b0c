package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/visadesk-io/visadesk/pkg/errors"
	"github.com/visadesk-io/visadesk/pkg/response"
	appValidator "github.com/visadesk-io/visadesk/pkg/validator"
)

// bindAndValidate decodes the JSON body into dest and runs struct validation,
// writing a 400 response on failure.
func bindAndValidate[T any](c *gin.Context, dest *T) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.NewBadRequest("invalid JSON payload"))
		return false
	}

	if err := appValidator.ValidateStruct(dest); err != nil {
		message := "invalid request payload"
		if ve, ok := err.(appValidator.ValidationErrors); ok && len(ve) > 0 {
			message = ve.Error()
		}
		response.Error(c, appErrors.NewBadRequest(message))
		return false
	}

	return true
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func parseBoolQuery(c *gin.Context, key string) *bool {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &value
}
