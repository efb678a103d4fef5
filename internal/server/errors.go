package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wac0705/fastenmind-system-sub000/internal/apperror"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

// Unwrap places request-shape failures in the validation class.
func (v ValidationErrors) Unwrap() error {
	return apperror.ErrValidation
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized = apperror.New(apperror.ErrUnauthorized, "unauthorized")
	ErrNotFound     = apperror.New(apperror.ErrNotFound, "not_found")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return http.StatusNotFound, errorPayload{Type: "not_found", Message: "not found"}
	}

	code := apperror.Code(err)
	switch apperror.Class(err) {
	case apperror.ErrValidation:
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{Code: code, Message: "invalid value"},
			},
		}
	case apperror.ErrNotFound:
		return http.StatusNotFound, errorPayload{Type: "not_found", Message: code}
	case apperror.ErrConflict:
		return http.StatusConflict, errorPayload{Type: "conflict", Message: code}
	case apperror.ErrUnauthorized:
		return http.StatusUnauthorized, errorPayload{Type: "unauthorized", Message: code}
	case apperror.ErrForbidden:
		return http.StatusForbidden, errorPayload{Type: "forbidden", Message: code}
	case apperror.ErrConfiguration:
		return http.StatusInternalServerError, errorPayload{Type: "configuration_error", Message: code}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

// classifyErrorForLog returns the error type and code attached to request logs.
func classifyErrorForLog(err error) (string, string) {
	if asValidationErrors(err) != nil {
		return "validation_error", "invalid_request"
	}
	class := apperror.Class(err)
	if class == nil {
		return "internal_error", "internal_error"
	}
	return class.Error(), apperror.Code(err)
}
