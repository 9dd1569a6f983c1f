package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes carried in collaborator error bodies
const (
	// A field holds a value the board cannot accept
	ErrCodeInvalidInput = "INVALID_INPUT"
	// A required field is absent or blank
	ErrCodeMissingField = "MISSING_FIELD"
	// A path id, query value or body could not be parsed
	ErrCodeInvalidFormat = "INVALID_FORMAT"

	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeConflict      = "CONFLICT"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// APIError is the error body the collaborator returns. Details maps form
// fields to their messages, the shape the board client reads back into a
// ValidationError.
type APIError struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Details map[string][]string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// fieldError builds a body that names the offending field.
func fieldError(code, field, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Details: map[string][]string{field: {message}},
	}
}

func abort(c *gin.Context, status int, err *APIError) {
	c.AbortWithStatusJSON(status, err)
}

// MissingField sends a 400 for a required form field left blank, such as a
// task title or the task of a log entry
func MissingField(c *gin.Context, field, message string) {
	abort(c, http.StatusBadRequest, fieldError(ErrCodeMissingField, field, message))
}

// InvalidField sends a 400 for a field whose value is out of range, such as
// an unknown status or negative hours
func InvalidField(c *gin.Context, field, message string) {
	abort(c, http.StatusBadRequest, fieldError(ErrCodeInvalidInput, field, message))
}

// InvalidFormat sends a 400 for ids, query values and bodies that do not parse
func InvalidFormat(c *gin.Context, message string) {
	if message == "" {
		message = "Invalid request"
	}
	abort(c, http.StatusBadRequest, &APIError{Code: ErrCodeInvalidFormat, Message: message})
}

// NotFound sends a 404 for a project, task, log entry or user that does not exist
func NotFound(c *gin.Context, message string) {
	if message == "" {
		message = "Resource not found"
	}
	abort(c, http.StatusNotFound, &APIError{Code: ErrCodeNotFound, Message: message})
}

// Conflict sends a 409 for a username or membership that already exists
func Conflict(c *gin.Context, message string) {
	if message == "" {
		message = "Resource conflict"
	}
	abort(c, http.StatusConflict, &APIError{Code: ErrCodeConflict, Message: message})
}

// InternalError sends a 500
func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "Internal server error"
	}
	abort(c, http.StatusInternalServerError, &APIError{Code: ErrCodeInternalError, Message: message})
}
