package errors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrLogNotFound  = errors.New("time log not found")
	ErrNoProject    = errors.New("no project is open")
	ErrStalePage    = errors.New("catalog request was superseded")
)

// ValidationError is bad input rejected before any network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// AuthorizationError is a placement the acting user may not make.
type AuthorizationError struct {
	ActorID uint64
	OwnerID uint64
	TaskID  uint64
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("user %d cannot place task %d into the row of user %d", e.ActorID, e.TaskID, e.OwnerID)
}

// NetworkError is a non-2xx response, a transport failure or a timeout.
type NetworkError struct {
	Method  string
	Path    string
	Status  int
	Errors  interface{}
	Timeout bool
	Err     error
}

func (e *NetworkError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", e.Method, e.Path)
	switch {
	case e.Timeout:
		b.WriteString(": request timed out")
	case e.Status != 0:
		fmt.Fprintf(&b, ": status %d", e.Status)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ConflictError reports that the collaborator placed a task somewhere other
// than requested. The server's placement has already been adopted.
type ConflictError struct {
	TaskID    uint64
	Requested string
	Actual    string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("task %d was placed in %s instead of %s", e.TaskID, e.Actual, e.Requested)
}

// BusyError rejects a mutation while another one for the same task is in flight.
type BusyError struct {
	TaskID uint64
}

func (e *BusyError) Error() string {
	return fmt.Sprintf("task %d has an operation in flight", e.TaskID)
}

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsAuthorization(err error) bool {
	var target *AuthorizationError
	return errors.As(err, &target)
}

func IsNetwork(err error) bool {
	var target *NetworkError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}

func IsBusy(err error) bool {
	var target *BusyError
	return errors.As(err, &target)
}
