package handlers

import (
	"errors"
	"log"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/standup-board/internal/errors"
	"github.com/yukikurage/standup-board/internal/services"
)

// Form fields each validation error belongs to
var (
	missingFields = map[error]string{
		services.ErrTitleRequired:       "title",
		services.ErrLogTaskRequired:     "todo_item",
		services.ErrTaskIDRequired:      "task_id",
		services.ErrProjectNameRequired: "name",
		services.ErrUsernameRequired:    "username",
	}
	invalidFields = map[error]string{
		services.ErrInvalidStatus:     "status",
		services.ErrInvalidEstimation: "estimation_time",
		services.ErrInvalidLogTime:    "log_time",
		services.ErrInvalidLogDay:     "date",
		services.ErrOwnerNotMember:    "user",
	}
)

// respondServiceError maps service errors onto API error responses
func respondServiceError(c *gin.Context, err error, fallback string) {
	for sentinel, field := range missingFields {
		if errors.Is(err, sentinel) {
			apierrors.MissingField(c, field, err.Error())
			return
		}
	}
	for sentinel, field := range invalidFields {
		if errors.Is(err, sentinel) {
			apierrors.InvalidField(c, field, err.Error())
			return
		}
	}

	switch {
	case errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrLogNotFound),
		errors.Is(err, services.ErrProjectNotFound),
		errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrAlreadyMember),
		errors.Is(err, services.ErrUsernameTaken):
		apierrors.Conflict(c, err.Error())
	default:
		log.Printf("%s: %v", fallback, err)
		apierrors.InternalError(c, fallback)
	}
}
