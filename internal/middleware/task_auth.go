package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/standup-board/internal/constants"
	"github.com/yukikurage/standup-board/internal/database"
	apierrors "github.com/yukikurage/standup-board/internal/errors"
	"github.com/yukikurage/standup-board/internal/models"
)

// RequireTask loads the task named by the :id parameter into the context.
// Deleted tasks are reported as missing.
func RequireTask() gin.HandlerFunc {
	return func(c *gin.Context) {
		taskID, ok := parseID(c, "task")
		if !ok {
			return
		}

		var task models.Task
		if err := database.GetDB().First(&task, taskID).Error; err != nil {
			apierrors.NotFound(c, "Task not found")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyTask, task)
		c.Next()
	}
}

// GetTask returns the task loaded by RequireTask
func GetTask(c *gin.Context) (models.Task, bool) {
	value, exists := c.Get(constants.ContextKeyTask)
	if !exists {
		return models.Task{}, false
	}
	task, ok := value.(models.Task)
	return task, ok
}

// RequireLog loads the time log named by the :id parameter, with its task
func RequireLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		logID, ok := parseID(c, "log")
		if !ok {
			return
		}

		var entry models.TimeLog
		if err := database.GetDB().Preload("Task").First(&entry, logID).Error; err != nil {
			apierrors.NotFound(c, "Time log not found")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyLog, entry)
		c.Next()
	}
}

// GetLog returns the time log loaded by RequireLog
func GetLog(c *gin.Context) (models.TimeLog, bool) {
	value, exists := c.Get(constants.ContextKeyLog)
	if !exists {
		return models.TimeLog{}, false
	}
	entry, ok := value.(models.TimeLog)
	return entry, ok
}

func parseID(c *gin.Context, what string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		apierrors.InvalidFormat(c, "Invalid "+what+" ID")
		c.Abort()
		return 0, false
	}
	return id, true
}
