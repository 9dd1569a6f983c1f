package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/standup-board/internal/dto"
	apierrors "github.com/yukikurage/standup-board/internal/errors"
	"github.com/yukikurage/standup-board/internal/middleware"
	"github.com/yukikurage/standup-board/internal/services"
)

type LogHandler struct {
	logService *services.LogService
}

func NewLogHandler(logService *services.LogService) *LogHandler {
	return &LogHandler{logService: logService}
}

// CreateLog records hours on a task
func (h *LogHandler) CreateLog(c *gin.Context) {
	var req dto.CreateLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.InvalidFormat(c, "Invalid request body")
		return
	}

	entry, err := h.logService.CreateLog(services.CreateLogInput{
		TaskID:   req.TodoItem,
		LogTime:  req.LogTime,
		Notes:    req.Notes,
		TaskDate: req.TaskDate,
	})
	if err != nil {
		respondServiceError(c, err, "Failed to create time log")
		return
	}

	c.JSON(http.StatusCreated, dto.ToTimeLogDTO(*entry))
}

// UpdateLog edits a log and reports the task's totals
func (h *LogHandler) UpdateLog(c *gin.Context) {
	entry, ok := middleware.GetLog(c)
	if !ok {
		apierrors.InternalError(c, "Time log not found in context")
		return
	}

	var req dto.UpdateLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.InvalidFormat(c, "Invalid request body")
		return
	}

	result, err := h.logService.UpdateLog(&entry, services.UpdateLogInput{
		LogTime:  req.LogTime,
		Notes:    req.Notes,
		TaskDate: req.TaskDate,
	})
	if err != nil {
		respondServiceError(c, err, "Failed to update time log")
		return
	}

	c.JSON(http.StatusOK, dto.UpdateLogResponse{
		Success:        true,
		TotalTimeSpent: result.TotalTimeSpent,
		TotalLogTime:   result.TotalLogTime,
	})
}

// DeleteLog removes a log
func (h *LogHandler) DeleteLog(c *gin.Context) {
	entry, ok := middleware.GetLog(c)
	if !ok {
		apierrors.InternalError(c, "Time log not found in context")
		return
	}

	if err := h.logService.DeleteLog(entry.ID); err != nil {
		respondServiceError(c, err, "Failed to delete time log")
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}

// ListProjectLogs returns a project's logs for date=today or date=yesterday
func (h *LogHandler) ListProjectLogs(c *gin.Context) {
	project, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "Project not found in context")
		return
	}

	day := dto.LogDay(c.DefaultQuery("date", string(dto.LogDayToday)))
	entries, err := h.logService.ListProjectLogs(project.ID, day)
	if err != nil {
		respondServiceError(c, err, "Failed to fetch time logs")
		return
	}

	c.JSON(http.StatusOK, dto.ToTimeLogDTOs(entries))
}
