package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/standup-board/internal/dto"
	apierrors "github.com/yukikurage/standup-board/internal/errors"
	"github.com/yukikurage/standup-board/internal/middleware"
	"github.com/yukikurage/standup-board/internal/services"
	"github.com/yukikurage/standup-board/internal/utils"
)

type TaskHandler struct {
	taskService *services.TaskService
	logService  *services.LogService
}

func NewTaskHandler(taskService *services.TaskService, logService *services.LogService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		logService:  logService,
	}
}

// ListTasks returns one page of a project's catalog. Pages past the end
// come back empty.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	project, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "Project not found in context")
		return
	}

	params := utils.GetPaginationParams(c)
	input := services.ListTasksInput{
		ProjectID: project.ID,
		Search:    c.Query("search"),
		Page:      params.Page,
		PageSize:  params.Limit,
	}

	if raw := c.Query("user_id"); raw != "" {
		userID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			apierrors.InvalidFormat(c, "Invalid user_id")
			return
		}
		input.UserID = &userID
	}

	tasks, total, err := h.taskService.ListTasks(input)
	if err != nil {
		respondServiceError(c, err, "Failed to fetch tasks")
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskPageDTO(tasks, params.Page, params.Limit, total))
}

// ListBlockers returns a project's blocked tasks
func (h *TaskHandler) ListBlockers(c *gin.Context) {
	project, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "Project not found in context")
		return
	}

	tasks, err := h.taskService.ListBlockers(project.ID)
	if err != nil {
		respondServiceError(c, err, "Failed to fetch blockers")
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTOs(tasks))
}

// CreateTask creates a task owned by the given project member
func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.InvalidFormat(c, "Invalid request body")
		return
	}

	task, err := h.taskService.CreateTask(services.CreateTaskInput{
		Title:          req.Title,
		UserID:         req.User,
		ProjectID:      req.Project,
		EstimationTime: req.EstimationTime,
	})
	if err != nil {
		respondServiceError(c, err, "Failed to create task")
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// UpdateTask applies the fields present in the body. time_spent_hours is
// accepted and ignored; totals come from the logs.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	var req dto.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.InvalidFormat(c, "Invalid request body")
		return
	}

	updated, err := h.taskService.UpdateTask(&task, services.UpdateTaskInput{
		Title:          req.Title,
		Description:    req.Description,
		Status:         req.Status,
		TaskDate:       req.TaskDate,
		ClearTaskDate:  req.ClearTaskDate,
		EstimationTime: req.EstimationTime,
		ProjectID:      req.Project,
	})
	if err != nil {
		respondServiceError(c, err, "Failed to update task")
		return
	}

	c.JSON(http.StatusOK, dto.TaskResponse{Success: true, Task: dto.ToTaskDTO(*updated)})
}

// DeleteTask deletes a task together with its logs
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	if err := h.taskService.DeleteTask(task.ID); err != nil {
		respondServiceError(c, err, "Failed to delete task")
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}

// ListLogs returns every log of a task
func (h *TaskHandler) ListLogs(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	entries, err := h.logService.ListTaskLogs(task.ID)
	if err != nil {
		respondServiceError(c, err, "Failed to fetch time logs")
		return
	}

	c.JSON(http.StatusOK, dto.ToTimeLogDTOs(entries))
}

// TotalTime returns the sum of a task's logs
func (h *TaskHandler) TotalTime(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	total, err := h.logService.TotalTime(task.ID)
	if err != nil {
		respondServiceError(c, err, "Failed to total time logs")
		return
	}

	c.JSON(http.StatusOK, dto.TotalTimeResponse{TotalTime: total})
}

// UpdatePlacement sets a task's date, or clears it when date is null
func (h *TaskHandler) UpdatePlacement(c *gin.Context) {
	var req dto.PlacementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.InvalidFormat(c, "Invalid request body")
		return
	}

	task, err := h.taskService.Place(req.TaskID, req.Date)
	if err != nil {
		respondServiceError(c, err, "Failed to update placement")
		return
	}

	canonical := dto.ToTaskDTO(*task)
	c.JSON(http.StatusOK, dto.PlacementAck{Success: true, Task: &canonical})
}
