package services

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/yukikurage/standup-board/internal/models"
	"github.com/yukikurage/standup-board/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound       = errors.New("task not found")
	ErrProjectNotFound    = errors.New("project not found")
	ErrTitleRequired      = errors.New("title is required")
	ErrInvalidStatus      = errors.New("status must be one of todo, inprogress, done, blocker")
	ErrInvalidEstimation  = errors.New("estimation_time must be a non-negative number")
	ErrOwnerNotMember     = errors.New("user is not a member of the project")
	ErrTaskIDRequired     = errors.New("task_id is required")
)

// TaskService handles task business logic
type TaskService struct {
	taskRepo    repository.TaskRepository
	projectRepo repository.ProjectRepository
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository, projectRepo repository.ProjectRepository) *TaskService {
	return &TaskService{
		taskRepo:    taskRepo,
		projectRepo: projectRepo,
	}
}

// ListTasksInput represents filters for listing a project's catalog
type ListTasksInput struct {
	ProjectID uint64
	Search    string
	UserID    *uint64
	Page      int
	PageSize  int
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title          string
	UserID         uint64
	ProjectID      uint64
	EstimationTime *float64
}

// UpdateTaskInput represents input for updating a task. Nil fields are left
// unchanged; ClearTaskDate removes the date.
type UpdateTaskInput struct {
	Title          *string
	Description    *string
	Status         *models.TaskStatus
	TaskDate       *models.Date
	ClearTaskDate  bool
	EstimationTime *float64
	ProjectID      *uint64
}

// ListTasks returns one catalog page and the total number of matches
func (s *TaskService) ListTasks(input ListTasksInput) ([]models.Task, int64, error) {
	tasks, total, err := s.taskRepo.List(repository.TaskFilter{
		ProjectID: input.ProjectID,
		Search:    input.Search,
		UserID:    input.UserID,
		Page:      input.Page,
		PageSize:  input.PageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, total, nil
}

// ListBlockers returns a project's blocked tasks
func (s *TaskService) ListBlockers(projectID uint64) ([]models.Task, error) {
	tasks, err := s.taskRepo.ListBlockers(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list blockers: %w", err)
	}
	return tasks, nil
}

// GetTask retrieves a task by ID
func (s *TaskService) GetTask(taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to fetch task: %w", err)
	}
	return task, nil
}

// CreateTask creates a todo task owned by a project member
func (s *TaskService) CreateTask(input CreateTaskInput) (*models.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	estimation := 0.0
	if input.EstimationTime != nil {
		if !validEstimation(*input.EstimationTime) {
			return nil, ErrInvalidEstimation
		}
		estimation = *input.EstimationTime
	}

	if err := s.ensureMember(input.ProjectID, input.UserID); err != nil {
		return nil, err
	}

	task := &models.Task{
		Title:          title,
		Status:         models.TaskStatusTodo,
		EstimationTime: estimation,
		UserID:         input.UserID,
		ProjectID:      input.ProjectID,
	}

	if err := s.taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return task, nil
}

// UpdateTask applies a partial update to a task
func (s *TaskService) UpdateTask(task *models.Task, input UpdateTaskInput) (*models.Task, error) {
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrTitleRequired
		}
		task.Title = title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		task.Status = *input.Status
	}
	if input.ClearTaskDate {
		task.TaskDate = nil
	} else if input.TaskDate != nil {
		d := *input.TaskDate
		task.TaskDate = &d
	}
	if input.EstimationTime != nil {
		if !validEstimation(*input.EstimationTime) {
			return nil, ErrInvalidEstimation
		}
		task.EstimationTime = *input.EstimationTime
	}
	if input.ProjectID != nil && *input.ProjectID != task.ProjectID {
		if err := s.ensureMember(*input.ProjectID, task.UserID); err != nil {
			return nil, err
		}
		task.ProjectID = *input.ProjectID
	}

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return task, nil
}

// Place sets or clears a task's date. A nil date returns the task to the pool.
func (s *TaskService) Place(taskID uint64, date *models.Date) (*models.Task, error) {
	if taskID == 0 {
		return nil, ErrTaskIDRequired
	}
	task, err := s.GetTask(taskID)
	if err != nil {
		return nil, err
	}

	input := UpdateTaskInput{TaskDate: date, ClearTaskDate: date == nil || date.IsZero()}
	return s.UpdateTask(task, input)
}

// DeleteTask deletes a task and its logs
func (s *TaskService) DeleteTask(taskID uint64) error {
	if err := s.taskRepo.Delete(taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

func (s *TaskService) ensureMember(projectID, userID uint64) error {
	if _, err := s.projectRepo.FindByID(projectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("failed to fetch project: %w", err)
	}

	if _, err := s.projectRepo.FindMember(projectID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOwnerNotMember
		}
		return fmt.Errorf("failed to check membership: %w", err)
	}
	return nil
}

func validEstimation(v float64) bool {
	return v >= 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
