package dto

import (
	"encoding/json"
	"fmt"

	"github.com/yukikurage/standup-board/internal/models"
)

// UserDTO represents a project member in API responses
type UserDTO struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
}

// ProjectDTO represents a project in API responses
type ProjectDTO struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// CreateUserRequest is the body of POST /user/create
type CreateUserRequest struct {
	Username string `json:"username"`
}

// CreateProjectRequest is the body of POST /project/create
type CreateProjectRequest struct {
	Name    string   `json:"name"`
	Members []uint64 `json:"members"`
}

// AddMemberRequest is the body of POST /project/{id}/members
type AddMemberRequest struct {
	UserID uint64 `json:"user_id"`
}

// TaskDTO is the task shape shared by every endpoint
type TaskDTO struct {
	ID             uint64            `json:"id"`
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	Status         models.TaskStatus `json:"status"`
	EstimationTime float64           `json:"estimation_time"`
	TaskDate       *models.Date      `json:"task_date"`
	UserID         uint64            `json:"user_id"`
	ProjectID      uint64            `json:"project_id"`
}

// TaskPageDTO is one page of the task catalog
type TaskPageDTO struct {
	Tasks       []TaskDTO `json:"tasks"`
	CurrentPage int       `json:"current_page"`
	TotalPages  int       `json:"total_pages"`
	HasPrevious bool      `json:"has_previous"`
	HasNext     bool      `json:"has_next"`
}

// TaskQuery holds the catalog query parameters
type TaskQuery struct {
	Page   int
	Search string
	UserID uint64
}

// CreateTaskRequest is the body of POST /task/create
type CreateTaskRequest struct {
	Title          string   `json:"title"`
	User           uint64   `json:"user"`
	Project        uint64   `json:"project"`
	EstimationTime *float64 `json:"estimation_time,omitempty"`
}

// UpdateTaskRequest is the body of POST /task/{id}/update. Only set fields
// are sent; ClearTaskDate sends an explicit null for task_date.
type UpdateTaskRequest struct {
	Title          *string
	Description    *string
	Status         *models.TaskStatus
	TaskDate       *models.Date
	ClearTaskDate  bool
	EstimationTime *float64
	TimeSpentHours *float64
	Project        *uint64
}

// Empty reports whether the request changes nothing
func (r UpdateTaskRequest) Empty() bool {
	return r.Title == nil && r.Description == nil && r.Status == nil && r.TaskDate == nil &&
		!r.ClearTaskDate && r.EstimationTime == nil && r.TimeSpentHours == nil && r.Project == nil
}

func (r UpdateTaskRequest) MarshalJSON() ([]byte, error) {
	body := make(map[string]interface{})
	if r.Title != nil {
		body["title"] = *r.Title
	}
	if r.Description != nil {
		body["description"] = *r.Description
	}
	if r.Status != nil {
		body["status"] = *r.Status
	}
	if r.ClearTaskDate {
		body["task_date"] = nil
	} else if r.TaskDate != nil {
		body["task_date"] = *r.TaskDate
	}
	if r.EstimationTime != nil {
		body["estimation_time"] = *r.EstimationTime
	}
	if r.TimeSpentHours != nil {
		body["time_spent_hours"] = *r.TimeSpentHours
	}
	if r.Project != nil {
		body["project"] = *r.Project
	}
	return json.Marshal(body)
}

func (r *UpdateTaskRequest) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = UpdateTaskRequest{}

	fields := []struct {
		key string
		dst interface{}
	}{
		{"title", &r.Title},
		{"description", &r.Description},
		{"status", &r.Status},
		{"estimation_time", &r.EstimationTime},
		{"time_spent_hours", &r.TimeSpentHours},
		{"project", &r.Project},
	}
	for _, f := range fields {
		value, ok := raw[f.key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(value, f.dst); err != nil {
			return fmt.Errorf("invalid %s: %w", f.key, err)
		}
	}

	if value, ok := raw["task_date"]; ok {
		if string(value) == "null" {
			r.ClearTaskDate = true
		} else {
			var d models.Date
			if err := json.Unmarshal(value, &d); err != nil {
				return fmt.Errorf("invalid task_date: %w", err)
			}
			if d.IsZero() {
				r.ClearTaskDate = true
			} else {
				r.TaskDate = &d
			}
		}
	}
	return nil
}

// TaskResponse is returned by POST /task/{id}/update
type TaskResponse struct {
	Success bool    `json:"success"`
	Task    TaskDTO `json:"task"`
}

// SuccessResponse is the bare acknowledgement body
type SuccessResponse struct {
	Success bool `json:"success"`
}

// TotalTimeResponse is returned by GET /task/{id}/total_time
type TotalTimeResponse struct {
	TotalTime float64 `json:"total_time"`
}

// PlacementRequest is the body of POST /placement/update. A nil Date moves
// the task back to the pool.
type PlacementRequest struct {
	TaskID uint64       `json:"task_id"`
	Date   *models.Date `json:"date"`
}

// PlacementAck acknowledges a placement. Task carries the canonical task
// when the collaborator includes it.
type PlacementAck struct {
	Success bool     `json:"success"`
	Task    *TaskDTO `json:"task,omitempty"`
}

// Conversion functions

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:       user.ID,
		Username: user.Username,
	}
}

// ToProjectDTO converts a Project model to ProjectDTO
func ToProjectDTO(project models.Project) ProjectDTO {
	return ProjectDTO{
		ID:   project.ID,
		Name: project.Name,
	}
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:             task.ID,
		Title:          task.Title,
		Description:    task.Description,
		Status:         task.Status,
		EstimationTime: task.EstimationTime,
		UserID:         task.UserID,
		ProjectID:      task.ProjectID,
	}
	if task.TaskDate != nil && !task.TaskDate.IsZero() {
		d := *task.TaskDate
		dto.TaskDate = &d
	}
	return dto
}

// ToTaskDTOs converts a slice of tasks
func ToTaskDTOs(tasks []models.Task) []TaskDTO {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}
	return items
}

// ToTaskPageDTO builds a catalog page. Pages past the end come back empty
// with HasNext false.
func ToTaskPageDTO(tasks []models.Task, page, pageSize int, totalCount int64) TaskPageDTO {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int(totalCount) / pageSize
		if int(totalCount)%pageSize > 0 {
			totalPages++
		}
	}

	return TaskPageDTO{
		Tasks:       ToTaskDTOs(tasks),
		CurrentPage: page,
		TotalPages:  totalPages,
		HasPrevious: page > 1,
		HasNext:     page < totalPages,
	}
}
