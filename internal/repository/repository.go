package repository

import (
	"github.com/yukikurage/standup-board/internal/models"
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// List retrieves a page of a project's tasks and the total match count
	List(filter TaskFilter) ([]models.Task, int64, error)

	// ListBlockers lists a project's tasks in blocker status
	ListBlockers(projectID uint64) ([]models.Task, error)

	// Update saves every field of a task
	Update(task *models.Task) error

	// Delete soft deletes a task and removes its time logs
	Delete(id uint64) error
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	ProjectID uint64
	Search    string
	UserID    *uint64
	Status    *models.TaskStatus
	Page      int
	PageSize  int
}

// TimeLogRepository defines the interface for time log data access
type TimeLogRepository interface {
	Create(entry *models.TimeLog) error

	// FindByID finds a log with its task loaded
	FindByID(id uint64) (*models.TimeLog, error)

	Update(entry *models.TimeLog) error

	Delete(id uint64) error

	// ListByTask lists every log of a task, oldest first
	ListByTask(taskID uint64) ([]models.TimeLog, error)

	// ListByProjectAndDate lists a project's logs for one day
	ListByProjectAndDate(projectID uint64, date models.Date) ([]models.TimeLog, error)

	// SumByTask totals a task's hours, optionally for one day only
	SumByTask(taskID uint64, date *models.Date) (float64, error)
}

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	Create(project *models.Project) error

	FindByID(id uint64) (*models.Project, error)

	List() ([]models.Project, error)

	// AddMember adds a user to a project
	AddMember(member *models.ProjectMember) error

	// FindMember finds a specific project member
	FindMember(projectID, userID uint64) (*models.ProjectMember, error)

	// ListMembers lists the members of a project with their users loaded
	ListMembers(projectID uint64) ([]models.ProjectMember, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	Create(user *models.User) error

	FindByID(id uint64) (*models.User, error)

	FindByUsername(username string) (*models.User, error)
}
