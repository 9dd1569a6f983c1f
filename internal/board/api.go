package board

import (
	"context"

	"github.com/yukikurage/standup-board/internal/dto"
)

// API is the collaborator surface the board needs. *client.Client
// implements it.
type API interface {
	ListProjects(ctx context.Context) ([]dto.ProjectDTO, error)
	ListUsers(ctx context.Context, projectID uint64) ([]dto.UserDTO, error)
	ListTasks(ctx context.Context, projectID uint64, q dto.TaskQuery) (*dto.TaskPageDTO, error)
	ListProjectLogs(ctx context.Context, projectID uint64, day dto.LogDay) ([]dto.TimeLogDTO, error)
	ListBlockers(ctx context.Context, projectID uint64) ([]dto.TaskDTO, error)
	ListTaskLogs(ctx context.Context, taskID uint64) ([]dto.TimeLogDTO, error)
	TotalTime(ctx context.Context, taskID uint64) (float64, error)

	CreateTask(ctx context.Context, req dto.CreateTaskRequest) (*dto.TaskDTO, error)
	UpdateTask(ctx context.Context, taskID uint64, req dto.UpdateTaskRequest) (*dto.TaskDTO, error)
	DeleteTask(ctx context.Context, taskID uint64) error

	CreateLog(ctx context.Context, req dto.CreateLogRequest) (*dto.TimeLogDTO, error)
	UpdateLog(ctx context.Context, logID uint64, req dto.UpdateLogRequest) (*dto.UpdateLogResponse, error)
	DeleteLog(ctx context.Context, logID uint64) error

	UpdatePlacement(ctx context.Context, req dto.PlacementRequest) (*dto.PlacementAck, error)
}
