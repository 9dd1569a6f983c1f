package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/yukikurage/standup-board/internal/dto"
)

// ListProjects lists every project
func (c *Client) ListProjects(ctx context.Context) ([]dto.ProjectDTO, error) {
	var projects []dto.ProjectDTO
	if err := c.get(ctx, "/projects", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// ListUsers lists the members of a project
func (c *Client) ListUsers(ctx context.Context, projectID uint64) ([]dto.UserDTO, error) {
	var users []dto.UserDTO
	if err := c.get(ctx, fmt.Sprintf("/project/%d/users", projectID), nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ListTasks fetches one catalog page
func (c *Client) ListTasks(ctx context.Context, projectID uint64, q dto.TaskQuery) (*dto.TaskPageDTO, error) {
	query := url.Values{}
	if q.Page > 0 {
		query.Set("page", strconv.Itoa(q.Page))
	}
	if q.Search != "" {
		query.Set("search", q.Search)
	}
	if q.UserID != 0 {
		query.Set("user_id", strconv.FormatUint(q.UserID, 10))
	}

	var page dto.TaskPageDTO
	if err := c.get(ctx, fmt.Sprintf("/project/%d/tasks", projectID), query, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListProjectLogs lists a project's logs of today or yesterday
func (c *Client) ListProjectLogs(ctx context.Context, projectID uint64, day dto.LogDay) ([]dto.TimeLogDTO, error) {
	query := url.Values{"date": []string{string(day)}}
	var logs []dto.TimeLogDTO
	if err := c.get(ctx, fmt.Sprintf("/project/%d/logs", projectID), query, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// ListBlockers lists the blocked tasks of a project
func (c *Client) ListBlockers(ctx context.Context, projectID uint64) ([]dto.TaskDTO, error) {
	var tasks []dto.TaskDTO
	if err := c.get(ctx, fmt.Sprintf("/project/%d/blockers", projectID), nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListTaskLogs lists every log entry of a task
func (c *Client) ListTaskLogs(ctx context.Context, taskID uint64) ([]dto.TimeLogDTO, error) {
	var logs []dto.TimeLogDTO
	if err := c.get(ctx, fmt.Sprintf("/task/%d/logs", taskID), nil, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// TotalTime returns the collaborator's total for a task
func (c *Client) TotalTime(ctx context.Context, taskID uint64) (float64, error) {
	var resp dto.TotalTimeResponse
	if err := c.get(ctx, fmt.Sprintf("/task/%d/total_time", taskID), nil, &resp); err != nil {
		return 0, err
	}
	return resp.TotalTime, nil
}

// CreateTask creates a task
func (c *Client) CreateTask(ctx context.Context, req dto.CreateTaskRequest) (*dto.TaskDTO, error) {
	var task dto.TaskDTO
	if err := c.post(ctx, "/task/create", req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask sends a partial update and returns the collaborator's task
func (c *Client) UpdateTask(ctx context.Context, taskID uint64, req dto.UpdateTaskRequest) (*dto.TaskDTO, error) {
	var resp dto.TaskResponse
	if err := c.post(ctx, fmt.Sprintf("/task/%d/update", taskID), req, &resp); err != nil {
		return nil, err
	}
	return &resp.Task, nil
}

// DeleteTask deletes a task
func (c *Client) DeleteTask(ctx context.Context, taskID uint64) error {
	return c.post(ctx, fmt.Sprintf("/task/%d/delete", taskID), nil, nil)
}

// CreateLog creates a log entry
func (c *Client) CreateLog(ctx context.Context, req dto.CreateLogRequest) (*dto.TimeLogDTO, error) {
	var entry dto.TimeLogDTO
	if err := c.post(ctx, "/log/create", req, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// UpdateLog updates a log entry
func (c *Client) UpdateLog(ctx context.Context, logID uint64, req dto.UpdateLogRequest) (*dto.UpdateLogResponse, error) {
	var resp dto.UpdateLogResponse
	if err := c.post(ctx, fmt.Sprintf("/log/%d/update", logID), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteLog deletes a log entry
func (c *Client) DeleteLog(ctx context.Context, logID uint64) error {
	return c.post(ctx, fmt.Sprintf("/log/%d/delete", logID), nil, nil)
}

// UpdatePlacement sets the date of a task
func (c *Client) UpdatePlacement(ctx context.Context, req dto.PlacementRequest) (*dto.PlacementAck, error) {
	var ack dto.PlacementAck
	if err := c.post(ctx, "/placement/update", req, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}
