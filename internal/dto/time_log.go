package dto

import "github.com/yukikurage/standup-board/internal/models"

// LogDay selects the project log listing
type LogDay string

const (
	LogDayToday     LogDay = "today"
	LogDayYesterday LogDay = "yesterday"
)

// TimeLogDTO is a time log entry in API responses
type TimeLogDTO struct {
	ID       uint64      `json:"id"`
	TaskID   uint64      `json:"task_id"`
	LogTime  float64     `json:"log_time"`
	Notes    string      `json:"notes"`
	TaskDate models.Date `json:"task_date"`
	UserID   uint64      `json:"user_id,omitempty"`
}

// CreateLogRequest is the body of POST /log/create
type CreateLogRequest struct {
	TodoItem uint64       `json:"todo_item"`
	LogTime  float64      `json:"log_time"`
	Notes    string       `json:"notes"`
	TaskDate *models.Date `json:"task_date"`
}

// UpdateLogRequest is the body of POST /log/{id}/update
type UpdateLogRequest struct {
	LogTime  float64      `json:"log_time"`
	Notes    string       `json:"notes"`
	TaskDate *models.Date `json:"task_date"`
}

// UpdateLogResponse carries the collaborator's totals after a log update
type UpdateLogResponse struct {
	Success        bool    `json:"success"`
	TotalTimeSpent float64 `json:"total_time_spent"`
	TotalLogTime   float64 `json:"total_log_time"`
}

// ToTimeLogDTO converts a TimeLog model. The owner is filled in when the
// task relation is loaded.
func ToTimeLogDTO(entry models.TimeLog) TimeLogDTO {
	return TimeLogDTO{
		ID:       entry.ID,
		TaskID:   entry.TaskID,
		LogTime:  entry.LogTime,
		Notes:    entry.Notes,
		TaskDate: entry.TaskDate,
		UserID:   entry.Task.UserID,
	}
}

// ToTimeLogDTOs converts a slice of logs
func ToTimeLogDTOs(entries []models.TimeLog) []TimeLogDTO {
	items := make([]TimeLogDTO, len(entries))
	for i, entry := range entries {
		items[i] = ToTimeLogDTO(entry)
	}
	return items
}
