package services

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/yukikurage/standup-board/internal/dto"
	"github.com/yukikurage/standup-board/internal/models"
	"github.com/yukikurage/standup-board/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrLogNotFound     = errors.New("time log not found")
	ErrInvalidLogTime  = errors.New("log_time must be greater than zero")
	ErrInvalidLogDay   = errors.New("date must be today or yesterday")
	ErrLogTaskRequired = errors.New("todo_item is required")
)

// LogService handles time log business logic. Totals are always summed from
// the stored logs.
type LogService struct {
	logRepo  repository.TimeLogRepository
	taskRepo repository.TaskRepository
	clock    func() time.Time
}

// NewLogService creates a new LogService. A nil clock uses time.Now.
func NewLogService(logRepo repository.TimeLogRepository, taskRepo repository.TaskRepository, clock func() time.Time) *LogService {
	if clock == nil {
		clock = time.Now
	}
	return &LogService{
		logRepo:  logRepo,
		taskRepo: taskRepo,
		clock:    clock,
	}
}

// CreateLogInput represents input for logging hours on a task
type CreateLogInput struct {
	TaskID   uint64
	LogTime  float64
	Notes    string
	TaskDate *models.Date
}

// UpdateLogInput represents input for editing a log. A nil date keeps the
// existing one.
type UpdateLogInput struct {
	LogTime  float64
	Notes    string
	TaskDate *models.Date
}

// UpdateLogResult carries the totals after an edit
type UpdateLogResult struct {
	Entry          *models.TimeLog
	TotalTimeSpent float64
	TotalLogTime   float64
}

// Today is the collaborator's current date
func (s *LogService) Today() models.Date {
	return models.DateOf(s.clock())
}

// CreateLog records hours against an existing task
func (s *LogService) CreateLog(input CreateLogInput) (*models.TimeLog, error) {
	if input.TaskID == 0 {
		return nil, ErrLogTaskRequired
	}
	if !validLogTime(input.LogTime) {
		return nil, ErrInvalidLogTime
	}

	task, err := s.taskRepo.FindByID(input.TaskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to fetch task: %w", err)
	}

	date := s.Today()
	if input.TaskDate != nil && !input.TaskDate.IsZero() {
		date = *input.TaskDate
	}

	entry := &models.TimeLog{
		TaskID:   task.ID,
		LogTime:  input.LogTime,
		Notes:    input.Notes,
		TaskDate: date,
	}
	if err := s.logRepo.Create(entry); err != nil {
		return nil, fmt.Errorf("failed to create time log: %w", err)
	}
	entry.Task = *task

	return entry, nil
}

// GetLog retrieves a log by ID
func (s *LogService) GetLog(logID uint64) (*models.TimeLog, error) {
	entry, err := s.logRepo.FindByID(logID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLogNotFound
		}
		return nil, fmt.Errorf("failed to fetch time log: %w", err)
	}
	return entry, nil
}

// UpdateLog edits a log and reports the task's overall total and its total
// for the entry's date
func (s *LogService) UpdateLog(entry *models.TimeLog, input UpdateLogInput) (*UpdateLogResult, error) {
	if !validLogTime(input.LogTime) {
		return nil, ErrInvalidLogTime
	}

	entry.LogTime = input.LogTime
	entry.Notes = input.Notes
	if input.TaskDate != nil && !input.TaskDate.IsZero() {
		entry.TaskDate = *input.TaskDate
	}

	if err := s.logRepo.Update(entry); err != nil {
		return nil, fmt.Errorf("failed to update time log: %w", err)
	}

	spent, err := s.logRepo.SumByTask(entry.TaskID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to total time logs: %w", err)
	}
	day := entry.TaskDate
	onDay, err := s.logRepo.SumByTask(entry.TaskID, &day)
	if err != nil {
		return nil, fmt.Errorf("failed to total time logs: %w", err)
	}

	return &UpdateLogResult{Entry: entry, TotalTimeSpent: spent, TotalLogTime: onDay}, nil
}

// DeleteLog removes a log
func (s *LogService) DeleteLog(logID uint64) error {
	if err := s.logRepo.Delete(logID); err != nil {
		return fmt.Errorf("failed to delete time log: %w", err)
	}
	return nil
}

// ListTaskLogs returns every log of a task
func (s *LogService) ListTaskLogs(taskID uint64) ([]models.TimeLog, error) {
	entries, err := s.logRepo.ListByTask(taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list time logs: %w", err)
	}
	return entries, nil
}

// ListProjectLogs returns a project's logs for today or yesterday, resolved
// against the collaborator's clock
func (s *LogService) ListProjectLogs(projectID uint64, day dto.LogDay) ([]models.TimeLog, error) {
	var date models.Date
	switch day {
	case dto.LogDayToday:
		date = s.Today()
	case dto.LogDayYesterday:
		date = s.Today().AddDays(-1)
	default:
		return nil, ErrInvalidLogDay
	}

	entries, err := s.logRepo.ListByProjectAndDate(projectID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list time logs: %w", err)
	}
	return entries, nil
}

// TotalTime sums every log of a task
func (s *LogService) TotalTime(taskID uint64) (float64, error) {
	total, err := s.logRepo.SumByTask(taskID, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to total time logs: %w", err)
	}
	return total, nil
}

func validLogTime(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
