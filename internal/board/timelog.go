package board

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"

	"github.com/yukikurage/standup-board/internal/dto"
	apierrors "github.com/yukikurage/standup-board/internal/errors"
	"github.com/yukikurage/standup-board/internal/models"
)

// Ledger records hours against tasks. Totals always come from the full log
// list of a task, re-read from the collaborator after every change.
type Ledger struct {
	api    API
	store  *Store
	guard  *Guard
	logger *log.Logger
}

// NewLedger creates a new Ledger
func NewLedger(api API, store *Store, guard *Guard, logger *log.Logger) *Ledger {
	if guard == nil {
		guard = NewGuard()
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Ledger{api: api, store: store, guard: guard, logger: logger}
}

func validateHours(hours float64) error {
	if math.IsNaN(hours) || math.IsInf(hours, 0) || hours <= 0 {
		return apierrors.NewValidationError("log_time", "hours must be greater than zero")
	}
	return nil
}

// AnchorDate is the date new hours for a task apply to by default.
func (s *Snapshot) AnchorDate(t dto.TaskDTO) models.Date {
	switch s.Bucket(t) {
	case BucketToday:
		return s.ViewerToday
	case BucketYesterday:
		return s.ViewerToday.AddDays(-1)
	}
	if t.TaskDate != nil && !t.TaskDate.IsZero() {
		return *t.TaskDate
	}
	return s.ViewerToday
}

// Create logs hours against a task. A nil date uses the task's anchor date.
func (l *Ledger) Create(ctx context.Context, taskID uint64, hours float64, notes string, date *models.Date) (*dto.TimeLogDTO, error) {
	if err := validateHours(hours); err != nil {
		return nil, err
	}
	snap := l.store.Snapshot()
	if !snap.Loaded() {
		return nil, apierrors.ErrNoProject
	}
	task, ok := snap.Task(taskID)
	if !ok {
		return nil, fmt.Errorf("failed to log time: %w", apierrors.ErrTaskNotFound)
	}
	day := snap.AnchorDate(task)
	if date != nil && !date.IsZero() {
		day = *date
	}

	release, err := l.guard.Acquire(taskID)
	if err != nil {
		return nil, err
	}
	defer release()

	entry, err := l.api.CreateLog(ctx, dto.CreateLogRequest{
		TodoItem: taskID,
		LogTime:  hours,
		Notes:    notes,
		TaskDate: &day,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to log time on task %d: %w", taskID, err)
	}
	if entry.TaskID == 0 {
		entry.TaskID = taskID
	}
	l.refresh(ctx, taskID, func() { l.store.UpsertLog(*entry) })
	return entry, nil
}

// Update changes an existing entry. A nil date keeps the entry's date.
func (l *Ledger) Update(ctx context.Context, logID uint64, hours float64, notes string, date *models.Date) (*dto.TimeLogDTO, error) {
	if err := validateHours(hours); err != nil {
		return nil, err
	}
	entry, err := l.lookup(ctx, logID)
	if err != nil {
		return nil, fmt.Errorf("failed to update log %d: %w", logID, err)
	}

	release, err := l.guard.Acquire(entry.TaskID)
	if err != nil {
		return nil, err
	}
	defer release()

	updated := entry
	updated.LogTime = hours
	updated.Notes = notes
	if date != nil && !date.IsZero() {
		updated.TaskDate = *date
	}
	resp, err := l.api.UpdateLog(ctx, logID, dto.UpdateLogRequest{
		LogTime:  updated.LogTime,
		Notes:    updated.Notes,
		TaskDate: &updated.TaskDate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update log %d: %w", logID, err)
	}
	if resp != nil && !resp.Success {
		return nil, fmt.Errorf("failed to update log %d: collaborator refused the change", logID)
	}
	l.refresh(ctx, entry.TaskID, func() { l.store.UpsertLog(updated) })
	return &updated, nil
}

// Delete removes an entry and reloads its task's logs
func (l *Ledger) Delete(ctx context.Context, logID uint64) error {
	entry, err := l.lookup(ctx, logID)
	if err != nil {
		return fmt.Errorf("failed to delete log %d: %w", logID, err)
	}

	release, err := l.guard.Acquire(entry.TaskID)
	if err != nil {
		return err
	}
	defer release()

	if err := l.api.DeleteLog(ctx, logID); err != nil {
		return fmt.Errorf("failed to delete log %d: %w", logID, err)
	}
	l.refresh(ctx, entry.TaskID, func() { l.store.RemoveLog(logID) })
	return nil
}

// lookup finds a stored entry. On a miss the log lists of the board's tasks
// are re-read once, since the entry may have been logged elsewhere.
func (l *Ledger) lookup(ctx context.Context, logID uint64) (dto.TimeLogDTO, error) {
	snap := l.store.Snapshot()
	if !snap.Loaded() {
		return dto.TimeLogDTO{}, apierrors.ErrNoProject
	}
	if entry, ok := snap.Log(logID); ok {
		return entry, nil
	}
	sets, err := l.store.loadTaskLogs(ctx, snap.tasks)
	if err != nil {
		return dto.TimeLogDTO{}, err
	}
	l.store.ReplaceLogSets(sets)
	if entry, ok := l.store.Snapshot().Log(logID); ok {
		return entry, nil
	}
	return dto.TimeLogDTO{}, apierrors.ErrLogNotFound
}

// refresh swaps in the task's full log list. When the re-read fails the
// confirmed change is folded in locally instead.
func (l *Ledger) refresh(ctx context.Context, taskID uint64, fallback func()) {
	entries, err := l.api.ListTaskLogs(ctx, taskID)
	if err != nil {
		l.logger.Printf("failed to reload logs of task %d: %v", taskID, err)
		fallback()
		return
	}
	l.store.ReplaceLogs(taskID, entries)
}

// Total is the sum of the stored log list of a task.
func (l *Ledger) Total(taskID uint64) float64 {
	return l.store.Snapshot().Total(taskID)
}

// Refresh re-reads the task's logs and returns the new total.
func (l *Ledger) Refresh(ctx context.Context, taskID uint64) (float64, error) {
	entries, err := l.api.ListTaskLogs(ctx, taskID)
	if err != nil {
		return 0, fmt.Errorf("failed to reload logs of task %d: %w", taskID, err)
	}
	l.store.ReplaceLogs(taskID, entries)
	return sumHours(entries), nil
}

// ServerTotal asks the collaborator for its own total of a task.
func (l *Ledger) ServerTotal(ctx context.Context, taskID uint64) (float64, error) {
	total, err := l.api.TotalTime(ctx, taskID)
	if err != nil {
		return 0, fmt.Errorf("failed to read total time of task %d: %w", taskID, err)
	}
	return total, nil
}
