package board

import (
	"fmt"
	"strings"

	"github.com/yukikurage/standup-board/internal/models"
)

// Bucket is the logical column a task belongs to. It is derived from the
// task's status and date, never stored.
type Bucket int

const (
	BucketPool Bucket = iota
	BucketToday
	BucketYesterday
	BucketBlocker
	BucketStatusTodo
	BucketStatusInProgress
	BucketStatusDone

	// BucketCancel is a placement target only: it clears the placement.
	BucketCancel
)

// BucketAll is the "all tasks" list; placing there unschedules the task.
const BucketAll = BucketPool

var bucketNames = map[Bucket]string{
	BucketPool:             "POOL",
	BucketToday:            "TODAY",
	BucketYesterday:        "YESTERDAY",
	BucketBlocker:          "BLOCKER",
	BucketStatusTodo:       "STATUS_TODO",
	BucketStatusInProgress: "STATUS_INPROGRESS",
	BucketStatusDone:       "STATUS_DONE",
	BucketCancel:           "CANCEL",
}

func (b Bucket) String() string {
	if name, ok := bucketNames[b]; ok {
		return name
	}
	return fmt.Sprintf("Bucket(%d)", int(b))
}

// ParseBucket accepts bucket names case-insensitively plus the aliases
// ALL, REMOVE and bare status names.
func ParseBucket(s string) (Bucket, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	switch name {
	case "ALL", "BACKLOG":
		return BucketPool, nil
	case "REMOVE":
		return BucketCancel, nil
	case "TODO":
		return BucketStatusTodo, nil
	case "INPROGRESS", "IN_PROGRESS":
		return BucketStatusInProgress, nil
	case "DONE":
		return BucketStatusDone, nil
	}
	for b, n := range bucketNames {
		if n == name {
			return b, nil
		}
	}
	return 0, fmt.Errorf("unknown bucket %q", s)
}

// IsDay reports whether the bucket is a per-user dated row.
func (b Bucket) IsDay() bool {
	return b == BucketToday || b == BucketYesterday
}

// Status returns the status a placement into b sets, if any.
func (b Bucket) Status() (models.TaskStatus, bool) {
	switch b {
	case BucketStatusTodo:
		return models.TaskStatusTodo, true
	case BucketStatusInProgress:
		return models.TaskStatusInProgress, true
	case BucketStatusDone:
		return models.TaskStatusDone, true
	case BucketBlocker:
		return models.TaskStatusBlocker, true
	}
	return "", false
}

// Mode selects which mapping table renders the board.
type Mode int

const (
	ModeStandup Mode = iota
	ModeKanban
)

func (m Mode) String() string {
	if m == ModeKanban {
		return "kanban"
	}
	return "standup"
}

// ParseMode parses a board mode name
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "standup", "daily":
		return ModeStandup, nil
	case "kanban":
		return ModeKanban, nil
	}
	return ModeStandup, fmt.Errorf("unknown board mode %q", s)
}

var kanbanBuckets = map[models.TaskStatus]Bucket{
	models.TaskStatusTodo:       BucketStatusTodo,
	models.TaskStatusInProgress: BucketStatusInProgress,
	models.TaskStatusDone:       BucketStatusDone,
	models.TaskStatusBlocker:    BucketBlocker,
}

// BucketOf maps task attributes to exactly one bucket. It is pure: the same
// inputs always give the same bucket.
//
// Standup mode, first match wins: blocker status, dated today, dated
// yesterday, otherwise the pool. Kanban mode maps the status alone.
func BucketOf(status models.TaskStatus, taskDate *models.Date, today models.Date, mode Mode) Bucket {
	if mode == ModeKanban {
		if b, ok := kanbanBuckets[status]; ok {
			return b
		}
		return BucketStatusTodo
	}

	if status == models.TaskStatusBlocker {
		return BucketBlocker
	}
	if taskDate == nil || taskDate.IsZero() || today.IsZero() {
		return BucketPool
	}
	switch *taskDate {
	case today:
		return BucketToday
	case today.AddDays(-1):
		return BucketYesterday
	}
	return BucketPool
}
