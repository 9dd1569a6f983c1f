package models

import (
	"time"

	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "inprogress"
	TaskStatusDone       TaskStatus = "done"
	TaskStatusBlocker    TaskStatus = "blocker"
)

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone, TaskStatusBlocker:
		return true
	}
	return false
}

type Task struct {
	ID             uint64         `gorm:"primarykey" json:"id"`
	Title          string         `gorm:"type:varchar(255);not null" json:"title"`
	Description    string         `gorm:"type:text" json:"description"`
	Status         TaskStatus     `gorm:"type:varchar(20);not null;default:'todo'" json:"status"`
	EstimationTime float64        `gorm:"not null;default:0" json:"estimation_time"`
	TaskDate       *Date          `json:"task_date"`
	UserID         uint64         `gorm:"not null" json:"user_id"`
	ProjectID      uint64         `gorm:"not null" json:"project_id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	User    User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Project Project   `gorm:"foreignKey:ProjectID" json:"-"`
	Logs    []TimeLog `gorm:"foreignKey:TaskID" json:"-"`
}
