package models

import "time"

// TimeLog is hours spent on a task on a given day. Logs are hard-deleted,
// together with their task.
type TimeLog struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	TaskID    uint64    `gorm:"not null" json:"task_id"`
	LogTime   float64   `gorm:"not null" json:"log_time"`
	Notes     string    `gorm:"type:text" json:"notes"`
	TaskDate  Date      `gorm:"not null" json:"task_date"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Task Task `gorm:"foreignKey:TaskID" json:"-"`
}
