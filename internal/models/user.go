package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID        uint64         `gorm:"primarykey" json:"id"`
	Username  string         `gorm:"type:varchar(150);uniqueIndex;not null" json:"username"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Tasks    []Task          `gorm:"foreignKey:UserID" json:"-"`
	Projects []ProjectMember `gorm:"foreignKey:UserID" json:"-"`
}
