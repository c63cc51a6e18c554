package models

import (
	"time"
)

type TaskAssignment struct {
	TaskID     uint64    `gorm:"primarykey" json:"task_id"`
	UserID     string    `gorm:"primarykey;type:varchar(128)" json:"user_id"`
	AssignedBy string    `gorm:"type:varchar(128)" json:"assigned_by"`
	CreatedAt  time.Time `json:"created_at"`

	// Relations
	User UserInfo `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
