package models

import "time"

type Notification struct {
	ID         uint64    `gorm:"primarykey" json:"id"`
	UserID     string    `gorm:"type:varchar(128);not null;index" json:"user_id"`
	TaskID     *uint64   `gorm:"index" json:"task_id"`
	Title      string    `gorm:"type:varchar(255);not null" json:"title"`
	Message    string    `gorm:"type:text" json:"message"`
	Type       string    `gorm:"type:varchar(50);not null" json:"type"`
	IsRead     bool      `gorm:"not null;default:false" json:"is_read"`
	IsArchived bool      `gorm:"not null;default:false" json:"is_archived"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
