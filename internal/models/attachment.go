package models

import "time"

type TaskAttachment struct {
	ID          uint64    `gorm:"primarykey" json:"id"`
	TaskID      uint64    `gorm:"not null;index" json:"task_id"`
	FilePath    string    `gorm:"type:varchar(512);not null" json:"file_path"`
	FileName    string    `gorm:"type:varchar(255);not null" json:"file_name"`
	ContentType string    `gorm:"type:varchar(255)" json:"content_type"`
	Size        int64     `json:"size"`
	UploadedBy  string    `gorm:"type:varchar(128);not null" json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
}
