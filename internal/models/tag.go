package models

import "time"

type Tag struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	Name      string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type TaskTag struct {
	TaskID    uint64    `gorm:"primarykey" json:"task_id"`
	TagID     uint64    `gorm:"primarykey" json:"tag_id"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Tag Tag `gorm:"foreignKey:TagID" json:"tag"`
}
