package models

import (
	"time"
)

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "To Do"
	TaskStatusInProgress TaskStatus = "In Progress"
	TaskStatusCompleted  TaskStatus = "Completed"
	TaskStatusBlocked    TaskStatus = "Blocked"
)

// Valid reports whether s is one of the four known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusCompleted, TaskStatusBlocked:
		return true
	}
	return false
}

type Task struct {
	ID                 uint64     `gorm:"primarykey" json:"id"`
	Title              string     `gorm:"type:varchar(200);not null" json:"title"`
	Description        string     `gorm:"type:text" json:"description"`
	PriorityBucket     int        `gorm:"not null;default:5" json:"priority_bucket"`
	Status             TaskStatus `gorm:"type:varchar(20);not null;default:'To Do'" json:"status"`
	Deadline           *time.Time `json:"deadline"`
	Notes              string     `gorm:"type:text" json:"notes"`
	RecurrenceInterval int        `gorm:"not null;default:0" json:"recurrence_interval"`
	RecurrenceDate     *time.Time `json:"recurrence_date"`
	ParentTaskID       *uint64    `gorm:"index" json:"parent_task_id"`
	ProjectID          *uint64    `gorm:"index" json:"project_id"`
	CreatorID          string     `gorm:"type:varchar(128);not null" json:"creator_id"`
	LoggedTime         int64      `gorm:"not null;default:0" json:"logged_time"`
	IsArchived         bool       `gorm:"not null;default:false" json:"is_archived"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`

	// Relations
	Project     *Project         `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Assignments []TaskAssignment `gorm:"foreignKey:TaskID" json:"assignments,omitempty"`
	TaskTags    []TaskTag        `gorm:"foreignKey:TaskID" json:"task_tags,omitempty"`
}

// IsAssignee reports whether userID is among the preloaded assignments.
func (t Task) IsAssignee(userID string) bool {
	for _, a := range t.Assignments {
		if a.UserID == userID {
			return true
		}
	}
	return false
}

// AssigneeIDs returns the preloaded assignee ids in source order.
func (t Task) AssigneeIDs() []string {
	ids := make([]string, 0, len(t.Assignments))
	for _, a := range t.Assignments {
		ids = append(ids, a.UserID)
	}
	return ids
}

// TagNames returns the preloaded tag names in source order.
func (t Task) TagNames() []string {
	names := make([]string, 0, len(t.TaskTags))
	for _, tt := range t.TaskTags {
		if tt.Tag.Name != "" {
			names = append(names, tt.Tag.Name)
		}
	}
	return names
}
