package models

import "time"

type Department struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	Name      string    `gorm:"type:varchar(200);not null" json:"name"`
	ParentID  *uint64   `gorm:"index" json:"parent_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Parent *Department `gorm:"foreignKey:ParentID" json:"-"`
}

type Project struct {
	ID          uint64    `gorm:"primarykey" json:"id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	IsArchived  bool      `gorm:"not null;default:false" json:"is_archived"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Departments []ProjectDepartment `gorm:"foreignKey:ProjectID" json:"-"`
}

type ProjectDepartment struct {
	ProjectID    uint64    `gorm:"primarykey" json:"project_id"`
	DepartmentID uint64    `gorm:"primarykey" json:"department_id"`
	CreatedAt    time.Time `json:"created_at"`
}
