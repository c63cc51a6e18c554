package models

import (
	"strings"
	"time"
)

type Role string

const (
	RoleStaff   Role = "staff"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

// UserInfo is the profile row keyed by the auth provider's uid.
type UserInfo struct {
	ID           string    `gorm:"primarykey;type:varchar(128)" json:"id"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	FirstName    string    `gorm:"type:varchar(100)" json:"first_name"`
	LastName     string    `gorm:"type:varchar(100)" json:"last_name"`
	DepartmentID *uint64   `gorm:"index" json:"department_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relations
	Department *Department `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`
	Roles      []UserRole  `gorm:"foreignKey:UserID" json:"roles,omitempty"`
}

func (UserInfo) TableName() string {
	return "user_info"
}

// DisplayName joins first and last name, falling back to the email.
func (u UserInfo) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

type UserRole struct {
	UserID    string    `gorm:"primarykey;type:varchar(128)" json:"user_id"`
	Role      Role      `gorm:"primarykey;type:varchar(20)" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
