package dto

import (
	"time"

	"github.com/yukikurage/teamtask/internal/models"
	"github.com/yukikurage/teamtask/internal/services"
)

// DepartmentDTO represents a department in API responses
type DepartmentDTO struct {
	ID       uint64  `json:"id"`
	Name     string  `json:"name"`
	ParentID *uint64 `json:"parent_id"`
}

// ProjectDTO represents a project in API responses
type ProjectDTO struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsArchived  bool   `json:"is_archived"`
}

// UserDTO represents a user in API responses
type UserDTO struct {
	ID           string  `json:"id"`
	Email        string  `json:"email"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	DepartmentID *uint64 `json:"department_id"`
}

// ProfileDTO is the signed-in user with their roles
type ProfileDTO struct {
	UserDTO
	Roles []models.Role `json:"roles"`
}

// CommentDTO represents a comment in API responses
type CommentDTO struct {
	ID        uint64     `json:"id"`
	TaskID    uint64     `json:"task_id"`
	Author    UserRefDTO `json:"author"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// AttachmentDTO represents an attachment with its public URL
type AttachmentDTO struct {
	ID          uint64    `json:"id"`
	TaskID      uint64    `json:"task_id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	URL         string    `json:"url"`
	UploadedBy  string    `json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// ToDepartmentDTOs converts departments
func ToDepartmentDTOs(departments []models.Department) []DepartmentDTO {
	dtos := make([]DepartmentDTO, len(departments))
	for i, d := range departments {
		dtos[i] = DepartmentDTO{ID: d.ID, Name: d.Name, ParentID: d.ParentID}
	}
	return dtos
}

// ToProjectDTO converts a project
func ToProjectDTO(project models.Project) ProjectDTO {
	return ProjectDTO{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		IsArchived:  project.IsArchived,
	}
}

// ToProjectDTOs converts projects
func ToProjectDTOs(projects []models.Project) []ProjectDTO {
	dtos := make([]ProjectDTO, len(projects))
	for i, p := range projects {
		dtos[i] = ToProjectDTO(p)
	}
	return dtos
}

// ToUserDTO converts a user profile row
func ToUserDTO(user models.UserInfo) UserDTO {
	return UserDTO{
		ID:           user.ID,
		Email:        user.Email,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		DepartmentID: user.DepartmentID,
	}
}

// ToUserDTOs converts user profile rows
func ToUserDTOs(users []models.UserInfo) []UserDTO {
	dtos := make([]UserDTO, len(users))
	for i, u := range users {
		dtos[i] = ToUserDTO(u)
	}
	return dtos
}

// ToProfileDTO converts a signed-in profile
func ToProfileDTO(profile *services.Profile) ProfileDTO {
	roles := profile.Roles
	if roles == nil {
		roles = []models.Role{}
	}
	return ProfileDTO{UserDTO: ToUserDTO(*profile.User), Roles: roles}
}

// ToCommentDTO converts a comment. The author name comes from the preloaded
// Author when present.
func ToCommentDTO(comment models.TaskComment) CommentDTO {
	names := map[string]string{}
	if comment.Author.ID != "" {
		names[comment.Author.ID] = comment.Author.DisplayName()
	}
	return CommentDTO{
		ID:        comment.ID,
		TaskID:    comment.TaskID,
		Author:    userRef(comment.AuthorID, names),
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
		UpdatedAt: comment.UpdatedAt,
	}
}

// ToCommentDTOs converts comments
func ToCommentDTOs(comments []models.TaskComment) []CommentDTO {
	dtos := make([]CommentDTO, len(comments))
	for i, c := range comments {
		dtos[i] = ToCommentDTO(c)
	}
	return dtos
}

// ToAttachmentDTO converts an attachment record; url is the store's public URL
func ToAttachmentDTO(attachment models.TaskAttachment, url string) AttachmentDTO {
	return AttachmentDTO{
		ID:          attachment.ID,
		TaskID:      attachment.TaskID,
		FileName:    attachment.FileName,
		ContentType: attachment.ContentType,
		Size:        attachment.Size,
		URL:         url,
		UploadedBy:  attachment.UploadedBy,
		CreatedAt:   attachment.CreatedAt,
	}
}
