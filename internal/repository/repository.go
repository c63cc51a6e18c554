package repository

import (
	"context"
	"time"

	"github.com/yukikurage/teamtask/internal/models"
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// CreateWithAssignments inserts the task row and its assignments atomically
	// (create_task_with_assignments) and returns the new task id.
	CreateWithAssignments(ctx context.Context, task *models.Task, assigneeIDs []string, assignedBy string) (uint64, error)

	// FindByID finds a task by ID with optional preloading
	FindByID(ctx context.Context, id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks with filtering and pagination
	List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error)

	// UpdateFields updates the given columns of a single task
	UpdateFields(ctx context.Context, id uint64, fields map[string]interface{}) error

	// AddLoggedTime adds seconds to the task's logged time
	AddLoggedTime(ctx context.Context, id uint64, seconds int64) error

	// AssignUsers assigns multiple users to a task
	AssignUsers(ctx context.Context, taskID uint64, userIDs []string, assignedBy string) error

	// UnassignUser removes one user assignment from a task
	UnassignUser(ctx context.Context, taskID uint64, userID string) error

	// ListAssigneeIDs returns the user ids currently assigned to a task
	ListAssigneeIDs(ctx context.Context, taskID uint64) ([]string, error)

	// AssigneesInfo returns id and name of every assignee of the given tasks
	// (get_task_assignees_info)
	AssigneesInfo(ctx context.Context, taskIDs []uint64) ([]AssigneeInfo, error)
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	// ProjectIDs and MemberUserID together form the visibility scope: a task
	// matches when it belongs to one of the projects, or the member created
	// it or is assigned to it. Both empty means nothing is visible.
	ProjectIDs   []uint64
	MemberUserID string

	Status          *models.TaskStatus
	AssignedUserID  *string
	ParentTaskID    *uint64
	IncludeArchived bool
	WithDeadline    bool
	CreatedFrom     *time.Time
	CreatedTo       *time.Time
	SortByDeadline  bool
	Page            int
	PageSize        int
}

// AssigneeInfo is one row of get_task_assignees_info.
type AssigneeInfo struct {
	TaskID    uint64 `json:"task_id"`
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// DepartmentRepository defines the interface for department and project-link lookups
type DepartmentRepository interface {
	// FindUserDepartmentID returns the user's department id, or nil when the
	// user has none or does not exist
	FindUserDepartmentID(ctx context.Context, userID string) (*uint64, error)

	// Hierarchy returns the department itself plus all descendants
	// (get_department_hierarchy)
	Hierarchy(ctx context.Context, departmentID uint64) ([]uint64, error)

	// FindByIDs resolves department ids to rows ordered by id
	FindByIDs(ctx context.Context, ids []uint64) ([]models.Department, error)

	// ProjectIDsForDepartments returns distinct project ids linked to any of the departments
	ProjectIDsForDepartments(ctx context.Context, departmentIDs []uint64) ([]uint64, error)

	// DepartmentIDsForProjects returns distinct department ids linked to any of the projects
	DepartmentIDsForProjects(ctx context.Context, projectIDs []uint64) ([]uint64, error)

	// Colleagues returns users whose department lies in the caller's
	// department subtree (get_department_colleagues)
	Colleagues(ctx context.Context, userID string) ([]models.UserInfo, error)
}

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	// FindByIDs resolves project ids to rows ordered by id
	FindByIDs(ctx context.Context, ids []uint64, includeArchived bool) ([]models.Project, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// FindByID finds a user by ID
	FindByID(ctx context.Context, id string) (*models.UserInfo, error)

	// FindByIDs finds all users with the given ids
	FindByIDs(ctx context.Context, ids []string) ([]models.UserInfo, error)

	// HasRole reports whether the user holds the role
	HasRole(ctx context.Context, userID string, role models.Role) (bool, error)

	// ListRoles returns every role the user holds
	ListRoles(ctx context.Context, userID string) ([]models.Role, error)
}

// TagRepository defines the interface for tag catalog and task links
type TagRepository interface {
	// Ensure inserts the tag if absent and returns the catalog row
	Ensure(ctx context.Context, name string) (*models.Tag, error)

	// LinkTask links a tag to a task; an existing link is left alone
	LinkTask(ctx context.Context, taskID, tagID uint64) error
}

// AttachmentRepository defines the interface for attachment records
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *models.TaskAttachment) error
	FindByID(ctx context.Context, id uint64) (*models.TaskAttachment, error)
	ListByTask(ctx context.Context, taskID uint64) ([]models.TaskAttachment, error)
	Delete(ctx context.Context, id uint64) error
}

// CommentRepository defines the interface for task comments
type CommentRepository interface {
	Create(ctx context.Context, comment *models.TaskComment) error
	FindByID(ctx context.Context, id uint64) (*models.TaskComment, error)
	UpdateContent(ctx context.Context, id uint64, content string) error
	Delete(ctx context.Context, id uint64) error
	ListByTask(ctx context.Context, taskID uint64) ([]models.TaskComment, error)
}

// NotificationRepository defines the interface for notification rows
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListForUser(ctx context.Context, userID string, filter NotificationFilter) ([]models.Notification, error)
	// MarkRead and Archive return gorm.ErrRecordNotFound when no row of the user matched
	MarkRead(ctx context.Context, id uint64, userID string) error
	Archive(ctx context.Context, id uint64, userID string) error
}

// NotificationFilter holds filtering options for listing notifications
type NotificationFilter struct {
	UnreadOnly      bool
	IncludeArchived bool
	Limit           int
}
