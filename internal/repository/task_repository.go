package repository

import (
	"context"
	"fmt"

	"github.com/yukikurage/teamtask/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// CreateWithAssignments creates the task and its assignments in one transaction
func (r *GormTaskRepository) CreateWithAssignments(ctx context.Context, task *models.Task, assigneeIDs []string, assignedBy string) (uint64, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(task).Error; err != nil {
			return fmt.Errorf("create task: %w", err)
		}

		if len(assigneeIDs) == 0 {
			return nil
		}

		assignments := make([]models.TaskAssignment, len(assigneeIDs))
		for i, userID := range assigneeIDs {
			assignments[i] = models.TaskAssignment{
				TaskID:     task.ID,
				UserID:     userID,
				AssignedBy: assignedBy,
			}
		}
		if err := tx.Create(&assignments).Error; err != nil {
			return fmt.Errorf("create assignments: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return task.ID, nil
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(ctx context.Context, id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db.WithContext(ctx)

	// Apply preloading if specified
	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// List retrieves tasks with filtering and pagination
func (r *GormTaskRepository) List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error) {
	var tasks []models.Task

	if len(filter.ProjectIDs) == 0 && filter.MemberUserID == "" {
		return []models.Task{}, 0, nil
	}

	query := r.db.WithContext(ctx).Model(&models.Task{}).Where(r.visibilityScope(filter))

	// Apply filters
	if !filter.IncludeArchived {
		query = query.Where("tasks.is_archived = ?", false)
	}
	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	}
	if filter.AssignedUserID != nil {
		query = query.Where("EXISTS (?)", r.assignmentExists(*filter.AssignedUserID))
	}
	if filter.ParentTaskID != nil {
		query = query.Where("tasks.parent_task_id = ?", *filter.ParentTaskID)
	}
	if filter.WithDeadline {
		query = query.Where("tasks.deadline IS NOT NULL")
	}
	if filter.CreatedFrom != nil {
		query = query.Where("tasks.created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("tasks.created_at < ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query
	if filter.SortByDeadline {
		listQuery = listQuery.Order("CASE WHEN tasks.deadline IS NULL THEN 1 ELSE 0 END, tasks.deadline ASC")
	} else {
		listQuery = listQuery.Order("tasks.created_at DESC").Order("tasks.id DESC")
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		listQuery = listQuery.Offset(offset).Limit(filter.PageSize)
	}

	if err := listQuery.
		Preload("Project").
		Preload("Assignments").
		Preload("TaskTags.Tag").
		Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// visibilityScope builds "project in visible set OR created by member OR assigned to member".
func (r *GormTaskRepository) visibilityScope(filter TaskFilter) *gorm.DB {
	scope := r.db.Session(&gorm.Session{NewDB: true})
	matched := false

	if len(filter.ProjectIDs) > 0 {
		scope = scope.Where("tasks.project_id IN ?", filter.ProjectIDs)
		matched = true
	}
	if filter.MemberUserID != "" {
		if matched {
			scope = scope.Or("tasks.creator_id = ?", filter.MemberUserID)
		} else {
			scope = scope.Where("tasks.creator_id = ?", filter.MemberUserID)
		}
		scope = scope.Or("EXISTS (?)", r.assignmentExists(filter.MemberUserID))
	}
	return scope
}

func (r *GormTaskRepository) assignmentExists(userID string) *gorm.DB {
	return r.db.Session(&gorm.Session{NewDB: true}).
		Model(&models.TaskAssignment{}).
		Select("1").
		Where("task_assignments.task_id = tasks.id").
		Where("task_assignments.user_id = ?", userID)
}

// UpdateFields updates the given columns of a task
func (r *GormTaskRepository) UpdateFields(ctx context.Context, id uint64, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.Task{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AddLoggedTime increments logged_time in place
func (r *GormTaskRepository) AddLoggedTime(ctx context.Context, id uint64, seconds int64) error {
	result := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ?", id).
		Update("logged_time", gorm.Expr("logged_time + ?", seconds))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AssignUsers assigns multiple users to a task
func (r *GormTaskRepository) AssignUsers(ctx context.Context, taskID uint64, userIDs []string, assignedBy string) error {
	assignments := make([]models.TaskAssignment, len(userIDs))

	for i, userID := range userIDs {
		assignments[i] = models.TaskAssignment{
			TaskID:     taskID,
			UserID:     userID,
			AssignedBy: assignedBy,
		}
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "task_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&assignments).Error
}

// UnassignUser removes a user assignment from a task
func (r *GormTaskRepository) UnassignUser(ctx context.Context, taskID uint64, userID string) error {
	result := r.db.WithContext(ctx).
		Where("task_id = ? AND user_id = ?", taskID, userID).
		Delete(&models.TaskAssignment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListAssigneeIDs returns the assigned user ids of a task
func (r *GormTaskRepository) ListAssigneeIDs(ctx context.Context, taskID uint64) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&models.TaskAssignment{}).
		Where("task_id = ?", taskID).
		Order("created_at, user_id").
		Pluck("user_id", &ids).Error
	return ids, err
}

// AssigneesInfo joins assignments with user_info for the given tasks
func (r *GormTaskRepository) AssigneesInfo(ctx context.Context, taskIDs []uint64) ([]AssigneeInfo, error) {
	if len(taskIDs) == 0 {
		return []AssigneeInfo{}, nil
	}

	var rows []AssigneeInfo
	err := r.db.WithContext(ctx).
		Table("task_assignments").
		Select("task_assignments.task_id, user_info.id, user_info.first_name, user_info.last_name").
		Joins("JOIN user_info ON user_info.id = task_assignments.user_id").
		Where("task_assignments.task_id IN ?", taskIDs).
		Order("task_assignments.task_id, user_info.id").
		Scan(&rows).Error
	return rows, err
}
