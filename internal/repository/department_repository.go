package repository

import (
	"context"
	"errors"

	"github.com/yukikurage/teamtask/internal/models"
	"gorm.io/gorm"
)

// hierarchySQL expands a department to itself plus every descendant.
// UNION (not UNION ALL) stops the walk if a cycle ever slips into the data.
const hierarchySQL = `
WITH RECURSIVE department_tree(id) AS (
	SELECT id FROM departments WHERE id = ?
	UNION
	SELECT d.id FROM departments d
	JOIN department_tree t ON d.parent_id = t.id
)
SELECT id FROM department_tree ORDER BY id`

const colleaguesSQL = `
WITH RECURSIVE department_tree(id) AS (
	SELECT department_id FROM user_info WHERE id = ? AND department_id IS NOT NULL
	UNION
	SELECT d.id FROM departments d
	JOIN department_tree t ON d.parent_id = t.id
)
SELECT u.* FROM user_info u
WHERE u.department_id IN (SELECT id FROM department_tree) AND u.id <> ?
ORDER BY u.first_name, u.last_name, u.id`

// GormDepartmentRepository is a GORM implementation of DepartmentRepository
type GormDepartmentRepository struct {
	db *gorm.DB
}

// NewDepartmentRepository creates a new DepartmentRepository
func NewDepartmentRepository(db *gorm.DB) DepartmentRepository {
	return &GormDepartmentRepository{db: db}
}

// FindUserDepartmentID returns the department of a user or nil
func (r *GormDepartmentRepository) FindUserDepartmentID(ctx context.Context, userID string) (*uint64, error) {
	var user models.UserInfo
	err := r.db.WithContext(ctx).Select("id", "department_id").Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user.DepartmentID, nil
}

// Hierarchy returns the department plus all of its descendants
func (r *GormDepartmentRepository) Hierarchy(ctx context.Context, departmentID uint64) ([]uint64, error) {
	var rows []struct{ ID uint64 }
	if err := r.db.WithContext(ctx).Raw(hierarchySQL, departmentID).Scan(&rows).Error; err != nil {
		return nil, err
	}

	ids := make([]uint64, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	return ids, nil
}

// FindByIDs resolves department ids to rows
func (r *GormDepartmentRepository) FindByIDs(ctx context.Context, ids []uint64) ([]models.Department, error) {
	if len(ids) == 0 {
		return []models.Department{}, nil
	}

	var departments []models.Department
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&departments).Error
	return departments, err
}

// ProjectIDsForDepartments returns distinct linked project ids
func (r *GormDepartmentRepository) ProjectIDsForDepartments(ctx context.Context, departmentIDs []uint64) ([]uint64, error) {
	if len(departmentIDs) == 0 {
		return []uint64{}, nil
	}

	var ids []uint64
	err := r.db.WithContext(ctx).Model(&models.ProjectDepartment{}).
		Distinct("project_id").
		Where("department_id IN ?", departmentIDs).
		Order("project_id").
		Pluck("project_id", &ids).Error
	return ids, err
}

// DepartmentIDsForProjects returns distinct linked department ids
func (r *GormDepartmentRepository) DepartmentIDsForProjects(ctx context.Context, projectIDs []uint64) ([]uint64, error) {
	if len(projectIDs) == 0 {
		return []uint64{}, nil
	}

	var ids []uint64
	err := r.db.WithContext(ctx).Model(&models.ProjectDepartment{}).
		Distinct("department_id").
		Where("project_id IN ?", projectIDs).
		Order("department_id").
		Pluck("department_id", &ids).Error
	return ids, err
}

// Colleagues returns users in the caller's department subtree, excluding the caller
func (r *GormDepartmentRepository) Colleagues(ctx context.Context, userID string) ([]models.UserInfo, error) {
	var users []models.UserInfo
	if err := r.db.WithContext(ctx).Raw(colleaguesSQL, userID, userID).Scan(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
