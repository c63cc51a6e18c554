package repository

import (
	"context"

	"github.com/yukikurage/teamtask/internal/models"
	"gorm.io/gorm"
)

// GormProjectRepository is a GORM implementation of ProjectRepository
type GormProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &GormProjectRepository{db: db}
}

// FindByIDs resolves project ids to rows
func (r *GormProjectRepository) FindByIDs(ctx context.Context, ids []uint64, includeArchived bool) ([]models.Project, error) {
	if len(ids) == 0 {
		return []models.Project{}, nil
	}

	query := r.db.WithContext(ctx).Where("id IN ?", ids)
	if !includeArchived {
		query = query.Where("is_archived = ?", false)
	}

	var projects []models.Project
	err := query.Order("id").Find(&projects).Error
	return projects, err
}
