package repository

import (
	"context"

	"github.com/yukikurage/teamtask/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTagRepository is a GORM implementation of TagRepository
type GormTagRepository struct {
	db *gorm.DB
}

// NewTagRepository creates a new TagRepository
func NewTagRepository(db *gorm.DB) TagRepository {
	return &GormTagRepository{db: db}
}

// Ensure inserts the tag when missing, then reads it back by name
func (r *GormTagRepository) Ensure(ctx context.Context, name string) (*models.Tag, error) {
	db := r.db.WithContext(ctx)

	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&models.Tag{Name: name}).Error; err != nil {
		return nil, err
	}

	var tag models.Tag
	if err := db.Where("name = ?", name).First(&tag).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

// LinkTask creates the (task, tag) link if it does not exist yet
func (r *GormTagRepository) LinkTask(ctx context.Context, taskID, tagID uint64) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "task_id"}, {Name: "tag_id"}},
			DoNothing: true,
		}).
		Create(&models.TaskTag{TaskID: taskID, TagID: tagID}).Error
}
