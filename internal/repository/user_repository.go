package repository

import (
	"context"

	"github.com/yukikurage/teamtask/internal/models"
	"gorm.io/gorm"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id string) (*models.UserInfo, error) {
	var user models.UserInfo
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByIDs finds users by ID; missing ids are simply absent from the result
func (r *GormUserRepository) FindByIDs(ctx context.Context, ids []string) ([]models.UserInfo, error) {
	if len(ids) == 0 {
		return []models.UserInfo{}, nil
	}

	var users []models.UserInfo
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&users).Error
	return users, err
}

// HasRole checks role membership
func (r *GormUserRepository) HasRole(ctx context.Context, userID string, role models.Role) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UserRole{}).
		Where("user_id = ? AND role = ?", userID, role).
		Count(&count).Error
	return count > 0, err
}

// ListRoles returns the roles held by a user
func (r *GormUserRepository) ListRoles(ctx context.Context, userID string) ([]models.Role, error) {
	var roles []models.Role
	err := r.db.WithContext(ctx).Model(&models.UserRole{}).
		Where("user_id = ?", userID).
		Order("role").
		Pluck("role", &roles).Error
	return roles, err
}
