package repository

import (
	"context"

	"github.com/yukikurage/teamtask/internal/models"
	"gorm.io/gorm"
)

// GormNotificationRepository writes through the service-role handle.
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new NotificationRepository.
// db must be the service-role handle; recipients differ from the caller.
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &GormNotificationRepository{db: db}
}

func (r *GormNotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *GormNotificationRepository) ListForUser(ctx context.Context, userID string, filter NotificationFilter) ([]models.Notification, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if filter.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}
	if !filter.IncludeArchived {
		query = query.Where("is_archived = ?", false)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var notifications []models.Notification
	err := query.Order("created_at DESC, id DESC").Find(&notifications).Error
	return notifications, err
}

func (r *GormNotificationRepository) MarkRead(ctx context.Context, id uint64, userID string) error {
	return r.updateOwned(ctx, id, userID, "is_read")
}

func (r *GormNotificationRepository) Archive(ctx context.Context, id uint64, userID string) error {
	return r.updateOwned(ctx, id, userID, "is_archived")
}

func (r *GormNotificationRepository) updateOwned(ctx context.Context, id uint64, userID, column string) error {
	result := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update(column, true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
