package dbmysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clipshare/internal/domain"

	"gorm.io/gorm"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{
		db: db,
	}
}

func (r *NotificationRepository) Create(ctx context.Context, notif *Notification) error {
	if err := r.db.WithContext(ctx).Create(notif).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *NotificationRepository) ByID(ctx context.Context, id string) (*Notification, error) {
	var notification Notification

	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&notification).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.E(domain.KindNotFound, "get notification", fmt.Errorf("notification %s", id))
		}
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}

	return &notification, nil
}

func (r *NotificationRepository) ByUserID(
	ctx context.Context,
	userID string,
	limit, offset int,
) ([]*Notification, error) {
	var notifications []*Notification

	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	if offset > 0 {
		query = query.Offset(offset)
	}

	if err := query.Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("failed to get user notifications: %w", err)
	}

	return notifications, nil
}

func (r *NotificationRepository) MarkAsRead(ctx context.Context, id, userID string) error {
	now := time.Now()

	result := r.db.WithContext(ctx).
		Model(&Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{
			"read":    true,
			"read_at": &now,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to mark notification as read: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return domain.E(domain.KindNotFound, "mark notification read", fmt.Errorf("notification %s", id))
	}

	return nil
}

func (r *NotificationRepository) MarkAllAsRead(ctx context.Context, userID string) error {
	now := time.Now()
	err := r.db.WithContext(ctx).
		Model(&Notification{}).
		Where("user_id = ? AND `read` = ?", userID, false).
		Updates(map[string]interface{}{
			"read":    true,
			"read_at": &now,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark notifications as read: %w", err)
	}
	return nil
}

// Delete only removes the row when it belongs to userID.
func (r *NotificationRepository) Delete(ctx context.Context, id, userID string) error {
	result := r.db.WithContext(ctx).Delete(&Notification{}, "id = ? AND user_id = ?", id, userID)

	if result.Error != nil {
		return fmt.Errorf("failed to delete notification: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return domain.E(domain.KindNotFound, "delete notification", fmt.Errorf("notification %s", id))
	}

	return nil
}

func (r *NotificationRepository) DeleteAll(ctx context.Context, userID string) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&Notification{}, "user_id = ?", userID)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to clear notifications: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *NotificationRepository) UnreadCount(ctx context.Context, userID string) (int64, error) {
	var count int64

	err := r.db.WithContext(ctx).
		Model(&Notification{}).
		Where("user_id = ? AND `read` = ?", userID, false).
		Count(&count).Error

	if err != nil {
		return 0, fmt.Errorf("failed to get unread count: %w", err)
	}

	return count, nil
}
