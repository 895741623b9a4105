package repositories

import (
	"encoding/json"
	"fmt"
	"time"

	"contentpay_backend/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type NotificationRepository interface {
	Create(db *gorm.DB, notification *models.Notification, data map[string]interface{}) error
	FindByUser(db *gorm.DB, userID string, limit int) ([]models.Notification, error)
	CountUnread(db *gorm.DB, userID string) (int64, error)
	MarkAsRead(db *gorm.DB, userID, notificationID string, at time.Time) error
	MarkAllAsRead(db *gorm.DB, userID string, at time.Time) (int64, error)
	DecodeData(notification *models.Notification) (map[string]interface{}, error)
}

type NotificationRepositoryImpl struct{}

func NewNotificationRepository() NotificationRepository {
	return &NotificationRepositoryImpl{}
}

func (r *NotificationRepositoryImpl) Create(db *gorm.DB, notification *models.Notification, data map[string]interface{}) error {
	if data != nil {
		payload, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("notificationRepo.Create: encode data: %w", err)
		}
		notification.Data = datatypes.JSON(payload)
	}
	if err := db.Create(notification).Error; err != nil {
		return fmt.Errorf("notificationRepo.Create: %w", err)
	}
	return nil
}

func (r *NotificationRepositoryImpl) FindByUser(db *gorm.DB, userID string, limit int) ([]models.Notification, error) {
	var notifications []models.Notification
	err := db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error
	if err != nil {
		return nil, fmt.Errorf("notificationRepo.FindByUser: %w", err)
	}
	return notifications, nil
}

func (r *NotificationRepositoryImpl) CountUnread(db *gorm.DB, userID string) (int64, error) {
	var count int64
	err := db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("notificationRepo.CountUnread: %w", err)
	}
	return count, nil
}

// MarkAsRead only touches notifications owned by userID.
func (r *NotificationRepositoryImpl) MarkAsRead(db *gorm.DB, userID, notificationID string, at time.Time) error {
	result := db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Updates(map[string]interface{}{"is_read": true, "read_at": at})
	if result.Error != nil {
		return fmt.Errorf("notificationRepo.MarkAsRead: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("notificationRepo.MarkAsRead: %w", ErrNotificationNotFound)
	}
	return nil
}

func (r *NotificationRepositoryImpl) MarkAllAsRead(db *gorm.DB, userID string, at time.Time) (int64, error) {
	result := db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": at})
	if result.Error != nil {
		return 0, fmt.Errorf("notificationRepo.MarkAllAsRead: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *NotificationRepositoryImpl) DecodeData(notification *models.Notification) (map[string]interface{}, error) {
	data := map[string]interface{}{}
	if len(notification.Data) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(notification.Data, &data); err != nil {
		return nil, fmt.Errorf("notificationRepo.DecodeData: %w", err)
	}
	return data, nil
}
