package services

import (
	"errors"
	"time"

	"contentpay_backend/internal/models"
	"contentpay_backend/internal/repositories"
	"contentpay_backend/pkg/apperrors"

	"gorm.io/gorm"
)

const (
	defaultNotificationLimit = 20
	maxNotificationLimit     = 100
)

type NotificationResponse struct {
	ID        string                  `json:"id"`
	Type      models.NotificationType `json:"type"`
	Title     string                  `json:"title"`
	Message   string                  `json:"message"`
	Data      map[string]interface{}  `json:"data"`
	IsRead    bool                    `json:"is_read"`
	ReadAt    *time.Time              `json:"read_at,omitempty"`
	CreatedAt time.Time               `json:"created_at"`
}

type NotificationListResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	Unread        int64                  `json:"unread"`
}

// NotificationService reads the in-app notifications written by the payment
// event listeners.
type NotificationService interface {
	GetUserNotifications(db *gorm.DB, userID string, limit int) (*NotificationListResponse, error)
	MarkAsRead(db *gorm.DB, userID, notificationID string) error
	MarkAllAsRead(db *gorm.DB, userID string) (int64, error)
}

type notificationService struct {
	notificationRepo repositories.NotificationRepository
	now              func() time.Time
}

func NewNotificationService(notificationRepo repositories.NotificationRepository) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

func (s *notificationService) GetUserNotifications(db *gorm.DB, userID string, limit int) (*NotificationListResponse, error) {
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	if limit > maxNotificationLimit {
		limit = maxNotificationLimit
	}

	notifications, err := s.notificationRepo.FindByUser(db, userID, limit)
	if err != nil {
		return nil, apperrors.ProcessingError(err)
	}
	unread, err := s.notificationRepo.CountUnread(db, userID)
	if err != nil {
		return nil, apperrors.ProcessingError(err)
	}

	resp := &NotificationListResponse{
		Notifications: make([]NotificationResponse, 0, len(notifications)),
		Unread:        unread,
	}
	for i := range notifications {
		n := &notifications[i]
		data, err := s.notificationRepo.DecodeData(n)
		if err != nil {
			return nil, apperrors.ProcessingError(err)
		}
		resp.Notifications = append(resp.Notifications, NotificationResponse{
			ID:        n.ID,
			Type:      n.Type,
			Title:     n.Title,
			Message:   n.Message,
			Data:      data,
			IsRead:    n.IsRead,
			ReadAt:    n.ReadAt,
			CreatedAt: n.CreatedAt,
		})
	}
	return resp, nil
}

func (s *notificationService) MarkAsRead(db *gorm.DB, userID, notificationID string) error {
	err := s.notificationRepo.MarkAsRead(db, userID, notificationID, s.now())
	if errors.Is(err, repositories.ErrNotificationNotFound) {
		return apperrors.ErrNotFound(err, "notification", "Notification not found")
	}
	if err != nil {
		return apperrors.ProcessingError(err)
	}
	return nil
}

func (s *notificationService) MarkAllAsRead(db *gorm.DB, userID string) (int64, error) {
	count, err := s.notificationRepo.MarkAllAsRead(db, userID, s.now())
	if err != nil {
		return 0, apperrors.ProcessingError(err)
	}
	return count, nil
}
