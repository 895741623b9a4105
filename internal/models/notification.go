package models

import (
	"time"

	"gorm.io/datatypes"
)

type Notification struct {
	BaseModel
	UserID  string           `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Type    NotificationType `gorm:"type:varchar(40);not null" json:"type"`
	Title   string           `gorm:"not null" json:"title"`
	Message string           `json:"message"`
	Data    datatypes.JSON   `json:"data"` // {"order_id": "...", "merchant_uid": "..."}
	IsRead  bool             `gorm:"default:false" json:"is_read"`
	ReadAt  *time.Time       `json:"read_at,omitempty"`
}
