package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel is embedded by every persisted entity. IDs are assigned on the
// client so the same schema works on postgres, mysql and sqlite.
type BaseModel struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (m *BaseModel) BeforeCreate(_ *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// All returns every model managed by AutoMigrate, in dependency order.
func All() []any {
	return []any{
		&Order{},
		&PaymentRecord{},
		&Purchase{},
		&BillingKey{},
		&Subscription{},
		&Settlement{},
		&SettlementItem{},
		&Notification{},
	}
}
